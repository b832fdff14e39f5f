package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AveragePrice is the running volume-weighted average price of a stock.
type AveragePrice struct {
	StockID      string
	SharesTraded int64
	Price        decimal.Decimal
	UpdatedAt    time.Time
}

// HistoricalPrice is an archived AveragePrice.
type HistoricalPrice struct {
	ID           string
	StockID      string
	SharesTraded int64
	Price        decimal.Decimal
	RecordedAt   time.Time
}

// Fold returns the aggregate after adding trades to the running average.
// A zero share count always yields defaultPrice.
func (p AveragePrice) Fold(trades []*Trade, defaultPrice decimal.Decimal) AveragePrice {
	shares := p.SharesTraded
	notional := p.Price.Mul(decimal.NewFromInt(p.SharesTraded))

	for _, t := range trades {
		shares += t.Amount
		notional = notional.Add(t.Notional())
	}

	next := AveragePrice{StockID: p.StockID, SharesTraded: shares, Price: defaultPrice}
	if shares > 0 {
		next.Price = notional.Div(decimal.NewFromInt(shares))
	}

	return next
}

// Archive converts the snapshot into a history entry.
func (p AveragePrice) Archive(id string) *HistoricalPrice {
	return &HistoricalPrice{
		ID:           id,
		StockID:      p.StockID,
		SharesTraded: p.SharesTraded,
		Price:        p.Price,
		RecordedAt:   p.UpdatedAt,
	}
}
