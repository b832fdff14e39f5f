package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is the immutable record of a settled share purchase.
// SellerID is nil when the shares came from the issuer.
type Trade struct {
	ID        string
	StockID   string
	OfferID   string
	BuyerID   string
	SellerID  *string
	Amount    int64
	Price     decimal.Decimal
	CreatedAt time.Time
}

// Validate validates trade record.
func (t *Trade) Validate() error {
	if t.StockID == "" || t.BuyerID == "" {
		return ErrMissingReference
	}
	if t.SellerID != nil && *t.SellerID == t.BuyerID {
		return ErrSelfTrade
	}
	if t.Amount <= 0 {
		return ErrInvalidAmount
	}
	if t.Price.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidPrice
	}
	return nil
}

// Notional returns amount × price.
func (t *Trade) Notional() decimal.Decimal {
	return t.Price.Mul(decimal.NewFromInt(t.Amount))
}
