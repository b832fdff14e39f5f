package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestAveragePrice_Fold(t *testing.T) {
	defaultPrice := decimal.NewFromInt(1)

	t.Run("volume weighted from scratch", func(t *testing.T) {
		trades := []*Trade{
			{Amount: 10, Price: decimal.NewFromInt(10)},
			{Amount: 20, Price: decimal.NewFromInt(20)},
			{Amount: 30, Price: decimal.NewFromInt(30)},
			{Amount: 11, Price: decimal.NewFromInt(10)},
		}

		got := AveragePrice{StockID: "s"}.Fold(trades, defaultPrice)

		if got.SharesTraded != 71 {
			t.Errorf("expected 71 shares, got %d", got.SharesTraded)
		}
		want := decimal.NewFromInt(1510).Div(decimal.NewFromInt(71))
		if !got.Price.Equal(want) {
			t.Errorf("expected price %s, got %s", want, got.Price)
		}
		if got.Price.StringFixed(2) != "21.27" {
			t.Errorf("expected 21.27, got %s", got.Price.StringFixed(2))
		}
	})

	t.Run("no trades uses default", func(t *testing.T) {
		got := AveragePrice{StockID: "s"}.Fold(nil, defaultPrice)

		if got.SharesTraded != 0 || !got.Price.Equal(defaultPrice) {
			t.Errorf("expected default snapshot, got %+v", got)
		}
	})

	t.Run("extends existing aggregate", func(t *testing.T) {
		prior := AveragePrice{StockID: "s", SharesTraded: 10, Price: decimal.NewFromInt(10)}
		got := prior.Fold([]*Trade{{Amount: 10, Price: decimal.NewFromInt(20)}}, defaultPrice)

		if got.SharesTraded != 20 || !got.Price.Equal(decimal.NewFromInt(15)) {
			t.Errorf("expected 20 shares at 15, got %d at %s", got.SharesTraded, got.Price)
		}
	})
}

func TestAveragePrice_Archive(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	p := AveragePrice{StockID: "s", SharesTraded: 3, Price: decimal.NewFromInt(2), UpdatedAt: at}

	h := p.Archive("h1")

	if h.ID != "h1" || h.StockID != "s" || h.SharesTraded != 3 || !h.RecordedAt.Equal(at) {
		t.Errorf("unexpected archive entry: %+v", h)
	}
}
