package memory

import (
	"context"
	"time"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// TradeRepository implements usecase.TradeRepository.
type TradeRepository struct {
	store *Store
}

// NewTradeRepository creates a new TradeRepository.
func NewTradeRepository(store *Store) *TradeRepository {
	return &TradeRepository{store: store}
}

// Create appends a trade to the log.
func (r *TradeRepository) Create(_ context.Context, tx usecase.Transaction, trade *domain.Trade) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	st.trades = append(st.trades, *trade)
	return nil
}

// ListByStockSince lists trades of a stock created strictly after since, oldest first.
func (r *TradeRepository) ListByStockSince(_ context.Context, tx usecase.Transaction, stockID string, since *time.Time) ([]*domain.Trade, error) {
	st, err := r.store.write(tx)
	if err != nil {
		return nil, err
	}

	var out []*domain.Trade
	for _, t := range st.trades {
		if t.StockID != stockID {
			continue
		}
		if since != nil && !t.CreatedAt.After(*since) {
			continue
		}
		out = append(out, &t)
	}
	return out, nil
}

// ListByStock lists trades of a stock, newest first.
func (r *TradeRepository) ListByStock(_ context.Context, stockID string, limit, offset int) ([]*domain.Trade, error) {
	return r.newestFirst(func(t domain.Trade) bool { return t.StockID == stockID }, limit, offset)
}

// ListByAccount lists trades where the account bought or sold, newest first.
func (r *TradeRepository) ListByAccount(_ context.Context, accountID string, limit, offset int) ([]*domain.Trade, error) {
	return r.newestFirst(func(t domain.Trade) bool {
		return t.BuyerID == accountID || (t.SellerID != nil && *t.SellerID == accountID)
	}, limit, offset)
}

func (r *TradeRepository) newestFirst(match func(domain.Trade) bool, limit, offset int) ([]*domain.Trade, error) {
	var out []*domain.Trade
	err := r.store.read(func(st *state) error {
		all := make([]*domain.Trade, 0)
		for i := len(st.trades) - 1; i >= 0; i-- {
			if t := st.trades[i]; match(t) {
				all = append(all, &t)
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}
