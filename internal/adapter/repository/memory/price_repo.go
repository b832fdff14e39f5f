package memory

import (
	"context"
	"time"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// PriceRepository implements usecase.PriceRepository.
type PriceRepository struct {
	store *Store
}

// NewPriceRepository creates a new PriceRepository.
func NewPriceRepository(store *Store) *PriceRepository {
	return &PriceRepository{store: store}
}

// GetCurrent returns the running snapshot of a stock.
func (r *PriceRepository) GetCurrent(_ context.Context, stockID string) (*domain.AveragePrice, error) {
	var out *domain.AveragePrice
	err := r.store.read(func(st *state) error {
		p, ok := st.prices[stockID]
		if !ok {
			return domain.ErrPriceNotFound
		}
		out = &p
		return nil
	})
	return out, err
}

// GetCurrentForUpdate returns the running snapshot inside a transaction.
func (r *PriceRepository) GetCurrentForUpdate(_ context.Context, tx usecase.Transaction, stockID string) (*domain.AveragePrice, error) {
	st, err := r.store.write(tx)
	if err != nil {
		return nil, err
	}

	p, ok := st.prices[stockID]
	if !ok {
		return nil, domain.ErrPriceNotFound
	}
	return &p, nil
}

// Upsert overwrites the running snapshot.
func (r *PriceRepository) Upsert(_ context.Context, tx usecase.Transaction, price *domain.AveragePrice) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	st.prices[price.StockID] = *price
	return nil
}

// Archive appends a history entry.
func (r *PriceRepository) Archive(_ context.Context, tx usecase.Transaction, entry *domain.HistoricalPrice) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	st.history = append(st.history, *entry)
	return nil
}

// ListHistory lists history entries of a stock, newest first.
func (r *PriceRepository) ListHistory(_ context.Context, stockID string, limit, offset int) ([]*domain.HistoricalPrice, error) {
	var out []*domain.HistoricalPrice
	err := r.store.read(func(st *state) error {
		all := make([]*domain.HistoricalPrice, 0)
		for i := len(st.history) - 1; i >= 0; i-- {
			if h := st.history[i]; h.StockID == stockID {
				all = append(all, &h)
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// ListHistorySince lists history entries recorded strictly after since, oldest first.
func (r *PriceRepository) ListHistorySince(_ context.Context, stockID string, since *time.Time) ([]*domain.HistoricalPrice, error) {
	var out []*domain.HistoricalPrice
	err := r.store.read(func(st *state) error {
		for _, h := range st.history {
			if h.StockID != stockID {
				continue
			}
			if since != nil && !h.RecordedAt.After(*since) {
				continue
			}
			out = append(out, &h)
		}
		return nil
	})
	return out, err
}
