package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// StockRepository implements usecase.StockRepository.
type StockRepository struct {
	store *Store
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(store *Store) *StockRepository {
	return &StockRepository{store: store}
}

// Create lists a stock. Tickers are unique.
func (r *StockRepository) Create(_ context.Context, tx usecase.Transaction, stock *domain.Stock) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	for _, existing := range st.stocks {
		if existing.Ticker == stock.Ticker {
			return domain.ErrDuplicateTicker
		}
	}

	st.stocks[stock.ID] = *stock
	return nil
}

// GetByID retrieves a stock by ID.
func (r *StockRepository) GetByID(_ context.Context, id string) (*domain.Stock, error) {
	var out *domain.Stock
	err := r.store.read(func(st *state) error {
		s, ok := st.stocks[id]
		if !ok {
			return domain.ErrStockNotFound
		}
		out = &s
		return nil
	})
	return out, err
}

// GetByIDForUpdate retrieves a stock inside a transaction.
func (r *StockRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Stock, error) {
	st, err := r.store.write(tx)
	if err != nil {
		return nil, err
	}

	s, ok := st.stocks[id]
	if !ok {
		return nil, domain.ErrStockNotFound
	}
	return &s, nil
}

// GetByTicker retrieves a stock by ticker.
func (r *StockRepository) GetByTicker(_ context.Context, ticker string) (*domain.Stock, error) {
	var out *domain.Stock
	err := r.store.read(func(st *state) error {
		for _, s := range st.stocks {
			if s.Ticker == ticker {
				s := s
				out = &s
				return nil
			}
		}
		return domain.ErrStockNotFound
	})
	return out, err
}

// List lists stocks ordered by ticker.
func (r *StockRepository) List(_ context.Context, limit, offset int) ([]*domain.Stock, error) {
	var out []*domain.Stock
	err := r.store.read(func(st *state) error {
		out = page(sortedStocks(st, false, byTicker), limit, offset)
		return nil
	})
	return out, err
}

// ListActive lists non-bankrupt stocks ordered by ticker.
func (r *StockRepository) ListActive(_ context.Context) ([]*domain.Stock, error) {
	var out []*domain.Stock
	err := r.store.read(func(st *state) error {
		out = sortedStocks(st, true, byTicker)
		return nil
	})
	return out, err
}

// ListActiveForUpdate lists non-bankrupt stocks ordered by ID inside a transaction.
func (r *StockRepository) ListActiveForUpdate(_ context.Context, tx usecase.Transaction) ([]*domain.Stock, error) {
	st, err := r.store.write(tx)
	if err != nil {
		return nil, err
	}
	return sortedStocks(st, true, byID), nil
}

// Update stores the mutable fields of a stock.
func (r *StockRepository) Update(_ context.Context, tx usecase.Transaction, stock *domain.Stock) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	if _, ok := st.stocks[stock.ID]; !ok {
		return domain.ErrStockNotFound
	}

	st.stocks[stock.ID] = *stock
	return nil
}

// LatestBankruptcy returns the most recent bankruptcy time, nil if none.
func (r *StockRepository) LatestBankruptcy(_ context.Context) (*time.Time, error) {
	var latest *time.Time
	err := r.store.read(func(st *state) error {
		for _, s := range st.stocks {
			if s.BankruptAt != nil && (latest == nil || s.BankruptAt.After(*latest)) {
				at := *s.BankruptAt
				latest = &at
			}
		}
		return nil
	})
	return latest, err
}

func byTicker(a, b domain.Stock) bool { return a.Ticker < b.Ticker }
func byID(a, b domain.Stock) bool     { return a.ID < b.ID }

func sortedStocks(st *state, activeOnly bool, less func(a, b domain.Stock) bool) []*domain.Stock {
	out := make([]*domain.Stock, 0, len(st.stocks))
	for _, s := range st.stocks {
		if activeOnly && s.Bankrupt {
			continue
		}
		s := s
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return less(*out[i], *out[j]) })
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
