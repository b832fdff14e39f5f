package memory

import (
	"context"
	"sort"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// OwnershipRepository implements usecase.OwnershipRepository.
type OwnershipRepository struct {
	store *Store
}

// NewOwnershipRepository creates a new OwnershipRepository.
func NewOwnershipRepository(store *Store) *OwnershipRepository {
	return &OwnershipRepository{store: store}
}

// Get returns the holding, zero if the account holds none.
func (r *OwnershipRepository) Get(_ context.Context, accountID, stockID string) (*domain.Ownership, error) {
	var out *domain.Ownership
	err := r.store.read(func(st *state) error {
		out = &domain.Ownership{AccountID: accountID, StockID: stockID, Amount: st.ownerships[ownershipKey{accountID, stockID}]}
		return nil
	})
	return out, err
}

// GetForUpdate returns the holding inside a transaction.
func (r *OwnershipRepository) GetForUpdate(_ context.Context, tx usecase.Transaction, accountID, stockID string) (*domain.Ownership, error) {
	st, err := r.store.write(tx)
	if err != nil {
		return nil, err
	}
	return &domain.Ownership{AccountID: accountID, StockID: stockID, Amount: st.ownerships[ownershipKey{accountID, stockID}]}, nil
}

// Set stores the holding; a zero amount removes it.
func (r *OwnershipRepository) Set(_ context.Context, tx usecase.Transaction, o *domain.Ownership) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	key := ownershipKey{o.AccountID, o.StockID}
	if o.Amount == 0 {
		delete(st.ownerships, key)
		return nil
	}
	st.ownerships[key] = o.Amount
	return nil
}

// ListByAccount lists the holdings of an account ordered by stock ID.
func (r *OwnershipRepository) ListByAccount(_ context.Context, accountID string) ([]*domain.Ownership, error) {
	return r.list(func(k ownershipKey) bool { return k.accountID == accountID })
}

// ListByStock lists the holdings of a stock ordered by account ID.
func (r *OwnershipRepository) ListByStock(_ context.Context, stockID string) ([]*domain.Ownership, error) {
	return r.list(func(k ownershipKey) bool { return k.stockID == stockID })
}

// TotalShares sums the holdings of a stock.
func (r *OwnershipRepository) TotalShares(_ context.Context, stockID string) (int64, error) {
	var total int64
	err := r.store.read(func(st *state) error {
		for k, v := range st.ownerships {
			if k.stockID == stockID {
				total += v
			}
		}
		return nil
	})
	return total, err
}

// DeleteByStock removes every holding of a stock.
func (r *OwnershipRepository) DeleteByStock(_ context.Context, tx usecase.Transaction, stockID string) (int64, error) {
	st, err := r.store.write(tx)
	if err != nil {
		return 0, err
	}

	var n int64
	for k := range st.ownerships {
		if k.stockID == stockID {
			delete(st.ownerships, k)
			n++
		}
	}
	return n, nil
}

func (r *OwnershipRepository) list(match func(ownershipKey) bool) ([]*domain.Ownership, error) {
	var out []*domain.Ownership
	err := r.store.read(func(st *state) error {
		for k, v := range st.ownerships {
			if match(k) {
				out = append(out, &domain.Ownership{AccountID: k.accountID, StockID: k.stockID, Amount: v})
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].StockID != out[j].StockID {
			return out[i].StockID < out[j].StockID
		}
		return out[i].AccountID < out[j].AccountID
	})
	return out, err
}
