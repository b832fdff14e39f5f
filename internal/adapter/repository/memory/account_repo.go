package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account.
func (r *AccountRepository) Create(_ context.Context, tx usecase.Transaction, account *domain.Account) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	st.accounts[account.ID] = *account
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	var out *domain.Account
	err := r.store.read(func(st *state) error {
		a, ok := st.accounts[id]
		if !ok {
			return domain.ErrAccountNotFound
		}
		out = &a
		return nil
	})
	return out, err
}

// GetByIDsForUpdate retrieves the existing accounts among ids, in ID order.
func (r *AccountRepository) GetByIDsForUpdate(_ context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	st, err := r.store.write(tx)
	if err != nil {
		return nil, err
	}

	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	out := make([]*domain.Account, 0, len(sorted))
	for _, id := range sorted {
		if a, ok := st.accounts[id]; ok {
			out = append(out, &a)
		}
	}
	return out, nil
}

// UpdateBalance stores a new balance and bumps the version.
func (r *AccountRepository) UpdateBalance(_ context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	a, ok := st.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	a.Balance = balance
	a.Version++
	a.UpdatedAt = updatedAt
	st.accounts[id] = a
	return nil
}

// List lists accounts ordered by ID.
func (r *AccountRepository) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	var out []*domain.Account
	err := r.store.read(func(st *state) error {
		all := make([]*domain.Account, 0, len(st.accounts))
		for _, a := range st.accounts {
			a := a
			all = append(all, &a)
		}
		sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}
