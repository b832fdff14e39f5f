package memory

import (
	"context"
	"sort"
	"time"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// OfferRepository implements usecase.OfferRepository.
type OfferRepository struct {
	store *Store
}

// NewOfferRepository creates a new OfferRepository.
func NewOfferRepository(store *Store) *OfferRepository {
	return &OfferRepository{store: store}
}

// Create stores an offer. A stock has at most one public offering.
func (r *OfferRepository) Create(_ context.Context, tx usecase.Transaction, offer *domain.Offer) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	if offer.IsPublicOffering() {
		for _, o := range st.offers {
			if o.StockID == offer.StockID && o.IsPublicOffering() {
				return domain.ErrConcurrencyConflict
			}
		}
	}

	st.offers[offer.ID] = *offer
	return nil
}

// GetByID retrieves an offer by ID.
func (r *OfferRepository) GetByID(_ context.Context, id string) (*domain.Offer, error) {
	var out *domain.Offer
	err := r.store.read(func(st *state) error {
		o, ok := st.offers[id]
		if !ok {
			return domain.ErrOfferNotFound
		}
		out = &o
		return nil
	})
	return out, err
}

// GetByIDForUpdate retrieves an offer inside a transaction.
func (r *OfferRepository) GetByIDForUpdate(_ context.Context, tx usecase.Transaction, id string) (*domain.Offer, error) {
	st, err := r.store.write(tx)
	if err != nil {
		return nil, err
	}

	o, ok := st.offers[id]
	if !ok {
		return nil, domain.ErrOfferNotFound
	}
	return &o, nil
}

// GetPublicOfferingForUpdate retrieves the public offering of a stock.
func (r *OfferRepository) GetPublicOfferingForUpdate(_ context.Context, tx usecase.Transaction, stockID string) (*domain.Offer, error) {
	st, err := r.store.write(tx)
	if err != nil {
		return nil, err
	}

	for _, o := range st.offers {
		if o.StockID == stockID && o.IsPublicOffering() {
			return &o, nil
		}
	}
	return nil, domain.ErrOfferNotFound
}

// UpdateAmount stores the remaining amount of an offer.
func (r *OfferRepository) UpdateAmount(_ context.Context, tx usecase.Transaction, id string, amount int64, updatedAt time.Time) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	o, ok := st.offers[id]
	if !ok {
		return domain.ErrOfferNotFound
	}

	o.Amount = amount
	o.UpdatedAt = updatedAt
	st.offers[id] = o
	return nil
}

// Delete removes an offer.
func (r *OfferRepository) Delete(_ context.Context, tx usecase.Transaction, id string) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	if _, ok := st.offers[id]; !ok {
		return domain.ErrOfferNotFound
	}

	delete(st.offers, id)
	return nil
}

// DeleteByStock removes every offer of a stock.
func (r *OfferRepository) DeleteByStock(_ context.Context, tx usecase.Transaction, stockID string) (int64, error) {
	st, err := r.store.write(tx)
	if err != nil {
		return 0, err
	}

	var n int64
	for id, o := range st.offers {
		if o.StockID == stockID {
			delete(st.offers, id)
			n++
		}
	}
	return n, nil
}

// ListByStock lists the open offers of a stock, oldest first.
func (r *OfferRepository) ListByStock(_ context.Context, stockID string, limit, offset int) ([]*domain.Offer, error) {
	var out []*domain.Offer
	err := r.store.read(func(st *state) error {
		all := make([]*domain.Offer, 0)
		for _, o := range st.offers {
			if o.StockID == stockID {
				all = append(all, &o)
			}
		}
		sort.Slice(all, func(i, j int) bool {
			if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
				return all[i].CreatedAt.Before(all[j].CreatedAt)
			}
			return all[i].ID < all[j].ID
		})
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}
