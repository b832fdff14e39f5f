package memory

import (
	"context"
	"time"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	store *Store
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(store *Store) *OutboxRepository {
	return &OutboxRepository{store: store}
}

// Create appends an event inside a transaction.
func (r *OutboxRepository) Create(_ context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	st, err := r.store.write(tx)
	if err != nil {
		return err
	}

	st.outbox = append(st.outbox, *event)
	return nil
}

// GetUnpublished returns the oldest unpublished events.
func (r *OutboxRepository) GetUnpublished(_ context.Context, limit int) ([]*domain.OutboxEvent, error) {
	var out []*domain.OutboxEvent
	err := r.store.read(func(st *state) error {
		for _, e := range st.outbox {
			if e.Published {
				continue
			}
			out = append(out, &e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// MarkPublished flags an event as published.
func (r *OutboxRepository) MarkPublished(_ context.Context, id string, publishedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range r.store.state.outbox {
		if r.store.state.outbox[i].ID == id {
			at := publishedAt
			r.store.state.outbox[i].Published = true
			r.store.state.outbox[i].PublishedAt = &at
			return nil
		}
	}
	return nil
}

// GetByAggregate lists events of one aggregate, oldest first.
func (r *OutboxRepository) GetByAggregate(_ context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	var out []*domain.OutboxEvent
	err := r.store.read(func(st *state) error {
		all := make([]*domain.OutboxEvent, 0)
		for _, e := range st.outbox {
			if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
				all = append(all, &e)
			}
		}
		out = page(all, limit, offset)
		return nil
	})
	return out, err
}

// DeletePublished removes events published before the given time.
func (r *OutboxRepository) DeletePublished(_ context.Context, before time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := r.store.state.outbox[:0]
	for _, e := range r.store.state.outbox {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			continue
		}
		kept = append(kept, e)
	}
	r.store.state.outbox = kept
	return nil
}
