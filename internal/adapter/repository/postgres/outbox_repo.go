package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

const outboxColumns = `id, aggregate_id, aggregate_type, event_type, payload, created_at, published, published_at`

// OutboxRepository implements usecase.OutboxRepository.
type OutboxRepository struct {
	db dbtx
}

// NewOutboxRepository creates a new OutboxRepository.
func NewOutboxRepository(db dbtx) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// Create creates a new outbox event within a transaction.
func (r *OutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO outbox_events (id, aggregate_id, aggregate_type, event_type, payload, created_at, published)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.AggregateID, event.AggregateType, event.EventType, payload,
		timeToPgTimestamptz(event.CreatedAt), event.Published,
	)

	return err
}

// GetUnpublished retrieves unpublished events, oldest first.
func (r *OutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+outboxColumns+` FROM outbox_events WHERE NOT published ORDER BY created_at, id LIMIT $1`,
		int32(limit),
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanOutboxEvent)
}

// MarkPublished marks an event as published.
func (r *OutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE outbox_events SET published = TRUE, published_at = $2 WHERE id = $1`,
		id, timeToPgTimestamptz(publishedAt),
	)
	return err
}

// GetByAggregate retrieves events for a specific aggregate.
func (r *OutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+outboxColumns+` FROM outbox_events
		 WHERE aggregate_type = $1 AND aggregate_id = $2
		 ORDER BY created_at, id LIMIT $3 OFFSET $4`,
		aggregateType, aggregateID, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanOutboxEvent)
}

// DeletePublished deletes published events older than the given time.
func (r *OutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM outbox_events WHERE published AND published_at < $1`,
		timeToPgTimestamptz(before),
	)
	return err
}

func scanOutboxEvent(row pgx.Row) (*domain.OutboxEvent, error) {
	var (
		e           domain.OutboxEvent
		payload     []byte
		createdAt   pgtype.Timestamptz
		publishedAt pgtype.Timestamptz
	)

	if err := row.Scan(&e.ID, &e.AggregateID, &e.AggregateType, &e.EventType, &payload, &createdAt, &e.Published, &publishedAt); err != nil {
		return nil, err
	}

	if payload != nil {
		_ = json.Unmarshal(payload, &e.Payload)
	}

	e.CreatedAt = createdAt.Time.UTC()
	e.PublishedAt = pgTimestamptzToPtr(publishedAt)

	return &e, nil
}
