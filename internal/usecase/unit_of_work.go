package usecase

import (
	"context"
	"time"

	"github.com/iho/stockroyale/internal/domain"
)

// inTransaction runs fn as one unit of work. The whole unit is re-run by the
// retrier when the store reports a transient conflict.
func inTransaction(
	ctx context.Context,
	txManager TransactionManager,
	retrier Retrier,
	fn func(ctx context.Context, tx Transaction) error,
) error {
	run := func() error {
		// Do not start work for a caller that already gave up.
		if err := ctx.Err(); err != nil {
			return err
		}

		// Add transaction timeout
		txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
		defer cancel()

		tx, err := txManager.Begin(txCtx)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback(txCtx) }()

		if err := fn(txCtx, tx); err != nil {
			return err
		}

		return tx.Commit(txCtx)
	}

	if retrier == nil {
		return run()
	}

	return retrier.Retry(ctx, run)
}

type eventWriter struct {
	outboxRepo OutboxRepository
	idGen      IDGenerator
}

func (w eventWriter) write(
	ctx context.Context,
	tx Transaction,
	aggregateType, aggregateID, eventType string,
	payload map[string]any,
	at time.Time,
) error {
	if w.outboxRepo == nil {
		return nil
	}

	event := domain.NewOutboxEvent(w.idGen.Generate(), aggregateType, aggregateID, eventType, payload, at)

	return w.outboxRepo.Create(ctx, tx, event)
}
