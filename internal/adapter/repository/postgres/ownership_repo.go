package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

// OwnershipRepository implements usecase.OwnershipRepository.
// A missing row is a zero holding.
type OwnershipRepository struct {
	db dbtx
}

// NewOwnershipRepository creates a new OwnershipRepository.
func NewOwnershipRepository(db dbtx) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

// Get returns the holding, zero if the account holds none.
func (r *OwnershipRepository) Get(ctx context.Context, accountID, stockID string) (*domain.Ownership, error) {
	return getOwnership(ctx, r.db, accountID, stockID, "")
}

// GetForUpdate returns the holding with a FOR UPDATE lock on its row, if any.
// Callers hold the stock row lock, which serializes inserts of new holdings.
func (r *OwnershipRepository) GetForUpdate(ctx context.Context, tx usecase.Transaction, accountID, stockID string) (*domain.Ownership, error) {
	q, err := txOf(tx)
	if err != nil {
		return nil, err
	}

	return getOwnership(ctx, q, accountID, stockID, " FOR UPDATE")
}

func getOwnership(ctx context.Context, q dbtx, accountID, stockID, lock string) (*domain.Ownership, error) {
	o := &domain.Ownership{AccountID: accountID, StockID: stockID}

	err := q.QueryRow(ctx,
		`SELECT amount FROM ownerships WHERE account_id = $1 AND stock_id = $2`+lock,
		accountID, stockID,
	).Scan(&o.Amount)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	return o, nil
}

// Set stores the holding; a zero amount removes it.
func (r *OwnershipRepository) Set(ctx context.Context, tx usecase.Transaction, o *domain.Ownership) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	if o.Amount == 0 {
		_, err = q.Exec(ctx, `DELETE FROM ownerships WHERE account_id = $1 AND stock_id = $2`, o.AccountID, o.StockID)
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO ownerships (account_id, stock_id, amount) VALUES ($1, $2, $3)
		 ON CONFLICT (account_id, stock_id) DO UPDATE SET amount = EXCLUDED.amount`,
		o.AccountID, o.StockID, o.Amount,
	)

	return err
}

// ListByAccount lists the holdings of an account ordered by stock ID.
func (r *OwnershipRepository) ListByAccount(ctx context.Context, accountID string) ([]*domain.Ownership, error) {
	rows, err := r.db.Query(ctx,
		`SELECT account_id, stock_id, amount FROM ownerships WHERE account_id = $1 ORDER BY stock_id`,
		accountID,
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanOwnership)
}

// ListByStock lists the holdings of a stock ordered by account ID.
func (r *OwnershipRepository) ListByStock(ctx context.Context, stockID string) ([]*domain.Ownership, error) {
	rows, err := r.db.Query(ctx,
		`SELECT account_id, stock_id, amount FROM ownerships WHERE stock_id = $1 ORDER BY account_id`,
		stockID,
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanOwnership)
}

// TotalShares sums the holdings of a stock.
func (r *OwnershipRepository) TotalShares(ctx context.Context, stockID string) (int64, error) {
	var total int64

	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0)::BIGINT FROM ownerships WHERE stock_id = $1`, stockID).Scan(&total)

	return total, err
}

// DeleteByStock removes every holding of a stock.
func (r *OwnershipRepository) DeleteByStock(ctx context.Context, tx usecase.Transaction, stockID string) (int64, error) {
	q, err := txOf(tx)
	if err != nil {
		return 0, err
	}

	tag, err := q.Exec(ctx, `DELETE FROM ownerships WHERE stock_id = $1`, stockID)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

func scanOwnership(row pgx.Row) (*domain.Ownership, error) {
	var o domain.Ownership
	if err := row.Scan(&o.AccountID, &o.StockID, &o.Amount); err != nil {
		return nil, err
	}
	return &o, nil
}
