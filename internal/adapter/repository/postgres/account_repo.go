package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

const accountColumns = `id, name, balance, version, created_at, updated_at`

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	db dbtx
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db dbtx) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create creates a new account.
func (r *AccountRepository) Create(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO accounts (`+accountColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		account.ID, account.Name, decimalToNumeric(account.Balance), account.Version,
		timeToPgTimestamptz(account.CreatedAt), timeToPgTimestamptz(account.UpdatedAt),
	)

	return err
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)

	account, err := scanAccount(row)
	if err != nil {
		return nil, notFound(err, domain.ErrAccountNotFound)
	}

	return account, nil
}

// GetByIDsForUpdate retrieves multiple accounts by IDs with FOR UPDATE locks.
// Rows are locked in ID order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	q, err := txOf(tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ANY($1) ORDER BY id FOR UPDATE`,
		ids,
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanAccount)
}

// UpdateBalance updates the balance of an account and bumps its version.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE accounts SET balance = $2, version = version + 1, updated_at = $3 WHERE id = $1`,
		id, decimalToNumeric(balance), timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts ORDER BY id LIMIT $1 OFFSET $2`,
		int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanAccount)
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		a         domain.Account
		balance   pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&a.ID, &a.Name, &balance, &a.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	a.Balance = numericToDecimal(balance)
	a.CreatedAt = createdAt.Time.UTC()
	a.UpdatedAt = updatedAt.Time.UTC()

	return &a, nil
}
