package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

const stockColumns = `id, name, ticker, public_float, bankrupt, bankrupt_at, created_at, updated_at`

// StockRepository implements usecase.StockRepository.
type StockRepository struct {
	db dbtx
}

// NewStockRepository creates a new StockRepository.
func NewStockRepository(db dbtx) *StockRepository {
	return &StockRepository{db: db}
}

// Create lists a new stock.
func (r *StockRepository) Create(ctx context.Context, tx usecase.Transaction, stock *domain.Stock) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO stocks (`+stockColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		stock.ID, stock.Name, stock.Ticker, stock.PublicFloat, stock.Bankrupt,
		timePtrToPgTimestamptz(stock.BankruptAt),
		timeToPgTimestamptz(stock.CreatedAt), timeToPgTimestamptz(stock.UpdatedAt),
	)

	return uniqueViolation(err, domain.ErrDuplicateTicker)
}

// GetByID retrieves a stock by ID.
func (r *StockRepository) GetByID(ctx context.Context, id string) (*domain.Stock, error) {
	row := r.db.QueryRow(ctx, `SELECT `+stockColumns+` FROM stocks WHERE id = $1`, id)

	stock, err := scanStock(row)
	if err != nil {
		return nil, notFound(err, domain.ErrStockNotFound)
	}

	return stock, nil
}

// GetByIDForUpdate retrieves a stock by ID with a FOR UPDATE lock.
func (r *StockRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Stock, error) {
	q, err := txOf(tx)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, `SELECT `+stockColumns+` FROM stocks WHERE id = $1 FOR UPDATE`, id)

	stock, err := scanStock(row)
	if err != nil {
		return nil, notFound(err, domain.ErrStockNotFound)
	}

	return stock, nil
}

// GetByTicker retrieves a stock by ticker.
func (r *StockRepository) GetByTicker(ctx context.Context, ticker string) (*domain.Stock, error) {
	row := r.db.QueryRow(ctx, `SELECT `+stockColumns+` FROM stocks WHERE ticker = $1`, ticker)

	stock, err := scanStock(row)
	if err != nil {
		return nil, notFound(err, domain.ErrStockNotFound)
	}

	return stock, nil
}

// List lists stocks ordered by ticker.
func (r *StockRepository) List(ctx context.Context, limit, offset int) ([]*domain.Stock, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+stockColumns+` FROM stocks ORDER BY ticker LIMIT $1 OFFSET $2`,
		int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanStock)
}

// ListActive lists non-bankrupt stocks ordered by ticker.
func (r *StockRepository) ListActive(ctx context.Context) ([]*domain.Stock, error) {
	rows, err := r.db.Query(ctx, `SELECT `+stockColumns+` FROM stocks WHERE NOT bankrupt ORDER BY ticker`)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanStock)
}

// ListActiveForUpdate locks every non-bankrupt stock in ID order.
func (r *StockRepository) ListActiveForUpdate(ctx context.Context, tx usecase.Transaction) ([]*domain.Stock, error) {
	q, err := txOf(tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx, `SELECT `+stockColumns+` FROM stocks WHERE NOT bankrupt ORDER BY id FOR UPDATE`)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanStock)
}

// Update stores the mutable fields of a stock.
func (r *StockRepository) Update(ctx context.Context, tx usecase.Transaction, stock *domain.Stock) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE stocks
		 SET public_float = $2, bankrupt = $3, bankrupt_at = $4, updated_at = $5
		 WHERE id = $1`,
		stock.ID, stock.PublicFloat, stock.Bankrupt,
		timePtrToPgTimestamptz(stock.BankruptAt), timeToPgTimestamptz(stock.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrStockNotFound
	}

	return nil
}

// LatestBankruptcy returns the most recent bankruptcy time, nil if none.
func (r *StockRepository) LatestBankruptcy(ctx context.Context) (*time.Time, error) {
	var latest pgtype.Timestamptz

	if err := r.db.QueryRow(ctx, `SELECT MAX(bankrupt_at) FROM stocks`).Scan(&latest); err != nil {
		return nil, err
	}

	return pgTimestamptzToPtr(latest), nil
}

func scanStock(row pgx.Row) (*domain.Stock, error) {
	var (
		s          domain.Stock
		bankruptAt pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
		updatedAt  pgtype.Timestamptz
	)

	if err := row.Scan(&s.ID, &s.Name, &s.Ticker, &s.PublicFloat, &s.Bankrupt, &bankruptAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	s.BankruptAt = pgTimestamptzToPtr(bankruptAt)
	s.CreatedAt = createdAt.Time.UTC()
	s.UpdatedAt = updatedAt.Time.UTC()

	return &s, nil
}
