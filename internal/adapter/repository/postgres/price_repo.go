package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

const (
	averagePriceColumns = `stock_id, shares_traded, price, updated_at`
	historyColumns      = `id, stock_id, shares_traded, price, recorded_at`
)

// PriceRepository implements usecase.PriceRepository.
type PriceRepository struct {
	db dbtx
}

// NewPriceRepository creates a new PriceRepository.
func NewPriceRepository(db dbtx) *PriceRepository {
	return &PriceRepository{db: db}
}

// GetCurrent returns the running snapshot of a stock.
func (r *PriceRepository) GetCurrent(ctx context.Context, stockID string) (*domain.AveragePrice, error) {
	row := r.db.QueryRow(ctx, `SELECT `+averagePriceColumns+` FROM average_prices WHERE stock_id = $1`, stockID)

	price, err := scanAveragePrice(row)
	if err != nil {
		return nil, notFound(err, domain.ErrPriceNotFound)
	}

	return price, nil
}

// GetCurrentForUpdate returns the running snapshot with a FOR UPDATE lock.
func (r *PriceRepository) GetCurrentForUpdate(ctx context.Context, tx usecase.Transaction, stockID string) (*domain.AveragePrice, error) {
	q, err := txOf(tx)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, `SELECT `+averagePriceColumns+` FROM average_prices WHERE stock_id = $1 FOR UPDATE`, stockID)

	price, err := scanAveragePrice(row)
	if err != nil {
		return nil, notFound(err, domain.ErrPriceNotFound)
	}

	return price, nil
}

// Upsert overwrites the running snapshot.
func (r *PriceRepository) Upsert(ctx context.Context, tx usecase.Transaction, price *domain.AveragePrice) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO average_prices (`+averagePriceColumns+`) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (stock_id) DO UPDATE
		 SET shares_traded = EXCLUDED.shares_traded, price = EXCLUDED.price, updated_at = EXCLUDED.updated_at`,
		price.StockID, price.SharesTraded, decimalToNumeric(price.Price), timeToPgTimestamptz(price.UpdatedAt),
	)

	return err
}

// Archive appends a history entry.
func (r *PriceRepository) Archive(ctx context.Context, tx usecase.Transaction, entry *domain.HistoricalPrice) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO price_history (`+historyColumns+`) VALUES ($1, $2, $3, $4, $5)`,
		entry.ID, entry.StockID, entry.SharesTraded, decimalToNumeric(entry.Price), timeToPgTimestamptz(entry.RecordedAt),
	)

	return err
}

// ListHistory lists history entries of a stock, newest first.
func (r *PriceRepository) ListHistory(ctx context.Context, stockID string, limit, offset int) ([]*domain.HistoricalPrice, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+historyColumns+` FROM price_history WHERE stock_id = $1
		 ORDER BY recorded_at DESC, id DESC LIMIT $2 OFFSET $3`,
		stockID, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanHistoricalPrice)
}

// ListHistorySince lists history entries recorded strictly after since, oldest first.
func (r *PriceRepository) ListHistorySince(ctx context.Context, stockID string, since *time.Time) ([]*domain.HistoricalPrice, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+historyColumns+` FROM price_history
		 WHERE stock_id = $1 AND ($2::TIMESTAMPTZ IS NULL OR recorded_at > $2)
		 ORDER BY recorded_at, id`,
		stockID, timePtrToPgTimestamptz(since),
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanHistoricalPrice)
}

func scanAveragePrice(row pgx.Row) (*domain.AveragePrice, error) {
	var (
		p         domain.AveragePrice
		price     pgtype.Numeric
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&p.StockID, &p.SharesTraded, &price, &updatedAt); err != nil {
		return nil, err
	}

	p.Price = numericToDecimal(price)
	p.UpdatedAt = updatedAt.Time.UTC()

	return &p, nil
}

func scanHistoricalPrice(row pgx.Row) (*domain.HistoricalPrice, error) {
	var (
		h          domain.HistoricalPrice
		price      pgtype.Numeric
		recordedAt pgtype.Timestamptz
	)

	if err := row.Scan(&h.ID, &h.StockID, &h.SharesTraded, &price, &recordedAt); err != nil {
		return nil, err
	}

	h.Price = numericToDecimal(price)
	h.RecordedAt = recordedAt.Time.UTC()

	return &h, nil
}
