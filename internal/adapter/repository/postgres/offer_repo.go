package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

const offerColumns = `id, stock_id, writer_id, type, amount, price, created_at, updated_at`

// OfferRepository implements usecase.OfferRepository.
type OfferRepository struct {
	db dbtx
}

// NewOfferRepository creates a new OfferRepository.
func NewOfferRepository(db dbtx) *OfferRepository {
	return &OfferRepository{db: db}
}

// Create stores an offer. The offers_one_public_offering index rejects a
// second public offering for the same stock.
func (r *OfferRepository) Create(ctx context.Context, tx usecase.Transaction, offer *domain.Offer) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO offers (`+offerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		offer.ID, offer.StockID, ptrToText(offer.WriterID), string(offer.Type), offer.Amount,
		decimalToNumeric(offer.Price),
		timeToPgTimestamptz(offer.CreatedAt), timeToPgTimestamptz(offer.UpdatedAt),
	)

	return uniqueViolation(err, domain.ErrConcurrencyConflict)
}

// GetByID retrieves an offer by ID.
func (r *OfferRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	row := r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id)

	offer, err := scanOffer(row)
	if err != nil {
		return nil, notFound(err, domain.ErrOfferNotFound)
	}

	return offer, nil
}

// GetByIDForUpdate retrieves an offer by ID with a FOR UPDATE lock.
func (r *OfferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Offer, error) {
	q, err := txOf(tx)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1 FOR UPDATE`, id)

	offer, err := scanOffer(row)
	if err != nil {
		return nil, notFound(err, domain.ErrOfferNotFound)
	}

	return offer, nil
}

// GetPublicOfferingForUpdate retrieves and locks the public offering of a stock.
func (r *OfferRepository) GetPublicOfferingForUpdate(ctx context.Context, tx usecase.Transaction, stockID string) (*domain.Offer, error) {
	q, err := txOf(tx)
	if err != nil {
		return nil, err
	}

	row := q.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE stock_id = $1 AND type = $2 FOR UPDATE`,
		stockID, string(domain.OfferTypePublicOffering),
	)

	offer, err := scanOffer(row)
	if err != nil {
		return nil, notFound(err, domain.ErrOfferNotFound)
	}

	return offer, nil
}

// UpdateAmount stores the remaining amount of an offer.
func (r *OfferRepository) UpdateAmount(ctx context.Context, tx usecase.Transaction, id string, amount int64, updatedAt time.Time) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx,
		`UPDATE offers SET amount = $2, updated_at = $3 WHERE id = $1`,
		id, amount, timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrOfferNotFound
	}

	return nil
}

// Delete removes an offer.
func (r *OfferRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	tag, err := q.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrOfferNotFound
	}

	return nil
}

// DeleteByStock removes every offer of a stock.
func (r *OfferRepository) DeleteByStock(ctx context.Context, tx usecase.Transaction, stockID string) (int64, error) {
	q, err := txOf(tx)
	if err != nil {
		return 0, err
	}

	tag, err := q.Exec(ctx, `DELETE FROM offers WHERE stock_id = $1`, stockID)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}

// ListByStock lists the open offers of a stock, oldest first.
func (r *OfferRepository) ListByStock(ctx context.Context, stockID string, limit, offset int) ([]*domain.Offer, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE stock_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`,
		stockID, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanOffer)
}

func scanOffer(row pgx.Row) (*domain.Offer, error) {
	var (
		o         domain.Offer
		writerID  pgtype.Text
		offerType string
		price     pgtype.Numeric
		createdAt pgtype.Timestamptz
		updatedAt pgtype.Timestamptz
	)

	if err := row.Scan(&o.ID, &o.StockID, &writerID, &offerType, &o.Amount, &price, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	o.WriterID = textToPtr(writerID)
	o.Type = domain.OfferType(offerType)
	o.Price = numericToDecimal(price)
	o.CreatedAt = createdAt.Time.UTC()
	o.UpdatedAt = updatedAt.Time.UTC()

	return &o, nil
}
