package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

const tradeColumns = `id, stock_id, offer_id, buyer_id, seller_id, amount, price, created_at`

// TradeRepository implements usecase.TradeRepository. Trades are append-only.
type TradeRepository struct {
	db dbtx
}

// NewTradeRepository creates a new TradeRepository.
func NewTradeRepository(db dbtx) *TradeRepository {
	return &TradeRepository{db: db}
}

// Create appends a trade.
func (r *TradeRepository) Create(ctx context.Context, tx usecase.Transaction, trade *domain.Trade) error {
	q, err := txOf(tx)
	if err != nil {
		return err
	}

	_, err = q.Exec(ctx,
		`INSERT INTO trades (`+tradeColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		trade.ID, trade.StockID, trade.OfferID, trade.BuyerID, ptrToText(trade.SellerID),
		trade.Amount, decimalToNumeric(trade.Price), timeToPgTimestamptz(trade.CreatedAt),
	)

	return err
}

// ListByStockSince lists trades of a stock created strictly after since, oldest first.
func (r *TradeRepository) ListByStockSince(ctx context.Context, tx usecase.Transaction, stockID string, since *time.Time) ([]*domain.Trade, error) {
	q, err := txOf(tx)
	if err != nil {
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT `+tradeColumns+` FROM trades
		 WHERE stock_id = $1 AND ($2::TIMESTAMPTZ IS NULL OR created_at > $2)
		 ORDER BY created_at, id`,
		stockID, timePtrToPgTimestamptz(since),
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanTrade)
}

// ListByStock lists trades of a stock, newest first.
func (r *TradeRepository) ListByStock(ctx context.Context, stockID string, limit, offset int) ([]*domain.Trade, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE stock_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		stockID, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanTrade)
}

// ListByAccount lists trades where the account bought or sold, newest first.
func (r *TradeRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Trade, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+tradeColumns+` FROM trades WHERE buyer_id = $1 OR seller_id = $1
		 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`,
		accountID, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, err
	}

	return collect(rows, scanTrade)
}

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	var (
		t         domain.Trade
		sellerID  pgtype.Text
		price     pgtype.Numeric
		createdAt pgtype.Timestamptz
	)

	if err := row.Scan(&t.ID, &t.StockID, &t.OfferID, &t.BuyerID, &sellerID, &t.Amount, &price, &createdAt); err != nil {
		return nil, err
	}

	t.SellerID = textToPtr(sellerID)
	t.Price = numericToDecimal(price)
	t.CreatedAt = createdAt.Time.UTC()

	return &t, nil
}
