package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/domain"
)

// Methods that take a Transaction read and write through it. Methods without
// one read committed state and must not be called while the caller holds an
// open transaction on the same store.

// StockRepository defines data access for stocks.
type StockRepository interface {
	Create(ctx context.Context, tx Transaction, stock *domain.Stock) error
	GetByID(ctx context.Context, id string) (*domain.Stock, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Stock, error)
	GetByTicker(ctx context.Context, ticker string) (*domain.Stock, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Stock, error)
	// ListActive returns non-bankrupt stocks ordered by ticker.
	ListActive(ctx context.Context) ([]*domain.Stock, error)
	// ListActiveForUpdate locks every non-bankrupt stock, ordered by ID.
	ListActiveForUpdate(ctx context.Context, tx Transaction) ([]*domain.Stock, error)
	Update(ctx context.Context, tx Transaction, stock *domain.Stock) error
	// LatestBankruptcy returns the most recent BankruptAt across all stocks, nil if none.
	LatestBankruptcy(ctx context.Context) (*time.Time, error)
}

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, tx Transaction, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// OwnershipRepository defines data access for share holdings.
// A missing holding is returned as a zero-amount Ownership, never as an error.
type OwnershipRepository interface {
	Get(ctx context.Context, accountID, stockID string) (*domain.Ownership, error)
	GetForUpdate(ctx context.Context, tx Transaction, accountID, stockID string) (*domain.Ownership, error)
	// Set stores the holding, deleting the row when Amount is zero.
	Set(ctx context.Context, tx Transaction, ownership *domain.Ownership) error
	ListByAccount(ctx context.Context, accountID string) ([]*domain.Ownership, error)
	ListByStock(ctx context.Context, stockID string) ([]*domain.Ownership, error)
	TotalShares(ctx context.Context, stockID string) (int64, error)
	DeleteByStock(ctx context.Context, tx Transaction, stockID string) (int64, error)
}

// OfferRepository defines data access for trade offers.
type OfferRepository interface {
	Create(ctx context.Context, tx Transaction, offer *domain.Offer) error
	GetByID(ctx context.Context, id string) (*domain.Offer, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Offer, error)
	// GetPublicOfferingForUpdate returns ErrOfferNotFound when the stock has none.
	GetPublicOfferingForUpdate(ctx context.Context, tx Transaction, stockID string) (*domain.Offer, error)
	UpdateAmount(ctx context.Context, tx Transaction, id string, amount int64, updatedAt time.Time) error
	Delete(ctx context.Context, tx Transaction, id string) error
	DeleteByStock(ctx context.Context, tx Transaction, stockID string) (int64, error)
	ListByStock(ctx context.Context, stockID string, limit, offset int) ([]*domain.Offer, error)
}

// TradeRepository defines data access for the append-only trade log.
type TradeRepository interface {
	Create(ctx context.Context, tx Transaction, trade *domain.Trade) error
	// ListByStockSince returns trades created strictly after since, or all trades when since is nil.
	ListByStockSince(ctx context.Context, tx Transaction, stockID string, since *time.Time) ([]*domain.Trade, error)
	ListByStock(ctx context.Context, stockID string, limit, offset int) ([]*domain.Trade, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Trade, error)
}

// PriceRepository defines data access for average price snapshots and their history.
type PriceRepository interface {
	// GetCurrent returns ErrPriceNotFound when no snapshot exists yet.
	GetCurrent(ctx context.Context, stockID string) (*domain.AveragePrice, error)
	GetCurrentForUpdate(ctx context.Context, tx Transaction, stockID string) (*domain.AveragePrice, error)
	Upsert(ctx context.Context, tx Transaction, price *domain.AveragePrice) error
	Archive(ctx context.Context, tx Transaction, entry *domain.HistoricalPrice) error
	ListHistory(ctx context.Context, stockID string, limit, offset int) ([]*domain.HistoricalPrice, error)
	// ListHistorySince returns entries recorded strictly after since, or all when since is nil.
	ListHistorySince(ctx context.Context, stockID string, since *time.Time) ([]*domain.HistoricalPrice, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	DeletePublished(ctx context.Context, before time.Time) error
}

// LedgerRepository defines data access for ledger-wide consistency queries.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (*LedgerTotals, error)
}

// PriceCache caches current average prices in front of the PriceRepository.
type PriceCache interface {
	Get(ctx context.Context, stockID string) (*domain.AveragePrice, error)
	Set(ctx context.Context, price *domain.AveragePrice) error
	Invalidate(ctx context.Context, stockID string) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs a whole unit of work when the store reports a transient conflict.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// RandomSource supplies the noise term of the stock score.
type RandomSource interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}

// IdempotencyProcessing is the value held by a key while its request is in flight.
const IdempotencyProcessing = "processing"
