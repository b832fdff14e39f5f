package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/iho/stockroyale/internal/domain"
)

// StockUseCase lists stocks on the platform.
type StockUseCase struct {
	txManager TransactionManager
	retrier   Retrier
	stockRepo StockRepository
	events    eventWriter
	idGen     IDGenerator
}

// NewStockUseCase creates a new StockUseCase.
func NewStockUseCase(
	txManager TransactionManager,
	retrier Retrier,
	stockRepo StockRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
) *StockUseCase {
	return &StockUseCase{
		txManager: txManager,
		retrier:   retrier,
		stockRepo: stockRepo,
		events:    eventWriter{outboxRepo: outboxRepo, idGen: idGen},
		idGen:     idGen,
	}
}

// CreateStockInput represents input for listing a stock.
type CreateStockInput struct {
	Name        string
	Ticker      string
	PublicFloat int64
}

// CreateStock lists a new stock with its initial public float.
func (uc *StockUseCase) CreateStock(ctx context.Context, input CreateStockInput) (*domain.Stock, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	ticker, err := domain.NormalizeTicker(input.Ticker)
	if err != nil {
		return nil, err
	}

	if input.PublicFloat < 0 {
		return nil, domain.ErrInvalidAmount
	}

	existing, err := uc.stockRepo.GetByTicker(ctx, ticker)
	if err != nil && !errors.Is(err, domain.ErrStockNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateTicker
	}

	now := time.Now().UTC()
	stock := &domain.Stock{
		ID:          uc.idGen.Generate(),
		Name:        input.Name,
		Ticker:      ticker,
		PublicFloat: input.PublicFloat,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = inTransaction(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		// The store enforces ticker uniqueness for concurrent listings.
		if err := uc.stockRepo.Create(ctx, tx, stock); err != nil {
			return err
		}

		return uc.events.write(ctx, tx, domain.AggregateTypeStock, stock.ID, domain.EventTypeStockListed, map[string]any{
			"stock_id":     stock.ID,
			"ticker":       stock.Ticker,
			"name":         stock.Name,
			"public_float": stock.PublicFloat,
		}, now)
	})
	if err != nil {
		return nil, err
	}

	return stock, nil
}

// GetStock retrieves a stock by ID.
func (uc *StockUseCase) GetStock(ctx context.Context, id string) (*domain.Stock, error) {
	return uc.stockRepo.GetByID(ctx, id)
}

// GetStockByTicker retrieves a stock by ticker symbol.
func (uc *StockUseCase) GetStockByTicker(ctx context.Context, ticker string) (*domain.Stock, error) {
	normalized, err := domain.NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	return uc.stockRepo.GetByTicker(ctx, normalized)
}

// ListStocks lists stocks, bankrupt ones included, ordered by ticker.
func (uc *StockUseCase) ListStocks(ctx context.Context, limit, offset int) ([]*domain.Stock, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.stockRepo.List(ctx, limit, offset)
}
