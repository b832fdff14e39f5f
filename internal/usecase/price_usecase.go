package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/infrastructure/metrics"
)

// PriceUseCase maintains volume-weighted average prices.
type PriceUseCase struct {
	txManager TransactionManager
	retrier   Retrier
	stockRepo StockRepository
	tradeRepo TradeRepository
	priceRepo PriceRepository
	cache     PriceCache
	idGen     IDGenerator
	config    EngineConfig
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewPriceUseCase creates a new PriceUseCase. cache may be nil.
func NewPriceUseCase(
	txManager TransactionManager,
	retrier Retrier,
	stockRepo StockRepository,
	tradeRepo TradeRepository,
	priceRepo PriceRepository,
	cache PriceCache,
	idGen IDGenerator,
	config EngineConfig,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *PriceUseCase {
	return &PriceUseCase{
		txManager: txManager,
		retrier:   retrier,
		stockRepo: stockRepo,
		tradeRepo: tradeRepo,
		priceRepo: priceRepo,
		cache:     cache,
		idGen:     idGen,
		config:    config,
		metrics:   metrics,
		logger:    logger.With().Str("component", "prices").Logger(),
	}
}

// Recompute folds the trades made since the last snapshot into the running
// average of a stock. It is a no-op for bankrupt stocks.
func (uc *PriceUseCase) Recompute(ctx context.Context, stockID string) (*domain.AveragePrice, error) {
	if stockID == "" {
		return nil, domain.ErrMissingReference
	}

	var result *domain.AveragePrice

	err := inTransaction(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		result = nil

		// Serializes with settlements on the same stock.
		stock, err := uc.stockRepo.GetByIDForUpdate(ctx, tx, stockID)
		if err != nil {
			return err
		}

		if stock.Bankrupt {
			return nil
		}

		current, err := uc.priceRepo.GetCurrentForUpdate(ctx, tx, stockID)
		if err != nil && !errors.Is(err, domain.ErrPriceNotFound) {
			return err
		}

		var since *time.Time
		prior := domain.AveragePrice{StockID: stockID}
		if current != nil {
			since = &current.UpdatedAt
			prior = *current
		}

		trades, err := uc.tradeRepo.ListByStockSince(ctx, tx, stockID, since)
		if err != nil {
			return err
		}

		next := prior.Fold(trades, uc.config.DefaultPrice)
		next.UpdatedAt = time.Now().UTC()

		if current != nil {
			if err := uc.priceRepo.Archive(ctx, tx, current.Archive(uc.idGen.Generate())); err != nil {
				return err
			}
		}

		if err := uc.priceRepo.Upsert(ctx, tx, &next); err != nil {
			return err
		}

		result = &next

		return nil
	})

	if uc.metrics != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		uc.metrics.PriceRecomputes.WithLabelValues(status).Inc()
	}

	if err != nil {
		return nil, err
	}

	if result != nil && uc.cache != nil {
		if err := uc.cache.Set(ctx, result); err != nil {
			uc.logger.Warn().Err(err).Str("stock_id", stockID).Msg("failed to refresh price cache")
		}
	}

	return result, nil
}

// RecomputeResult reports the outcome of RecomputeAll.
type RecomputeResult struct {
	Updated []*domain.AveragePrice
	Failed  map[string]error
}

// RecomputeAll recomputes every stock concurrently. Each stock is its own unit
// of work; one failing does not stop the others. The returned error joins all
// per-stock failures.
func (uc *PriceUseCase) RecomputeAll(ctx context.Context) (*RecomputeResult, error) {
	stocks, err := uc.stockRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		result = &RecomputeResult{Failed: make(map[string]error)}
		errs   []error
	)

	// Plain group: a failed stock must not cancel its siblings.
	var g errgroup.Group
	g.SetLimit(recomputeConcurrency)

	for _, stock := range stocks {
		g.Go(func() error {
			price, err := uc.Recompute(ctx, stock.ID)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				result.Failed[stock.ID] = err
				errs = append(errs, fmt.Errorf("recompute %s: %w", stock.Ticker, err))
				uc.logger.Error().Err(err).Str("stock_id", stock.ID).Msg("price recompute failed")
				return nil
			}

			if price != nil {
				result.Updated = append(result.Updated, price)
			}

			return nil
		})
	}

	_ = g.Wait()

	if len(errs) > 0 {
		if uc.metrics != nil {
			uc.metrics.PriceRecomputeFailure.Inc()
		}
		return result, errors.Join(errs...)
	}

	uc.logger.Info().Int("stocks", len(result.Updated)).Msg("average prices recomputed")

	return result, nil
}

// GetPrice returns the current average price of a stock. A stock that has
// never been recomputed reports the default price.
func (uc *PriceUseCase) GetPrice(ctx context.Context, stockID string) (*domain.AveragePrice, error) {
	if uc.cache != nil {
		if price, err := uc.cache.Get(ctx, stockID); err == nil && price != nil {
			uc.observeCache("hit")
			return price, nil
		}
		uc.observeCache("miss")
	}

	if _, err := uc.stockRepo.GetByID(ctx, stockID); err != nil {
		return nil, err
	}

	price, err := uc.priceRepo.GetCurrent(ctx, stockID)
	if errors.Is(err, domain.ErrPriceNotFound) {
		return &domain.AveragePrice{StockID: stockID, Price: uc.config.DefaultPrice}, nil
	}
	if err != nil {
		return nil, err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, price); err != nil {
			uc.logger.Warn().Err(err).Str("stock_id", stockID).Msg("failed to fill price cache")
		}
	}

	return price, nil
}

// ListHistory lists archived snapshots of a stock, newest first.
func (uc *PriceUseCase) ListHistory(ctx context.Context, stockID string, limit, offset int) ([]*domain.HistoricalPrice, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)

	if _, err := uc.stockRepo.GetByID(ctx, stockID); err != nil {
		return nil, err
	}

	return uc.priceRepo.ListHistory(ctx, stockID, limit, offset)
}

func (uc *PriceUseCase) observeCache(result string) {
	if uc.metrics != nil {
		uc.metrics.PriceCacheLookups.WithLabelValues(result).Inc()
	}
}
