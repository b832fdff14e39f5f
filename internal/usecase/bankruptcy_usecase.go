package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/infrastructure/metrics"
)

// BankruptcyUseCase retires stocks and redistributes public float to the survivors.
type BankruptcyUseCase struct {
	txManager     TransactionManager
	retrier       Retrier
	stockRepo     StockRepository
	ownershipRepo OwnershipRepository
	offerRepo     OfferRepository
	priceRepo     PriceRepository
	cache         PriceCache
	evaluator     *Evaluator
	events        eventWriter
	idGen         IDGenerator
	config        EngineConfig
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// NewBankruptcyUseCase creates a new BankruptcyUseCase. cache may be nil.
func NewBankruptcyUseCase(
	txManager TransactionManager,
	retrier Retrier,
	stockRepo StockRepository,
	ownershipRepo OwnershipRepository,
	offerRepo OfferRepository,
	priceRepo PriceRepository,
	outboxRepo OutboxRepository,
	cache PriceCache,
	evaluator *Evaluator,
	idGen IDGenerator,
	config EngineConfig,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *BankruptcyUseCase {
	return &BankruptcyUseCase{
		txManager:     txManager,
		retrier:       retrier,
		stockRepo:     stockRepo,
		ownershipRepo: ownershipRepo,
		offerRepo:     offerRepo,
		priceRepo:     priceRepo,
		cache:         cache,
		evaluator:     evaluator,
		events:        eventWriter{outboxRepo: outboxRepo, idGen: idGen},
		idGen:         idGen,
		config:        config,
		metrics:       metrics,
		logger:        logger.With().Str("component", "bankruptcy").Logger(),
	}
}

// BankruptcyResult describes what a bankruptcy removed.
type BankruptcyResult struct {
	Stock          *domain.Stock
	OffersRemoved  int64
	HoldingsPurged int64
}

// RoundResult describes a completed bankruptcy round.
type RoundResult struct {
	Score      *StockScore
	Bankruptcy *BankruptcyResult
	Emitted    []*domain.Offer
}

// Bankrupt marks the stock bankrupt and purges its offers and holdings.
// It runs inside the caller's transaction.
func (uc *BankruptcyUseCase) Bankrupt(ctx context.Context, tx Transaction, stockID string) (*BankruptcyResult, error) {
	stock, err := uc.stockRepo.GetByIDForUpdate(ctx, tx, stockID)
	if err != nil {
		return nil, err
	}

	if err := stock.ValidateTradable(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	stock.MarkBankrupt(now)

	if err := uc.stockRepo.Update(ctx, tx, stock); err != nil {
		return nil, err
	}

	offers, err := uc.offerRepo.DeleteByStock(ctx, tx, stockID)
	if err != nil {
		return nil, err
	}

	holdings, err := uc.ownershipRepo.DeleteByStock(ctx, tx, stockID)
	if err != nil {
		return nil, err
	}

	err = uc.events.write(ctx, tx, domain.AggregateTypeStock, stock.ID, domain.EventTypeStockBankrupted, map[string]any{
		"stock_id":        stock.ID,
		"ticker":          stock.Ticker,
		"bankrupt_at":     now.Format(time.RFC3339Nano),
		"offers_removed":  offers,
		"holdings_purged": holdings,
	}, now)
	if err != nil {
		return nil, err
	}

	return &BankruptcyResult{Stock: stock, OffersRemoved: offers, HoldingsPurged: holdings}, nil
}

// Emit makes sure every active stock has exactly one public offering of at
// least the configured emission amount. Existing offerings are raised, never
// lowered; new ones are priced at the current average price. The public float
// is raised to cover the offering. It runs inside the caller's transaction.
func (uc *BankruptcyUseCase) Emit(ctx context.Context, tx Transaction) ([]*domain.Offer, error) {
	stocks, err := uc.stockRepo.ListActiveForUpdate(ctx, tx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	emitted := make([]*domain.Offer, 0, len(stocks))

	for _, stock := range stocks {
		offer, err := uc.emitFor(ctx, tx, stock, now)
		if err != nil {
			return nil, err
		}

		if stock.PublicFloat < offer.Amount {
			stock.PublicFloat = offer.Amount
			stock.UpdatedAt = now
			if err := uc.stockRepo.Update(ctx, tx, stock); err != nil {
				return nil, err
			}
		}

		emitted = append(emitted, offer)
	}

	return emitted, nil
}

func (uc *BankruptcyUseCase) emitFor(ctx context.Context, tx Transaction, stock *domain.Stock, now time.Time) (*domain.Offer, error) {
	offer, err := uc.offerRepo.GetPublicOfferingForUpdate(ctx, tx, stock.ID)
	switch {
	case errors.Is(err, domain.ErrOfferNotFound):
		price := uc.config.DefaultPrice
		current, err := uc.priceRepo.GetCurrentForUpdate(ctx, tx, stock.ID)
		switch {
		case err == nil:
			price = current.Price
		case !errors.Is(err, domain.ErrPriceNotFound):
			return nil, err
		}

		offer = &domain.Offer{
			ID:        uc.idGen.Generate(),
			StockID:   stock.ID,
			Type:      domain.OfferTypePublicOffering,
			Amount:    uc.config.EmissionAmount,
			Price:     price,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := offer.Validate(); err != nil {
			return nil, err
		}

		if err := uc.offerRepo.Create(ctx, tx, offer); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	case offer.Amount < uc.config.EmissionAmount:
		offer.Amount = uc.config.EmissionAmount
		offer.UpdatedAt = now
		if err := uc.offerRepo.UpdateAmount(ctx, tx, offer.ID, offer.Amount, now); err != nil {
			return nil, err
		}
	default:
		return offer, nil
	}

	if uc.metrics != nil {
		uc.metrics.OfferingsEmitted.Inc()
	}

	err = uc.events.write(ctx, tx, domain.AggregateTypeOffer, offer.ID, domain.EventTypeOfferingEmitted, map[string]any{
		"offer_id": offer.ID,
		"stock_id": stock.ID,
		"amount":   offer.Amount,
		"price":    offer.Price.String(),
	}, now)
	if err != nil {
		return nil, err
	}

	return offer, nil
}

// RunBankruptcyRound bankrupts the weakest stock and emits new public
// offerings. Bankruptcy and emission commit together or not at all.
func (uc *BankruptcyUseCase) RunBankruptcyRound(ctx context.Context) (*RoundResult, error) {
	start := time.Now()

	result, err := uc.runRound(ctx)

	if uc.metrics != nil {
		uc.metrics.RoundDuration.Observe(time.Since(start).Seconds())
		status := "success"
		if err != nil {
			status = string(domain.KindOf(err))
		}
		uc.metrics.BankruptcyRounds.WithLabelValues(status).Inc()
	}

	if err != nil {
		uc.logger.Error().Err(err).Msg("bankruptcy round failed")
		return nil, err
	}

	uc.logger.Info().
		Str("stock_id", result.Bankruptcy.Stock.ID).
		Str("ticker", result.Bankruptcy.Stock.Ticker).
		Float64("score", result.Score.Score).
		Int64("offers_removed", result.Bankruptcy.OffersRemoved).
		Int64("holdings_purged", result.Bankruptcy.HoldingsPurged).
		Int("offerings", len(result.Emitted)).
		Msg("bankruptcy round completed")

	return result, nil
}

func (uc *BankruptcyUseCase) runRound(ctx context.Context) (*RoundResult, error) {
	scores, err := uc.evaluator.Scores(ctx)
	if err != nil {
		return nil, err
	}

	target := weakest(scores)

	if uc.metrics != nil {
		uc.metrics.ActiveStocksGauge.Set(float64(len(scores)))
	}

	result := &RoundResult{Score: target}

	err = inTransaction(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		// The stock may have been bankrupted since it was scored; Bankrupt re-checks under lock.
		bankruptcy, err := uc.Bankrupt(ctx, tx, target.StockID)
		if err != nil {
			return err
		}

		emitted, err := uc.Emit(ctx, tx)
		if err != nil {
			return err
		}

		result.Bankruptcy = bankruptcy
		result.Emitted = emitted

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterBankruptcy(ctx, result.Bankruptcy)

	if uc.metrics != nil {
		uc.metrics.WeakestScore.Set(target.Score)
	}

	return result, nil
}

// BankruptStock bankrupts a specific stock and emits offerings in one transaction.
func (uc *BankruptcyUseCase) BankruptStock(ctx context.Context, stockID string) (*RoundResult, error) {
	if stockID == "" {
		return nil, domain.ErrMissingReference
	}

	result := &RoundResult{}

	err := inTransaction(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		bankruptcy, err := uc.Bankrupt(ctx, tx, stockID)
		if err != nil {
			return err
		}

		emitted, err := uc.Emit(ctx, tx)
		if err != nil {
			return err
		}

		result.Bankruptcy = bankruptcy
		result.Emitted = emitted

		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.afterBankruptcy(ctx, result.Bankruptcy)

	return result, nil
}

// EmitOfferings runs the emission step on its own.
func (uc *BankruptcyUseCase) EmitOfferings(ctx context.Context) ([]*domain.Offer, error) {
	var emitted []*domain.Offer

	err := inTransaction(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		var err error
		emitted, err = uc.Emit(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}

	return emitted, nil
}

func (uc *BankruptcyUseCase) afterBankruptcy(ctx context.Context, b *BankruptcyResult) {
	if uc.metrics != nil {
		uc.metrics.StocksBankrupted.Inc()
	}

	if uc.cache != nil {
		if err := uc.cache.Invalidate(ctx, b.Stock.ID); err != nil {
			uc.logger.Warn().Err(err).Str("stock_id", b.Stock.ID).Msg("failed to invalidate price cache")
		}
	}
}
