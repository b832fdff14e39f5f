package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/infrastructure/metrics"
)

// OfferUseCase places, settles and cancels trade offers.
type OfferUseCase struct {
	txManager     TransactionManager
	retrier       Retrier
	stockRepo     StockRepository
	accountRepo   AccountRepository
	ownershipRepo OwnershipRepository
	offerRepo     OfferRepository
	tradeRepo     TradeRepository
	shares        *ShareTransferEngine
	money         *MoneyTransferEngine
	events        eventWriter
	idGen         IDGenerator
	metrics       *metrics.Metrics
	logger        zerolog.Logger
}

// NewOfferUseCase creates a new OfferUseCase.
func NewOfferUseCase(
	txManager TransactionManager,
	retrier Retrier,
	stockRepo StockRepository,
	accountRepo AccountRepository,
	ownershipRepo OwnershipRepository,
	offerRepo OfferRepository,
	tradeRepo TradeRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *OfferUseCase {
	return &OfferUseCase{
		txManager:     txManager,
		retrier:       retrier,
		stockRepo:     stockRepo,
		accountRepo:   accountRepo,
		ownershipRepo: ownershipRepo,
		offerRepo:     offerRepo,
		tradeRepo:     tradeRepo,
		shares:        NewShareTransferEngine(stockRepo, ownershipRepo),
		money:         NewMoneyTransferEngine(accountRepo),
		events:        eventWriter{outboxRepo: outboxRepo, idGen: idGen},
		idGen:         idGen,
		metrics:       metrics,
		logger:        logger.With().Str("component", "offers").Logger(),
	}
}

// PlaceOfferInput represents input for posting a buy or sell offer.
type PlaceOfferInput struct {
	WriterID string
	StockID  string
	Type     domain.OfferType
	Amount   int64
	Price    decimal.Decimal
}

// PlaceOffer posts a buy or sell offer. The writer must currently hold the
// shares of a sell offer, or the cash of a buy offer.
func (uc *OfferUseCase) PlaceOffer(ctx context.Context, input PlaceOfferInput) (*domain.Offer, error) {
	// Validate inputs before starting transaction
	if input.Type != domain.OfferTypeBuy && input.Type != domain.OfferTypeSell {
		return nil, domain.ErrInvalidOfferType
	}

	if input.WriterID == "" || input.StockID == "" {
		return nil, domain.ErrMissingReference
	}

	if err := domain.ValidateShareAmount(input.Amount); err != nil {
		return nil, err
	}

	if err := domain.ValidatePrice(input.Price); err != nil {
		return nil, err
	}

	var offer *domain.Offer

	err := inTransaction(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		stock, err := uc.stockRepo.GetByIDForUpdate(ctx, tx, input.StockID)
		if err != nil {
			return err
		}

		if err := stock.ValidateTradable(); err != nil {
			return err
		}

		accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, []string{input.WriterID})
		if err != nil {
			return err
		}

		if len(accounts) != 1 {
			return domain.ErrAccountNotFound
		}

		now := time.Now().UTC()
		writerID := input.WriterID
		offer = &domain.Offer{
			ID:        uc.idGen.Generate(),
			StockID:   input.StockID,
			WriterID:  &writerID,
			Type:      input.Type,
			Amount:    input.Amount,
			Price:     input.Price,
			CreatedAt: now,
			UpdatedAt: now,
		}

		switch input.Type {
		case domain.OfferTypeSell:
			holding, err := uc.ownershipRepo.GetForUpdate(ctx, tx, input.WriterID, input.StockID)
			if err != nil {
				return err
			}

			if err := holding.ValidateWithdraw(input.Amount); err != nil {
				return err
			}
		case domain.OfferTypeBuy:
			if err := accounts[0].ValidateDebit(offer.Cost(input.Amount)); err != nil {
				return err
			}
		}

		if err := offer.Validate(); err != nil {
			return err
		}

		if err := uc.offerRepo.Create(ctx, tx, offer); err != nil {
			return err
		}

		return uc.events.write(ctx, tx, domain.AggregateTypeOffer, offer.ID, domain.EventTypeOfferPlaced, map[string]any{
			"offer_id":  offer.ID,
			"stock_id":  offer.StockID,
			"writer_id": writerID,
			"type":      string(offer.Type),
			"amount":    offer.Amount,
			"price":     offer.Price.String(),
		}, now)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OffersPlaced.WithLabelValues(string(offer.Type)).Inc()
	}

	return offer, nil
}

// AcceptOfferInput represents input for accepting an offer.
// A nil Amount accepts the whole offer.
type AcceptOfferInput struct {
	AcceptorID string
	OfferID    string
	Amount     *int64
}

// AcceptOffer settles all or part of an offer. Share movement, payment,
// offer shrink and the trade record commit together or not at all.
func (uc *OfferUseCase) AcceptOffer(ctx context.Context, input AcceptOfferInput) (*domain.Trade, error) {
	start := time.Now()

	trade, err := uc.acceptOffer(ctx, input)

	if uc.metrics != nil {
		uc.metrics.SettlementTime.Observe(time.Since(start).Seconds())
		if err != nil {
			uc.metrics.SettlementErrors.WithLabelValues(string(domain.KindOf(err))).Inc()
		}
	}

	if err != nil {
		return nil, err
	}

	uc.logger.Debug().
		Str("trade_id", trade.ID).
		Str("offer_id", trade.OfferID).
		Str("stock_id", trade.StockID).
		Int64("amount", trade.Amount).
		Str("price", trade.Price.String()).
		Msg("offer settled")

	return trade, nil
}

func (uc *OfferUseCase) acceptOffer(ctx context.Context, input AcceptOfferInput) (*domain.Trade, error) {
	if input.AcceptorID == "" || input.OfferID == "" {
		return nil, domain.ErrMissingReference
	}

	if input.Amount != nil && *input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	var (
		trade     *domain.Trade
		offerType domain.OfferType
	)

	err := inTransaction(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		offer, err := uc.offerRepo.GetByIDForUpdate(ctx, tx, input.OfferID)
		if err != nil {
			return err
		}

		amount, err := offer.EffectiveAmount(input.Amount)
		if err != nil {
			return err
		}

		if !offer.IsPublicOffering() && offer.Writer() == input.AcceptorID {
			return domain.ErrSelfTrade
		}

		cost := offer.Cost(amount)

		var (
			buyerID string
			source  domain.ShareSource
		)

		switch offer.Type {
		case domain.OfferTypeSell:
			buyerID = input.AcceptorID
			source = domain.SellerSource(offer.Writer())
		case domain.OfferTypeBuy:
			buyerID = offer.Writer()
			source = domain.SellerSource(input.AcceptorID)
		case domain.OfferTypePublicOffering:
			buyerID = input.AcceptorID
			source = domain.IssuerSource()
		default:
			return domain.ErrInvalidOfferType
		}

		// Shares first, then money
		if err := uc.shares.Transfer(ctx, tx, offer.StockID, buyerID, amount, source); err != nil {
			return err
		}

		if source.IsIssuer() {
			err = uc.money.ChargeToPool(ctx, tx, buyerID, cost)
		} else {
			err = uc.money.Transfer(ctx, tx, buyerID, source.SellerID(), cost)
		}
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		remaining := offer.Amount - amount
		if remaining <= 0 {
			err = uc.offerRepo.Delete(ctx, tx, offer.ID)
		} else {
			err = uc.offerRepo.UpdateAmount(ctx, tx, offer.ID, remaining, now)
		}
		if err != nil {
			return err
		}

		trade = &domain.Trade{
			ID:        uc.idGen.Generate(),
			StockID:   offer.StockID,
			OfferID:   offer.ID,
			BuyerID:   buyerID,
			SellerID:  source.SellerRef(),
			Amount:    amount,
			Price:     offer.Price,
			CreatedAt: now,
		}

		if err := trade.Validate(); err != nil {
			return err
		}

		if err := uc.tradeRepo.Create(ctx, tx, trade); err != nil {
			return err
		}

		offerType = offer.Type

		payload := map[string]any{
			"trade_id":  trade.ID,
			"offer_id":  offer.ID,
			"stock_id":  trade.StockID,
			"buyer_id":  trade.BuyerID,
			"seller_id": source.SellerID(),
			"amount":    trade.Amount,
			"price":     trade.Price.String(),
			"remaining": max(remaining, 0),
		}

		return uc.events.write(ctx, tx, domain.AggregateTypeOffer, offer.ID, domain.EventTypeOfferAccepted, payload, now)
	})
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OffersAccepted.WithLabelValues(string(offerType)).Inc()
		uc.metrics.SharesSettled.Add(float64(trade.Amount))
	}

	return trade, nil
}

// CancelOffer removes an open offer. Only its writer or an admin may cancel it,
// and public offerings cannot be canceled at all.
func (uc *OfferUseCase) CancelOffer(ctx context.Context, caller domain.Caller, offerID string) error {
	if offerID == "" {
		return domain.ErrMissingReference
	}

	err := inTransaction(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		offer, err := uc.offerRepo.GetByIDForUpdate(ctx, tx, offerID)
		if err != nil {
			return err
		}

		if offer.IsPublicOffering() {
			return domain.ErrPublicOfferingNotCancelable
		}

		if offer.Writer() != caller.AccountID && !caller.Role.CanAdminister() {
			return domain.ErrNotOfferWriter
		}

		if err := uc.offerRepo.Delete(ctx, tx, offer.ID); err != nil {
			return err
		}

		return uc.events.write(ctx, tx, domain.AggregateTypeOffer, offer.ID, domain.EventTypeOfferCanceled, map[string]any{
			"offer_id":    offer.ID,
			"stock_id":    offer.StockID,
			"canceled_by": caller.AccountID,
			"amount":      offer.Amount,
		}, time.Now().UTC())
	})
	if err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.OffersCanceled.Inc()
	}

	return nil
}

// GetOffer retrieves an offer by ID.
func (uc *OfferUseCase) GetOffer(ctx context.Context, id string) (*domain.Offer, error) {
	return uc.offerRepo.GetByID(ctx, id)
}

// ListOffersByStock lists open offers for a stock.
func (uc *OfferUseCase) ListOffersByStock(ctx context.Context, stockID string, limit, offset int) ([]*domain.Offer, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)

	if _, err := uc.stockRepo.GetByID(ctx, stockID); err != nil {
		return nil, err
	}

	return uc.offerRepo.ListByStock(ctx, stockID, limit, offset)
}

// ListTradesByStock lists settled trades for a stock, newest first.
func (uc *OfferUseCase) ListTradesByStock(ctx context.Context, stockID string, limit, offset int) ([]*domain.Trade, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.tradeRepo.ListByStock(ctx, stockID, limit, offset)
}

// ListTradesByAccount lists trades where the account was buyer or seller, newest first.
func (uc *OfferUseCase) ListTradesByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.Trade, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.tradeRepo.ListByAccount(ctx, accountID, limit, offset)
}
