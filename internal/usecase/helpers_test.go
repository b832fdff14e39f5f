package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockroyale/internal/adapter/repository/memory"
	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
	"github.com/iho/stockroyale/internal/usecase/mocks"
)

// fixedRandom always returns the same draw.
type fixedRandom float64

func (f fixedRandom) Float64() float64 { return float64(f) }

type harness struct {
	store      *memory.Store
	stockRepo  *memory.StockRepository
	accounts   *memory.AccountRepository
	ownerships *memory.OwnershipRepository
	offerRepo  *memory.OfferRepository
	tradeRepo  *memory.TradeRepository
	priceRepo  *memory.PriceRepository
	outbox     *memory.OutboxRepository
	ids        *mocks.SequenceIDGenerator
	cfg        usecase.EngineConfig

	stocks     *usecase.StockUseCase
	accountUC  *usecase.AccountUseCase
	offers     *usecase.OfferUseCase
	prices     *usecase.PriceUseCase
	evaluator  *usecase.Evaluator
	bankruptcy *usecase.BankruptcyUseCase
}

func newHarness(t *testing.T, cfg usecase.EngineConfig, random usecase.RandomSource) *harness {
	t.Helper()

	store := memory.NewStore()
	h := &harness{
		store:      store,
		stockRepo:  memory.NewStockRepository(store),
		accounts:   memory.NewAccountRepository(store),
		ownerships: memory.NewOwnershipRepository(store),
		offerRepo:  memory.NewOfferRepository(store),
		tradeRepo:  memory.NewTradeRepository(store),
		priceRepo:  memory.NewPriceRepository(store),
		outbox:     memory.NewOutboxRepository(store),
		ids:        mocks.NewSequenceIDGenerator("id"),
		cfg:        cfg,
	}

	if random == nil {
		random = fixedRandom(0)
	}

	log := zerolog.Nop()

	h.stocks = usecase.NewStockUseCase(store, nil, h.stockRepo, h.outbox, h.ids)
	h.accountUC = usecase.NewAccountUseCase(store, nil, h.accounts, h.ownerships, h.outbox, h.ids, nil)
	h.offers = usecase.NewOfferUseCase(store, nil, h.stockRepo, h.accounts, h.ownerships, h.offerRepo, h.tradeRepo, h.outbox, h.ids, nil, log)
	h.prices = usecase.NewPriceUseCase(store, nil, h.stockRepo, h.tradeRepo, h.priceRepo, nil, h.ids, cfg, nil, log)
	h.evaluator = usecase.NewEvaluator(h.stockRepo, h.ownerships, h.priceRepo, random, cfg)
	h.bankruptcy = h.bankruptcyWith(cfg, h.offerRepo)

	return h
}

func (h *harness) bankruptcyWith(cfg usecase.EngineConfig, offers usecase.OfferRepository) *usecase.BankruptcyUseCase {
	return usecase.NewBankruptcyUseCase(
		h.store, nil, h.stockRepo, h.ownerships, offers, h.priceRepo, h.outbox, nil,
		h.evaluator, h.ids, cfg, nil, zerolog.Nop(),
	)
}

func testConfig() usecase.EngineConfig {
	return usecase.EngineConfig{
		Weights:        usecase.Weights{MarketCap: 1, PublicFloat: 1, Volatility: 1, Fun: 0},
		EmissionAmount: 100,
		DefaultPrice:   decimal.NewFromInt(1),
	}
}

func (h *harness) listStock(t *testing.T, ticker string, float int64) *domain.Stock {
	t.Helper()
	stock, err := h.stocks.CreateStock(context.Background(), usecase.CreateStockInput{
		Name:        ticker + " Inc",
		Ticker:      ticker,
		PublicFloat: float,
	})
	require.NoError(t, err)
	return stock
}

func (h *harness) openAccount(t *testing.T, name, balance string) *domain.Account {
	t.Helper()
	acc, err := h.accountUC.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name:           name,
		InitialBalance: decimal.RequireFromString(balance),
	})
	require.NoError(t, err)
	return acc
}

// inTx runs fn in its own committed transaction.
func (h *harness) inTx(t *testing.T, fn func(ctx context.Context, tx usecase.Transaction)) {
	t.Helper()
	ctx := context.Background()
	tx, err := h.store.Begin(ctx)
	require.NoError(t, err)
	fn(ctx, tx)
	require.NoError(t, tx.Commit(ctx))
}

func (h *harness) give(t *testing.T, accountID, stockID string, amount int64) {
	t.Helper()
	h.inTx(t, func(ctx context.Context, tx usecase.Transaction) {
		require.NoError(t, h.ownerships.Set(ctx, tx, &domain.Ownership{AccountID: accountID, StockID: stockID, Amount: amount}))
	})
}

func (h *harness) addTrade(t *testing.T, stockID string, amount int64, price string, at time.Time) {
	t.Helper()
	h.inTx(t, func(ctx context.Context, tx usecase.Transaction) {
		require.NoError(t, h.tradeRepo.Create(ctx, tx, &domain.Trade{
			ID:        h.ids.Generate(),
			StockID:   stockID,
			BuyerID:   "buyer",
			Amount:    amount,
			Price:     decimal.RequireFromString(price),
			CreatedAt: at,
		}))
	})
}

func (h *harness) holding(t *testing.T, accountID, stockID string) int64 {
	t.Helper()
	o, err := h.ownerships.Get(context.Background(), accountID, stockID)
	require.NoError(t, err)
	return o.Amount
}

func (h *harness) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	acc, err := h.accounts.GetByID(context.Background(), accountID)
	require.NoError(t, err)
	return acc.Balance
}

func (h *harness) stock(t *testing.T, id string) *domain.Stock {
	t.Helper()
	s, err := h.stockRepo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return s
}

// totalShares is every holding of the stock plus its public float.
func (h *harness) totalShares(t *testing.T, stockID string) int64 {
	t.Helper()
	held, err := h.ownerships.TotalShares(context.Background(), stockID)
	require.NoError(t, err)
	return held + h.stock(t, stockID).PublicFloat
}

func (h *harness) publicOfferings(t *testing.T, stockID string) []*domain.Offer {
	t.Helper()
	offers, err := h.offerRepo.ListByStock(context.Background(), stockID, 100, 0)
	require.NoError(t, err)

	var out []*domain.Offer
	for _, o := range offers {
		if o.IsPublicOffering() {
			out = append(out, o)
		}
	}
	return out
}

func ptr[T any](v T) *T { return &v }
