package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/stockroyale/internal/adapter/repository/memory"
	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
	"github.com/iho/stockroyale/internal/usecase/mocks"
)

func TestStockUseCase_IDsFromGenerator(t *testing.T) {
	ctrl := gomock.NewController(t)
	ids := mocks.NewMockIDGenerator(ctrl)

	gomock.InOrder(
		ids.EXPECT().Generate().Return("stock-1"),
		ids.EXPECT().Generate().Return("event-1"),
	)

	store := memory.NewStore()
	outbox := memory.NewOutboxRepository(store)
	uc := usecase.NewStockUseCase(store, nil, memory.NewStockRepository(store), outbox, ids)

	stock, err := uc.CreateStock(context.Background(), usecase.CreateStockInput{Name: "Acme", Ticker: "acme", PublicFloat: 5})
	require.NoError(t, err)
	assert.Equal(t, "stock-1", stock.ID)
	assert.Equal(t, "ACME", stock.Ticker)

	events, err := outbox.GetByAggregate(context.Background(), domain.AggregateTypeStock, "stock-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "event-1", events[0].ID)
}

func TestEvaluator_DrawsFunOncePerCandidate(t *testing.T) {
	ctrl := gomock.NewController(t)
	random := mocks.NewMockRandomSource(ctrl)
	random.EXPECT().Float64().Return(0.5).Times(3)

	cfg := testConfig()
	cfg.Weights = usecase.Weights{Fun: 1}
	h := newHarness(t, cfg, random)

	for _, ticker := range []string{"AAA", "BBB", "CCC"} {
		h.listStock(t, ticker, 10)
	}

	scores, err := h.evaluator.Scores(context.Background())
	require.NoError(t, err)
	require.Len(t, scores, 3)
	for _, s := range scores {
		assert.InDelta(t, 0.5, s.Fun, 1e-9)
		assert.InDelta(t, 0.5, s.Score, 1e-9)
	}
}

func TestAccountUseCase_DepositRunsThroughRetrier(t *testing.T) {
	ctx := context.Background()

	t.Run("retrier runs the unit of work", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		retrier := mocks.NewMockRetrier(ctrl)
		retrier.EXPECT().
			Retry(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, op func() error) error { return op() }).
			Times(2)

		store := memory.NewStore()
		uc := usecase.NewAccountUseCase(store, retrier, memory.NewAccountRepository(store),
			memory.NewOwnershipRepository(store), nil, mocks.NewSequenceIDGenerator("id"), nil)

		acc, err := uc.CreateAccount(ctx, usecase.CreateAccountInput{Name: "alice", InitialBalance: decimal.NewFromInt(5)})
		require.NoError(t, err)

		acc, err = uc.Deposit(ctx, acc.ID, decimal.NewFromInt(7))
		require.NoError(t, err)
		assert.Equal(t, "12", acc.Balance.String())
	})

	t.Run("exhausted retries surface a conflict", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		retrier := mocks.NewMockRetrier(ctrl)
		retrier.EXPECT().Retry(gomock.Any(), gomock.Any()).Return(domain.ErrConcurrencyConflict)

		store := memory.NewStore()
		accounts := memory.NewAccountRepository(store)
		uc := usecase.NewAccountUseCase(store, retrier, accounts,
			memory.NewOwnershipRepository(store), nil, mocks.NewSequenceIDGenerator("id"), nil)

		_, err := uc.Deposit(ctx, "acc-1", decimal.NewFromInt(7))
		assert.Equal(t, domain.KindConcurrencyConflict, domain.KindOf(err))
	})
}

func TestUnitOfWork_RollsBackOnFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	stocks := memory.NewStockRepository(store)

	t.Run("begin failure", func(t *testing.T) {
		beginErr := errors.New("connection refused")
		txm := mocks.NewMockTransactionManager()
		txm.BeginFunc = func(context.Context) (usecase.Transaction, error) { return nil, beginErr }

		uc := usecase.NewStockUseCase(txm, nil, stocks, nil, mocks.NewSequenceIDGenerator("id"))
		_, err := uc.CreateStock(ctx, usecase.CreateStockInput{Name: "Acme", Ticker: "ACME"})
		assert.ErrorIs(t, err, beginErr)
	})

	t.Run("failed write rolls back", func(t *testing.T) {
		tx := &mocks.MockTransaction{}
		txm := mocks.NewMockTransactionManager()
		txm.BeginFunc = func(context.Context) (usecase.Transaction, error) { return tx, nil }

		// The memory repositories reject a transaction they did not open.
		uc := usecase.NewStockUseCase(txm, nil, stocks, nil, mocks.NewSequenceIDGenerator("id"))
		_, err := uc.CreateStock(ctx, usecase.CreateStockInput{Name: "Acme", Ticker: "ACME"})
		require.Error(t, err)
		assert.False(t, tx.Committed)
		assert.True(t, tx.RolledBack)

		_, err = stocks.GetByTicker(ctx, "ACME")
		assert.ErrorIs(t, err, domain.ErrStockNotFound)
	})
}
