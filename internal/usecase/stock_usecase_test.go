package usecase_test

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

func TestStockUseCase_CreateStock(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	ctx := context.Background()

	stock, err := h.stocks.CreateStock(ctx, usecase.CreateStockInput{Name: "Acme Corp", Ticker: " acme ", PublicFloat: 500})
	require.NoError(t, err)
	assert.Equal(t, "ACME", stock.Ticker)
	assert.Equal(t, int64(500), stock.PublicFloat)
	assert.False(t, stock.Bankrupt)

	byTicker, err := h.stocks.GetStockByTicker(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, stock.ID, byTicker.ID)

	events, err := h.outbox.GetByAggregate(ctx, domain.AggregateTypeStock, stock.ID, 10, 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventTypeStockListed, events[0].EventType)

	tests := []struct {
		name    string
		input   usecase.CreateStockInput
		wantErr error
	}{
		{name: "duplicate ticker", input: usecase.CreateStockInput{Name: "Other", Ticker: "ACME"}, wantErr: domain.ErrDuplicateTicker},
		{name: "empty name", input: usecase.CreateStockInput{Name: "  ", Ticker: "NEW"}, wantErr: domain.ErrInvalidArgument},
		{name: "bad ticker", input: usecase.CreateStockInput{Name: "New", Ticker: "1ABC"}, wantErr: domain.ErrInvalidArgument},
		{name: "long ticker", input: usecase.CreateStockInput{Name: "New", Ticker: "ABCDEFGHI"}, wantErr: domain.ErrInvalidArgument},
		{name: "negative float", input: usecase.CreateStockInput{Name: "New", Ticker: "NEW", PublicFloat: -1}, wantErr: domain.ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.stocks.CreateStock(ctx, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStockUseCase_ListStocks(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	ctx := context.Background()

	h.listStock(t, "CCC", 0)
	dead := h.listStock(t, "AAA", 0)
	h.listStock(t, "BBB", 0)

	_, err := h.bankruptcy.BankruptStock(ctx, dead.ID)
	require.NoError(t, err)

	stocks, err := h.stocks.ListStocks(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, stocks, 3)
	assert.Equal(t, "AAA", stocks[0].Ticker)
	assert.True(t, stocks[0].Bankrupt)
	assert.Equal(t, "CCC", stocks[2].Ticker)

	page, err := h.stocks.ListStocks(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "BBB", page[0].Ticker)

	_, err = h.stocks.GetStock(ctx, "ghost")
	require.ErrorIs(t, err, domain.ErrStockNotFound)
}

func TestAccountUseCase(t *testing.T) {
	h := newHarness(t, testConfig(), nil)
	ctx := context.Background()

	t.Run("create", func(t *testing.T) {
		acc, err := h.accountUC.CreateAccount(ctx, usecase.CreateAccountInput{Name: "alice", InitialBalance: decimal.NewFromInt(25)})
		require.NoError(t, err)
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(25)))

		stored, err := h.accountUC.GetAccount(ctx, acc.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", stored.Name)
	})

	t.Run("create rejects bad input", func(t *testing.T) {
		_, err := h.accountUC.CreateAccount(ctx, usecase.CreateAccountInput{Name: "", InitialBalance: decimal.Zero})
		require.ErrorIs(t, err, domain.ErrInvalidArgument)

		_, err = h.accountUC.CreateAccount(ctx, usecase.CreateAccountInput{Name: "bob", InitialBalance: decimal.NewFromInt(-1)})
		require.ErrorIs(t, err, domain.ErrInvalidAmount)
	})

	t.Run("deposit", func(t *testing.T) {
		acc := h.openAccount(t, "carol", "1")

		updated, err := h.accountUC.Deposit(ctx, acc.ID, decimal.RequireFromString("9.5"))
		require.NoError(t, err)
		assert.True(t, updated.Balance.Equal(decimal.RequireFromString("10.5")))

		_, err = h.accountUC.Deposit(ctx, acc.ID, decimal.Zero)
		require.ErrorIs(t, err, domain.ErrInvalidAmount)

		_, err = h.accountUC.Deposit(ctx, "ghost", decimal.NewFromInt(1))
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("holdings", func(t *testing.T) {
		acc := h.openAccount(t, "dave", "0")
		a := h.listStock(t, "AAA", 0)
		b := h.listStock(t, "BBB", 0)
		h.give(t, acc.ID, a.ID, 3)
		h.give(t, acc.ID, b.ID, 4)

		holdings, err := h.accountUC.Holdings(ctx, acc.ID)
		require.NoError(t, err)
		require.Len(t, holdings, 2)

		_, err = h.accountUC.Holdings(ctx, "ghost")
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("list", func(t *testing.T) {
		accounts, err := h.accountUC.ListAccounts(ctx, usecase.ListAccountsInput{Limit: 2})
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})
}

func TestEngineConfig_Validate(t *testing.T) {
	require.NoError(t, usecase.DefaultEngineConfig().Validate())

	tests := []struct {
		name   string
		mutate func(c *usecase.EngineConfig)
	}{
		{name: "nan weight", mutate: func(c *usecase.EngineConfig) { c.Weights.Volatility = math.NaN() }},
		{name: "infinite weight", mutate: func(c *usecase.EngineConfig) { c.Weights.Fun = math.Inf(1) }},
		{name: "zero emission", mutate: func(c *usecase.EngineConfig) { c.EmissionAmount = 0 }},
		{name: "zero default price", mutate: func(c *usecase.EngineConfig) { c.DefaultPrice = decimal.Zero }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := usecase.DefaultEngineConfig()
			tt.mutate(&cfg)
			require.ErrorIs(t, cfg.Validate(), domain.ErrInvalidArgument)
		})
	}
}

func TestMathRandSource(t *testing.T) {
	src := usecase.NewMathRandSource()
	for range 100 {
		v := src.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}
