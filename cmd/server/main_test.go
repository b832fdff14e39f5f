package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/infrastructure/config"
	"github.com/iho/stockroyale/internal/usecase"
)

func newTestServices(t *testing.T) *services {
	t.Helper()
	return newServices(newMemoryStores(), nil, usecase.DefaultEngineConfig(), nil, zerolog.Nop())
}

func TestNewJobsHonorsIntervals(t *testing.T) {
	cfg := &config.Config{RoundInterval: time.Minute}
	jobs := newJobs(cfg, newTestServices(t))

	require.Len(t, jobs, 2)
	assert.Equal(t, "bankruptcy_round", jobs[0].Name)
	assert.Equal(t, time.Minute, jobs[0].Interval)
	assert.Equal(t, "price_recompute", jobs[1].Name)
	assert.Zero(t, jobs[1].Interval)
}

func TestRoundJobRunsAgainstStore(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)
	jobs := newJobs(&config.Config{RoundInterval: time.Minute}, svc)

	err := jobs[0].Run(ctx)
	require.True(t, errors.Is(err, domain.ErrNoStocksAvailable), "empty market has nothing to bankrupt: %v", err)

	for _, ticker := range []string{"AAA", "BBB"} {
		_, err := svc.stocks.CreateStock(ctx, usecase.CreateStockInput{Name: ticker, Ticker: ticker, PublicFloat: 10})
		require.NoError(t, err)
	}
	_, err = svc.accounts.CreateAccount(ctx, usecase.CreateAccountInput{Name: "alice", InitialBalance: decimal.NewFromInt(5)})
	require.NoError(t, err)

	require.NoError(t, jobs[0].Run(ctx))

	listed, err := svc.stocks.ListStocks(ctx, 10, 0)
	require.NoError(t, err)
	bankrupt := 0
	for _, s := range listed {
		if s.Bankrupt {
			bankrupt++
		}
	}
	assert.Equal(t, 1, bankrupt)

	require.NoError(t, jobs[1].Run(ctx))

	report, err := svc.ledger.CheckConsistency(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
}

func TestIgnoreCanceled(t *testing.T) {
	assert.NoError(t, ignoreCanceled(context.Canceled))
	assert.NoError(t, ignoreCanceled(nil))
	assert.Error(t, ignoreCanceled(context.DeadlineExceeded))
}
