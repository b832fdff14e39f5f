package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockroyale/internal/adapter/http/dto"
	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase"
)

type adminServiceStub struct {
	roundFn        func(ctx context.Context) (*usecase.RoundResult, error)
	bankruptFn     func(ctx context.Context, stockID string) (*usecase.RoundResult, error)
	emitFn         func(ctx context.Context) ([]*domain.Offer, error)
	recomputeFn    func(ctx context.Context, stockID string) (*domain.AveragePrice, error)
	recomputeAllFn func(ctx context.Context) (*usecase.RecomputeResult, error)
	scoresFn       func(ctx context.Context) ([]*usecase.StockScore, error)
}

func (s *adminServiceStub) RunBankruptcyRound(ctx context.Context) (*usecase.RoundResult, error) {
	return s.roundFn(ctx)
}

func (s *adminServiceStub) BankruptStock(ctx context.Context, stockID string) (*usecase.RoundResult, error) {
	return s.bankruptFn(ctx, stockID)
}

func (s *adminServiceStub) EmitOfferings(ctx context.Context) ([]*domain.Offer, error) {
	return s.emitFn(ctx)
}

func (s *adminServiceStub) Recompute(ctx context.Context, stockID string) (*domain.AveragePrice, error) {
	return s.recomputeFn(ctx, stockID)
}

func (s *adminServiceStub) RecomputeAll(ctx context.Context) (*usecase.RecomputeResult, error) {
	return s.recomputeAllFn(ctx)
}

func (s *adminServiceStub) Scores(ctx context.Context) ([]*usecase.StockScore, error) {
	return s.scoresFn(ctx)
}

func newAdminHandler(stub *adminServiceStub) *AdminHandler {
	return NewAdminHandler(stub, stub, stub)
}

func TestAdminHandler_RunRoundNoStocks(t *testing.T) {
	h := newAdminHandler(&adminServiceStub{
		roundFn: func(ctx context.Context) (*usecase.RoundResult, error) {
			return nil, domain.ErrNoStocksAvailable
		},
	})

	rr := httptest.NewRecorder()
	h.RunRound(rr, httptest.NewRequest(http.MethodPost, "/admin/round", nil))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestAdminHandler_BankruptStock(t *testing.T) {
	var gotID string
	h := newAdminHandler(&adminServiceStub{
		bankruptFn: func(ctx context.Context, stockID string) (*usecase.RoundResult, error) {
			gotID = stockID
			return &usecase.RoundResult{
				Bankruptcy: &usecase.BankruptcyResult{
					Stock:          &domain.Stock{ID: stockID, Ticker: "DOOM", Bankrupt: true},
					OffersRemoved:  2,
					HoldingsPurged: 3,
				},
			}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.BankruptStock(rr, withURLParam(httptest.NewRequest(http.MethodPost, "/admin/stocks/s1/bankrupt", nil), "id", "s1"))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "s1", gotID)
}

func TestAdminHandler_RecomputeAll(t *testing.T) {
	updated := []*domain.AveragePrice{
		{StockID: "s2", SharesTraded: 4, Price: decimal.NewFromInt(3)},
		{StockID: "s1", SharesTraded: 2, Price: decimal.NewFromInt(5)},
	}

	t.Run("all succeed", func(t *testing.T) {
		h := newAdminHandler(&adminServiceStub{
			recomputeAllFn: func(ctx context.Context) (*usecase.RecomputeResult, error) {
				return &usecase.RecomputeResult{Updated: updated}, nil
			},
		})

		rr := httptest.NewRecorder()
		h.RecomputeAll(rr, httptest.NewRequest(http.MethodPost, "/admin/prices/recompute", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp dto.RecomputeResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		require.Len(t, resp.Updated, 2)
		assert.Equal(t, "s1", resp.Updated[0].StockID)
		assert.Empty(t, resp.Failed)
	})

	t.Run("partial failure", func(t *testing.T) {
		failure := errors.New("store unavailable")
		h := newAdminHandler(&adminServiceStub{
			recomputeAllFn: func(ctx context.Context) (*usecase.RecomputeResult, error) {
				return &usecase.RecomputeResult{
					Updated: updated[:1],
					Failed:  map[string]error{"s3": failure},
				}, failure
			},
		})

		rr := httptest.NewRecorder()
		h.RecomputeAll(rr, httptest.NewRequest(http.MethodPost, "/admin/prices/recompute", nil))

		require.Equal(t, http.StatusMultiStatus, rr.Code)
		var resp dto.RecomputeResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, map[string]string{"s3": "store unavailable"}, resp.Failed)
	})

	t.Run("total failure", func(t *testing.T) {
		h := newAdminHandler(&adminServiceStub{
			recomputeAllFn: func(ctx context.Context) (*usecase.RecomputeResult, error) {
				return nil, errors.New("listing stocks failed")
			},
		})

		rr := httptest.NewRecorder()
		h.RecomputeAll(rr, httptest.NewRequest(http.MethodPost, "/admin/prices/recompute", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}

func TestAdminHandler_Scores(t *testing.T) {
	h := newAdminHandler(&adminServiceStub{
		scoresFn: func(ctx context.Context) ([]*usecase.StockScore, error) {
			return []*usecase.StockScore{{StockID: "s1", Ticker: "AAA", Score: 1.5}}, nil
		},
	})

	rr := httptest.NewRecorder()
	h.Scores(rr, httptest.NewRequest(http.MethodGet, "/admin/scores", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp []dto.ScoreResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "AAA", resp[0].Ticker)
}
