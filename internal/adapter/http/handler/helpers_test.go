package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockroyale/internal/adapter/http/dto"
	"github.com/iho/stockroyale/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stocks?limit=50", nil)
	assert.Equal(t, 50, parseIntQuery(req, "limit", 10))

	req = httptest.NewRequest(http.MethodGet, "/stocks?limit=invalid", nil)
	assert.Equal(t, 10, parseIntQuery(req, "limit", 10), "expected fallback to default")

	req = httptest.NewRequest(http.MethodGet, "/stocks", nil)
	assert.Equal(t, 25, parseIntQuery(req, "limit", 25))
}

func TestPagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stocks?limit=5000&offset=-3", nil)
	limit, offset := pagination(req)
	assert.Equal(t, 1000, limit)
	assert.Equal(t, 0, offset)
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"stock not found", domain.ErrStockNotFound, http.StatusNotFound},
		{"offer not found", domain.ErrOfferNotFound, http.StatusNotFound},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"self trade", domain.ErrSelfTrade, http.StatusBadRequest},
		{"insufficient funds", domain.ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"insufficient shares", domain.ErrInsufficientShares, http.StatusUnprocessableEntity},
		{"bankrupt stock", domain.ErrBankruptStock, http.StatusConflict},
		{"not writer", domain.ErrNotOfferWriter, http.StatusForbidden},
		{"conflict", domain.ErrConcurrencyConflict, http.StatusConflict},
		{"forbidden", domain.ErrForbidden, http.StatusForbidden},
		{"wrapped", fmt.Errorf("accept: %w", domain.ErrInsufficientFunds), http.StatusUnprocessableEntity},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, mapDomainError(tt.err))
		})
	}
}

func TestWriteDomainError(t *testing.T) {
	t.Run("conflict sets retry hint", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeDomainError(rr, "failed", domain.ErrConcurrencyConflict)

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "1", rr.Header().Get("Retry-After"))

		var resp dto.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
		assert.Equal(t, string(domain.KindConcurrencyConflict), resp.Kind)
	})

	t.Run("store failures hide details", func(t *testing.T) {
		rr := httptest.NewRecorder()
		writeDomainError(rr, "failed", errors.New("pq: connection refused"))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "connection refused")
	})
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","currency":"USD"}`))
	rr := httptest.NewRecorder()

	var dst dto.CreateAccountRequest
	assert.False(t, decodeJSON(rr, req, &dst))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCallerOrReject(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()

	_, ok := callerOrReject(rr, req)
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	want := domain.Caller{AccountID: "acc-1", Role: domain.RoleTrader}
	req = req.WithContext(domain.WithCaller(req.Context(), want))
	got, ok := callerOrReject(httptest.NewRecorder(), req)
	assert.True(t, ok)
	assert.Equal(t, want, got)
}
