package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/stockroyale/internal/domain"
	"github.com/iho/stockroyale/internal/usecase/mocks"
)

const offerAcceptPath = "/api/v1/offers/off-1/accept"

func newIdempotencyRequest(key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, offerAcceptPath, bytes.NewBufferString(`{}`))
	req.Header.Set(IdempotencyKeyHeader, key)
	return req
}

func TestIdempotencyMiddleware_StoreErrorStopsRequest(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	store.CheckAndSetFunc = func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
		return false, nil, context.DeadlineExceeded
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	called := false
	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(rr, newIdempotencyRequest("key-err"))

	assert.False(t, called, "handler should not be called when store errors")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestIdempotencyMiddleware_ReleasesFailedResponses(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	var updated, released bool
	store.UpdateFunc = func(ctx context.Context, key string, response []byte, ttl time.Duration) error {
		updated = true
		return nil
	}
	store.ReleaseFunc = func(ctx context.Context, key string) error {
		released = true
		return nil
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	})).ServeHTTP(rr, newIdempotencyRequest("key-fail"))

	assert.False(t, updated, "error responses are not cached")
	assert.True(t, released, "error responses free the key for a retry")
}

func TestIdempotencyMiddleware_SkipsNonMutatingRequests(t *testing.T) {
	mw := NewIdempotencyMiddleware(mocks.NewMockIdempotencyStore(), time.Hour, zerolog.Nop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/accounts", nil)
	req.Header.Set(IdempotencyKeyHeader, "key")

	called := false
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(httptest.NewRecorder(), req)

	assert.True(t, called)
}

func TestIdempotencyMiddleware_ReplaysStoredResponse(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"trade-1"}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, newIdempotencyRequest("key-456"))
	require.Equal(t, http.StatusCreated, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, newIdempotencyRequest("key-456"))

	assert.Equal(t, 1, calls, "the trade settles once")
	assert.Equal(t, "true", second.Header().Get("X-Idempotency-Replay"))
	assert.Equal(t, `{"id":"trade-1"}`, second.Body.String())
}

func TestIdempotencyMiddleware_InFlightKeyConflicts(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	store.CheckAndSetFunc = func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
		return true, []byte("processing"), nil
	}
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	rr := httptest.NewRecorder()
	mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("handler should not run while the key is in flight")
	})).ServeHTTP(rr, newIdempotencyRequest("key-busy"))

	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestIdempotencyMiddleware_ScopesKeysByCaller(t *testing.T) {
	store := mocks.NewMockIdempotencyStore()
	mw := NewIdempotencyMiddleware(store, time.Hour, zerolog.Nop())

	calls := 0
	handler := mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for _, account := range []string{"acc-1", "acc-2"} {
		req := newIdempotencyRequest("shared-key")
		req = req.WithContext(domain.WithCaller(req.Context(), domain.Caller{AccountID: account, Role: domain.RoleTrader}))
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2, calls)
}
