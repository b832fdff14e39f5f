package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Limit(t *testing.T) {
	m := newTestMetrics()
	rl := NewRateLimiter(1, 2, m)

	handler := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	serve := func(remote string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stocks", nil)
		req.RemoteAddr = remote
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusOK, serve("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.1:1235"))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1:1236"))
	assert.Equal(t, http.StatusOK, serve("10.0.0.2:1234"), "other clients keep their own bucket")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RateLimitHits.WithLabelValues("10.0.0.1")))
}

func TestGetIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5000"
	assert.Equal(t, "192.0.2.1", getIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.7")
	assert.Equal(t, "198.51.100.7", getIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getIP(req))
}

func TestRateLimiter_CleanupLimiters(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 1, nil)
	rl.now = func() time.Time { return now }

	rl.getLimiter("old")
	now = now.Add(2 * time.Hour)
	rl.getLimiter("fresh")

	rl.CleanupLimiters(time.Hour)

	assert.NotContains(t, rl.limiters, "old")
	assert.Contains(t, rl.limiters, "fresh")
}
