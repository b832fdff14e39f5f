package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/stockroyale/internal/infrastructure/metrics"
)

var httpRequestsInFlight = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "stockroyale_http_requests_in_flight",
		Help: "Number of HTTP requests currently being processed",
	},
)

// idCollections are the path segments followed by an entity ID.
var idCollections = map[string]bool{
	"stocks":   true,
	"accounts": true,
	"offers":   true,
}

// MetricsMiddleware records request counts and latencies.
type MetricsMiddleware struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetricsMiddleware creates a MetricsMiddleware reporting into m.
func NewMetricsMiddleware(m *metrics.Metrics) *MetricsMiddleware {
	return &MetricsMiddleware{requests: m.HTTPRequests, duration: m.HTTPDuration}
}

// Wrap wraps an http.Handler with metrics collection.
func (m *MetricsMiddleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := routePattern(r)
		m.requests.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		m.duration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routePattern prefers the matched chi pattern and falls back to the
// normalized URL path.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return normalizePath(r.URL.Path)
}

// normalizePath replaces entity IDs with :id to bound label cardinality.
// /api/v1/stocks/01ABC/price -> /api/v1/stocks/:id/price
func normalizePath(path string) string {
	segments := strings.Split(path, "/")
	for i := 1; i < len(segments); i++ {
		if idCollections[segments[i-1]] && segments[i] != "" {
			segments[i] = ":id"
		}
	}
	return strings.Join(segments, "/")
}
