package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	// Replace global default registry to allow test inspection.
	prometheus.DefaultRegisterer = registry
	prometheus.DefaultGatherer = registry

	m := New()

	if m.OffersAccepted == nil || m.HTTPRequests == nil || m.BankruptcyRounds == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.OffersAccepted.WithLabelValues("sell").Inc()
	m.OffersAccepted.WithLabelValues("sell").Inc()

	if got := testutil.ToFloat64(m.OffersAccepted.WithLabelValues("sell")); got != 2 {
		t.Fatalf("expected 2 acceptances, got %v", got)
	}

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}
