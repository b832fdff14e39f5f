package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Offer metrics
	OffersPlaced     *prometheus.CounterVec
	OffersAccepted   *prometheus.CounterVec
	OffersCanceled   prometheus.Counter
	SharesSettled    prometheus.Counter
	SettlementTime   prometheus.Histogram
	SettlementErrors *prometheus.CounterVec

	// Bankruptcy metrics
	BankruptcyRounds  *prometheus.CounterVec
	StocksBankrupted  prometheus.Counter
	OfferingsEmitted  prometheus.Counter
	RoundDuration     prometheus.Histogram
	WeakestScore      prometheus.Gauge
	ActiveStocksGauge prometheus.Gauge

	// Price metrics
	PriceRecomputes       *prometheus.CounterVec
	PriceRecomputeFailure prometheus.Counter
	PriceCacheLookups     *prometheus.CounterVec

	// Account metrics
	AccountsCreated prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBRetries prometheus.Counter

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		// Offer metrics
		OffersPlaced: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockroyale_offers_placed_total",
				Help: "Total number of offers placed by type",
			},
			[]string{"type"},
		),
		OffersAccepted: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockroyale_offers_accepted_total",
				Help: "Total number of offer acceptances by type",
			},
			[]string{"type"},
		),
		OffersCanceled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroyale_offers_canceled_total",
			Help: "Total number of offers canceled",
		}),
		SharesSettled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroyale_shares_settled_total",
			Help: "Total number of shares moved by settlements",
		}),
		SettlementTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockroyale_settlement_duration_seconds",
			Help:    "Duration of offer settlements",
			Buckets: prometheus.DefBuckets,
		}),
		SettlementErrors: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockroyale_settlement_errors_total",
				Help: "Total number of settlement errors by kind",
			},
			[]string{"kind"},
		),

		// Bankruptcy metrics
		BankruptcyRounds: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockroyale_bankruptcy_rounds_total",
				Help: "Total bankruptcy rounds by outcome",
			},
			[]string{"status"},
		),
		StocksBankrupted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroyale_stocks_bankrupted_total",
			Help: "Total number of stocks bankrupted",
		}),
		OfferingsEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroyale_offerings_emitted_total",
			Help: "Total number of public offerings created or raised",
		}),
		RoundDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "stockroyale_round_duration_seconds",
			Help:    "Duration of bankruptcy rounds",
			Buckets: prometheus.DefBuckets,
		}),
		WeakestScore: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stockroyale_weakest_score",
			Help: "Score of the stock bankrupted in the last round",
		}),
		ActiveStocksGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "stockroyale_active_stocks",
			Help: "Number of non-bankrupt stocks at the last evaluation",
		}),

		// Price metrics
		PriceRecomputes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockroyale_price_recomputes_total",
				Help: "Total average price recomputations by outcome",
			},
			[]string{"status"},
		),
		PriceRecomputeFailure: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroyale_price_recompute_all_failures_total",
			Help: "Total RecomputeAll runs with at least one failed stock",
		}),
		PriceCacheLookups: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockroyale_price_cache_lookups_total",
				Help: "Average price cache lookups by result",
			},
			[]string{"result"},
		),

		// Account metrics
		AccountsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroyale_accounts_created_total",
			Help: "Total number of accounts created",
		}),

		// API metrics
		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockroyale_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockroyale_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBRetries: promauto.NewCounter(prometheus.CounterOpts{
			Name: "stockroyale_db_retries_total",
			Help: "Total transaction retries after serialization failures or deadlocks",
		}),

		// Rate limiting metrics
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockroyale_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),

		// Outbox metrics
		EventsPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockroyale_events_published_total",
				Help: "Total outbox events relayed by type and status",
			},
			[]string{"event_type", "status"},
		),
	}
}
