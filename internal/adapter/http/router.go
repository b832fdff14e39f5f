package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/iho/stockroyale/internal/adapter/http/handler"
	"github.com/iho/stockroyale/internal/adapter/http/middleware"
	"github.com/iho/stockroyale/internal/infrastructure/metrics"
	"github.com/iho/stockroyale/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	StockHandler   *handler.StockHandler
	AccountHandler *handler.AccountHandler
	OfferHandler   *handler.OfferHandler
	AdminHandler   *handler.AdminHandler
	LedgerHandler  *handler.LedgerHandler
	HealthHandler  *handler.HealthHandler

	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics).Wrap)
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity)

		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger).Wrap)
		}

		// Stocks
		r.Route("/stocks", func(r chi.Router) {
			r.With(middleware.RequireAdmin).Post("/", cfg.StockHandler.Create)
			r.Get("/", cfg.StockHandler.List)
			r.Get("/{id}", cfg.StockHandler.Get)
			r.Get("/{id}/price", cfg.StockHandler.Price)
			r.Get("/{id}/history", cfg.StockHandler.History)
			r.Get("/{id}/offers", cfg.OfferHandler.ListByStock)
			r.Get("/{id}/trades", cfg.OfferHandler.TradesByStock)
		})

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.With(middleware.RequireAdmin).Post("/", cfg.AccountHandler.Create)
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{id}", cfg.AccountHandler.Get)
			r.Get("/{id}/holdings", cfg.AccountHandler.Holdings)
			r.Get("/{id}/trades", cfg.OfferHandler.TradesByAccount)
			r.With(middleware.RequireAdmin).Post("/{id}/deposit", cfg.AccountHandler.Deposit)
		})

		// Offers
		r.Route("/offers", func(r chi.Router) {
			r.Post("/", cfg.OfferHandler.Place)
			r.Get("/{id}", cfg.OfferHandler.Get)
			r.Post("/{id}/accept", cfg.OfferHandler.Accept)
			r.Delete("/{id}", cfg.OfferHandler.Cancel)
		})

		// Engine administration
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Post("/round", cfg.AdminHandler.RunRound)
			r.Post("/emit", cfg.AdminHandler.Emit)
			r.Post("/stocks/{id}/bankrupt", cfg.AdminHandler.BankruptStock)
			r.Post("/prices/recompute", cfg.AdminHandler.RecomputeAll)
			r.Post("/prices/{id}/recompute", cfg.AdminHandler.RecomputePrice)
			r.Get("/scores", cfg.AdminHandler.Scores)
		})

		r.Get("/ledger/consistency", cfg.LedgerHandler.CheckConsistency)
	})

	return r
}
