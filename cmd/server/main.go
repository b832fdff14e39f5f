package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/stockroyale/internal/adapter/http"
	"github.com/iho/stockroyale/internal/adapter/http/handler"
	"github.com/iho/stockroyale/internal/adapter/http/middleware"
	"github.com/iho/stockroyale/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/stockroyale/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/stockroyale/internal/adapter/repository/redis"
	"github.com/iho/stockroyale/internal/infrastructure/config"
	"github.com/iho/stockroyale/internal/infrastructure/eventpublisher"
	"github.com/iho/stockroyale/internal/infrastructure/logger"
	"github.com/iho/stockroyale/internal/infrastructure/metrics"
	"github.com/iho/stockroyale/internal/infrastructure/postgres"
	"github.com/iho/stockroyale/internal/infrastructure/redis"
	"github.com/iho/stockroyale/internal/infrastructure/scheduler"
	"github.com/iho/stockroyale/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

// stores bundles the ledger store implementation chosen by configuration.
type stores struct {
	txManager  usecase.TransactionManager
	stocks     usecase.StockRepository
	accounts   usecase.AccountRepository
	ownerships usecase.OwnershipRepository
	offers     usecase.OfferRepository
	trades     usecase.TradeRepository
	prices     usecase.PriceRepository
	outbox     usecase.OutboxRepository
	ledger     usecase.LedgerRepository
	checks     map[string]handler.Check
	close      func()
}

func newMemoryStores() *stores {
	store := memory.NewStore()
	return &stores{
		txManager:  store.TxManager(),
		stocks:     memory.NewStockRepository(store),
		accounts:   memory.NewAccountRepository(store),
		ownerships: memory.NewOwnershipRepository(store),
		offers:     memory.NewOfferRepository(store),
		trades:     memory.NewTradeRepository(store),
		prices:     memory.NewPriceRepository(store),
		outbox:     memory.NewOutboxRepository(store),
		ledger:     memory.NewLedgerRepository(store),
		checks:     map[string]handler.Check{},
		close:      func() {},
	}
}

func newPostgresStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.MigrationsPath != "" {
		if err := postgres.NewMigrator(cfg.DatabaseURL, cfg.MigrationsPath, log).Up(); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
	defer cancel()

	pool, err := postgres.NewPool(connectCtx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	log.Info().Msg("connected to postgres")

	return &stores{
		txManager:  postgresRepo.NewTxManager(pool),
		stocks:     postgresRepo.NewStockRepository(pool),
		accounts:   postgresRepo.NewAccountRepository(pool),
		ownerships: postgresRepo.NewOwnershipRepository(pool),
		offers:     postgresRepo.NewOfferRepository(pool),
		trades:     postgresRepo.NewTradeRepository(pool),
		prices:     postgresRepo.NewPriceRepository(pool),
		outbox:     postgresRepo.NewOutboxRepository(pool),
		ledger:     postgresRepo.NewLedgerRepository(pool),
		checks:     map[string]handler.Check{"postgres": pool.Ping},
		close:      pool.Close,
	}, nil
}

// services holds the wired use cases.
type services struct {
	stocks     *usecase.StockUseCase
	accounts   *usecase.AccountUseCase
	offers     *usecase.OfferUseCase
	prices     *usecase.PriceUseCase
	evaluator  *usecase.Evaluator
	bankruptcy *usecase.BankruptcyUseCase
	ledger     *usecase.LedgerUseCase
}

func newServices(s *stores, cache usecase.PriceCache, engine usecase.EngineConfig, m *metrics.Metrics, log zerolog.Logger) *services {
	retrier := postgresRepo.NewRetrier(log, m)
	idGen := postgresRepo.NewULIDGenerator()
	evaluator := usecase.NewEvaluator(s.stocks, s.ownerships, s.prices, usecase.NewMathRandSource(), engine)

	return &services{
		stocks:   usecase.NewStockUseCase(s.txManager, retrier, s.stocks, s.outbox, idGen),
		accounts: usecase.NewAccountUseCase(s.txManager, retrier, s.accounts, s.ownerships, s.outbox, idGen, m),
		offers: usecase.NewOfferUseCase(
			s.txManager, retrier, s.stocks, s.accounts, s.ownerships, s.offers, s.trades, s.outbox, idGen, m, log,
		),
		prices:    usecase.NewPriceUseCase(s.txManager, retrier, s.stocks, s.trades, s.prices, cache, idGen, engine, m, log),
		evaluator: evaluator,
		bankruptcy: usecase.NewBankruptcyUseCase(
			s.txManager, retrier, s.stocks, s.ownerships, s.offers, s.prices, s.outbox, cache, evaluator, idGen, engine, m, log,
		),
		ledger: usecase.NewLedgerUseCase(s.ledger),
	}
}

// newJobs builds the periodic engine jobs. A zero interval disables a job.
func newJobs(cfg *config.Config, svc *services) []scheduler.Job {
	return []scheduler.Job{
		{
			Name:     "bankruptcy_round",
			Interval: cfg.RoundInterval,
			Run: func(ctx context.Context) error {
				_, err := svc.bankruptcy.RunBankruptcyRound(ctx)
				return err
			},
		},
		{
			Name:     "price_recompute",
			Interval: cfg.PriceRecomputeInterval,
			Run: func(ctx context.Context) error {
				_, err := svc.prices.RecomputeAll(ctx)
				return err
			},
		},
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	engine, err := cfg.Engine()
	if err != nil {
		return fmt.Errorf("engine configuration: %w", err)
	}

	m := metrics.New()

	var s *stores
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn().Msg("using in-memory ledger store, state is lost on exit")
		s = newMemoryStores()
	default:
		s, err = newPostgresStores(ctx, cfg, log)
		if err != nil {
			return err
		}
	}
	defer s.close()

	var (
		cache       usecase.PriceCache
		idempotency usecase.IdempotencyStore
		publisher   eventpublisher.Publisher = eventpublisher.NewLogPublisher(log)
		redisClient *goredis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")

		cache = redisRepo.NewPriceCache(redisClient, cfg.PriceCacheTTL)
		idempotency = redisRepo.NewIdempotencyStore(redisClient)
		publisher = eventpublisher.NewRedisPublisher(redisClient, eventpublisher.DefaultChannel)
		s.checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	svc := newServices(s, cache, engine, m, log)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		StockHandler:     handler.NewStockHandler(svc.stocks, svc.prices),
		AccountHandler:   handler.NewAccountHandler(svc.accounts),
		OfferHandler:     handler.NewOfferHandler(svc.offers),
		AdminHandler:     handler.NewAdminHandler(svc.bankruptcy, svc.prices, svc.evaluator),
		LedgerHandler:    handler.NewLedgerHandler(svc.ledger),
		HealthHandler:    handler.NewHealthHandler(s.checks),
		Logger:           log,
		Metrics:          m,
		RateLimiter:      rateLimiter,
		IdempotencyStore: idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
	})

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	outbox := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: s.outbox,
		Publisher:  publisher,
		Logger:     log.With().Str("component", "event_publisher").Logger(),
		Metrics:    m,
		Interval:   cfg.OutboxInterval,
	})
	jobs := scheduler.New(log.With().Str("component", "scheduler").Logger(), newJobs(cfg, svc)...)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.Storage).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error { return ignoreCanceled(outbox.Start(gctx)) })
	g.Go(func() error { return ignoreCanceled(jobs.Start(gctx)) })
	g.Go(func() error {
		rateLimiter.RunCleanup(gctx, time.Hour)
		return nil
	})

	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
