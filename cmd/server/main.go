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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/fundstransfer/internal/adapter/http"
	"github.com/iho/fundstransfer/internal/adapter/http/handler"
	"github.com/iho/fundstransfer/internal/adapter/http/middleware"
	memoryRepo "github.com/iho/fundstransfer/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/fundstransfer/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/fundstransfer/internal/adapter/repository/redis"
	"github.com/iho/fundstransfer/internal/infrastructure/config"
	"github.com/iho/fundstransfer/internal/infrastructure/logger"
	"github.com/iho/fundstransfer/internal/infrastructure/metrics"
	"github.com/iho/fundstransfer/internal/infrastructure/postgres"
	"github.com/iho/fundstransfer/internal/infrastructure/redis"
	"github.com/iho/fundstransfer/internal/usecase"
)

const limiterCleanupInterval = 10 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log.Logger); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}

// application is the wired service ready to serve.
type application struct {
	router  http.Handler
	limiter *middleware.RateLimiter
	closers []func()
}

func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// stores is the storage backend selected by configuration.
type stores struct {
	txManager    usecase.TransactionManager
	accountRepo  usecase.AccountFundsRepository
	transferRepo usecase.TransferRepository
	retrier      usecase.Retrier
	pinger       handler.Pinger
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	app, err := newApplication(ctx, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer app.close()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      app.router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("port", cfg.HTTPPort).Str("store", cfg.StoreBackend).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	if app.limiter != nil {
		g.Go(func() error {
			ticker := time.NewTicker(limiterCleanupInterval)
			defer ticker.Stop()

			for {
				select {
				case <-gctx.Done():
					return nil
				case <-ticker.C:
					if removed := app.limiter.CleanupLimiters(limiterCleanupInterval); removed > 0 {
						logger.Debug().Int("removed", removed).Msg("pruned idle rate limiters")
					}
				}
			}
		})
	}

	return g.Wait()
}

func newApplication(ctx context.Context, cfg *config.Config, logger zerolog.Logger, registry *prometheus.Registry) (*application, error) {
	app := &application{}

	s, err := newStores(ctx, cfg, logger, app)
	if err != nil {
		app.close()
		return nil, err
	}

	var (
		idempotencyStore usecase.IdempotencyStore
		redisPinger      handler.Pinger
	)

	if cfg.RedisEnabled {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		app.closers = append(app.closers, func() { client.Close() })
		logger.Info().Msg("connected to redis")

		idempotencyStore = redisRepo.NewIdempotencyStore(client)
		s.transferRepo = redisRepo.NewCachedTransferRepository(
			s.transferRepo,
			redisRepo.NewCache(client, "transfer:"),
			cfg.TransferCacheTTL,
			logger,
		)
		redisPinger = redis.NewPinger(client)
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	accountUC := usecase.NewAccountUseCase(s.accountRepo, postgresRepo.NewULIDGenerator())
	transferUC := usecase.NewTransferUseCase(
		s.txManager,
		s.accountRepo,
		s.transferRepo,
		usecase.WithDuplicatePolicy(cfg.Policy()),
		usecase.WithDuplicateLookup(cfg.DuplicateLookupAttempts, cfg.DuplicateLookupInterval),
		usecase.WithLogger(logger),
	)

	if cfg.RateLimitRPS > 0 {
		app.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
	}

	app.router = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC, m),
		TransferHandler:  handler.NewTransferHandler(transferUC, s.retrier, m),
		HealthHandler:    handler.NewHealthHandler(s.pinger, redisPinger),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      app.limiter,
		Metrics:          m,
		Gatherer:         registry,
		Logger:           logger,
	})

	return app, nil
}

func newStores(ctx context.Context, cfg *config.Config, logger zerolog.Logger, app *application) (*stores, error) {
	switch cfg.StoreBackend {
	case config.StoreMemory:
		store := memoryRepo.NewStore()
		logger.Warn().Msg("using in-memory store, data is lost on restart")

		return &stores{
			txManager:    store,
			accountRepo:  memoryRepo.NewAccountFundsRepository(store),
			transferRepo: memoryRepo.NewTransferRepository(store),
			pinger:       store,
		}, nil

	case config.StorePostgres:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
				return nil, fmt.Errorf("failed to run migrations: %w", err)
			}
		}

		connectCtx, cancel := context.WithTimeout(ctx, cfg.DatabaseTimeout)
		defer cancel()

		pool, err := postgres.NewPoolWithConfig(connectCtx, postgres.PoolConfig{
			DatabaseURL: cfg.DatabaseURL,
			MaxConns:    cfg.DatabaseMaxConns,
			MinConns:    cfg.DatabaseMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		app.closers = append(app.closers, pool.Close)
		logger.Info().Msg("connected to postgres")

		return &stores{
			txManager:    postgresRepo.NewTxManager(pool),
			accountRepo:  postgresRepo.NewAccountFundsRepository(pool),
			transferRepo: postgresRepo.NewTransferRepository(pool),
			retrier:      postgresRepo.NewRetrier(logger),
			pinger:       pool,
		}, nil
	}

	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
}
