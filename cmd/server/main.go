// Package main runs the journal HTTP API together with the websocket
// metrics stream:
// - REST API over strategies, bets and metrics
// - Prometheus metrics at /metrics
// - live metrics updates at /ws
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"strategy-journal/internal/api"
	"strategy-journal/internal/cache"
	"strategy-journal/internal/config"
	"strategy-journal/internal/journal"
	"strategy-journal/internal/logging"
	"strategy-journal/internal/metrics"
	"strategy-journal/internal/observability"
	"strategy-journal/internal/storage"
	chstore "strategy-journal/internal/storage/clickhouse"
	"strategy-journal/internal/storage/memory"
	"strategy-journal/internal/storage/migrations"
	pgstore "strategy-journal/internal/storage/postgres"
	"strategy-journal/internal/stream"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 15 * time.Second

// allStores holds the storage implementations.
type allStores struct {
	strategies storage.StrategyStore
	bets       storage.BetStore
	groups     storage.BetGroupStore
	history    storage.MetricsHistoryStore
}

func main() {
	configFile := flag.String("config", "", "Optional config file (yaml, json or toml)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func run(cfg *config.Config, logger *zap.Logger) error {
	if err := observability.InitSentry(cfg.Sentry.DSN, cfg.Environment, version); err != nil {
		logger.Warn("sentry disabled", zap.Error(err))
	}
	defer observability.FlushSentry(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, cleanup, err := createStores(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	hub := streamHub(ctx, logger)

	aggOpts := []metrics.Option{
		metrics.WithLocation(cfg.Location()),
		metrics.WithLogger(logger),
		metrics.WithGroups(stores.groups),
		metrics.WithSink("strategies", stores.strategies),
		metrics.WithSink("history", stores.history),
		metrics.WithSink("stream", hub),
	}
	svcOpts := []journal.Option{
		journal.WithHistory(stores.history),
		journal.WithLogger(logger),
	}

	if cfg.Redis.URL != "" {
		client, err := cache.NewClient(ctx, cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()

		mc := cache.NewMetricsCache(client, cfg.Redis.TTL, logger)
		aggOpts = append(aggOpts, metrics.WithSink("cache", mc))
		svcOpts = append(svcOpts, journal.WithCache(mc))
		logger.Info("metrics cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
	}

	agg := metrics.NewAggregator(stores.bets, aggOpts...)
	svc := journal.NewService(stores.strategies, stores.bets, stores.groups, agg, svcOpts...)

	router := api.NewRouter(api.RouterConfig{
		Service:        svc,
		Stream:         streamHandler(hub, cfg.Server.AllowedOrigins),
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.Server.Addr),
			zap.String("timezone", cfg.Location().String()),
			zap.Bool("memory_storage", cfg.Database.UseMemory))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// createStores opens Postgres for strategies, bets and bet groups and, when configured,
// ClickHouse for the metrics history. Migrations run on startup.
func createStores(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*allStores, func(), error) {
	if cfg.UseMemory {
		logger.Warn("using in-memory storage, data is lost on restart")
		return &allStores{
			strategies: memory.NewStrategyStore(),
			bets:       memory.NewBetStore(),
			groups:     memory.NewBetGroupStore(),
			history:    memory.NewMetricsHistoryStore(),
		}, func() {}, nil
	}

	// PostgreSQL
	pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	stores := &allStores{
		strategies: pgstore.NewStrategyStore(pool),
		bets:       pgstore.NewBetStore(pool),
		groups:     pgstore.NewBetGroupStore(pool),
	}

	// ClickHouse
	if cfg.ClickHouseDSN == "" {
		logger.Info("clickhouse not configured, metrics history kept in memory")
		stores.history = memory.NewMetricsHistoryStore()
		return stores, pool.Close, nil
	}

	chConn, err := migrations.RunClickhouseMigrations(ctx, cfg.ClickHouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}
	stores.history = chstore.NewMetricsHistoryStore(chConn)

	cleanup := func() {
		if err := chConn.Close(); err != nil {
			logger.Warn("close clickhouse", zap.Error(err))
		}
		pool.Close()
	}
	return stores, cleanup, nil
}

// streamHub starts the websocket hub; it stops when ctx is cancelled.
func streamHub(ctx context.Context, logger *zap.Logger) *stream.Hub {
	hub := stream.NewHub(logger)
	go hub.Run(ctx)
	return hub
}

func streamHandler(hub *stream.Hub, allowed []string) http.Handler {
	origins := make(map[string]bool, len(allowed))
	anyOrigin := false
	for _, o := range allowed {
		if o == "*" {
			anyOrigin = true
		}
		origins[o] = true
	}
	return stream.NewHandler(hub, func(r *http.Request) bool {
		if anyOrigin {
			return true
		}
		origin := r.Header.Get("Origin")
		return origin == "" || origins[origin]
	})
}
