package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/af-corp/tourdesk/internal/config"
	"github.com/af-corp/tourdesk/internal/generation"
	"github.com/af-corp/tourdesk/internal/imagesearch"
	"github.com/af-corp/tourdesk/internal/injection"
	"github.com/af-corp/tourdesk/internal/llm"
	"github.com/af-corp/tourdesk/internal/ratelimit"
	"github.com/af-corp/tourdesk/internal/server"
	"github.com/af-corp/tourdesk/internal/store"
	"github.com/af-corp/tourdesk/internal/telemetry"
)

var version = "dev"

func main() {
	configDir := flag.String("config", "configs", "path to configuration directory")
	flag.Parse()

	bootLogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// Load configuration
	loader := config.NewLoader(*configDir, bootLogger)
	if err := loader.Load(); err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	cfg := loader.Config()

	logger := telemetry.NewLogger(os.Stdout, cfg.Telemetry)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loader.Watch(ctx); err != nil {
		logger.Warn("failed to start config watcher", "error", err)
	}

	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.Telemetry)
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
		shutdownTracing = func(context.Context) error { return nil }
	}

	// Connect to PostgreSQL
	db, err := store.Open(cfg.Database)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var st store.Store = store.NewPostgres(db)
	if err := st.Ping(ctx); err != nil {
		logger.Warn("database not reachable (duplicate checks will fail until it is)", "error", err)
	} else {
		logger.Info("database connected")
	}

	// Connect to Redis
	var rdb *redis.Client
	if len(cfg.Redis.Addresses) > 0 && cfg.Redis.Addresses[0] != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addresses[0],
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("redis not reachable (shared limiter and cache disabled)", "error", err)
			rdb.Close()
			rdb = nil
		} else {
			logger.Info("redis connected")
			st = store.NewCached(st, rdb, cfg.Redis.DestinationCacheTTL)
		}
	}

	metrics := telemetry.NewMetrics()

	// Rate limiter
	var limiter ratelimit.Limiter
	switch {
	case cfg.RateLimit.Backend == "redis" && rdb != nil:
		limiter = ratelimit.NewRedisLimiter(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window)
		logger.Info("rate limiter using redis", "requests", cfg.RateLimit.Requests, "window", cfg.RateLimit.Window)
	default:
		if cfg.RateLimit.Backend == "redis" {
			logger.Warn("redis rate limiter requested but redis is unavailable, using memory")
		}
		mem := ratelimit.NewMemoryLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
		go mem.Run(ctx, cfg.RateLimit.SweepInterval)
		limiter = mem
	}

	// Build provider registry
	providerRegistry := llm.BuildFromConfig(loader.Providers())
	breaker := cfg.Routing.CircuitBreaker
	healthTracker := llm.NewHealthTracker(breaker.FailureThreshold, breaker.RecoveryInterval)
	loader.OnReload(func() {
		providerRegistry.Replace(llm.BuildFromConfig(loader.Providers()))
		healthTracker.Reset()
		logger.Info("provider registry reloaded, circuits reset", "providers", providerRegistry.Names())
	})

	generator := llm.NewClient(providerRegistry, healthTracker, loader.Models, cfg.Generation.Timeout)

	pipelines := generation.NewPipelines(generation.Deps{
		Generator: generator,
		Store:     st,
		Images:    imagesearch.New(cfg.ImageSearch),
		Injection: injection.NewScanner(func() config.InjectionConfig { return loader.Config().Injection }),
		Metrics:   metrics,
		Config:    func() config.GenerationConfig { return loader.Config().Generation },
	})

	checks := map[string]server.Check{
		"database": st.Ping,
	}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}

	r := server.NewRouter(server.Options{
		Pipelines:      pipelines,
		Limiter:        limiter,
		Metrics:        metrics,
		Health:         healthTracker,
		Checks:         checks,
		MetricsHandler: promhttp.Handler(),
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Version:        version,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	errCh := make(chan error, 1)
	go func() {
		logger.Info("tourdesk starting", "addr", addr, "version", version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdown)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown failed", "error", err)
	}
	if rdb != nil {
		rdb.Close()
	}
	logger.Info("tourdesk stopped")
}
