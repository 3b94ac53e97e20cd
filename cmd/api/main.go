// Command api is the Sports PTJ API server.
//
// Usage:
//
//	sportsptj-api
//	API_PORT=8080 sportsptj-api

// @title Sports PTJ API
// @version 1.0.0
// @description Premier League teams, players, staff, matches and standings, with accounts, favorite teams and a personal dashboard. Match and standings data is refreshed from ESPN.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Kimkangyeon-17/sports-ptj/internal/api"
	"github.com/Kimkangyeon-17/sports-ptj/internal/api/handler"
	"github.com/Kimkangyeon-17/sports-ptj/internal/auth"
	"github.com/Kimkangyeon-17/sports-ptj/internal/cache"
	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/db"
	"github.com/Kimkangyeon-17/sports-ptj/internal/listener"
	"github.com/Kimkangyeon-17/sports-ptj/internal/maintenance"
	"github.com/Kimkangyeon-17/sports-ptj/internal/provider/espn"
	"github.com/Kimkangyeon-17/sports-ptj/internal/refresh"
	"github.com/Kimkangyeon-17/sports-ptj/internal/store"

	_ "github.com/Kimkangyeon-17/sports-ptj/docs" // swagger docs
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	st := store.New(pool.Pool)

	// Initialize cache
	appCache, closeCache := newCache(ctx, cfg, logger)
	defer closeCache()

	// ESPN refresh: on read when stale, and on the cron schedule
	source := espn.NewClient(espn.Options{
		BaseURL:           cfg.ESPNBaseURL,
		League:            cfg.ESPNLeague,
		RequestsPerMinute: cfg.ESPNRequestsPerMinute,
		Timeout:           cfg.ESPNTimeout,
	}, logger)
	refresher := refresh.New(cfg, st, source, logger,
		refresh.WithLocker(pool),
		refresh.OnSync(func(kind refresh.Kind) {
			cache.Invalidate(context.Background(), appCache, string(kind))
			if err := listener.Publish(context.Background(), pool.Pool, listener.Event{Kind: string(kind), Source: "api"}); err != nil {
				logger.Warn("Failed to publish refresh event", "kind", kind, "error", err)
			}
		}),
	)

	// Drop cached responses when another process refreshes data
	go listener.Start(ctx, cfg.DatabaseURL, func(ev listener.Event) {
		cache.Invalidate(context.Background(), appCache, ev.Kind)
	}, logger)
	if cfg.RefreshCron != "" {
		scheduler := refresh.NewScheduler(refresher, cfg.RefreshCron, logger)
		if err := scheduler.Start(ctx); err != nil {
			logger.Error("Failed to start refresh scheduler", "error", err)
			os.Exit(1)
		}
	}

	// Start maintenance tickers (refresh tokens, standings snapshots)
	mcfg := maintenance.DefaultConfig()
	mcfg.TokenInterval = cfg.MaintenanceInterval
	mcfg.SnapshotDir = cfg.StandingsDir
	mcfg.SnapshotRetention = cfg.StandingsRetention
	go maintenance.New(st, mcfg, logger).Start(ctx)

	// Create router
	tokens := auth.NewIssuer(cfg, st)
	providers := auth.Providers(cfg)
	for name, p := range providers {
		logger.Info("Social login provider", "provider", name, "configured", p.Configured())
	}
	h := handler.New(handler.Deps{
		Store:     st,
		Refresher: refresher,
		Tokens:    tokens,
		Cache:     appCache,
		Providers: providers,
		Ping:      pool.HealthCheck,
		Config:    cfg,
		Logger:    logger,
	})
	router := api.NewRouter(h, tokens, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RefreshTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Sports PTJ API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

// newCache returns the Redis cache when REDIS_URL is set and reachable, and
// the in-process cache otherwise.
func newCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Store, func()) {
	if cfg.CacheEnabled && cfg.RedisURL != "" {
		r, err := cache.NewRedis(ctx, cfg.RedisURL, logger)
		if err == nil {
			logger.Info("Cache initialized", "backend", "redis")
			return r, func() { r.Close() }
		}
		logger.Warn("Redis unavailable, using in-memory cache", "error", err)
	}
	c := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "backend", "memory", "enabled", cfg.CacheEnabled)
	return c, c.Close
}
