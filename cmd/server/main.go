package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/datafeed/internal/catalog"
	"github.com/JonMunkholm/datafeed/internal/config"
	"github.com/JonMunkholm/datafeed/internal/core"
	"github.com/JonMunkholm/datafeed/internal/logging"
	"github.com/JonMunkholm/datafeed/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"roots", len(cfg.Data.Roots),
		"cache_ttl", cfg.Cache.TTL,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	// Load the dataset catalog
	reg, err := catalog.LoadFile(cfg.Data.CatalogPath)
	if err != nil {
		slog.Error("failed to load catalog", "path", cfg.Data.CatalogPath, "error", err)
		os.Exit(1)
	}
	slog.Info("catalog loaded", "datasets", reg.Count(), "path", cfg.Data.CatalogPath)

	// Build the cache store and refresh limiter
	resolver := catalog.NewResolver(cfg.Data.Roots)
	store := core.NewStore(reg, resolver, core.NewFileReader(), cfg.Cache.TTL)
	limiter := core.NewRefreshLimiter(cfg.Cache.MaxConcurrentRefreshes, cfg.Cache.RefreshMaxWait)

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	// Warm the cache so first requests are served from memory
	if cfg.Cache.WarmUpOnStart {
		store.WarmUp(jobCtx)
	}

	// Periodic freshness sweep (gated per dataset by TTL + hash)
	go store.StartSweep(jobCtx, core.SweepConfig{
		Interval: cfg.Cache.SweepInterval,
		Limiter:  limiter,
	})

	server := web.NewServer(store, limiter, cfg, jobCtx)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// Stop background jobs
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		// Wait for in-flight background refreshes to complete (with timeout)
		if limiter.ActiveCount() > 0 {
			slog.Info("waiting for refreshes to complete", "active", limiter.ActiveCount())
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("refreshes did not complete in time", "error", err)
			} else {
				slog.Info("all refreshes completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
