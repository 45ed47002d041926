package core

// sweeper.go provides the periodic freshness sweep.
//
// The sweep walks every configured dataset through the normal gated Get,
// so entries stay warm even for datasets no request has touched recently.
// Within the TTL the sweep is a no-op per dataset; it never bypasses the
// oracle. It logs progress and errors but never fails the application if
// an individual dataset cannot be read.

import (
	"context"
	"log/slog"
	"time"
)

// SweepConfig holds configuration for the freshness sweep.
type SweepConfig struct {
	Interval time.Duration   // How often to run; <= 0 disables the sweep
	Limiter  *RefreshLimiter // Optional bound on concurrent file reads
}

// StartSweep starts a background loop that periodically re-checks every
// configured dataset. It runs one sweep immediately, then every Interval.
// The loop stops when the context is cancelled.
func (s *Store) StartSweep(ctx context.Context, cfg SweepConfig) {
	if cfg.Interval <= 0 {
		slog.Info("freshness sweep disabled")
		return
	}

	slog.Info("freshness sweep started", "interval", cfg.Interval)

	s.runSweep(ctx, cfg)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("freshness sweep stopped")
			return
		case <-ticker.C:
			s.runSweep(ctx, cfg)
		}
	}
}

// runSweep performs one pass over the catalog.
func (s *Store) runSweep(ctx context.Context, cfg SweepConfig) {
	start := time.Now()
	refreshed, failed := 0, 0

	for _, ds := range s.reg.All() {
		if ctx.Err() != nil {
			return
		}

		if cfg.Limiter != nil {
			if err := cfg.Limiter.Acquire(ctx); err != nil {
				slog.Warn("sweep skipped dataset, no refresh slot", "dataset", ds.ID, "error", err)
				failed++
				continue
			}
		}

		did, _, err := s.Get(ctx, ds.ID)

		if cfg.Limiter != nil {
			cfg.Limiter.Release()
		}

		if err != nil {
			slog.Error("sweep refresh failed", "dataset", ds.ID, "error", err)
			failed++
			continue
		}
		if did {
			refreshed++
		}
	}

	slog.Info("freshness sweep completed",
		"refreshed", refreshed,
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
