// Package maintenance runs periodic housekeeping as Go tickers inside the
// API process: expired refresh tokens are deleted and old standings
// snapshots are removed.
package maintenance

import (
	"context"
	"log/slog"
	"time"

	"github.com/Kimkangyeon-17/sports-ptj/internal/refresh"
)

// TokenPurger deletes refresh tokens that expired or were revoked before
// cutoff.
type TokenPurger interface {
	PurgeRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error)
}

// Config controls maintenance task intervals. Zero duration disables a task.
type Config struct {
	TokenInterval    time.Duration // Expired and revoked refresh tokens
	SnapshotInterval time.Duration // Standings snapshot files
	SnapshotDir      string
	// SnapshotRetention is how long snapshot files are kept.
	SnapshotRetention time.Duration
	// TokenGrace delays deletion of expired and revoked tokens.
	TokenGrace time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		TokenInterval:     time.Hour,
		SnapshotInterval:  24 * time.Hour,
		SnapshotDir:       "data/standings",
		SnapshotRetention: 30 * 24 * time.Hour,
		TokenGrace:        24 * time.Hour,
	}
}

// Runner executes the maintenance tasks.
type Runner struct {
	tokens TokenPurger
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Runner. tokens may be nil to skip token cleanup.
func New(tokens TokenPurger, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{tokens: tokens, cfg: cfg, logger: logger, now: time.Now}
}

// Start launches all configured maintenance tickers. Blocks until ctx is
// cancelled. Intended to be called with `go`.
func (r *Runner) Start(ctx context.Context) {
	r.logger.Info("Maintenance tickers started",
		"tokens", r.cfg.TokenInterval,
		"snapshots", r.cfg.SnapshotInterval)

	tickers := make([]*time.Ticker, 0, 2)
	defer func() {
		for _, t := range tickers {
			t.Stop()
		}
	}()

	if r.cfg.TokenInterval > 0 && r.tokens != nil {
		t := time.NewTicker(r.cfg.TokenInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { r.PurgeTokens(ctx) })
	}

	if r.cfg.SnapshotInterval > 0 && r.cfg.SnapshotDir != "" {
		t := time.NewTicker(r.cfg.SnapshotInterval)
		tickers = append(tickers, t)
		go runLoop(ctx, t.C, func() { r.PurgeSnapshots() })
	}

	<-ctx.Done()
	r.logger.Info("Maintenance tickers stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// PurgeTokens deletes refresh tokens that expired or were revoked more than
// TokenGrace ago and returns how many were removed.
func (r *Runner) PurgeTokens(ctx context.Context) int64 {
	n, err := r.tokens.PurgeRefreshTokens(ctx, r.now().Add(-r.cfg.TokenGrace))
	if err != nil {
		r.logger.Warn("Cleanup: failed to purge refresh tokens", "error", err)
		return 0
	}
	if n > 0 {
		r.logger.Info("Cleanup: purged refresh tokens", "count", n)
	}
	return n
}

// PurgeSnapshots removes standings snapshots older than SnapshotRetention.
func (r *Runner) PurgeSnapshots() int {
	if r.cfg.SnapshotRetention <= 0 {
		return 0
	}
	n, err := refresh.PurgeSnapshots(r.cfg.SnapshotDir, r.now().Add(-r.cfg.SnapshotRetention))
	if err != nil {
		r.logger.Warn("Cleanup: failed to purge standings snapshots", "dir", r.cfg.SnapshotDir, "error", err)
	}
	if n > 0 {
		r.logger.Info("Cleanup: purged standings snapshots", "count", n)
	}
	return n
}
