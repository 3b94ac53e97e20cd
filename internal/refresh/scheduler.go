package refresh

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Scheduler runs match and standings syncs on a cron schedule.
type Scheduler struct {
	refresher *Refresher
	schedule  string
	cron      *cron.Cron
	logger    *slog.Logger
}

// NewScheduler creates a scheduler for a standard five-field cron expression.
func NewScheduler(r *Refresher, schedule string, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		refresher: r,
		schedule:  schedule,
		cron:      cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:    logger,
	}
}

// Start registers the job and starts the cron loop. Jobs stop when ctx is
// cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(ctx)
	}); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.logger.Info("Refresh scheduled", "schedule", s.schedule)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// RunOnce syncs matches then standings, sharing runs with the read path.
func (s *Scheduler) RunOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	s.refresher.shared(ctx, KindMatches, func(ctx context.Context) Result { return s.refresher.SyncMatches(ctx) })
	s.refresher.shared(ctx, KindStandings, func(ctx context.Context) Result { return s.refresher.SyncStandings(ctx, false) })
}

// Stop halts the cron loop and waits for a running job to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
