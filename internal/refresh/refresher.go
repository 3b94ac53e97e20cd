// Package refresh keeps matches and standings current with ESPN.
//
// Reads call MatchesIfStale and StandingsIfStale before querying; the cron
// Scheduler runs the same syncs on a timetable. Concurrent callers in one
// process share a single run, and an optional advisory lock makes other
// processes skip while a run is in progress. Failures are logged and counted
// but never returned to the read path, which then serves the stored rows.
package refresh

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/metrics"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

// Advisory lock keys, one per kind.
const (
	matchesLockKey   int64 = 0x5054_4a01
	standingsLockKey int64 = 0x5054_4a02
)

// Store is the persistence the refresher writes to.
type Store interface {
	LatestMatchUpdate(ctx context.Context) (*time.Time, error)
	UpsertMatch(ctx context.Context, m model.Match) (created bool, err error)
	ReplaceStandings(ctx context.Context, rows []model.TeamStanding) (int, error)
}

// Source is the upstream data provider.
type Source interface {
	Scoreboard(ctx context.Context, from, to time.Time) ([]model.Match, []string, error)
	TeamLogos(ctx context.Context) (map[string]string, error)
	Standings(ctx context.Context, season int, logos map[string]string) ([]model.TeamStanding, []string, error)
}

// Locker takes a cross-process lock without blocking.
type Locker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (release func(), ok bool, err error)
}

// Refresher syncs matches and standings from a Source into a Store.
type Refresher struct {
	cfg     *config.Config
	store   Store
	source  Source
	locker  Locker
	logger  *slog.Logger
	now     func() time.Time
	timeout time.Duration
	onSync  []func(Kind)

	group singleflight.Group
}

// Option customizes a Refresher.
type Option func(*Refresher)

// WithLocker enables cross-process exclusion.
func WithLocker(l Locker) Option { return func(r *Refresher) { r.locker = l } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(r *Refresher) { r.now = now } }

// OnSync registers fn to run after a sync that wrote rows.
func OnSync(fn func(Kind)) Option { return func(r *Refresher) { r.onSync = append(r.onSync, fn) } }

// New creates a Refresher.
func New(cfg *config.Config, store Store, source Source, logger *slog.Logger, opts ...Option) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Refresher{
		cfg:    cfg,
		store:  store,
		source: source,
		logger: logger,
		now:    time.Now,
	}
	r.timeout = cfg.RefreshTimeout
	if r.timeout <= 0 {
		r.timeout = 2 * time.Minute
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// --------------------------------------------------------------------------
// Read-path hooks
// --------------------------------------------------------------------------

// MatchesStale reports whether the match table is empty or its newest row
// is older than MatchStaleAfter.
func (r *Refresher) MatchesStale(ctx context.Context) (bool, error) {
	latest, err := r.store.LatestMatchUpdate(ctx)
	if err != nil {
		return false, err
	}
	if latest == nil {
		return true, nil
	}
	return r.now().Sub(*latest) > r.cfg.MatchStaleAfter, nil
}

// StandingsStale reports whether today's snapshot is missing.
func (r *Refresher) StandingsStale() bool {
	return !snapshotExists(r.cfg.StandingsDir, r.now())
}

// MatchesIfStale syncs matches when they are stale. It blocks until the
// shared run finishes and never fails.
func (r *Refresher) MatchesIfStale(ctx context.Context) {
	if !r.cfg.RefreshOnRead {
		return
	}
	stale, err := r.MatchesStale(ctx)
	if err != nil {
		r.logger.Warn("Match staleness check failed", "error", err)
		return
	}
	if !stale {
		return
	}
	r.shared(ctx, KindMatches, func(ctx context.Context) Result { return r.SyncMatches(ctx) })
}

// StandingsIfStale syncs standings when today's snapshot is missing.
func (r *Refresher) StandingsIfStale(ctx context.Context) {
	if !r.cfg.RefreshOnRead || !r.StandingsStale() {
		return
	}
	r.shared(ctx, KindStandings, func(ctx context.Context) Result { return r.SyncStandings(ctx, false) })
}

// shared runs fn once per kind across concurrent callers. The run is detached
// from the caller's cancellation and bounded by RefreshTimeout.
func (r *Refresher) shared(ctx context.Context, kind Kind, fn func(context.Context) Result) {
	ch := r.group.DoChan(string(kind), func() (any, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return fn(runCtx), nil
	})
	select {
	case <-ch:
	case <-ctx.Done():
		// The run continues for the other waiters.
	}
}

// --------------------------------------------------------------------------
// Syncs
// --------------------------------------------------------------------------

// SyncMatches fetches the whole season in BatchDays windows and upserts
// every event by match id. A failed window is recorded and skipped.
func (r *Refresher) SyncMatches(ctx context.Context) Result {
	return r.run(ctx, KindMatches, matchesLockKey, func(ctx context.Context, res *Result) {
		start, end := r.cfg.SeasonWindow(r.now())
		windows := Windows(start, end, BatchDays)
		r.logger.Info("Syncing matches", "from", start.Format(time.DateOnly), "to", end.Format(time.DateOnly), "batches", len(windows))

		for _, w := range windows {
			if ctx.Err() != nil {
				res.AddErrorf("stopped before %s: %v", w.Start.Format(time.DateOnly), ctx.Err())
				return
			}
			matches, skipped, err := r.source.Scoreboard(ctx, w.Start, w.End)
			if err != nil {
				r.logger.Warn("Scoreboard batch failed", "from", w.Start.Format(time.DateOnly), "error", err)
				res.AddErrorf("batch %s..%s: %v", w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly), err)
				continue
			}
			for _, msg := range skipped {
				r.logger.Warn("Skipped event", "reason", msg)
			}
			res.Skipped += len(skipped)

			for _, m := range matches {
				created, err := r.store.UpsertMatch(ctx, m)
				if err != nil {
					r.logger.Warn("Match upsert failed", "match_id", m.MatchID, "error", err)
					res.AddErrorf("match %s: %v", m.MatchID, err)
					continue
				}
				if created {
					res.Created++
				} else {
					res.Updated++
				}
			}
		}
	})
}

// SyncStandings replaces the league table. Unless force is set it does
// nothing when today's snapshot already exists. An empty or failed fetch
// leaves the stored table untouched.
func (r *Refresher) SyncStandings(ctx context.Context, force bool) Result {
	return r.run(ctx, KindStandings, standingsLockKey, func(ctx context.Context, res *Result) {
		now := r.now()
		if !force && snapshotExists(r.cfg.StandingsDir, now) {
			res.UpToDate = true
			return
		}

		logos, err := r.source.TeamLogos(ctx)
		if err != nil {
			r.logger.Warn("Team logo fetch failed, continuing without logos", "error", err)
			logos = nil
		}

		start, _ := r.cfg.SeasonWindow(now)
		rows, skipped, err := r.source.Standings(ctx, start.Year(), logos)
		if err != nil {
			res.AddErrorf("fetch standings: %v", err)
			return
		}
		for _, msg := range skipped {
			r.logger.Warn("Skipped standings entry", "reason", msg)
		}
		res.Skipped += len(skipped)
		if len(rows) == 0 {
			res.AddErrorf("standings response had no rows")
			return
		}

		commit, discard, err := writeSnapshot(r.cfg.StandingsDir, now, rows)
		if err != nil {
			res.AddErrorf("%v", err)
			return
		}
		n, err := r.store.ReplaceStandings(ctx, rows)
		if err != nil {
			discard()
			res.AddErrorf("replace standings: %v", err)
			return
		}
		res.Updated = n
		if err := commit(); err != nil {
			res.AddErrorf("%v", err)
		}
	})
}

// run wraps a sync with locking, timing, metrics and the OnSync hooks.
func (r *Refresher) run(ctx context.Context, kind Kind, lockKey int64, fn func(context.Context, *Result)) Result {
	start := time.Now()
	res := Result{Kind: kind}

	if r.locker != nil {
		release, ok, err := r.locker.TryAdvisoryLock(ctx, lockKey)
		if err != nil {
			res.AddErrorf("acquire lock: %v", err)
			return r.finish(&res, start)
		}
		if !ok {
			res.Busy = true
			return r.finish(&res, start)
		}
		defer release()
	}

	fn(ctx, &res)
	return r.finish(&res, start)
}

func (r *Refresher) finish(res *Result, start time.Time) Result {
	res.Duration = time.Since(start)
	kind := string(res.Kind)

	metrics.SyncRunsTotal.WithLabelValues(kind, res.Outcome()).Inc()
	metrics.SyncDuration.WithLabelValues(kind).Observe(res.Duration.Seconds())
	metrics.SyncRowsTotal.WithLabelValues(kind, "created").Add(float64(res.Created))
	metrics.SyncRowsTotal.WithLabelValues(kind, "updated").Add(float64(res.Updated))

	switch {
	case res.Busy:
		r.logger.Info("Refresh already running elsewhere", "kind", kind)
	case res.UpToDate:
		r.logger.Debug("Refresh not needed", "kind", kind)
	case len(res.Errors) > 0:
		r.logger.Warn("Refresh finished with errors", "summary", res.Summary(), "first_error", res.Errors[0])
	default:
		r.logger.Info("Refresh complete", "summary", res.Summary())
	}

	if res.Written() > 0 {
		for _, fn := range r.onSync {
			fn(res.Kind)
		}
	}
	return *res
}
