// Command ingest is the Sports PTJ data loading CLI.
//
// Usage:
//
//	sportsptj-ingest migrate
//	sportsptj-ingest load all --data-dir data
//	sportsptj-ingest load players
//	sportsptj-ingest sync matches
//	sportsptj-ingest sync standings --force
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Kimkangyeon-17/sports-ptj/internal/cache"
	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/db"
	"github.com/Kimkangyeon-17/sports-ptj/internal/listener"
	"github.com/Kimkangyeon-17/sports-ptj/internal/maintenance"
	"github.com/Kimkangyeon-17/sports-ptj/internal/provider/espn"
	"github.com/Kimkangyeon-17/sports-ptj/internal/refresh"
	"github.com/Kimkangyeon-17/sports-ptj/internal/seed"
	"github.com/Kimkangyeon-17/sports-ptj/internal/store"
)

var logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:          "sportsptj-ingest",
		Short:        "Sports PTJ data loading CLI",
		SilenceUsage: true,
	}

	root.AddCommand(migrateCmd())
	root.AddCommand(loadCmd())
	root.AddCommand(syncCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// migrate command
// --------------------------------------------------------------------------

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			start := time.Now()
			if err := db.Migrate(ctx, cfg.DatabaseURL); err != nil {
				return err
			}
			logger.Info("Schema applied", "duration", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// load command
// --------------------------------------------------------------------------

type loadFunc func(ctx context.Context, st seed.Store, dataDir string, logger *slog.Logger) (seed.Result, error)

func loadCmd() *cobra.Command {
	var dataDir string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load teams, players and staff from the squad CSV files",
	}
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory holding the CSV files (default DATA_DIR)")

	targets := []struct {
		use, short string
		fn         loadFunc
	}{
		{"teams", "Load teams from the squad files", seed.LoadTeams},
		{"players", "Load players and their profiles", seed.LoadPlayers},
		{"staff", "Load managers and coaches", seed.LoadStaff},
		{"all", "Load teams, players and staff", seed.LoadAll},
	}
	for _, t := range targets {
		fn := t.fn
		cmd.AddCommand(&cobra.Command{
			Use:   t.use,
			Short: t.short,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, st *store.Store) error {
					dir := dataDir
					if dir == "" {
						dir = cfg.DataDir
					}
					start := time.Now()
					result, err := fn(ctx, st, dir, logger)
					if err != nil {
						return err
					}
					logger.Info("Load finished", "duration", time.Since(start).Round(time.Millisecond), "summary", result.Summary())
					for _, e := range result.Errors {
						logger.Error("load error", "error", e)
					}
					if result.Created+result.Updated > 0 {
						publish(ctx, pool, cache.KindSquads)
					}
					return maintenance.AnalyzeTables(ctx, pool.Pool, logger)
				})
			},
		})
	}
	return cmd
}

// --------------------------------------------------------------------------
// sync command
// --------------------------------------------------------------------------

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull matches or standings from ESPN",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "matches",
		Short: "Sync every match of the current season",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRefresher(func(ctx context.Context, r *refresh.Refresher) refresh.Result {
				return r.SyncMatches(ctx)
			})
		},
	})

	var force bool
	standings := &cobra.Command{
		Use:   "standings",
		Short: "Replace the league table and write the daily snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRefresher(func(ctx context.Context, r *refresh.Refresher) refresh.Result {
				return r.SyncStandings(ctx, force)
			})
		},
	}
	standings.Flags().BoolVar(&force, "force", false, "Sync even if today's snapshot exists")
	cmd.AddCommand(standings)
	return cmd
}

// withRefresher builds a Refresher against ESPN and reports the run.
func withRefresher(run func(ctx context.Context, r *refresh.Refresher) refresh.Result) error {
	return withStore(func(ctx context.Context, cfg *config.Config, pool *db.Pool, st *store.Store) error {
		source := espn.NewClient(espn.Options{
			BaseURL:           cfg.ESPNBaseURL,
			League:            cfg.ESPNLeague,
			RequestsPerMinute: cfg.ESPNRequestsPerMinute,
			Timeout:           cfg.ESPNTimeout,
		}, logger)
		r := refresh.New(cfg, st, source, logger,
			refresh.WithLocker(pool),
			refresh.OnSync(func(kind refresh.Kind) { publish(ctx, pool, string(kind)) }),
		)

		result := run(ctx, r)
		logger.Info("Sync finished", "summary", result.Summary())
		for _, e := range result.Errors {
			logger.Error("sync error", "error", e)
		}
		switch result.Outcome() {
		case "busy":
			return fmt.Errorf("%s refresh already running in another process", result.Kind)
		case "failed":
			return fmt.Errorf("%s refresh failed", result.Kind)
		}
		return nil
	})
}

// --------------------------------------------------------------------------
// Shared setup
// --------------------------------------------------------------------------

// publish tells running API servers to drop cached responses for kind.
func publish(ctx context.Context, pool *db.Pool, kind string) {
	if err := listener.Publish(ctx, pool.Pool, listener.Event{Kind: kind, Source: "ingest"}); err != nil {
		logger.Warn("Failed to publish refresh event", "kind", kind, "error", err)
	}
}

// withStore handles config loading, DB connection, and context cancellation.
func withStore(fn func(ctx context.Context, cfg *config.Config, pool *db.Pool, st *store.Store) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger = cfg.NewLogger()

	pool, err := db.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	return fn(ctx, cfg, pool, store.New(pool.Pool))
}
