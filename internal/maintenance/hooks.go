package maintenance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
)

// AnalyzeTables refreshes planner statistics for the tables a bulk load
// rewrites. Call this after a squad load or a full season sync.
func AnalyzeTables(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) error {
	tables := []string{
		config.TeamsTable,
		config.PlayersTable,
		config.StaffTable,
		config.MatchesTable,
	}

	for _, t := range tables {
		start := time.Now()
		_, err := pool.Exec(ctx, "ANALYZE "+t)
		dur := time.Since(start).Round(time.Millisecond)

		if err != nil {
			logger.Warn("Failed to analyze table", "table", t, "duration", dur, "error", err)
			return fmt.Errorf("analyze %s: %w", t, err)
		}
		logger.Debug("Analyzed table", "table", t, "duration", dur)
	}
	return nil
}
