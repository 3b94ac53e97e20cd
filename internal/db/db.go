// Package db provides a pgxpool-based connection pool with prepared statement
// registration, schema migration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// TryAdvisoryLock takes a session-level advisory lock on a dedicated
// connection. ok is false when another session already holds key. The
// returned release func must be called when ok is true.
func (p *Pool) TryAdvisoryLock(ctx context.Context, key int64) (release func(), ok bool, err error) {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	if err := conn.QueryRow(ctx, "try_advisory_lock", key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("advisory lock %d: %w", key, err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	release = func() {
		// Unlock on a fresh context so a cancelled caller still frees the lock.
		unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := conn.Exec(unlockCtx, "advisory_unlock", key); err != nil {
			// Dropping the connection releases every session lock it holds.
			conn.Conn().Close(unlockCtx)
		}
		conn.Release()
	}
	return release, true, nil
}

// registerPreparedStatements registers the statements used on hot paths.
// Prepared statements eliminate parse overhead on every request.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Refresh coordination
		"try_advisory_lock": "SELECT pg_try_advisory_lock($1)",
		"advisory_unlock":   "SELECT pg_advisory_unlock($1)",

		// Staleness
		"match_latest_update": "SELECT MAX(updated_at) FROM " + config.MatchesTable,

		// Lookups
		"team_by_id":      "SELECT id, team_id, team_name, league, created_at, updated_at FROM " + config.TeamsTable + " WHERE id = $1",
		"team_by_team_id": "SELECT id, team_id, team_name, league, created_at, updated_at FROM " + config.TeamsTable + " WHERE team_id = $1",
		"user_by_id": "SELECT id, username, email, password_hash, nickname, COALESCE(profile_image, ''), social_provider, social_id, created_at, updated_at FROM " +
			config.UsersTable + " WHERE id = $1",

		// Favorites
		"favorite_teams_for_user": "SELECT t.team_id, t.team_name, t.league FROM " + config.FavoritesTable + " f JOIN " +
			config.TeamsTable + " t ON t.team_id = f.team_id WHERE f.user_id = $1 ORDER BY f.created_at, t.team_name",
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
