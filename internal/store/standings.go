package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

const standingColumns = `id, rank, team_name, team_logo, points, matches_played,
	wins, draws, losses, goals_for, goals_against, goal_difference, updated_at`

func scanStanding(row scanner) (model.TeamStanding, error) {
	var st model.TeamStanding
	err := row.Scan(
		&st.ID, &st.Rank, &st.TeamName, &st.TeamLogo, &st.Points, &st.MatchesPlayed,
		&st.Wins, &st.Draws, &st.Losses, &st.GoalsFor, &st.GoalsAgainst, &st.GoalDifference, &st.UpdatedAt,
	)
	return st, err
}

// ListStandings returns the full table ordered by rank.
func (s *Store) ListStandings(ctx context.Context) ([]model.TeamStanding, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+standingColumns+" FROM "+config.StandingsTable+" ORDER BY rank, id")
	if err != nil {
		return nil, fmt.Errorf("query standings: %w", err)
	}
	defer rows.Close()

	standings := []model.TeamStanding{}
	for rows.Next() {
		st, err := scanStanding(rows)
		if err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		standings = append(standings, st)
	}
	return standings, rows.Err()
}

// GetStanding looks a standing row up by primary key.
func (s *Store) GetStanding(ctx context.Context, id int64) (model.TeamStanding, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+standingColumns+" FROM "+config.StandingsTable+" WHERE id = $1", id)
	st, err := scanStanding(row)
	if err != nil {
		return st, notFound(err)
	}
	return st, nil
}

// ReplaceStandings deletes every standing row and inserts rows in one
// transaction, so readers see either the old table or the new one.
func (s *Store) ReplaceStandings(ctx context.Context, rows []model.TeamStanding) (int, error) {
	err := s.withTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "DELETE FROM "+config.StandingsTable); err != nil {
			return fmt.Errorf("delete standings: %w", err)
		}

		batch := &pgx.Batch{}
		for _, st := range rows {
			batch.Queue(`
				INSERT INTO `+config.StandingsTable+` (
					rank, team_name, team_logo, points, matches_played,
					wins, draws, losses, goals_for, goals_against, goal_difference
				) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
				st.Rank, st.TeamName, st.TeamLogo, st.Points, st.MatchesPlayed,
				st.Wins, st.Draws, st.Losses, st.GoalsFor, st.GoalsAgainst, st.GoalDifference,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert standings: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
