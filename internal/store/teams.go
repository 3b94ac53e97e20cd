package store

import (
	"context"
	"fmt"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

const teamColumns = "id, team_id, team_name, league, created_at, updated_at"

var teamOrdering = map[string]string{
	"team_name": "team_name",
}

func scanTeam(row scanner) (model.Team, error) {
	var t model.Team
	err := row.Scan(&t.ID, &t.TeamID, &t.TeamName, &t.League, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListTeams returns one page of teams and the total matching count.
func (s *Store) ListTeams(ctx context.Context, opts ListOptions) ([]model.Team, int, error) {
	w := &where{}
	w.search(opts.Search, "team_name", "league")

	total, err := s.count(ctx, config.TeamsTable, w)
	if err != nil {
		return nil, 0, err
	}

	q := "SELECT " + teamColumns + " FROM " + config.TeamsTable + w.sql() +
		orderBy(opts.Ordering, teamOrdering, "team_name") + w.limit(opts.Page)
	teams, err := s.queryTeams(ctx, q, w.args...)
	return teams, total, err
}

// SearchTeams filters teams by name and league substrings.
func (s *Store) SearchTeams(ctx context.Context, name, league string) ([]model.Team, error) {
	w := &where{}
	w.contains("team_name", name)
	w.contains("league", league)
	q := "SELECT " + teamColumns + " FROM " + config.TeamsTable + w.sql() + " ORDER BY team_name, id"
	return s.queryTeams(ctx, q, w.args...)
}

// GetTeam looks a team up by primary key.
func (s *Store) GetTeam(ctx context.Context, id int64) (model.Team, error) {
	t, err := scanTeam(s.pool.QueryRow(ctx, "team_by_id", id))
	if err != nil {
		return t, notFound(err)
	}
	return t, nil
}

// GetTeamByTeamID looks a team up by its external identifier.
func (s *Store) GetTeamByTeamID(ctx context.Context, teamID string) (model.Team, error) {
	t, err := scanTeam(s.pool.QueryRow(ctx, "team_by_team_id", teamID))
	if err != nil {
		return t, notFound(err)
	}
	return t, nil
}

// UpsertTeam writes a team keyed on team_id. created reports whether the row
// is new.
func (s *Store) UpsertTeam(ctx context.Context, t model.Team) (created bool, err error) {
	err = s.pool.QueryRow(ctx, `
		INSERT INTO `+config.TeamsTable+` (team_id, team_name, league)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id) DO UPDATE SET
			team_name = EXCLUDED.team_name,
			league = COALESCE(NULLIF(EXCLUDED.league, ''), `+config.TeamsTable+`.league),
			updated_at = NOW()
		RETURNING (xmax = 0)`,
		t.TeamID, t.TeamName, t.League,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert team %s: %w", t.TeamID, err)
	}
	return created, nil
}

func (s *Store) queryTeams(ctx context.Context, q string, args ...any) ([]model.Team, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query teams: %w", err)
	}
	defer rows.Close()

	teams := []model.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}
