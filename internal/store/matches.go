package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

const matchColumns = `id, match_id, competition, season, matchday, match_date,
	home_team_id, home_team_name, home_team_logo,
	away_team_id, away_team_name, away_team_logo,
	home_score, away_score, status, venue, home_half_score, away_half_score,
	created_at, updated_at`

// MatchFilter selects matches. Zero fields do not filter.
type MatchFilter struct {
	Statuses []model.MatchStatus
	// From is inclusive, To exclusive.
	From, To *time.Time
	// A match qualifies when either side has one of TeamIDs or a name
	// containing one of TeamNames.
	TeamIDs   []string
	TeamNames []string
	Matchday  *int
	Ascending bool
	Limit     int
}

func scanMatch(row scanner) (model.Match, error) {
	var m model.Match
	var status string
	err := row.Scan(
		&m.ID, &m.MatchID, &m.Competition, &m.Season, &m.Matchday, &m.MatchDate,
		&m.HomeTeamID, &m.HomeTeamName, &m.HomeTeamLogo,
		&m.AwayTeamID, &m.AwayTeamName, &m.AwayTeamLogo,
		&m.HomeScore, &m.AwayScore, &status, &m.Venue, &m.HomeHalfScore, &m.AwayHalfScore,
		&m.CreatedAt, &m.UpdatedAt,
	)
	m.Status = model.MatchStatus(status)
	return m, err
}

// ListMatches returns one page of matches, newest first.
func (s *Store) ListMatches(ctx context.Context, page Page) ([]model.Match, int, error) {
	w := &where{}
	total, err := s.count(ctx, config.MatchesTable, w)
	if err != nil {
		return nil, 0, err
	}
	q := "SELECT " + matchColumns + " FROM " + config.MatchesTable + " ORDER BY match_date DESC, id" + w.limit(page)
	matches, err := s.queryMatches(ctx, q, w.args...)
	return matches, total, err
}

// FindMatches returns the matches selected by f ordered by kickoff.
func (s *Store) FindMatches(ctx context.Context, f MatchFilter) ([]model.Match, error) {
	w := &where{}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, st := range f.Statuses {
			statuses[i] = string(st)
		}
		w.and("status = ANY(" + w.arg(statuses) + ")")
	}
	if f.From != nil {
		w.and("match_date >= " + w.arg(*f.From))
	}
	if f.To != nil {
		w.and("match_date < " + w.arg(*f.To))
	}
	if f.Matchday != nil {
		w.and("matchday = " + w.arg(*f.Matchday))
	}
	if len(f.TeamIDs) > 0 || len(f.TeamNames) > 0 {
		var ors string
		if len(f.TeamIDs) > 0 {
			p := w.arg(f.TeamIDs)
			ors = "home_team_id = ANY(" + p + ") OR away_team_id = ANY(" + p + ")"
		}
		if len(f.TeamNames) > 0 {
			patterns := make([]string, len(f.TeamNames))
			for i, n := range f.TeamNames {
				patterns[i] = likePattern(n)
			}
			p := w.arg(patterns)
			if ors != "" {
				ors += " OR "
			}
			ors += "home_team_name ILIKE ANY(" + p + ") OR away_team_name ILIKE ANY(" + p + ")"
		}
		w.and("(" + ors + ")")
	}

	order := " ORDER BY match_date DESC, id"
	if f.Ascending {
		order = " ORDER BY match_date, id"
	}
	q := "SELECT " + matchColumns + " FROM " + config.MatchesTable + w.sql() + order + w.limit(Page{Limit: f.Limit})
	return s.queryMatches(ctx, q, w.args...)
}

// GetMatch looks a match up by primary key.
func (s *Store) GetMatch(ctx context.Context, id int64) (model.Match, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+matchColumns+" FROM "+config.MatchesTable+" WHERE id = $1", id)
	m, err := scanMatch(row)
	if err != nil {
		return m, notFound(err)
	}
	return m, nil
}

// LatestMatchUpdate returns the newest updated_at across all matches, or nil
// when the table is empty.
func (s *Store) LatestMatchUpdate(ctx context.Context) (*time.Time, error) {
	var latest *time.Time
	if err := s.pool.QueryRow(ctx, "match_latest_update").Scan(&latest); err != nil {
		return nil, fmt.Errorf("latest match update: %w", err)
	}
	return latest, nil
}

// UpsertMatch writes a match keyed on match_id. Every field is overwritten.
func (s *Store) UpsertMatch(ctx context.Context, m model.Match) (created bool, err error) {
	competition := m.Competition
	if competition == "" {
		competition = config.League
	}
	err = s.pool.QueryRow(ctx, `
		INSERT INTO `+config.MatchesTable+` (
			match_id, competition, season, matchday, match_date,
			home_team_id, home_team_name, home_team_logo,
			away_team_id, away_team_name, away_team_logo,
			home_score, away_score, status, venue, home_half_score, away_half_score
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17)
		ON CONFLICT (match_id) DO UPDATE SET
			competition = EXCLUDED.competition,
			season = EXCLUDED.season,
			matchday = EXCLUDED.matchday,
			match_date = EXCLUDED.match_date,
			home_team_id = EXCLUDED.home_team_id,
			home_team_name = EXCLUDED.home_team_name,
			home_team_logo = EXCLUDED.home_team_logo,
			away_team_id = EXCLUDED.away_team_id,
			away_team_name = EXCLUDED.away_team_name,
			away_team_logo = EXCLUDED.away_team_logo,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			status = EXCLUDED.status,
			venue = EXCLUDED.venue,
			home_half_score = EXCLUDED.home_half_score,
			away_half_score = EXCLUDED.away_half_score,
			updated_at = NOW()
		RETURNING (xmax = 0)`,
		m.MatchID, competition, m.Season, m.Matchday, m.MatchDate,
		m.HomeTeamID, m.HomeTeamName, m.HomeTeamLogo,
		m.AwayTeamID, m.AwayTeamName, m.AwayTeamLogo,
		m.HomeScore, m.AwayScore, string(m.Status), m.Venue, m.HomeHalfScore, m.AwayHalfScore,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert match %s: %w", m.MatchID, err)
	}
	return created, nil
}

func (s *Store) queryMatches(ctx context.Context, q string, args ...any) ([]model.Match, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}
	defer rows.Close()

	matches := []model.Match{}
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
