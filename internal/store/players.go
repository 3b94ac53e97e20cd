package store

import (
	"context"
	"fmt"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

const playerColumns = `id, player_id, name, full_name, first_name, last_name,
	wiki_name, wiki_url, wiki_found, position, position_abbr, jersey_number,
	age, height, weight, birth_place, birth_date, nationality, team_id, team_name,
	introduction, playing_style, career_summary, created_at, updated_at`

var playerOrdering = map[string]string{
	"name":      "name",
	"age":       "age",
	"team_name": "team_name",
}

// PlayerQuery holds the substring filters of the player search endpoint.
type PlayerQuery struct {
	Name        string
	Team        string
	Position    string
	Nationality string
}

func scanPlayer(row scanner) (model.Player, error) {
	var p model.Player
	err := row.Scan(
		&p.ID, &p.PlayerID, &p.Name, &p.FullName, &p.FirstName, &p.LastName,
		&p.WikiName, &p.WikiURL, &p.WikiFound, &p.Position, &p.PositionAbbr, &p.JerseyNumber,
		&p.Age, &p.Height, &p.Weight, &p.BirthPlace, &p.BirthDate, &p.Nationality, &p.TeamID, &p.TeamName,
		&p.Introduction, &p.PlayingStyle, &p.CareerSummary, &p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// ListPlayers returns one page of players and the total matching count.
func (s *Store) ListPlayers(ctx context.Context, opts ListOptions) ([]model.Player, int, error) {
	w := &where{}
	w.search(opts.Search, "name", "full_name", "team_name", "nationality")
	return s.pagePlayers(ctx, w, orderBy(opts.Ordering, playerOrdering, "name"), opts.Page)
}

// SearchPlayers applies the per-field filters of q.
func (s *Store) SearchPlayers(ctx context.Context, q PlayerQuery, page Page) ([]model.Player, int, error) {
	w := &where{}
	w.contains("name", q.Name)
	w.contains("team_name", q.Team)
	w.contains("position", q.Position)
	w.contains("nationality", q.Nationality)
	return s.pagePlayers(ctx, w, " ORDER BY name, id", page)
}

// PlayersByTeam lists a team's squad, optionally narrowed by position.
func (s *Store) PlayersByTeam(ctx context.Context, teamID, position string) ([]model.Player, error) {
	w := &where{}
	w.and("team_id = " + w.arg(teamID))
	w.contains("position", position)
	q := "SELECT " + playerColumns + " FROM " + config.PlayersTable + w.sql() + " ORDER BY name, id"
	return s.queryPlayers(ctx, q, w.args...)
}

// GetPlayer looks a player up by primary key.
func (s *Store) GetPlayer(ctx context.Context, id int64) (model.Player, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+playerColumns+" FROM "+config.PlayersTable+" WHERE id = $1", id)
	p, err := scanPlayer(row)
	if err != nil {
		return p, notFound(err)
	}
	return p, nil
}

// UpsertPlayer writes a player keyed on player_id with a full overwrite.
func (s *Store) UpsertPlayer(ctx context.Context, p model.Player) (created bool, err error) {
	err = s.pool.QueryRow(ctx, `
		INSERT INTO `+config.PlayersTable+` (
			player_id, name, full_name, first_name, last_name,
			wiki_name, wiki_url, wiki_found, position, position_abbr, jersey_number,
			age, height, weight, birth_place, birth_date, nationality, team_id, team_name,
			introduction, playing_style, career_summary
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		ON CONFLICT (player_id) DO UPDATE SET
			name = EXCLUDED.name,
			full_name = EXCLUDED.full_name,
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			wiki_name = EXCLUDED.wiki_name,
			wiki_url = EXCLUDED.wiki_url,
			wiki_found = EXCLUDED.wiki_found,
			position = EXCLUDED.position,
			position_abbr = EXCLUDED.position_abbr,
			jersey_number = EXCLUDED.jersey_number,
			age = EXCLUDED.age,
			height = EXCLUDED.height,
			weight = EXCLUDED.weight,
			birth_place = EXCLUDED.birth_place,
			birth_date = EXCLUDED.birth_date,
			nationality = EXCLUDED.nationality,
			team_id = EXCLUDED.team_id,
			team_name = EXCLUDED.team_name,
			introduction = EXCLUDED.introduction,
			playing_style = EXCLUDED.playing_style,
			career_summary = EXCLUDED.career_summary,
			updated_at = NOW()
		RETURNING (xmax = 0)`,
		p.PlayerID, p.Name, p.FullName, p.FirstName, p.LastName,
		p.WikiName, p.WikiURL, p.WikiFound, p.Position, p.PositionAbbr, p.JerseyNumber,
		p.Age, p.Height, p.Weight, p.BirthPlace, p.BirthDate, p.Nationality, p.TeamID, p.TeamName,
		p.Introduction, p.PlayingStyle, p.CareerSummary,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert player %s: %w", p.PlayerID, err)
	}
	return created, nil
}

func (s *Store) pagePlayers(ctx context.Context, w *where, order string, page Page) ([]model.Player, int, error) {
	total, err := s.count(ctx, config.PlayersTable, w)
	if err != nil {
		return nil, 0, err
	}
	q := "SELECT " + playerColumns + " FROM " + config.PlayersTable + w.sql() + order + w.limit(page)
	players, err := s.queryPlayers(ctx, q, w.args...)
	return players, total, err
}

func (s *Store) queryPlayers(ctx context.Context, q string, args ...any) ([]model.Player, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query players: %w", err)
	}
	defer rows.Close()

	players := []model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}
