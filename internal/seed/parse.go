package seed

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

// --------------------------------------------------------------------------
// CSV helpers
// --------------------------------------------------------------------------

// csvRecords reads a headed CSV into one map per row. A UTF-8 BOM on the
// header is ignored.
func csvRecords(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var out []map[string]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out, fmt.Errorf("read row %d: %w", len(out)+2, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = strings.TrimSpace(rec[i])
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func parseAge(s string) *int {
	if s == "" {
		return nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return &v
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		v := int(f)
		return &v
	}
	return nil
}

var birthDateLayouts = []string{time.DateOnly, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"}

func parseBirthDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

// --------------------------------------------------------------------------
// Squads
// --------------------------------------------------------------------------

// Squad is the content of one squad CSV.
type Squad struct {
	Teams   []model.Team
	Players []model.Player
}

// ParseSquad reads a squad CSV. Each distinct team_id yields one team, the
// first name seen winning. Rows without player_id contribute only their team.
func ParseSquad(r io.Reader) (Squad, error) {
	rows, err := csvRecords(r)
	if err != nil {
		return Squad{}, err
	}

	var sq Squad
	seen := make(map[string]bool)
	for _, row := range rows {
		if id := row["team_id"]; id != "" && !seen[id] {
			seen[id] = true
			sq.Teams = append(sq.Teams, model.Team{TeamID: id, TeamName: row["team_name"], League: row["league"]})
		}
		if row["player_id"] == "" {
			continue
		}
		sq.Players = append(sq.Players, model.Player{
			PlayerID:     row["player_id"],
			Name:         row["name"],
			FullName:     row["full_name"],
			FirstName:    row["first_name"],
			LastName:     row["last_name"],
			WikiName:     row["wiki_name"],
			Position:     row["position"],
			PositionAbbr: row["position_abbr"],
			JerseyNumber: row["jersey_number"],
			Age:          parseAge(row["age"]),
			Height:       row["height"],
			Weight:       row["weight"],
			BirthPlace:   row["birth_place"],
			BirthDate:    parseBirthDate(row["birth_date"]),
			Nationality:  row["nationality"],
			TeamID:       row["team_id"],
			TeamName:     row["team_name"],
		})
	}
	return sq, nil
}

// --------------------------------------------------------------------------
// Profiles
// --------------------------------------------------------------------------

// Profile is the encyclopedia content for a player.
type Profile struct {
	PlayerID      string  `json:"player_id"`
	WikiURL       *string `json:"wiki_url"`
	WikiFound     bool    `json:"wiki_found"`
	Introduction  *string `json:"introduction"`
	PlayingStyle  *string `json:"playing_style"`
	CareerSummary *string `json:"career_summary"`
}

// ParseProfiles reads a {"players": [...]} profile file keyed by player_id.
func ParseProfiles(r io.Reader) (map[string]Profile, error) {
	var doc struct {
		Players []Profile `json:"players"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	out := make(map[string]Profile, len(doc.Players))
	for _, p := range doc.Players {
		if p.PlayerID == "" {
			continue
		}
		out[p.PlayerID] = p
	}
	return out, nil
}

// Apply copies the profile fields onto p. Null fields become empty strings.
func (pr Profile) Apply(p *model.Player) {
	p.WikiURL = deref(pr.WikiURL)
	p.WikiFound = pr.WikiFound
	p.Introduction = deref(pr.Introduction)
	p.PlayingStyle = deref(pr.PlayingStyle)
	p.CareerSummary = deref(pr.CareerSummary)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// --------------------------------------------------------------------------
// Staff
// --------------------------------------------------------------------------

// ParseStaff reads the staff CSV (Team, Position, Name, Nationality). Rows
// missing Team or Name are counted in skipped.
func ParseStaff(r io.Reader) (staff []model.Staff, skipped int, err error) {
	rows, err := csvRecords(r)
	if err != nil {
		return nil, 0, err
	}
	for _, row := range rows {
		st := model.Staff{
			TeamName:    row["Team"],
			Position:    row["Position"],
			Name:        row["Name"],
			Nationality: row["Nationality"],
		}
		if st.TeamName == "" || st.Name == "" {
			skipped++
			continue
		}
		staff = append(staff, st)
	}
	return staff, skipped, nil
}
