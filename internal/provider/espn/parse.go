package espn

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

// --------------------------------------------------------------------------
// Wire types
// --------------------------------------------------------------------------

// flexInt decodes integers ESPN sends as numbers, numeric strings or
// {"number": n} objects. Set is false for null, empty or unparseable values.
type flexInt struct {
	Value int
	Set   bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*f = flexInt{}
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	switch b[0] {
	case '{':
		var obj struct {
			Number *float64 `json:"number"`
		}
		if err := json.Unmarshal(b, &obj); err == nil && obj.Number != nil {
			*f = flexInt{Value: int(*obj.Number), Set: true}
		}
	case '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*f = flexInt{Value: int(v), Set: true}
		}
	default:
		var v float64
		if err := json.Unmarshal(b, &v); err == nil {
			*f = flexInt{Value: int(v), Set: true}
		}
	}
	return nil
}

func (f flexInt) ptr() *int {
	if !f.Set {
		return nil
	}
	v := f.Value
	return &v
}

type scoreboardResponse struct {
	Events []json.RawMessage `json:"events"`
}

type event struct {
	ID     string `json:"id"`
	Date   string `json:"date"`
	Season struct {
		Year flexInt `json:"year"`
	} `json:"season"`
	Competitions []competition `json:"competitions"`
}

type competition struct {
	Week   flexInt `json:"week"`
	Status struct {
		Type struct {
			Name string `json:"name"`
		} `json:"type"`
	} `json:"status"`
	Venue struct {
		FullName string `json:"fullName"`
	} `json:"venue"`
	Competitors []competitor `json:"competitors"`
}

type competitor struct {
	ID       string  `json:"id"`
	HomeAway string  `json:"homeAway"`
	Score    flexInt `json:"score"`
	Team     struct {
		DisplayName string `json:"displayName"`
		Logo        string `json:"logo"`
	} `json:"team"`
	Linescores []struct {
		Value flexInt `json:"value"`
	} `json:"linescores"`
}

// --------------------------------------------------------------------------
// Scoreboard
// --------------------------------------------------------------------------

// statusMap translates ESPN status names. Unknown names map to scheduled.
var statusMap = map[string]model.MatchStatus{
	"STATUS_SCHEDULED":   model.StatusScheduled,
	"STATUS_IN_PROGRESS": model.StatusLive,
	"STATUS_HALFTIME":    model.StatusLive,
	"STATUS_FINAL":       model.StatusFinished,
	"STATUS_FULL_TIME":   model.StatusFinished,
	"STATUS_POSTPONED":   model.StatusPostponed,
	"STATUS_CANCELED":    model.StatusCancelled,
	"STATUS_CANCELLED":   model.StatusCancelled,
}

// MapStatus converts an ESPN status name to a MatchStatus.
func MapStatus(name string) model.MatchStatus {
	if s, ok := statusMap[name]; ok {
		return s
	}
	return model.StatusScheduled
}

// ParseScoreboard decodes a scoreboard payload. Only a malformed envelope is
// an error; individual events that fail are reported in skipped.
func ParseScoreboard(body []byte) (matches []model.Match, skipped []string, err error) {
	var resp scoreboardResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("decode scoreboard: %w", err)
	}

	matches = make([]model.Match, 0, len(resp.Events))
	for i, raw := range resp.Events {
		m, err := parseEvent(raw)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("event %d: %v", i, err))
			continue
		}
		matches = append(matches, m)
	}
	return matches, skipped, nil
}

func parseEvent(raw json.RawMessage) (model.Match, error) {
	var ev event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return model.Match{}, fmt.Errorf("decode: %w", err)
	}
	if ev.ID == "" {
		return model.Match{}, fmt.Errorf("missing id")
	}

	date, err := parseEventDate(ev.Date)
	if err != nil {
		return model.Match{}, fmt.Errorf("match %s: %w", ev.ID, err)
	}

	if len(ev.Competitions) == 0 {
		return model.Match{}, fmt.Errorf("match %s: no competitions", ev.ID)
	}
	comp := ev.Competitions[0]
	if len(comp.Competitors) < 2 {
		return model.Match{}, fmt.Errorf("match %s: fewer than two competitors", ev.ID)
	}

	var home, away *competitor
	for i := range comp.Competitors {
		switch comp.Competitors[i].HomeAway {
		case "home":
			home = &comp.Competitors[i]
		case "away":
			away = &comp.Competitors[i]
		}
	}
	if home == nil || away == nil {
		return model.Match{}, fmt.Errorf("match %s: cannot tell home from away", ev.ID)
	}

	season := ""
	if ev.Season.Year.Set {
		season = strconv.Itoa(ev.Season.Year.Value)
	}

	return model.Match{
		MatchID:       ev.ID,
		Competition:   config.League,
		Season:        season,
		Matchday:      comp.Week.ptr(),
		MatchDate:     date,
		HomeTeamID:    home.ID,
		HomeTeamName:  home.Team.DisplayName,
		HomeTeamLogo:  home.Team.Logo,
		AwayTeamID:    away.ID,
		AwayTeamName:  away.Team.DisplayName,
		AwayTeamLogo:  away.Team.Logo,
		HomeScore:     home.Score.ptr(),
		AwayScore:     away.Score.ptr(),
		Status:        MapStatus(comp.Status.Type.Name),
		Venue:         comp.Venue.FullName,
		HomeHalfScore: firstLinescore(home),
		AwayHalfScore: firstLinescore(away),
	}, nil
}

func firstLinescore(c *competitor) *int {
	if len(c.Linescores) == 0 {
		return nil
	}
	return c.Linescores[0].Value.ptr()
}

// parseEventDate accepts RFC 3339 and ESPN's minute-precision "Z" form.
func parseEventDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z07:00", "2006-01-02T15:04Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// --------------------------------------------------------------------------
// Teams and standings
// --------------------------------------------------------------------------

type teamsResponse struct {
	Sports []struct {
		Leagues []struct {
			Teams []struct {
				Team struct {
					DisplayName string `json:"displayName"`
					Logos       []struct {
						Href string `json:"href"`
					} `json:"logos"`
				} `json:"team"`
			} `json:"teams"`
		} `json:"leagues"`
	} `json:"sports"`
}

// ParseTeamLogos decodes the teams payload into display name → logo URL.
// Teams without a name or logo are left out.
func ParseTeamLogos(body []byte) (map[string]string, error) {
	var resp teamsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode teams: %w", err)
	}
	if len(resp.Sports) == 0 || len(resp.Sports[0].Leagues) == 0 {
		return nil, fmt.Errorf("teams payload has no league")
	}

	logos := make(map[string]string)
	for _, t := range resp.Sports[0].Leagues[0].Teams {
		if t.Team.DisplayName == "" || len(t.Team.Logos) == 0 || t.Team.Logos[0].Href == "" {
			continue
		}
		logos[t.Team.DisplayName] = t.Team.Logos[0].Href
	}
	return logos, nil
}

type standingsGroup struct {
	Entries []json.RawMessage `json:"entries"`
}

type standingsResponse struct {
	Children []struct {
		Standings standingsGroup `json:"standings"`
	} `json:"children"`
	Standings *standingsGroup `json:"standings"`
}

type standingEntry struct {
	Team struct {
		DisplayName string `json:"displayName"`
	} `json:"team"`
	Stats []struct {
		Name         string          `json:"name"`
		Value        json.RawMessage `json:"value"`
		DisplayValue string          `json:"displayValue"`
	} `json:"stats"`
}

// ParseStandings decodes a standings payload. Rows are sorted by ESPN's rank
// and renumbered 1..N so the table never has gaps or ties.
func ParseStandings(body []byte, logos map[string]string) (rows []model.TeamStanding, skipped []string, err error) {
	var resp standingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("decode standings: %w", err)
	}

	var entries []json.RawMessage
	switch {
	case len(resp.Children) > 0:
		entries = resp.Children[0].Standings.Entries
	case resp.Standings != nil:
		entries = resp.Standings.Entries
	default:
		return nil, nil, fmt.Errorf("standings payload has no entries")
	}

	rows = make([]model.TeamStanding, 0, len(entries))
	for i, raw := range entries {
		row, err := parseStandingEntry(raw, logos)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return rows, skipped, nil
}

func parseStandingEntry(raw json.RawMessage, logos map[string]string) (model.TeamStanding, error) {
	var e standingEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return model.TeamStanding{}, fmt.Errorf("decode: %w", err)
	}
	name := e.Team.DisplayName
	if name == "" {
		return model.TeamStanding{}, fmt.Errorf("missing team name")
	}

	stats := make(map[string]float64, len(e.Stats))
	for _, s := range e.Stats {
		v, ok := statValue(s.Value, s.DisplayValue)
		if !ok {
			continue
		}
		stats[s.Name] = v
	}

	rank, ok := stats["rank"]
	if !ok {
		// Unranked entries sort to the bottom before renumbering.
		rank = math.MaxInt32
	}

	row := model.TeamStanding{
		Rank:           int(rank),
		TeamName:       name,
		Points:         int(stats["points"]),
		MatchesPlayed:  int(stats["gamesPlayed"]),
		Wins:           int(stats["wins"]),
		Draws:          int(stats["ties"]),
		Losses:         int(stats["losses"]),
		GoalsFor:       int(stats["pointsFor"]),
		GoalsAgainst:   int(stats["pointsAgainst"]),
		GoalDifference: int(stats["pointDifferential"]),
	}
	if logo := logos[name]; logo != "" {
		row.TeamLogo = &logo
	}
	return row, nil
}

// statValue prefers the numeric value and falls back to the display string.
func statValue(value json.RawMessage, display string) (float64, bool) {
	var v float64
	if len(value) > 0 && json.Unmarshal(value, &v) == nil {
		return v, true
	}
	if f, err := strconv.ParseFloat(strings.TrimPrefix(display, "+"), 64); err == nil {
		return f, true
	}
	return 0, false
}
