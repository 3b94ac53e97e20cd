// Package dashboard aggregates a favorite team's standing, next fixture and
// recent form. Everything here is derived from rows passed in; nothing is
// stored.
package dashboard

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

// FormLength is the number of finished matches in RecentForm.
const FormLength = 5

// Standing is the league position summary for one team.
type Standing struct {
	Rank           int     `json:"rank"`
	Points         int     `json:"points"`
	Wins           int     `json:"wins"`
	Draws          int     `json:"draws"`
	Losses         int     `json:"losses"`
	WinRate        float64 `json:"win_rate"`
	MatchesPlayed  int     `json:"matches_played"`
	GoalsFor       int     `json:"goals_for"`
	GoalsAgainst   int     `json:"goals_against"`
	GoalDifference int     `json:"goal_difference"`
}

// NextMatch is the team's nearest scheduled fixture.
type NextMatch struct {
	MatchID      string    `json:"match_id"`
	MatchDate    time.Time `json:"match_date"`
	OpponentName string    `json:"opponent_name"`
	OpponentLogo string    `json:"opponent_logo"`
	IsHome       bool      `json:"is_home"`
	Venue        string    `json:"venue"`
}

// RecentMatch is one finished match from the team's side.
type RecentMatch struct {
	MatchDate time.Time `json:"match_date"`
	Opponent  string    `json:"opponent"`
	Result    string    `json:"result"`
	Score     string    `json:"score"`
	IsHome    bool      `json:"is_home"`
}

// RecentForm lists up to FormLength results, oldest first.
type RecentForm struct {
	Form        string        `json:"form"`
	FormKorean  string        `json:"form_korean"`
	LastMatches []RecentMatch `json:"last_5_matches"`
}

// TeamDashboard is the per-team panel.
type TeamDashboard struct {
	TeamID     string      `json:"team_id"`
	TeamName   string      `json:"team_name"`
	TeamLogo   *string     `json:"team_logo"`
	Standing   *Standing   `json:"standing"`
	NextMatch  *NextMatch  `json:"next_match"`
	RecentForm *RecentForm `json:"recent_form"`
}

// Main is the dashboard response. News and analysis panels are always empty.
type Main struct {
	FavoriteTeams []TeamDashboard `json:"favorite_teams"`
	LatestNews    []any           `json:"latest_news"`
	AIAnalysis    any             `json:"ai_analysis"`
}

// NewMain wraps team panels in the dashboard envelope.
func NewMain(teams []TeamDashboard) Main {
	if teams == nil {
		teams = []TeamDashboard{}
	}
	return Main{FavoriteTeams: teams, LatestNews: []any{}}
}

// Build assembles the panel for team. matches may include fixtures of other
// teams; only those involving team are used.
func Build(team model.FavoriteTeam, standings []model.TeamStanding, matches []model.Match, now time.Time) TeamDashboard {
	d := TeamDashboard{TeamID: team.TeamID, TeamName: team.TeamName}

	own := make([]model.Match, 0, len(matches))
	for _, m := range matches {
		if ok, _ := m.Involves(team.TeamID, team.TeamName); ok {
			own = append(own, m)
		}
	}

	if st := findStanding(team.TeamName, standings); st != nil {
		d.Standing = summarize(*st)
		d.TeamLogo = st.TeamLogo
	}
	if d.TeamLogo == nil {
		d.TeamLogo = logoFromMatches(team, own)
	}
	d.NextMatch = nextMatch(team, own, now)
	d.RecentForm = recentForm(team, own)
	return d
}

func findStanding(name string, standings []model.TeamStanding) *model.TeamStanding {
	for i := range standings {
		if model.SameTeamName(standings[i].TeamName, name) {
			return &standings[i]
		}
	}
	return nil
}

func summarize(s model.TeamStanding) *Standing {
	return &Standing{
		Rank:           s.Rank,
		Points:         s.Points,
		Wins:           s.Wins,
		Draws:          s.Draws,
		Losses:         s.Losses,
		WinRate:        WinRate(s.Wins, s.MatchesPlayed),
		MatchesPlayed:  s.MatchesPlayed,
		GoalsFor:       s.GoalsFor,
		GoalsAgainst:   s.GoalsAgainst,
		GoalDifference: s.GoalDifference,
	}
}

// WinRate is wins as a percentage of played, rounded to one decimal.
func WinRate(wins, played int) float64 {
	if played <= 0 {
		return 0
	}
	return math.Round(float64(wins)/float64(played)*1000) / 10
}

func logoFromMatches(team model.FavoriteTeam, matches []model.Match) *string {
	for _, m := range matches {
		_, home := m.Involves(team.TeamID, team.TeamName)
		logo := m.AwayTeamLogo
		if home {
			logo = m.HomeTeamLogo
		}
		if logo != "" {
			return &logo
		}
	}
	return nil
}

func nextMatch(team model.FavoriteTeam, matches []model.Match, now time.Time) *NextMatch {
	var best *model.Match
	for i := range matches {
		m := &matches[i]
		if m.Status != model.StatusScheduled || m.MatchDate.Before(now) {
			continue
		}
		if best == nil || m.MatchDate.Before(best.MatchDate) {
			best = m
		}
	}
	if best == nil {
		return nil
	}

	_, home := best.Involves(team.TeamID, team.TeamName)
	n := &NextMatch{
		MatchID:   best.MatchID,
		MatchDate: best.MatchDate,
		IsHome:    home,
		Venue:     best.Venue,
	}
	if home {
		n.OpponentName, n.OpponentLogo = best.AwayTeamName, best.AwayTeamLogo
	} else {
		n.OpponentName, n.OpponentLogo = best.HomeTeamName, best.HomeTeamLogo
	}
	return n
}

var koreanResult = map[string]string{"W": "승", "D": "무", "L": "패"}

func recentForm(team model.FavoriteTeam, matches []model.Match) *RecentForm {
	finished := make([]model.Match, 0, len(matches))
	for _, m := range matches {
		if m.IsFinished() && m.HasScore() {
			finished = append(finished, m)
		}
	}
	if len(finished) == 0 {
		return nil
	}

	sort.SliceStable(finished, func(i, j int) bool { return finished[i].MatchDate.After(finished[j].MatchDate) })
	if len(finished) > FormLength {
		finished = finished[:FormLength]
	}

	f := &RecentForm{LastMatches: make([]RecentMatch, 0, len(finished))}
	var form strings.Builder
	korean := make([]string, 0, len(finished))
	for i := len(finished) - 1; i >= 0; i-- {
		rm := fromTeamSide(team, finished[i])
		f.LastMatches = append(f.LastMatches, rm)
		form.WriteString(rm.Result)
		korean = append(korean, koreanResult[rm.Result])
	}
	f.Form = form.String()
	f.FormKorean = strings.Join(korean, "-")
	return f
}

func fromTeamSide(team model.FavoriteTeam, m model.Match) RecentMatch {
	_, home := m.Involves(team.TeamID, team.TeamName)
	own, opp := *m.HomeScore, *m.AwayScore
	opponent := m.AwayTeamName
	if !home {
		own, opp = opp, own
		opponent = m.HomeTeamName
	}

	result := "D"
	switch {
	case own > opp:
		result = "W"
	case own < opp:
		result = "L"
	}
	return RecentMatch{
		MatchDate: m.MatchDate,
		Opponent:  opponent,
		Result:    result,
		Score:     fmt.Sprintf("%d-%d", own, opp),
		IsHome:    home,
	}
}
