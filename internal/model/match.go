package model

import (
	"fmt"
	"strings"
	"time"
)

// MatchStatus is the lifecycle state of a fixture.
type MatchStatus string

const (
	StatusScheduled MatchStatus = "scheduled"
	StatusLive      MatchStatus = "live"
	StatusFinished  MatchStatus = "finished"
	StatusPostponed MatchStatus = "postponed"
	StatusCancelled MatchStatus = "cancelled"
)

// Valid reports whether s is one of the known statuses.
func (s MatchStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusFinished, StatusPostponed, StatusCancelled:
		return true
	}
	return false
}

// Match is a fixture keyed by its ESPN event id. Team details are stored
// inline rather than joined.
type Match struct {
	ID            int64       `json:"id"`
	MatchID       string      `json:"match_id"`
	Competition   string      `json:"competition"`
	Season        string      `json:"season"`
	Matchday      *int        `json:"matchday"`
	MatchDate     time.Time   `json:"match_date"`
	HomeTeamID    string      `json:"home_team_id"`
	HomeTeamName  string      `json:"home_team_name"`
	HomeTeamLogo  string      `json:"home_team_logo"`
	AwayTeamID    string      `json:"away_team_id"`
	AwayTeamName  string      `json:"away_team_name"`
	AwayTeamLogo  string      `json:"away_team_logo"`
	HomeScore     *int        `json:"home_score"`
	AwayScore     *int        `json:"away_score"`
	Status        MatchStatus `json:"status"`
	Venue         string      `json:"venue"`
	HomeHalfScore *int        `json:"home_half_score"`
	AwayHalfScore *int        `json:"away_half_score"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// IsFinished reports whether the final whistle has gone.
func (m Match) IsFinished() bool { return m.Status == StatusFinished }

// IsLive reports whether the match is in progress.
func (m Match) IsLive() bool { return m.Status == StatusLive }

// HasScore reports whether both scores are known.
func (m Match) HasScore() bool { return m.HomeScore != nil && m.AwayScore != nil }

// Involves reports whether the team with the given id or display name plays
// in m. Names compare case-insensitively.
func (m Match) Involves(teamID, teamName string) (involved, home bool) {
	if teamID != "" {
		if m.HomeTeamID == teamID {
			return true, true
		}
		if m.AwayTeamID == teamID {
			return true, false
		}
	}
	if teamName != "" {
		if SameTeamName(m.HomeTeamName, teamName) {
			return true, true
		}
		if SameTeamName(m.AwayTeamName, teamName) {
			return true, false
		}
	}
	return false, false
}

func (m Match) String() string {
	if m.HasScore() {
		return fmt.Sprintf("%s %d - %d %s", m.HomeTeamName, *m.HomeScore, *m.AwayScore, m.AwayTeamName)
	}
	return fmt.Sprintf("%s vs %s", m.HomeTeamName, m.AwayTeamName)
}

// MatchSummary is the list representation of a Match.
type MatchSummary struct {
	ID           int64       `json:"id"`
	MatchID      string      `json:"match_id"`
	Matchday     *int        `json:"matchday"`
	MatchDate    time.Time   `json:"match_date"`
	HomeTeamName string      `json:"home_team_name"`
	HomeTeamLogo string      `json:"home_team_logo"`
	AwayTeamName string      `json:"away_team_name"`
	AwayTeamLogo string      `json:"away_team_logo"`
	HomeScore    *int        `json:"home_score"`
	AwayScore    *int        `json:"away_score"`
	Status       MatchStatus `json:"status"`
	IsFinished   bool        `json:"is_finished"`
	IsLive       bool        `json:"is_live"`
}

// Summary returns the list representation of m.
func (m Match) Summary() MatchSummary {
	return MatchSummary{
		ID:           m.ID,
		MatchID:      m.MatchID,
		Matchday:     m.Matchday,
		MatchDate:    m.MatchDate,
		HomeTeamName: m.HomeTeamName,
		HomeTeamLogo: m.HomeTeamLogo,
		AwayTeamName: m.AwayTeamName,
		AwayTeamLogo: m.AwayTeamLogo,
		HomeScore:    m.HomeScore,
		AwayScore:    m.AwayScore,
		Status:       m.Status,
		IsFinished:   m.IsFinished(),
		IsLive:       m.IsLive(),
	}
}

// MatchDetail is the full representation of a Match including the derived
// status flags.
type MatchDetail struct {
	Match
	IsFinished bool `json:"is_finished"`
	IsLive     bool `json:"is_live"`
}

// Detail returns the full representation of m.
func (m Match) Detail() MatchDetail {
	return MatchDetail{Match: m, IsFinished: m.IsFinished(), IsLive: m.IsLive()}
}

// SameTeamName compares two display names ignoring case and surrounding
// whitespace.
func SameTeamName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }
