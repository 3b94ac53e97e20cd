// Package model defines the domain records shared by storage, the ESPN
// provider, the refresh routine and the HTTP layer.
package model

import (
	"fmt"
	"time"
)

// MaxFavoriteTeams is the most teams a user may follow at once.
const MaxFavoriteTeams = 3

// Team is a club loaded from the squad files.
type Team struct {
	ID        int64     `json:"id"`
	TeamID    string    `json:"team_id"`
	TeamName  string    `json:"team_name"`
	League    string    `json:"league"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Player is a squad member. TeamID refers to Team.TeamID, not Team.ID.
type Player struct {
	ID            int64      `json:"id"`
	PlayerID      string     `json:"player_id"`
	Name          string     `json:"name"`
	FullName      string     `json:"full_name"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	WikiName      string     `json:"wiki_name"`
	WikiURL       string     `json:"wiki_url"`
	WikiFound     bool       `json:"wiki_found"`
	Position      string     `json:"position"`
	PositionAbbr  string     `json:"position_abbr"`
	JerseyNumber  string     `json:"jersey_number"`
	Age           *int       `json:"age"`
	Height        string     `json:"height"`
	Weight        string     `json:"weight"`
	BirthPlace    string     `json:"birth_place"`
	BirthDate     *time.Time `json:"birth_date"`
	Nationality   string     `json:"nationality"`
	TeamID        string     `json:"team_id"`
	TeamName      string     `json:"team_name"`
	Introduction  string     `json:"introduction"`
	PlayingStyle  string     `json:"playing_style"`
	CareerSummary string     `json:"career_summary"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PlayerSummary is the list representation of a Player.
type PlayerSummary struct {
	ID           int64  `json:"id"`
	PlayerID     string `json:"player_id"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Position     string `json:"position"`
	PositionAbbr string `json:"position_abbr"`
	JerseyNumber string `json:"jersey_number"`
	Age          *int   `json:"age"`
	Height       string `json:"height"`
	Weight       string `json:"weight"`
	Nationality  string `json:"nationality"`
	TeamID       string `json:"team_id"`
	TeamName     string `json:"team_name"`
	WikiURL      string `json:"wiki_url"`
}

// Summary returns the list representation of p.
func (p Player) Summary() PlayerSummary {
	return PlayerSummary{
		ID:           p.ID,
		PlayerID:     p.PlayerID,
		Name:         p.Name,
		FullName:     p.FullName,
		Position:     p.Position,
		PositionAbbr: p.PositionAbbr,
		JerseyNumber: p.JerseyNumber,
		Age:          p.Age,
		Height:       p.Height,
		Weight:       p.Weight,
		Nationality:  p.Nationality,
		TeamID:       p.TeamID,
		TeamName:     p.TeamName,
		WikiURL:      p.WikiURL,
	}
}

// Staff is a manager or coach.
type Staff struct {
	ID          int64     `json:"id"`
	TeamName    string    `json:"team_name"`
	Position    string    `json:"position"`
	Name        string    `json:"name"`
	Nationality string    `json:"nationality"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s Staff) String() string {
	return fmt.Sprintf("%s - %s (%s)", s.Name, s.Position, s.TeamName)
}

// TeamStanding is one row of the league table.
type TeamStanding struct {
	ID             int64     `json:"id"`
	Rank           int       `json:"rank"`
	TeamName       string    `json:"team_name"`
	TeamLogo       *string   `json:"team_logo"`
	Points         int       `json:"points"`
	MatchesPlayed  int       `json:"matches_played"`
	Wins           int       `json:"wins"`
	Draws          int       `json:"draws"`
	Losses         int       `json:"losses"`
	GoalsFor       int       `json:"goals_for"`
	GoalsAgainst   int       `json:"goals_against"`
	GoalDifference int       `json:"goal_difference"`
	UpdatedAt      time.Time `json:"updated_at"`
}
