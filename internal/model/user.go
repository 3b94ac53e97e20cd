package model

import "time"

// Social login providers.
const (
	ProviderGoogle = "google"
	ProviderNaver  = "naver"
)

// User is an account. PasswordHash is empty for social-only accounts.
type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Nickname       string    `json:"nickname"`
	ProfileImage   string    `json:"profile_image"`
	SocialProvider string    `json:"social_provider"`
	SocialID       string    `json:"social_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FavoriteTeam is the compact team shape attached to a user.
type FavoriteTeam struct {
	TeamID   string `json:"team_id"`
	TeamName string `json:"team_name"`
	League   string `json:"league"`
}

// UserProfile is the public account representation.
type UserProfile struct {
	ID                 int64          `json:"id"`
	Username           string         `json:"username"`
	Email              string         `json:"email"`
	Nickname           string         `json:"nickname"`
	ProfileImage       *string        `json:"profile_image"`
	SocialProvider     string         `json:"social_provider"`
	FavoriteTeams      []FavoriteTeam `json:"favorite_teams"`
	FavoriteTeamsCount int            `json:"favorite_teams_count"`
	CreatedAt          time.Time      `json:"created_at"`
}

// Profile builds the public representation of u with its favorites.
func (u User) Profile(favorites []FavoriteTeam) UserProfile {
	if favorites == nil {
		favorites = []FavoriteTeam{}
	}
	var image *string
	if u.ProfileImage != "" {
		img := u.ProfileImage
		image = &img
	}
	return UserProfile{
		ID:                 u.ID,
		Username:           u.Username,
		Email:              u.Email,
		Nickname:           u.Nickname,
		ProfileImage:       image,
		SocialProvider:     u.SocialProvider,
		FavoriteTeams:      favorites,
		FavoriteTeamsCount: len(favorites),
		CreatedAt:          u.CreatedAt,
	}
}
