// Package favorites enforces the favorite-team rules: a user follows at most
// model.MaxFavoriteTeams teams, never the same team twice, and can only
// remove a team they follow.
package favorites

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

var (
	ErrLimitReached    = fmt.Errorf("you can follow at most %d teams", model.MaxFavoriteTeams)
	ErrAlreadyFavorite = errors.New("team is already in your favorites")
	ErrNotFavorite     = errors.New("team is not in your favorites")
)

// CheckAdd validates adding teamID to current.
func CheckAdd(current []model.FavoriteTeam, teamID string) error {
	if contains(current, teamID) {
		return ErrAlreadyFavorite
	}
	if len(current) >= model.MaxFavoriteTeams {
		return ErrLimitReached
	}
	return nil
}

// CheckRemove validates removing teamID from current.
func CheckRemove(current []model.FavoriteTeam, teamID string) error {
	if !contains(current, teamID) {
		return ErrNotFavorite
	}
	return nil
}

func contains(current []model.FavoriteTeam, teamID string) bool {
	for _, f := range current {
		if f.TeamID == teamID {
			return true
		}
	}
	return false
}

// Repository persists favorites. AddFavoriteTeam must enforce the same rules
// atomically and report violations with this package's errors.
type Repository interface {
	FavoriteTeams(ctx context.Context, userID int64) ([]model.FavoriteTeam, error)
	AddFavoriteTeam(ctx context.Context, userID int64, teamID string) error
	RemoveFavoriteTeam(ctx context.Context, userID int64, teamID string) error
}

// Service applies the rules before touching the repository.
type Service struct {
	repo Repository
}

// NewService creates a Service over repo.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns the user's favorites.
func (s *Service) List(ctx context.Context, userID int64) ([]model.FavoriteTeam, error) {
	return s.repo.FavoriteTeams(ctx, userID)
}

// Add follows teamID and returns the updated favorites.
func (s *Service) Add(ctx context.Context, userID int64, teamID string) ([]model.FavoriteTeam, error) {
	current, err := s.repo.FavoriteTeams(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := CheckAdd(current, teamID); err != nil {
		return nil, err
	}
	if err := s.repo.AddFavoriteTeam(ctx, userID, teamID); err != nil {
		return nil, err
	}
	return s.repo.FavoriteTeams(ctx, userID)
}

// Remove unfollows teamID and returns the updated favorites.
func (s *Service) Remove(ctx context.Context, userID int64, teamID string) ([]model.FavoriteTeam, error) {
	current, err := s.repo.FavoriteTeams(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := CheckRemove(current, teamID); err != nil {
		return nil, err
	}
	if err := s.repo.RemoveFavoriteTeam(ctx, userID, teamID); err != nil {
		return nil, err
	}
	return s.repo.FavoriteTeams(ctx, userID)
}
