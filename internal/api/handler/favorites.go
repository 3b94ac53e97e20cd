package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Kimkangyeon-17/sports-ptj/internal/api/respond"
	"github.com/Kimkangyeon-17/sports-ptj/internal/dashboard"
	"github.com/Kimkangyeon-17/sports-ptj/internal/favorites"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
	"github.com/Kimkangyeon-17/sports-ptj/internal/store"
)

// FavoriteTeamsResponse lists the user's followed teams.
type FavoriteTeamsResponse struct {
	Message       string               `json:"message,omitempty"`
	FavoriteTeams []model.FavoriteTeam `json:"favorite_teams"`
	Count         int                  `json:"count"`
	Max           int                  `json:"max"`
}

// AddFavoriteRequest is the follow body.
type AddFavoriteRequest struct {
	TeamID string `json:"team_id" validate:"required"`
}

// FavoriteMatchesResponse is the match list of one or all followed teams.
type FavoriteMatchesResponse struct {
	FavoriteTeams []model.FavoriteTeam `json:"favorite_teams"`
	Matches       []model.MatchSummary `json:"matches"`
}

func newFavoritesResponse(message string, favs []model.FavoriteTeam) FavoriteTeamsResponse {
	if favs == nil {
		favs = []model.FavoriteTeam{}
	}
	return FavoriteTeamsResponse{Message: message, FavoriteTeams: favs, Count: len(favs), Max: model.MaxFavoriteTeams}
}

// teamFilter selects matches of any of favs by id or name.
func teamFilter(favs []model.FavoriteTeam) store.MatchFilter {
	var f store.MatchFilter
	for _, t := range favs {
		f.TeamIDs = append(f.TeamIDs, t.TeamID)
		if t.TeamName != "" {
			f.TeamNames = append(f.TeamNames, t.TeamName)
		}
	}
	return f
}

// ownMatches drops matches that only matched a name substring.
func ownMatches(favs []model.FavoriteTeam, matches []model.Match) []model.Match {
	out := matches[:0:0]
	for _, m := range matches {
		for _, t := range favs {
			if ok, _ := m.Involves(t.TeamID, t.TeamName); ok {
				out = append(out, m)
				break
			}
		}
	}
	return out
}

// MyFavoriteTeams lists followed teams.
// @Summary List favorite teams
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FavoriteTeamsResponse
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/accounts/favorite-teams [get]
func (h *Handler) MyFavoriteTeams(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	favs, err := h.favorites.List(r.Context(), userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, newFavoritesResponse("", favs))
}

// AddFavoriteTeam follows a team. At most three teams can be followed.
// @Summary Add favorite team
// @Tags favorites
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body AddFavoriteRequest true "Team to follow"
// @Success 201 {object} FavoriteTeamsResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/accounts/favorite-teams/add [post]
func (h *Handler) AddFavoriteTeam(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	var req AddFavoriteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeErr(w, r, err)
		return
	}
	req.TeamID = strings.TrimSpace(req.TeamID)
	if !h.check(w, r, &req) {
		return
	}

	team, err := h.store.GetTeamByTeamID(r.Context(), req.TeamID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			err = notFound("Team not found")
		}
		h.writeErr(w, r, err)
		return
	}
	favs, err := h.favorites.Add(r.Context(), userID, team.TeamID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusCreated, newFavoritesResponse(team.TeamName+" added to favorite teams", favs))
}

// RemoveFavoriteTeam unfollows a team.
// @Summary Remove favorite team
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param team_id path string true "Team id"
// @Success 200 {object} FavoriteTeamsResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/accounts/favorite-teams/remove/{team_id} [delete]
func (h *Handler) RemoveFavoriteTeam(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	teamID := chi.URLParam(r, "team_id")
	favs, err := h.favorites.Remove(r.Context(), userID, teamID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, newFavoritesResponse("Team removed from favorite teams", favs))
}

// FavoriteTeamMatches lists every match of one followed team, newest first.
// @Summary Matches of a favorite team
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Param team_id path string true "Team id"
// @Success 200 {object} FavoriteMatchesResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/accounts/favorite-teams/{team_id}/matches [get]
func (h *Handler) FavoriteTeamMatches(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	favs, err := h.favorites.List(r.Context(), userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	teamID := chi.URLParam(r, "team_id")
	var team []model.FavoriteTeam
	for _, t := range favs {
		if t.TeamID == teamID {
			team = append(team, t)
		}
	}
	if len(team) == 0 {
		h.writeErr(w, r, favorites.ErrNotFavorite)
		return
	}
	h.writeFavoriteMatches(w, r, team, teamFilter(team))
}

// AllFavoriteMatches lists matches of every followed team, newest first.
// @Summary Matches of all favorite teams
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FavoriteMatchesResponse
// @Router /api/accounts/favorite-teams/matches [get]
func (h *Handler) AllFavoriteMatches(w http.ResponseWriter, r *http.Request) {
	h.favoriteMatches(w, r, func(f *store.MatchFilter) {})
}

// UpcomingFavoriteMatches lists the next scheduled matches of followed teams.
// @Summary Upcoming favorite matches
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FavoriteMatchesResponse
// @Router /api/accounts/favorite-teams/matches/upcoming [get]
func (h *Handler) UpcomingFavoriteMatches(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	h.favoriteMatches(w, r, func(f *store.MatchFilter) {
		f.Statuses = []model.MatchStatus{model.StatusScheduled}
		f.From = &now
		f.Ascending = true
	})
}

// PastFavoriteMatches lists finished matches of followed teams, newest first.
// @Summary Past favorite matches
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Success 200 {object} FavoriteMatchesResponse
// @Router /api/accounts/favorite-teams/matches/past [get]
func (h *Handler) PastFavoriteMatches(w http.ResponseWriter, r *http.Request) {
	h.favoriteMatches(w, r, func(f *store.MatchFilter) {
		f.Statuses = []model.MatchStatus{model.StatusFinished}
	})
}

// favoriteMatches loads the user's favorites and lists their matches with
// the filter adjusted by narrow.
func (h *Handler) favoriteMatches(w http.ResponseWriter, r *http.Request, narrow func(*store.MatchFilter)) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	favs, err := h.favorites.List(r.Context(), userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	f := teamFilter(favs)
	narrow(&f)
	h.writeFavoriteMatches(w, r, favs, f)
}

func (h *Handler) writeFavoriteMatches(w http.ResponseWriter, r *http.Request, favs []model.FavoriteTeam, f store.MatchFilter) {
	resp := FavoriteMatchesResponse{FavoriteTeams: favs, Matches: []model.MatchSummary{}}
	if resp.FavoriteTeams == nil {
		resp.FavoriteTeams = []model.FavoriteTeam{}
	}
	// An empty team filter would select every match.
	if len(favs) > 0 {
		matches, err := h.store.FindMatches(r.Context(), f)
		if err != nil {
			h.writeErr(w, r, err)
			return
		}
		resp.Matches = summarizeMatches(ownMatches(favs, matches))
	}
	respond.WriteJSONObject(w, http.StatusOK, resp)
}

// Dashboard aggregates standing, next match and recent form per followed
// team.
// @Summary Dashboard
// @Tags favorites
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dashboard.Main
// @Failure 401 {object} respond.ErrorResponse
// @Router /api/accounts/dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, err := currentUser(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	favs, err := h.favorites.List(r.Context(), userID)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if len(favs) == 0 {
		respond.WriteJSONObject(w, http.StatusOK, dashboard.NewMain(nil))
		return
	}

	standings, err := h.store.ListStandings(r.Context())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	matches, err := h.store.FindMatches(r.Context(), teamFilter(favs))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	now := h.now()
	panels := make([]dashboard.TeamDashboard, 0, len(favs))
	for _, t := range favs {
		panels = append(panels, dashboard.Build(t, standings, matches, now))
	}
	respond.WriteJSONObject(w, http.StatusOK, dashboard.NewMain(panels))
}
