package handler

import (
	"net/http"

	"github.com/Kimkangyeon-17/sports-ptj/internal/api/respond"
	"github.com/Kimkangyeon-17/sports-ptj/internal/cache"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

// cacheKey identifies a cached response by prefix, host and the sorted
// query. Host is part of the key because page links are absolute.
func cacheKey(prefix string, r *http.Request) string {
	return prefix + r.Host + r.URL.Path + "?" + r.URL.Query().Encode()
}

// ListTeams returns a page of teams.
// @Summary List teams
// @Description Paginated teams. search matches team_name and league; ordering accepts team_name or -team_name.
// @Tags teams
// @Produce json
// @Param search query string false "Free-text search"
// @Param ordering query string false "Ordering field"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} Paginated[model.Team]
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/teams [get]
func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, cacheKey(cache.PrefixTeams, r), cache.TTLStatic, func() (any, error) {
		opts, p, err := listOptions(r)
		if err != nil {
			return nil, err
		}
		teams, total, err := h.store.ListTeams(r.Context(), opts)
		if err != nil {
			return nil, err
		}
		return paginate(r, p, total, teams)
	})
}

// SearchTeams filters teams by name and league.
// @Summary Search teams
// @Tags teams
// @Produce json
// @Param name query string false "Team name contains"
// @Param league query string false "League contains"
// @Success 200 {array} model.Team
// @Router /api/teams/search [get]
func (h *Handler) SearchTeams(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	teams, err := h.store.SearchTeams(r.Context(), q.Get("name"), q.Get("league"))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	if teams == nil {
		teams = []model.Team{}
	}
	respond.WriteJSONObject(w, http.StatusOK, teams)
}

// GetTeam returns one team.
// @Summary Get team
// @Tags teams
// @Produce json
// @Param id path int true "Team primary key"
// @Success 200 {object} model.Team
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/teams/{id} [get]
func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeCached(w, r, cacheKey(cache.PrefixTeams, r), cache.TTLStatic, func() (any, error) {
		return h.store.GetTeam(r.Context(), id)
	})
}

// TeamPlayers returns a team's squad, optionally filtered by position.
// @Summary List team players
// @Tags teams
// @Produce json
// @Param id path int true "Team primary key"
// @Param position query string false "Position contains"
// @Success 200 {array} model.PlayerSummary
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/teams/{id}/players [get]
func (h *Handler) TeamPlayers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeCached(w, r, cacheKey(cache.PrefixPlayers, r), cache.TTLStatic, func() (any, error) {
		team, err := h.store.GetTeam(r.Context(), id)
		if err != nil {
			return nil, err
		}
		players, err := h.store.PlayersByTeam(r.Context(), team.TeamID, r.URL.Query().Get("position"))
		if err != nil {
			return nil, err
		}
		return summarizePlayers(players), nil
	})
}
