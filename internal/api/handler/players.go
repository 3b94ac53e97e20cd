package handler

import (
	"net/http"

	"github.com/Kimkangyeon-17/sports-ptj/internal/cache"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
	"github.com/Kimkangyeon-17/sports-ptj/internal/store"
)

func summarizePlayers(players []model.Player) []model.PlayerSummary {
	out := make([]model.PlayerSummary, len(players))
	for i, p := range players {
		out[i] = p.Summary()
	}
	return out
}

// ListPlayers returns a page of players.
// @Summary List players
// @Description Paginated players. search matches name, full_name, team_name, position and nationality; ordering accepts name, age and team_name.
// @Tags players
// @Produce json
// @Param search query string false "Free-text search"
// @Param ordering query string false "Ordering field, prefix - for descending"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} Paginated[model.PlayerSummary]
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/players [get]
func (h *Handler) ListPlayers(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, cacheKey(cache.PrefixPlayers, r), cache.TTLStatic, func() (any, error) {
		opts, p, err := listOptions(r)
		if err != nil {
			return nil, err
		}
		players, total, err := h.store.ListPlayers(r.Context(), opts)
		if err != nil {
			return nil, err
		}
		return paginate(r, p, total, summarizePlayers(players))
	})
}

// SearchPlayers filters players field by field.
// @Summary Search players
// @Tags players
// @Produce json
// @Param name query string false "Name contains"
// @Param team query string false "Team name contains"
// @Param position query string false "Position contains"
// @Param nationality query string false "Nationality contains"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} Paginated[model.PlayerSummary]
// @Router /api/players/search [get]
func (h *Handler) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, cacheKey(cache.PrefixPlayers, r), cache.TTLStatic, func() (any, error) {
		p, err := parsePage(r)
		if err != nil {
			return nil, err
		}
		q := r.URL.Query()
		players, total, err := h.store.SearchPlayers(r.Context(), store.PlayerQuery{
			Name:        q.Get("name"),
			Team:        q.Get("team"),
			Position:    q.Get("position"),
			Nationality: q.Get("nationality"),
		}, p.store())
		if err != nil {
			return nil, err
		}
		return paginate(r, p, total, summarizePlayers(players))
	})
}

// GetPlayer returns the full player record including the profile texts.
// @Summary Get player
// @Tags players
// @Produce json
// @Param id path int true "Player primary key"
// @Success 200 {object} model.Player
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/players/{id} [get]
func (h *Handler) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeCached(w, r, cacheKey(cache.PrefixPlayers, r), cache.TTLStatic, func() (any, error) {
		return h.store.GetPlayer(r.Context(), id)
	})
}
