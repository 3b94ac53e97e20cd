package handler

import (
	"net/http"

	"github.com/Kimkangyeon-17/sports-ptj/internal/cache"
)

// ListStandings returns the league table, refreshing it first when today's
// snapshot is missing.
// @Summary List standings
// @Description League table ordered by rank. The first read of the day pulls a fresh table from ESPN.
// @Tags standings
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} Paginated[model.TeamStanding]
// @Router /api/standings [get]
func (h *Handler) ListStandings(w http.ResponseWriter, r *http.Request) {
	h.refresher.StandingsIfStale(r.Context())

	h.writeCached(w, r, cacheKey(cache.PrefixStandings, r), cache.TTLStandings, func() (any, error) {
		p, err := parsePage(r)
		if err != nil {
			return nil, err
		}
		rows, err := h.store.ListStandings(r.Context())
		if err != nil {
			return nil, err
		}
		return paginateSlice(r, p, rows)
	})
}

// GetStanding returns one table row.
// @Summary Get standing
// @Tags standings
// @Produce json
// @Param id path int true "Standing primary key"
// @Success 200 {object} model.TeamStanding
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/standings/{id} [get]
func (h *Handler) GetStanding(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeCached(w, r, cacheKey(cache.PrefixStandings, r), cache.TTLStandings, func() (any, error) {
		return h.store.GetStanding(r.Context(), id)
	})
}
