package handler

import (
	"net/http"

	"github.com/Kimkangyeon-17/sports-ptj/internal/cache"
	"github.com/Kimkangyeon-17/sports-ptj/internal/store"
)

// ListStaff returns a page of managers and coaches.
// @Summary List staff
// @Tags staff
// @Produce json
// @Param search query string false "Matches name, team_name, position and nationality"
// @Param ordering query string false "name, team_name or position"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} Paginated[model.Staff]
// @Router /api/staff [get]
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, cacheKey(cache.PrefixStaff, r), cache.TTLStatic, func() (any, error) {
		opts, p, err := listOptions(r)
		if err != nil {
			return nil, err
		}
		staff, total, err := h.store.ListStaff(r.Context(), opts)
		if err != nil {
			return nil, err
		}
		return paginate(r, p, total, staff)
	})
}

// SearchStaff filters staff field by field.
// @Summary Search staff
// @Tags staff
// @Produce json
// @Param name query string false "Name contains"
// @Param team query string false "Team name contains"
// @Param position query string false "Position contains"
// @Param nationality query string false "Nationality contains"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} Paginated[model.Staff]
// @Router /api/staff/search [get]
func (h *Handler) SearchStaff(w http.ResponseWriter, r *http.Request) {
	h.writeCached(w, r, cacheKey(cache.PrefixStaff, r), cache.TTLStatic, func() (any, error) {
		p, err := parsePage(r)
		if err != nil {
			return nil, err
		}
		q := r.URL.Query()
		staff, total, err := h.store.SearchStaff(r.Context(), store.StaffQuery{
			Name:        q.Get("name"),
			Team:        q.Get("team"),
			Position:    q.Get("position"),
			Nationality: q.Get("nationality"),
		}, p.store())
		if err != nil {
			return nil, err
		}
		return paginate(r, p, total, staff)
	})
}

// GetStaff returns one staff member.
// @Summary Get staff member
// @Tags staff
// @Produce json
// @Param id path int true "Staff primary key"
// @Success 200 {object} model.Staff
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/staff/{id} [get]
func (h *Handler) GetStaff(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	h.writeCached(w, r, cacheKey(cache.PrefixStaff, r), cache.TTLStatic, func() (any, error) {
		return h.store.GetStaff(r.Context(), id)
	})
}
