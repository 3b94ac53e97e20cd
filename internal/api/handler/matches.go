package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Kimkangyeon-17/sports-ptj/internal/api/respond"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
	"github.com/Kimkangyeon-17/sports-ptj/internal/refresh"
	"github.com/Kimkangyeon-17/sports-ptj/internal/store"
)

const (
	upcomingLimit = 10
	finishedLimit = 20
)

// SyncResponse reports a manual refresh.
type SyncResponse struct {
	Message    string   `json:"message"`
	Kind       string   `json:"kind"`
	Outcome    string   `json:"outcome"`
	Created    int      `json:"created"`
	Updated    int      `json:"updated"`
	Skipped    int      `json:"skipped"`
	Errors     []string `json:"errors"`
	DurationMS int64    `json:"duration_ms"`
}

func newSyncResponse(message string, res refresh.Result) SyncResponse {
	errs := res.Errors
	if errs == nil {
		errs = []string{}
	}
	return SyncResponse{
		Message:    message,
		Kind:       string(res.Kind),
		Outcome:    res.Outcome(),
		Created:    res.Created,
		Updated:    res.Updated,
		Skipped:    res.Skipped,
		Errors:     errs,
		DurationMS: res.Duration.Milliseconds(),
	}
}

func summarizeMatches(matches []model.Match) []model.MatchSummary {
	out := make([]model.MatchSummary, len(matches))
	for i, m := range matches {
		out[i] = m.Summary()
	}
	return out
}

// findSummaries runs f and writes the summaries as a bare array.
func (h *Handler) findSummaries(w http.ResponseWriter, r *http.Request, f store.MatchFilter) {
	matches, err := h.store.FindMatches(r.Context(), f)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, summarizeMatches(matches))
}

// ListMatches returns a page of matches, newest first. Stale match data is
// refreshed from ESPN before the read.
// @Summary List matches
// @Tags matches
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} Paginated[model.MatchSummary]
// @Router /api/matches [get]
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	h.refresher.MatchesIfStale(r.Context())

	p, err := parsePage(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	matches, total, err := h.store.ListMatches(r.Context(), p.store())
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	page, err := paginate(r, p, total, summarizeMatches(matches))
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, page)
}

// UpcomingMatches returns the next scheduled matches.
// @Summary Upcoming matches
// @Description The 10 nearest scheduled matches kicking off from now.
// @Tags matches
// @Produce json
// @Success 200 {array} model.MatchSummary
// @Router /api/matches/upcoming [get]
func (h *Handler) UpcomingMatches(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	h.findSummaries(w, r, store.MatchFilter{
		Statuses:  []model.MatchStatus{model.StatusScheduled},
		From:      &now,
		Ascending: true,
		Limit:     upcomingLimit,
	})
}

// LiveMatches returns matches in progress.
// @Summary Live matches
// @Tags matches
// @Produce json
// @Success 200 {array} model.MatchSummary
// @Router /api/matches/live [get]
func (h *Handler) LiveMatches(w http.ResponseWriter, r *http.Request) {
	h.findSummaries(w, r, store.MatchFilter{
		Statuses:  []model.MatchStatus{model.StatusLive},
		Ascending: true,
	})
}

// FinishedMatches returns the latest results.
// @Summary Finished matches
// @Description The 20 most recent finished matches, newest first.
// @Tags matches
// @Produce json
// @Success 200 {array} model.MatchSummary
// @Router /api/matches/finished [get]
func (h *Handler) FinishedMatches(w http.ResponseWriter, r *http.Request) {
	h.findSummaries(w, r, store.MatchFilter{
		Statuses: []model.MatchStatus{model.StatusFinished},
		Limit:    finishedLimit,
	})
}

// MatchesByDate returns the matches kicking off on one UTC calendar day.
// @Summary Matches by date
// @Tags matches
// @Produce json
// @Param date query string true "Day as YYYY-MM-DD"
// @Success 200 {array} model.MatchSummary
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/matches/by_date [get]
func (h *Handler) MatchesByDate(w http.ResponseWriter, r *http.Request) {
	s := r.URL.Query().Get("date")
	if s == "" {
		h.writeErr(w, r, badRequest("MISSING_DATE", "date parameter is required (YYYY-MM-DD)"))
		return
	}
	day, err := time.Parse(time.DateOnly, s)
	if err != nil {
		h.writeErr(w, r, badRequest("INVALID_DATE", "date must be formatted as YYYY-MM-DD"))
		return
	}
	next := day.AddDate(0, 0, 1)
	h.findSummaries(w, r, store.MatchFilter{From: &day, To: &next, Ascending: true})
}

// MatchesByTeam returns a team's matches, newest first. team_id takes
// precedence over team_name.
// @Summary Matches by team
// @Tags matches
// @Produce json
// @Param team_id query string false "ESPN team id"
// @Param team_name query string false "Team name contains"
// @Success 200 {array} model.MatchSummary
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/matches/by_team [get]
func (h *Handler) MatchesByTeam(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.MatchFilter
	switch {
	case q.Get("team_id") != "":
		f.TeamIDs = []string{q.Get("team_id")}
	case q.Get("team_name") != "":
		f.TeamNames = []string{q.Get("team_name")}
	default:
		h.writeErr(w, r, badRequest("MISSING_TEAM", "team_id or team_name parameter is required"))
		return
	}
	h.findSummaries(w, r, f)
}

// MatchesByMatchday returns one round in kickoff order.
// @Summary Matches by matchday
// @Tags matches
// @Produce json
// @Param matchday query int true "Round number"
// @Success 200 {array} model.MatchSummary
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/matches/by_matchday [get]
func (h *Handler) MatchesByMatchday(w http.ResponseWriter, r *http.Request) {
	s := r.URL.Query().Get("matchday")
	if s == "" {
		h.writeErr(w, r, badRequest("MISSING_MATCHDAY", "matchday parameter is required"))
		return
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		h.writeErr(w, r, badRequest("INVALID_MATCHDAY", "matchday must be a number"))
		return
	}
	h.findSummaries(w, r, store.MatchFilter{Matchday: &n, Ascending: true})
}

// ForceUpdateMatches resyncs the whole season regardless of staleness.
// @Summary Force match update
// @Tags matches
// @Produce json
// @Security BearerAuth
// @Success 200 {object} SyncResponse
// @Failure 401 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Failure 502 {object} SyncResponse
// @Router /api/matches/force_update [post]
func (h *Handler) ForceUpdateMatches(w http.ResponseWriter, r *http.Request) {
	res := h.refresher.SyncMatches(r.Context())
	switch res.Outcome() {
	case "busy":
		respond.WriteError(w, http.StatusConflict, "REFRESH_IN_PROGRESS", "A match refresh is already running")
	case "failed":
		respond.WriteJSONObject(w, http.StatusBadGateway, newSyncResponse("Match update failed", res))
	default:
		respond.WriteJSONObject(w, http.StatusOK, newSyncResponse("Match data updated", res))
	}
}

// GetMatch returns one match with every field.
// @Summary Get match
// @Tags matches
// @Produce json
// @Param id path int true "Match primary key"
// @Success 200 {object} model.MatchDetail
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/matches/{id} [get]
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	m, err := h.store.GetMatch(r.Context(), id)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, m.Detail())
}
