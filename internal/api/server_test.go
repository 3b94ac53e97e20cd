package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kimkangyeon-17/sports-ptj/internal/api/handler"
	"github.com/Kimkangyeon-17/sports-ptj/internal/api/respond"
	"github.com/Kimkangyeon-17/sports-ptj/internal/auth"
	"github.com/Kimkangyeon-17/sports-ptj/internal/cache"
	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/dashboard"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
	"github.com/Kimkangyeon-17/sports-ptj/internal/refresh"
)

var testNow = time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store     *fakeStore
	refresher *fakeRefresher
	router    http.Handler
}

func newTestEnv(t *testing.T, providers map[string]*auth.Provider) *testEnv {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTAccessTTL:     30 * time.Minute,
		JWTRefreshTTL:    24 * time.Hour,
		CORSAllowOrigins: []string{"http://localhost:5173"},
	}
	st := newFakeStore()
	rf := &fakeRefresher{}
	c := cache.New(true)
	t.Cleanup(c.Close)

	tokens := auth.NewIssuer(cfg, st)
	h := handler.New(handler.Deps{
		Store:     st,
		Refresher: rf,
		Tokens:    tokens,
		Cache:     c,
		Providers: providers,
		Config:    cfg,
		Now:       func() time.Time { return testNow },
	})
	return &testEnv{store: st, refresher: rf, router: NewRouter(h, tokens, cfg)}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[respond.ErrorResponse](t, rec).Error.Code
}

// signUp registers and logs in a user and returns the access token.
func (e *testEnv) signUp(t *testing.T, username string) handler.LoginResponse {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/accounts/register/", map[string]string{
		"username":  username,
		"email":     username + "@example.com",
		"password":  "correct-horse",
		"password2": "correct-horse",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/accounts/login/", map[string]string{
		"username": username,
		"password": "correct-horse",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[handler.LoginResponse](t, rec)
}

func (e *testEnv) seedTeams(n int) {
	for i := 1; i <= n; i++ {
		e.store.teams = append(e.store.teams, model.Team{
			ID:       int64(i),
			TeamID:   fmt.Sprintf("%d", 100+i),
			TeamName: fmt.Sprintf("Team %02d", i),
			League:   config.League,
		})
	}
}

// --------------------------------------------------------------------------
// Meta
// --------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/health/", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))

	rec = env.do(t, http.MethodGet, "/health/db", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code, "no database ping configured")

	rec = env.do(t, http.MethodGet, "/health/cache", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "memory", decode[map[string]any](t, rec)["cache"].(map[string]any)["backend"])
}

// --------------------------------------------------------------------------
// Static resources
// --------------------------------------------------------------------------

func TestListTeams_Pagination(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTeams(25)

	rec := env.do(t, http.MethodGet, "/api/teams/?page=2&page_size=10", nil, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	page := decode[handler.Paginated[model.Team]](t, rec)
	assert.Equal(t, 25, page.Count)
	require.Len(t, page.Results, 10)
	assert.Equal(t, "Team 11", page.Results[0].TeamName)
	require.NotNil(t, page.Next)
	require.NotNil(t, page.Previous)

	next, err := url.Parse(*page.Next)
	require.NoError(t, err)
	assert.Equal(t, "3", next.Query().Get("page"))
	prev, err := url.Parse(*page.Previous)
	require.NoError(t, err)
	assert.False(t, prev.Query().Has("page"), "the first page link drops the page parameter")
	assert.Equal(t, "10", prev.Query().Get("page_size"))
}

func TestListTeams_PageSizeCapped(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTeams(120)

	page := decode[handler.Paginated[model.Team]](t, env.do(t, http.MethodGet, "/api/teams?page_size=500", nil, ""))
	assert.Len(t, page.Results, 100)

	page = decode[handler.Paginated[model.Team]](t, env.do(t, http.MethodGet, "/api/teams", nil, ""))
	assert.Len(t, page.Results, 20)
	assert.Nil(t, page.Previous)
}

func TestListTeams_InvalidPage(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTeams(5)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/teams?page=2", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/teams?page=abc", nil, "").Code)
}

func TestListTeams_ETag(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTeams(3)

	first := env.do(t, http.MethodGet, "/api/teams", nil, "")
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	second := env.do(t, http.MethodGet, "/api/teams", nil, "")
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))

	req := httptest.NewRequest(http.MethodGet, "/api/teams", nil)
	req.Header.Set("If-None-Match", etag)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestGetTeam(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTeams(2)
	env.store.players = []model.Player{
		{ID: 1, PlayerID: "p1", Name: "Saka", Position: "Forward", TeamID: "101"},
		{ID: 2, PlayerID: "p2", Name: "Rice", Position: "Midfielder", TeamID: "101"},
		{ID: 3, PlayerID: "p3", Name: "Palmer", Position: "Midfielder", TeamID: "102"},
	}

	rec := env.do(t, http.MethodGet, "/api/teams/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "101", decode[model.Team](t, rec).TeamID)

	rec = env.do(t, http.MethodGet, "/api/teams/1/players?position=mid", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	players := decode[[]model.PlayerSummary](t, rec)
	require.Len(t, players, 1)
	assert.Equal(t, "Rice", players[0].Name)

	rec = env.do(t, http.MethodGet, "/api/teams/99", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	rec = env.do(t, http.MethodGet, "/api/teams/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ID", errorCode(t, rec))
}

func TestSearchTeams_ReturnsBareArray(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTeams(12)

	rec := env.do(t, http.MethodGet, "/api/teams/search?name=team%201", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]model.Team](t, rec), 3, "Team 10, 11 and 12")

	rec = env.do(t, http.MethodGet, "/api/teams/search?name=nobody", nil, "")
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestPlayersAndStaff(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.players = []model.Player{{ID: 7, PlayerID: "p7", Name: "Bukayo Saka", TeamName: "Arsenal", Introduction: "Winger"}}
	env.store.staff = []model.Staff{{ID: 3, TeamName: "Arsenal", Position: "Manager", Name: "Mikel Arteta"}}

	page := decode[handler.Paginated[model.PlayerSummary]](t, env.do(t, http.MethodGet, "/api/players/search?name=saka", nil, ""))
	assert.Equal(t, 1, page.Count)

	rec := env.do(t, http.MethodGet, "/api/players/7", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Winger", decode[model.Player](t, rec).Introduction)

	staff := decode[handler.Paginated[model.Staff]](t, env.do(t, http.MethodGet, "/api/staff", nil, ""))
	require.Len(t, staff.Results, 1)
	assert.Equal(t, "Mikel Arteta", staff.Results[0].Name)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/staff/4", nil, "").Code)
}

// --------------------------------------------------------------------------
// Standings and matches
// --------------------------------------------------------------------------

func TestListStandings_ChecksStaleness(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.standings = []model.TeamStanding{{ID: 1, Rank: 1, TeamName: "Arsenal"}, {ID: 2, Rank: 2, TeamName: "Chelsea"}}

	rec := env.do(t, http.MethodGet, "/api/standings/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[handler.Paginated[model.TeamStanding]](t, rec)
	assert.Equal(t, 2, page.Count)
	assert.Equal(t, int32(1), env.refresher.standingReads.Load())

	env.do(t, http.MethodGet, "/api/standings/", nil, "")
	assert.Equal(t, int32(2), env.refresher.standingReads.Load(), "the staleness check runs even on cache hits")
}

func sampleMatches() []model.Match {
	day := func(d, h int) time.Time { return time.Date(2025, 9, d, h, 0, 0, 0, time.UTC) }
	return []model.Match{
		{ID: 1, MatchID: "m1", Matchday: model.IntPtr(1), MatchDate: day(1, 15), HomeTeamID: "359", HomeTeamName: "Arsenal", AwayTeamID: "363", AwayTeamName: "Chelsea", HomeScore: model.IntPtr(2), AwayScore: model.IntPtr(0), Status: model.StatusFinished},
		{ID: 2, MatchID: "m2", Matchday: model.IntPtr(2), MatchDate: day(8, 15), HomeTeamID: "364", HomeTeamName: "Liverpool", AwayTeamID: "359", AwayTeamName: "Arsenal", HomeScore: model.IntPtr(1), AwayScore: model.IntPtr(1), Status: model.StatusFinished},
		{ID: 3, MatchID: "m3", Matchday: model.IntPtr(3), MatchDate: day(15, 15), HomeTeamID: "359", HomeTeamName: "Arsenal", AwayTeamID: "382", AwayTeamName: "Manchester City", HomeScore: model.IntPtr(0), AwayScore: model.IntPtr(1), Status: model.StatusFinished},
		{ID: 4, MatchID: "m4", Matchday: model.IntPtr(4), MatchDate: day(30, 19), HomeTeamID: "363", HomeTeamName: "Chelsea", AwayTeamID: "364", AwayTeamName: "Liverpool", Status: model.StatusLive},
		{ID: 5, MatchID: "m5", Matchday: model.IntPtr(5), MatchDate: testNow.Add(72 * time.Hour), HomeTeamID: "382", HomeTeamName: "Manchester City", AwayTeamID: "359", AwayTeamName: "Arsenal", Status: model.StatusScheduled, Venue: "Etihad Stadium"},
		{ID: 6, MatchID: "m6", Matchday: model.IntPtr(5), MatchDate: testNow.Add(24 * time.Hour), HomeTeamID: "363", HomeTeamName: "Chelsea", AwayTeamID: "364", AwayTeamName: "Liverpool", Status: model.StatusScheduled},
	}
}

func TestListMatches_ChecksStaleness(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.matches = sampleMatches()

	rec := env.do(t, http.MethodGet, "/api/matches", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[handler.Paginated[model.MatchSummary]](t, rec)
	assert.Equal(t, 6, page.Count)
	assert.Equal(t, int32(1), env.refresher.matchReads.Load())
}

func TestMatchActions(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.matches = sampleMatches()

	upcoming := decode[[]model.MatchSummary](t, env.do(t, http.MethodGet, "/api/matches/upcoming/", nil, ""))
	require.Len(t, upcoming, 2)
	assert.Equal(t, "m6", upcoming[0].MatchID, "nearest kickoff first")

	live := decode[[]model.MatchSummary](t, env.do(t, http.MethodGet, "/api/matches/live", nil, ""))
	require.Len(t, live, 1)
	assert.True(t, live[0].IsLive)

	finished := decode[[]model.MatchSummary](t, env.do(t, http.MethodGet, "/api/matches/finished", nil, ""))
	require.Len(t, finished, 3)
	assert.Equal(t, "m3", finished[0].MatchID, "newest result first")
	assert.Equal(t, 20, env.store.filter().Limit)

	byDate := decode[[]model.MatchSummary](t, env.do(t, http.MethodGet, "/api/matches/by_date?date=2025-09-08", nil, ""))
	require.Len(t, byDate, 1)
	assert.Equal(t, "m2", byDate[0].MatchID)

	byTeam := decode[[]model.MatchSummary](t, env.do(t, http.MethodGet, "/api/matches/by_team?team_name=liver", nil, ""))
	assert.Len(t, byTeam, 3)

	byRound := decode[[]model.MatchSummary](t, env.do(t, http.MethodGet, "/api/matches/by_matchday?matchday=5", nil, ""))
	assert.Len(t, byRound, 2)
}

func TestMatchActions_BadParameters(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := []struct {
		path string
		code string
	}{
		{"/api/matches/by_date", "MISSING_DATE"},
		{"/api/matches/by_date?date=27-11-2024", "INVALID_DATE"},
		{"/api/matches/by_team", "MISSING_TEAM"},
		{"/api/matches/by_matchday", "MISSING_MATCHDAY"},
		{"/api/matches/by_matchday?matchday=five", "INVALID_MATCHDAY"},
	}
	for _, tc := range cases {
		rec := env.do(t, http.MethodGet, tc.path, nil, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, tc.path)
		assert.Equal(t, tc.code, errorCode(t, rec), tc.path)
	}
}

func TestGetMatch(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.matches = sampleMatches()

	rec := env.do(t, http.MethodGet, "/api/matches/1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "m1", body["match_id"])
	assert.Equal(t, true, body["is_finished"])
	assert.Contains(t, body, "home_half_score")

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/matches/42", nil, "").Code)
}

func TestForceUpdate(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/matches/force_update", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, int32(0), env.refresher.syncs.Load())

	login := env.signUp(t, "kim")
	env.refresher.result = refresh.Result{Kind: refresh.KindMatches, Created: 3, Updated: 5}
	rec = env.do(t, http.MethodPost, "/api/matches/force_update/", nil, login.Access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[handler.SyncResponse](t, rec)
	assert.Equal(t, "ok", resp.Outcome)
	assert.Equal(t, 3, resp.Created)

	env.refresher.result = refresh.Result{Kind: refresh.KindMatches, Busy: true}
	rec = env.do(t, http.MethodPost, "/api/matches/force_update", nil, login.Access)
	assert.Equal(t, http.StatusConflict, rec.Code)

	env.refresher.result = refresh.Result{Kind: refresh.KindMatches, Errors: []string{"window 1: timeout"}}
	rec = env.do(t, http.MethodPost, "/api/matches/force_update", nil, login.Access)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// --------------------------------------------------------------------------
// Accounts
// --------------------------------------------------------------------------

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/accounts/register", map[string]string{
		"username": "kim", "email": "kim@example.com", "password": "longenough", "password2": "different1",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[respond.ErrorResponse](t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "Passwords do not match.", resp.Error.Message)

	rec = env.do(t, http.MethodPost, "/api/accounts/register", map[string]string{
		"username": "", "email": "not-an-email", "password": "short", "password2": "short",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decode[respond.ErrorResponse](t, rec).Error.Fields
	assert.Contains(t, fields, "username")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields["password"], "at least 8")

	rec = env.do(t, http.MethodPost, "/api/accounts/register", map[string]string{
		"username": strings.Repeat("x", 151), "email": "x@example.com", "password": "longenough", "password2": "longenough",
	}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegister_Duplicate(t *testing.T) {
	env := newTestEnv(t, nil)
	env.signUp(t, "kim")

	rec := env.do(t, http.MethodPost, "/api/accounts/register", map[string]string{
		"username": "kim", "email": "other@example.com", "password": "longenough", "password2": "longenough",
	}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[respond.ErrorResponse](t, rec).Error.Fields, "username")
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	login := env.signUp(t, "kim")
	assert.Equal(t, "kim", login.User.Username)
	assert.NotEmpty(t, login.Access)
	assert.NotEmpty(t, login.Refresh)

	rec := env.do(t, http.MethodPost, "/api/accounts/login", map[string]string{"email": "kim@example.com", "password": "correct-horse"}, "")
	assert.Equal(t, http.StatusOK, rec.Code, "email works as the login")

	rec = env.do(t, http.MethodPost, "/api/accounts/login", map[string]string{"username": "kim", "password": "wrong-password"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/accounts/login", map[string]string{"username": "nobody", "password": "whatever1"}, "")
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rec))
}

func TestTokenRefresh_RotatesOnce(t *testing.T) {
	env := newTestEnv(t, nil)
	login := env.signUp(t, "kim")

	rec := env.do(t, http.MethodPost, "/api/accounts/token/refresh/", map[string]string{"refresh": login.Refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pair := decode[auth.Pair](t, rec)
	assert.NotEqual(t, login.Refresh, pair.Refresh)

	rec = env.do(t, http.MethodPost, "/api/accounts/token/refresh/", map[string]string{"refresh": login.Refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "a rotated refresh token cannot be reused")

	rec = env.do(t, http.MethodPost, "/api/accounts/logout", map[string]string{"refresh": pair.Refresh}, pair.Access)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, "/api/accounts/token/refresh", map[string]string{"refresh": pair.Refresh}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code, "logged out tokens are revoked")
}

func TestProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	login := env.signUp(t, "kim")

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/accounts/user", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/api/accounts/user", nil, "garbage").Code)

	rec := env.do(t, http.MethodGet, "/api/accounts/user/", nil, login.Access)
	require.Equal(t, http.StatusOK, rec.Code)
	profile := decode[model.UserProfile](t, rec)
	assert.Equal(t, "kim@example.com", profile.Email)
	assert.Equal(t, 0, profile.FavoriteTeamsCount)
	assert.NotNil(t, profile.FavoriteTeams)

	rec = env.do(t, http.MethodPatch, "/api/accounts/profile", map[string]string{"nickname": "KK"}, login.Access)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	profile = decode[model.UserProfile](t, rec)
	assert.Equal(t, "KK", profile.Nickname)
	assert.Equal(t, "kim@example.com", profile.Email, "PATCH keeps absent fields")

	rec = env.do(t, http.MethodPut, "/api/accounts/profile", map[string]string{"nickname": "K"}, login.Access)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "PUT requires email")

	rec = env.do(t, http.MethodPatch, "/api/accounts/profile", map[string]string{"email": "nope"}, login.Access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --------------------------------------------------------------------------
// Favorites and dashboard
// --------------------------------------------------------------------------

func TestFavorites_Cap(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTeams(5)
	login := env.signUp(t, "kim")

	for _, id := range []string{"101", "102", "103"} {
		rec := env.do(t, http.MethodPost, "/api/accounts/favorite-teams/add/", map[string]string{"team_id": id}, login.Access)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := env.do(t, http.MethodPost, "/api/accounts/favorite-teams/add", map[string]string{"team_id": "104"}, login.Access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "FAVORITE_LIMIT_REACHED", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/accounts/favorite-teams/add", map[string]string{"team_id": "101"}, login.Access)
	assert.Equal(t, "ALREADY_FAVORITE", errorCode(t, rec))

	rec = env.do(t, http.MethodPost, "/api/accounts/favorite-teams/add", map[string]string{"team_id": "999"}, login.Access)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/accounts/favorite-teams/remove/105/", nil, login.Access)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NOT_FAVORITE", errorCode(t, rec))

	rec = env.do(t, http.MethodDelete, "/api/accounts/favorite-teams/remove/102", nil, login.Access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, decode[handler.FavoriteTeamsResponse](t, rec).Count)

	rec = env.do(t, http.MethodGet, "/api/accounts/favorite-teams", nil, login.Access)
	resp := decode[handler.FavoriteTeamsResponse](t, rec)
	assert.Equal(t, 3, resp.Max)
	require.Len(t, resp.FavoriteTeams, 2)
	assert.Equal(t, "101", resp.FavoriteTeams[0].TeamID)
}

// arsenalEnv has one user following Arsenal and a season of fixtures.
func arsenalEnv(t *testing.T) (*testEnv, string) {
	t.Helper()
	env := newTestEnv(t, nil)
	env.store.teams = []model.Team{
		{ID: 1, TeamID: "359", TeamName: "Arsenal", League: config.League},
		{ID: 2, TeamID: "363", TeamName: "Chelsea", League: config.League},
	}
	logo := "https://a.espncdn.com/i/teamlogos/soccer/500/359.png"
	env.store.standings = []model.TeamStanding{
		{ID: 1, Rank: 1, TeamName: "Arsenal", TeamLogo: &logo, Points: 7, MatchesPlayed: 3, Wins: 2, Draws: 1},
	}
	env.store.matches = sampleMatches()
	login := env.signUp(t, "kim")
	rec := env.do(t, http.MethodPost, "/api/accounts/favorite-teams/add", map[string]string{"team_id": "359"}, login.Access)
	require.Equal(t, http.StatusCreated, rec.Code)
	return env, login.Access
}

func TestFavoriteMatches(t *testing.T) {
	env, token := arsenalEnv(t)

	all := decode[handler.FavoriteMatchesResponse](t, env.do(t, http.MethodGet, "/api/accounts/favorite-teams/matches", nil, token))
	assert.Len(t, all.Matches, 4)

	upcoming := decode[handler.FavoriteMatchesResponse](t, env.do(t, http.MethodGet, "/api/accounts/favorite-teams/matches/upcoming", nil, token))
	require.Len(t, upcoming.Matches, 1)
	assert.Equal(t, "m5", upcoming.Matches[0].MatchID)

	past := decode[handler.FavoriteMatchesResponse](t, env.do(t, http.MethodGet, "/api/accounts/favorite-teams/matches/past", nil, token))
	require.Len(t, past.Matches, 3)
	assert.Equal(t, "m3", past.Matches[0].MatchID)

	one := decode[handler.FavoriteMatchesResponse](t, env.do(t, http.MethodGet, "/api/accounts/favorite-teams/359/matches", nil, token))
	assert.Len(t, one.Matches, 4)

	rec := env.do(t, http.MethodGet, "/api/accounts/favorite-teams/363/matches", nil, token)
	assert.Equal(t, "NOT_FAVORITE", errorCode(t, rec))
}

func TestFavoriteMatches_NoFavorites(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.matches = sampleMatches()
	login := env.signUp(t, "kim")

	resp := decode[handler.FavoriteMatchesResponse](t, env.do(t, http.MethodGet, "/api/accounts/favorite-teams/matches", nil, login.Access))
	assert.Empty(t, resp.Matches, "no favorites never means every match")
}

func TestDashboard(t *testing.T) {
	env, token := arsenalEnv(t)

	rec := env.do(t, http.MethodGet, "/api/accounts/dashboard/", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	main := decode[dashboard.Main](t, rec)

	require.Len(t, main.FavoriteTeams, 1)
	panel := main.FavoriteTeams[0]
	assert.Equal(t, "Arsenal", panel.TeamName)
	require.NotNil(t, panel.Standing)
	assert.Equal(t, 1, panel.Standing.Rank)
	require.NotNil(t, panel.TeamLogo)

	require.NotNil(t, panel.NextMatch)
	assert.Equal(t, "m5", panel.NextMatch.MatchID)
	assert.Equal(t, "Manchester City", panel.NextMatch.OpponentName)
	assert.False(t, panel.NextMatch.IsHome)

	require.NotNil(t, panel.RecentForm)
	assert.Equal(t, "WDL", panel.RecentForm.Form, "oldest to newest")
	assert.NotNil(t, main.LatestNews)
}

func TestDashboard_NoFavorites(t *testing.T) {
	env := newTestEnv(t, nil)
	login := env.signUp(t, "kim")

	rec := env.do(t, http.MethodGet, "/api/accounts/dashboard", nil, login.Access)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[dashboard.Main](t, rec).FavoriteTeams)
}

// --------------------------------------------------------------------------
// Social login
// --------------------------------------------------------------------------

func fakeGoogle(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"provider-token","token_type":"Bearer","expires_in":3600}`)
	})
	mux.HandleFunc("/profile", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer provider-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"id":"g-42","email":"","name":"","picture":"https://example.com/p.png"}`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func googleEnv(t *testing.T) *testEnv {
	srv := fakeGoogle(t)
	google := auth.NewGoogle("client", "secret", "http://localhost/api/accounts/google/callback", auth.Endpoints{
		AuthURL:    srv.URL + "/auth",
		TokenURL:   srv.URL + "/token",
		ProfileURL: srv.URL + "/profile",
	})
	return newTestEnv(t, map[string]*auth.Provider{
		model.ProviderGoogle: google,
		model.ProviderNaver:  auth.NewNaver("", "", "", auth.Endpoints{}),
	})
}

func callback(env *testEnv, state, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/accounts/google/callback?code=abc&state="+state, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "oauth_state_google", Value: cookie})
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func TestSocialLogin_Redirect(t *testing.T) {
	env := googleEnv(t)

	rec := env.do(t, http.MethodGet, "/api/accounts/google/login/", nil, "")
	require.Equal(t, http.StatusFound, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].HttpOnly)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth", loc.Path)
	assert.Equal(t, cookies[0].Value, loc.Query().Get("state"))

	rec = env.do(t, http.MethodGet, "/api/accounts/naver/login", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSocialCallback(t *testing.T) {
	env := googleEnv(t)

	rec := callback(env, "s1", "s1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[handler.SocialLoginResponse](t, rec)
	assert.True(t, first.Created)
	assert.NotEmpty(t, first.Tokens.Access)
	assert.Equal(t, "google_g-42", first.User.Username)
	assert.Equal(t, "google_g-42@gmail.com", first.User.Email)
	assert.Equal(t, "google_user_g-42", first.User.Nickname)

	second := decode[handler.SocialLoginResponse](t, callback(env, "s2", "s2"))
	assert.False(t, second.Created)
	assert.Equal(t, first.User.ID, second.User.ID)
}

func TestSocialCallback_StateMismatch(t *testing.T) {
	env := googleEnv(t)

	rec := callback(env, "s1", "other")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_STATE", errorCode(t, rec))

	rec = callback(env, "s1", "")
	assert.Equal(t, "INVALID_STATE", errorCode(t, rec))
}
