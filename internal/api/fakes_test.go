package api

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Kimkangyeon-17/sports-ptj/internal/favorites"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
	"github.com/Kimkangyeon-17/sports-ptj/internal/refresh"
	"github.com/Kimkangyeon-17/sports-ptj/internal/store"
)

// --------------------------------------------------------------------------
// In-memory store
// --------------------------------------------------------------------------

type tokenRow struct {
	userID  int64
	expires time.Time
	revoked bool
}

type fakeStore struct {
	mu        sync.Mutex
	teams     []model.Team
	players   []model.Player
	staff     []model.Staff
	standings []model.TeamStanding
	matches   []model.Match
	users     map[int64]model.User
	nextUser  int64
	favs      map[int64][]string
	tokens    map[string]tokenRow

	lastFilter store.MatchFilter
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  map[int64]model.User{},
		favs:   map[int64][]string{},
		tokens: map[string]tokenRow{},
	}
}

func pageOf[T any](all []T, p store.Page) []T {
	start := min(p.Offset, len(all))
	end := len(all)
	if p.Limit > 0 {
		end = min(start+p.Limit, len(all))
	}
	return append([]T(nil), all[start:end]...)
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func (s *fakeStore) ListTeams(_ context.Context, opts store.ListOptions) ([]model.Team, int, error) {
	return pageOf(s.teams, opts.Page), len(s.teams), nil
}

func (s *fakeStore) SearchTeams(_ context.Context, name, league string) ([]model.Team, error) {
	var out []model.Team
	for _, t := range s.teams {
		if containsFold(t.TeamName, name) && containsFold(t.League, league) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeStore) GetTeam(_ context.Context, id int64) (model.Team, error) {
	for _, t := range s.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return model.Team{}, store.ErrNotFound
}

func (s *fakeStore) GetTeamByTeamID(_ context.Context, teamID string) (model.Team, error) {
	for _, t := range s.teams {
		if t.TeamID == teamID {
			return t, nil
		}
	}
	return model.Team{}, store.ErrNotFound
}

func (s *fakeStore) ListPlayers(_ context.Context, opts store.ListOptions) ([]model.Player, int, error) {
	return pageOf(s.players, opts.Page), len(s.players), nil
}

func (s *fakeStore) SearchPlayers(_ context.Context, q store.PlayerQuery, page store.Page) ([]model.Player, int, error) {
	var out []model.Player
	for _, p := range s.players {
		if containsFold(p.Name, q.Name) && containsFold(p.TeamName, q.Team) {
			out = append(out, p)
		}
	}
	return pageOf(out, page), len(out), nil
}

func (s *fakeStore) PlayersByTeam(_ context.Context, teamID, position string) ([]model.Player, error) {
	var out []model.Player
	for _, p := range s.players {
		if p.TeamID == teamID && containsFold(p.Position, position) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeStore) GetPlayer(_ context.Context, id int64) (model.Player, error) {
	for _, p := range s.players {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Player{}, store.ErrNotFound
}

func (s *fakeStore) ListStaff(_ context.Context, opts store.ListOptions) ([]model.Staff, int, error) {
	return pageOf(s.staff, opts.Page), len(s.staff), nil
}

func (s *fakeStore) SearchStaff(_ context.Context, q store.StaffQuery, page store.Page) ([]model.Staff, int, error) {
	var out []model.Staff
	for _, st := range s.staff {
		if containsFold(st.Name, q.Name) && containsFold(st.TeamName, q.Team) {
			out = append(out, st)
		}
	}
	return pageOf(out, page), len(out), nil
}

func (s *fakeStore) GetStaff(_ context.Context, id int64) (model.Staff, error) {
	for _, st := range s.staff {
		if st.ID == id {
			return st, nil
		}
	}
	return model.Staff{}, store.ErrNotFound
}

func (s *fakeStore) ListStandings(context.Context) ([]model.TeamStanding, error) {
	return append([]model.TeamStanding(nil), s.standings...), nil
}

func (s *fakeStore) GetStanding(_ context.Context, id int64) (model.TeamStanding, error) {
	for _, st := range s.standings {
		if st.ID == id {
			return st, nil
		}
	}
	return model.TeamStanding{}, store.ErrNotFound
}

func (s *fakeStore) ListMatches(_ context.Context, page store.Page) ([]model.Match, int, error) {
	return pageOf(s.matches, page), len(s.matches), nil
}

func (s *fakeStore) GetMatch(_ context.Context, id int64) (model.Match, error) {
	for _, m := range s.matches {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Match{}, store.ErrNotFound
}

func (s *fakeStore) FindMatches(_ context.Context, f store.MatchFilter) ([]model.Match, error) {
	s.mu.Lock()
	s.lastFilter = f
	s.mu.Unlock()

	var out []model.Match
	for _, m := range s.matches {
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, m.Status) {
			continue
		}
		if f.From != nil && m.MatchDate.Before(*f.From) {
			continue
		}
		if f.To != nil && !m.MatchDate.Before(*f.To) {
			continue
		}
		if f.Matchday != nil && (m.Matchday == nil || *m.Matchday != *f.Matchday) {
			continue
		}
		if (len(f.TeamIDs) > 0 || len(f.TeamNames) > 0) && !matchesTeam(m, f) {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Ascending {
			return out[i].MatchDate.Before(out[j].MatchDate)
		}
		return out[i].MatchDate.After(out[j].MatchDate)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func hasStatus(statuses []model.MatchStatus, s model.MatchStatus) bool {
	for _, v := range statuses {
		if v == s {
			return true
		}
	}
	return false
}

func matchesTeam(m model.Match, f store.MatchFilter) bool {
	for _, id := range f.TeamIDs {
		if m.HomeTeamID == id || m.AwayTeamID == id {
			return true
		}
	}
	for _, name := range f.TeamNames {
		if containsFold(m.HomeTeamName, name) || containsFold(m.AwayTeamName, name) {
			return true
		}
	}
	return false
}

func (s *fakeStore) CreateUser(_ context.Context, u model.User) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username {
			return model.User{}, &store.ConflictError{Field: "username"}
		}
		if existing.Email == u.Email {
			return model.User{}, &store.ConflictError{Field: "email"}
		}
	}
	s.nextUser++
	u.ID = s.nextUser
	u.CreatedAt = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	u.UpdatedAt = u.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

func (s *fakeStore) GetUser(_ context.Context, id int64) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) GetUserByLogin(_ context.Context, login string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == login || strings.EqualFold(u.Email, login) {
			return u, nil
		}
	}
	return model.User{}, store.ErrNotFound
}

func (s *fakeStore) FindOrCreateSocialUser(ctx context.Context, defaults model.User) (model.User, bool, error) {
	s.mu.Lock()
	for _, u := range s.users {
		if u.SocialProvider == defaults.SocialProvider && u.SocialID == defaults.SocialID {
			s.mu.Unlock()
			return u, false, nil
		}
	}
	s.mu.Unlock()
	u, err := s.CreateUser(ctx, defaults)
	return u, err == nil, err
}

func (s *fakeStore) UpdateUser(_ context.Context, id int64, patch store.UserPatch) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, store.ErrNotFound
	}
	if patch.Email != nil {
		u.Email = *patch.Email
	}
	if patch.Nickname != nil {
		u.Nickname = *patch.Nickname
	}
	if patch.ProfileImage != nil {
		u.ProfileImage = *patch.ProfileImage
	}
	s.users[id] = u
	return u, nil
}

func (s *fakeStore) FavoriteTeams(_ context.Context, userID int64) ([]model.FavoriteTeam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.FavoriteTeam
	for _, id := range s.favs[userID] {
		for _, t := range s.teams {
			if t.TeamID == id {
				out = append(out, model.FavoriteTeam{TeamID: t.TeamID, TeamName: t.TeamName, League: t.League})
			}
		}
	}
	return out, nil
}

func (s *fakeStore) AddFavoriteTeam(ctx context.Context, userID int64, teamID string) error {
	current, _ := s.FavoriteTeams(ctx, userID)
	if err := favorites.CheckAdd(current, teamID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.favs[userID] = append(s.favs[userID], teamID)
	return nil
}

func (s *fakeStore) RemoveFavoriteTeam(_ context.Context, userID int64, teamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.favs[userID]
	for i, id := range ids {
		if id == teamID {
			s.favs[userID] = append(ids[:i:i], ids[i+1:]...)
			return nil
		}
	}
	return favorites.ErrNotFavorite
}

func (s *fakeStore) SaveRefreshToken(_ context.Context, jti string, userID int64, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[jti] = tokenRow{userID: userID, expires: expiresAt}
	return nil
}

func (s *fakeStore) RotateRefreshToken(_ context.Context, oldJTI, newJTI string, userID int64, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.tokens[oldJTI]
	if !ok || row.revoked || row.userID != userID {
		return store.ErrNotFound
	}
	row.revoked = true
	s.tokens[oldJTI] = row
	s.tokens[newJTI] = tokenRow{userID: userID, expires: expiresAt}
	return nil
}

func (s *fakeStore) RevokeRefreshToken(_ context.Context, jti string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.tokens[jti]
	if !ok || row.revoked {
		return store.ErrNotFound
	}
	row.revoked = true
	s.tokens[jti] = row
	return nil
}

func (s *fakeStore) filter() store.MatchFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastFilter
}

// --------------------------------------------------------------------------
// Refresher
// --------------------------------------------------------------------------

type fakeRefresher struct {
	matchReads    atomic.Int32
	standingReads atomic.Int32
	syncs         atomic.Int32
	result        refresh.Result
}

func (f *fakeRefresher) MatchesIfStale(context.Context) { f.matchReads.Add(1) }
func (f *fakeRefresher) StandingsIfStale(context.Context) { f.standingReads.Add(1) }

func (f *fakeRefresher) SyncMatches(context.Context) refresh.Result {
	f.syncs.Add(1)
	return f.result
}

func (f *fakeRefresher) SyncStandings(context.Context, bool) refresh.Result {
	f.syncs.Add(1)
	return f.result
}
