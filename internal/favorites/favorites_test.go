package favorites

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

// memRepo enforces the rules under a mutex like the Postgres store does
// under a row lock.
type memRepo struct {
	mu   sync.Mutex
	favs map[int64][]model.FavoriteTeam
}

func newMemRepo() *memRepo {
	return &memRepo{favs: make(map[int64][]model.FavoriteTeam)}
}

func (r *memRepo) FavoriteTeams(_ context.Context, userID int64) ([]model.FavoriteTeam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.FavoriteTeam(nil), r.favs[userID]...), nil
}

func (r *memRepo) AddFavoriteTeam(_ context.Context, userID int64, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := CheckAdd(r.favs[userID], teamID); err != nil {
		return err
	}
	r.favs[userID] = append(r.favs[userID], model.FavoriteTeam{TeamID: teamID})
	return nil
}

func (r *memRepo) RemoveFavoriteTeam(_ context.Context, userID int64, teamID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur := r.favs[userID]
	for i, f := range cur {
		if f.TeamID == teamID {
			r.favs[userID] = append(cur[:i:i], cur[i+1:]...)
			return nil
		}
	}
	return ErrNotFavorite
}

func TestCheckAdd(t *testing.T) {
	three := []model.FavoriteTeam{{TeamID: "1"}, {TeamID: "2"}, {TeamID: "3"}}

	assert.NoError(t, CheckAdd(nil, "1"))
	assert.ErrorIs(t, CheckAdd(three[:1], "1"), ErrAlreadyFavorite)
	assert.ErrorIs(t, CheckAdd(three, "4"), ErrLimitReached)
	assert.ErrorIs(t, CheckAdd(three, "2"), ErrAlreadyFavorite, "duplicate is reported before the cap")
}

func TestCheckRemove(t *testing.T) {
	assert.ErrorIs(t, CheckRemove(nil, "1"), ErrNotFavorite)
	assert.NoError(t, CheckRemove([]model.FavoriteTeam{{TeamID: "1"}}, "1"))
}

func TestService_FourthAddRejected(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo())

	for _, id := range []string{"359", "360", "361"} {
		_, err := svc.Add(ctx, 1, id)
		require.NoError(t, err, "adding team %s", id)
	}

	_, err := svc.Add(ctx, 1, "362")
	assert.ErrorIs(t, err, ErrLimitReached)

	favs, err := svc.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, favs, model.MaxFavoriteTeams)
}

func TestService_DuplicateAndRemove(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemRepo())

	_, err := svc.Add(ctx, 1, "359")
	require.NoError(t, err)

	_, err = svc.Add(ctx, 1, "359")
	assert.ErrorIs(t, err, ErrAlreadyFavorite)

	_, err = svc.Remove(ctx, 1, "400")
	assert.ErrorIs(t, err, ErrNotFavorite)

	favs, err := svc.Remove(ctx, 1, "359")
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestService_ConcurrentAddsNeverExceedCap(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepo()
	svc := NewService(repo)

	var wg sync.WaitGroup
	for _, id := range []string{"1", "2", "3", "4", "5", "6", "7", "8"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, _ = svc.Add(ctx, 9, id)
		}(id)
	}
	wg.Wait()

	favs, err := repo.FavoriteTeams(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, favs, model.MaxFavoriteTeams)
}
