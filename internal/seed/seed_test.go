package seed

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

const arsenalSquad = `player_id,name,full_name,first_name,last_name,wiki_name,position,position_abbr,jersey_number,age,height,weight,birth_place,birth_date,nationality,team_id,team_name
101,Saka,Bukayo Saka,Bukayo,Saka,Bukayo Saka,Forward,F,7,24,1.78 m,72 kg,London,2001-09-05,England,359,Arsenal
102,Rice,Declan Rice,Declan,Rice,Declan Rice,Midfielder,M,41,,1.85 m,80 kg,Kingston,,England,359,Arsenal FC
`

const chelseaSquad = `player_id,name,team_id,team_name,age
201,Palmer,363,Chelsea,23.0
,Coach placeholder,363,Chelsea,
`

const profiles = `{"players": [
  {"player_id": "101", "wiki_url": "https://en.wikipedia.org/wiki/Bukayo_Saka", "wiki_found": true,
   "introduction": "English winger.", "playing_style": null, "career_summary": "Hale End graduate."},
  {"wiki_url": "orphan"}
]}`

const staffCSV = "\ufeffTeam,Position,Name,Nationality\n" +
	"Arsenal,Manager,Mikel Arteta,Spain\n" +
	"Arsenal,Assistant,,Spain\n" +
	",Manager,Nobody,\n" +
	"Chelsea,Head coach,Enzo Maresca,Italy\n"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func testDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "club", "arsenal", "squad_arsenal.csv"), arsenalSquad)
	writeFile(t, filepath.Join(dir, "club", "chelsea", "squad_chelsea.csv"), chelseaSquad)
	writeFile(t, filepath.Join(dir, "player_profiles", "arsenal_profiles.json"), profiles)
	writeFile(t, filepath.Join(dir, "wiki_epl_all_staff.csv"), staffCSV)
	return dir
}

type memStore struct {
	teams   map[string]model.Team
	players map[string]model.Player
	staff   map[string]model.Staff
	failOn  string
}

func newMemStore() *memStore {
	return &memStore{teams: map[string]model.Team{}, players: map[string]model.Player{}, staff: map[string]model.Staff{}}
}

func (m *memStore) UpsertTeam(_ context.Context, t model.Team) (bool, error) {
	_, ok := m.teams[t.TeamID]
	m.teams[t.TeamID] = t
	return !ok, nil
}

func (m *memStore) UpsertPlayer(_ context.Context, p model.Player) (bool, error) {
	if p.PlayerID == m.failOn {
		return false, errors.New("boom")
	}
	_, ok := m.players[p.PlayerID]
	m.players[p.PlayerID] = p
	return !ok, nil
}

func (m *memStore) UpsertStaff(_ context.Context, st model.Staff) (bool, error) {
	key := st.TeamName + "|" + st.Position + "|" + st.Name
	_, ok := m.staff[key]
	m.staff[key] = st
	return !ok, nil
}

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestParseSquad(t *testing.T) {
	sq, err := ParseSquad(strings.NewReader(arsenalSquad))
	require.NoError(t, err)

	require.Len(t, sq.Teams, 1)
	assert.Equal(t, "Arsenal", sq.Teams[0].TeamName, "first team name wins")

	require.Len(t, sq.Players, 2)
	saka := sq.Players[0]
	assert.Equal(t, "101", saka.PlayerID)
	assert.Equal(t, 24, *saka.Age)
	require.NotNil(t, saka.BirthDate)
	assert.Equal(t, 2001, saka.BirthDate.Year())
	assert.Equal(t, "359", saka.TeamID)

	rice := sq.Players[1]
	assert.Nil(t, rice.Age)
	assert.Nil(t, rice.BirthDate)
}

func TestParseSquad_RowsWithoutPlayerID(t *testing.T) {
	sq, err := ParseSquad(strings.NewReader(chelseaSquad))
	require.NoError(t, err)
	assert.Len(t, sq.Teams, 1)
	require.Len(t, sq.Players, 1)
	assert.Equal(t, 23, *sq.Players[0].Age, "fractional ages are truncated")
}

func TestParseStaff(t *testing.T) {
	staff, skipped, err := ParseStaff(strings.NewReader(staffCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, staff, 2)
	assert.Equal(t, "Arsenal", staff[0].TeamName, "BOM is stripped from the header")
	assert.Equal(t, "Mikel Arteta", staff[0].Name)
}

func TestProfileApply(t *testing.T) {
	got, err := ParseProfiles(strings.NewReader(profiles))
	require.NoError(t, err)
	require.Len(t, got, 1)

	var p model.Player
	got["101"].Apply(&p)
	assert.True(t, p.WikiFound)
	assert.Equal(t, "English winger.", p.Introduction)
	assert.Equal(t, "", p.PlayingStyle, "null becomes empty")
}

func TestLoadAll(t *testing.T) {
	dir := testDataDir(t)
	store := newMemStore()

	res, err := LoadAll(context.Background(), store, dir, discardLogger())
	require.NoError(t, err)
	assert.Empty(t, res.Errors)

	assert.Len(t, store.teams, 2)
	assert.Len(t, store.players, 3)
	assert.Len(t, store.staff, 2)
	assert.Equal(t, "https://en.wikipedia.org/wiki/Bukayo_Saka", store.players["101"].WikiURL)
	assert.Equal(t, "", store.players["201"].WikiURL)

	again, err := LoadAll(context.Background(), store, dir, discardLogger())
	require.NoError(t, err)
	assert.Zero(t, again.Created, "reloading only updates")
	assert.Equal(t, 7, again.Updated)
}

func TestLoadPlayers_RecordsRowErrors(t *testing.T) {
	store := newMemStore()
	store.failOn = "102"

	res, err := LoadPlayers(context.Background(), store, testDataDir(t), discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "102")
}

func TestLoadStaff_MissingFile(t *testing.T) {
	_, err := LoadStaff(context.Background(), newMemStore(), t.TempDir(), discardLogger())
	assert.Error(t, err)
}
