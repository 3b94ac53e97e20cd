package refresh

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

const (
	snapshotPrefix = "epl_standings_"
	snapshotSuffix = ".csv"
	snapshotLayout = "2006_01_02"
)

var snapshotHeader = []string{
	"rank", "team_name", "team_logo", "points", "matches_played",
	"wins", "draws", "losses", "goals_for", "goals_against", "goal_difference",
}

// SnapshotName is the daily standings snapshot file name for day.
func SnapshotName(day time.Time) string {
	return snapshotPrefix + day.Format(snapshotLayout) + snapshotSuffix
}

// SnapshotDate parses the day out of a snapshot file name.
func SnapshotDate(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
		return time.Time{}, false
	}
	raw := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
	t, err := time.Parse(snapshotLayout, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func snapshotExists(dir string, day time.Time) bool {
	_, err := os.Stat(filepath.Join(dir, SnapshotName(day)))
	return err == nil
}

// writeSnapshot writes rows to a temporary file in dir. commit renames it to
// the day's snapshot name; discard removes it.
func writeSnapshot(dir string, day time.Time, rows []model.TeamStanding) (commit func() error, discard func(), err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create snapshot dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".standings-*.csv")
	if err != nil {
		return nil, nil, fmt.Errorf("create snapshot: %w", err)
	}
	tmp := f.Name()
	discard = func() { os.Remove(tmp) }

	w := csv.NewWriter(f)
	_ = w.Write(snapshotHeader)
	for _, s := range rows {
		logo := ""
		if s.TeamLogo != nil {
			logo = *s.TeamLogo
		}
		_ = w.Write([]string{
			strconv.Itoa(s.Rank), s.TeamName, logo, strconv.Itoa(s.Points),
			strconv.Itoa(s.MatchesPlayed), strconv.Itoa(s.Wins), strconv.Itoa(s.Draws),
			strconv.Itoa(s.Losses), strconv.Itoa(s.GoalsFor), strconv.Itoa(s.GoalsAgainst),
			strconv.Itoa(s.GoalDifference),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		discard()
		return nil, nil, fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		discard()
		return nil, nil, fmt.Errorf("close snapshot: %w", err)
	}

	final := filepath.Join(dir, SnapshotName(day))
	commit = func() error {
		if err := os.Rename(tmp, final); err != nil {
			discard()
			return fmt.Errorf("commit snapshot: %w", err)
		}
		return nil
	}
	return commit, discard, nil
}

// PurgeSnapshots removes snapshot files in dir dated before cutoff and
// returns how many were removed. A missing dir is not an error.
func PurgeSnapshots(dir string, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read snapshot dir: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		day, ok := SnapshotDate(e.Name())
		if !ok || !day.Before(truncateDay(cutoff)) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		removed++
	}
	return removed, nil
}
