package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

// Store is the persistence the loaders write to.
type Store interface {
	UpsertTeam(ctx context.Context, t model.Team) (created bool, err error)
	UpsertPlayer(ctx context.Context, p model.Player) (created bool, err error)
	UpsertStaff(ctx context.Context, st model.Staff) (created bool, err error)
}

// Data file locations relative to the data directory.
const (
	squadGlob   = "club/*/squad_*.csv"
	profileGlob = "player_profiles/*_profiles.json"
	staffFile   = "wiki_epl_all_staff.csv"
)

// readSquads parses every squad file under dataDir. Teams are deduplicated
// across files by team_id and players by player_id, the last file winning.
func readSquads(dataDir string, logger *slog.Logger, res *Result) ([]model.Team, []model.Player, error) {
	files, err := filepath.Glob(filepath.Join(dataDir, squadGlob))
	if err != nil {
		return nil, nil, fmt.Errorf("glob squads: %w", err)
	}
	logger.Info("Found squad files", "count", len(files))

	var teams []model.Team
	teamSeen := make(map[string]bool)
	playerIdx := make(map[string]int)
	var players []model.Player

	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			res.AddErrorf("%s: %v", filepath.Base(path), err)
			continue
		}
		sq, err := ParseSquad(f)
		f.Close()
		if err != nil {
			res.AddErrorf("%s: %v", filepath.Base(path), err)
			continue
		}
		for _, t := range sq.Teams {
			if !teamSeen[t.TeamID] {
				teamSeen[t.TeamID] = true
				teams = append(teams, t)
			}
		}
		for _, p := range sq.Players {
			if i, ok := playerIdx[p.PlayerID]; ok {
				players[i] = p
				continue
			}
			playerIdx[p.PlayerID] = len(players)
			players = append(players, p)
		}
	}
	return teams, players, nil
}

// LoadTeams upserts every team found in the squad files.
func LoadTeams(ctx context.Context, store Store, dataDir string, logger *slog.Logger) (Result, error) {
	res := Result{Kind: "teams"}
	teams, _, err := readSquads(dataDir, logger, &res)
	if err != nil {
		return res, err
	}
	for _, t := range teams {
		created, err := store.UpsertTeam(ctx, t)
		if err != nil {
			res.AddErrorf("team %s: %v", t.TeamID, err)
			continue
		}
		res.count(created)
	}
	logger.Info("Teams loaded", "summary", res.Summary())
	return res, nil
}

// LoadPlayers upserts every squad player merged with its profile, if any.
func LoadPlayers(ctx context.Context, store Store, dataDir string, logger *slog.Logger) (Result, error) {
	res := Result{Kind: "players"}
	_, players, err := readSquads(dataDir, logger, &res)
	if err != nil {
		return res, err
	}

	profiles, err := readProfiles(dataDir, logger, &res)
	if err != nil {
		return res, err
	}

	for _, p := range players {
		if pr, ok := profiles[p.PlayerID]; ok {
			pr.Apply(&p)
		}
		created, err := store.UpsertPlayer(ctx, p)
		if err != nil {
			res.AddErrorf("player %s: %v", p.PlayerID, err)
			continue
		}
		res.count(created)
	}
	logger.Info("Players loaded", "summary", res.Summary())
	return res, nil
}

func readProfiles(dataDir string, logger *slog.Logger, res *Result) (map[string]Profile, error) {
	files, err := filepath.Glob(filepath.Join(dataDir, profileGlob))
	if err != nil {
		return nil, fmt.Errorf("glob profiles: %w", err)
	}
	logger.Info("Found profile files", "count", len(files))

	out := make(map[string]Profile)
	for _, path := range files {
		f, err := os.Open(path)
		if err != nil {
			res.AddErrorf("%s: %v", filepath.Base(path), err)
			continue
		}
		profiles, err := ParseProfiles(f)
		f.Close()
		if err != nil {
			res.AddErrorf("%s: %v", filepath.Base(path), err)
			continue
		}
		for id, p := range profiles {
			out[id] = p
		}
	}
	return out, nil
}

// LoadStaff upserts the staff file. A missing file is an error.
func LoadStaff(ctx context.Context, store Store, dataDir string, logger *slog.Logger) (Result, error) {
	res := Result{Kind: "staff"}
	path := filepath.Join(dataDir, staffFile)
	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("open staff file: %w", err)
	}
	defer f.Close()

	staff, skipped, err := ParseStaff(f)
	if err != nil {
		return res, fmt.Errorf("parse %s: %w", staffFile, err)
	}
	if skipped > 0 {
		logger.Warn("Skipped staff rows with missing team or name", "count", skipped)
	}
	res.Skipped = skipped

	for _, st := range staff {
		created, err := store.UpsertStaff(ctx, st)
		if err != nil {
			res.AddErrorf("staff %s: %v", st, err)
			continue
		}
		res.count(created)
	}
	logger.Info("Staff loaded", "summary", res.Summary())
	return res, nil
}

// LoadAll loads teams, players and staff in that order, stopping at the
// first load that fails outright.
func LoadAll(ctx context.Context, store Store, dataDir string, logger *slog.Logger) (Result, error) {
	total := Result{Kind: "all"}
	for _, load := range []func(context.Context, Store, string, *slog.Logger) (Result, error){
		LoadTeams, LoadPlayers, LoadStaff,
	} {
		res, err := load(ctx, store, dataDir, logger)
		total.Add(res)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
