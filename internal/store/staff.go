package store

import (
	"context"
	"fmt"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

const staffColumns = "id, team_name, position, name, nationality, created_at, updated_at"

var staffOrdering = map[string]string{
	"name":      "name",
	"team_name": "team_name",
	"position":  "position",
}

// StaffQuery holds the substring filters of the staff search endpoint.
type StaffQuery struct {
	Name        string
	Team        string
	Position    string
	Nationality string
}

func scanStaff(row scanner) (model.Staff, error) {
	var s model.Staff
	err := row.Scan(&s.ID, &s.TeamName, &s.Position, &s.Name, &s.Nationality, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// ListStaff returns one page of staff ordered by team then position unless
// another ordering is requested.
func (s *Store) ListStaff(ctx context.Context, opts ListOptions) ([]model.Staff, int, error) {
	w := &where{}
	w.search(opts.Search, "name", "team_name", "position", "nationality")
	return s.pageStaff(ctx, w, orderBy(opts.Ordering, staffOrdering, "team_name, position"), opts.Page)
}

// SearchStaff applies the per-field filters of q.
func (s *Store) SearchStaff(ctx context.Context, q StaffQuery, page Page) ([]model.Staff, int, error) {
	w := &where{}
	w.contains("name", q.Name)
	w.contains("team_name", q.Team)
	w.contains("position", q.Position)
	w.contains("nationality", q.Nationality)
	return s.pageStaff(ctx, w, " ORDER BY team_name, position, id", page)
}

// GetStaff looks a staff member up by primary key.
func (s *Store) GetStaff(ctx context.Context, id int64) (model.Staff, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+staffColumns+" FROM "+config.StaffTable+" WHERE id = $1", id)
	st, err := scanStaff(row)
	if err != nil {
		return st, notFound(err)
	}
	return st, nil
}

// UpsertStaff writes a staff member keyed on (team_name, position, name).
func (s *Store) UpsertStaff(ctx context.Context, st model.Staff) (created bool, err error) {
	err = s.pool.QueryRow(ctx, `
		INSERT INTO `+config.StaffTable+` (team_name, position, name, nationality)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_name, position, name) DO UPDATE SET
			nationality = EXCLUDED.nationality,
			updated_at = NOW()
		RETURNING (xmax = 0)`,
		st.TeamName, st.Position, st.Name, st.Nationality,
	).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("upsert staff %s: %w", st, err)
	}
	return created, nil
}

func (s *Store) pageStaff(ctx context.Context, w *where, order string, page Page) ([]model.Staff, int, error) {
	total, err := s.count(ctx, config.StaffTable, w)
	if err != nil {
		return nil, 0, err
	}

	q := "SELECT " + staffColumns + " FROM " + config.StaffTable + w.sql() + order + w.limit(page)
	rows, err := s.pool.Query(ctx, q, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query staff: %w", err)
	}
	defer rows.Close()

	staff := []model.Staff{}
	for rows.Next() {
		st, err := scanStaff(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan staff: %w", err)
		}
		staff = append(staff, st)
	}
	return staff, total, rows.Err()
}
