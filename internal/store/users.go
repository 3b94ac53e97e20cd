package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/favorites"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

const userColumns = `id, username, email, password_hash, nickname, COALESCE(profile_image, ''),
	social_provider, social_id, created_at, updated_at`

// UserPatch lists the profile fields a user may change. Nil fields are kept.
type UserPatch struct {
	Email        *string
	Nickname     *string
	ProfileImage *string
}

func scanUser(row scanner) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Nickname, &u.ProfileImage,
		&u.SocialProvider, &u.SocialID, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// userConflict maps a unique violation on users to a ConflictError.
func userConflict(err error) error {
	code, constraint := pgCode(err)
	if code != pgUniqueViolation {
		return err
	}
	switch {
	case strings.Contains(constraint, "username"):
		return &ConflictError{Field: "username"}
	case strings.Contains(constraint, "email"):
		return &ConflictError{Field: "email"}
	default:
		return &ConflictError{Field: "account"}
	}
}

// CreateUser inserts a credential account.
func (s *Store) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO `+config.UsersTable+` (username, email, password_hash, nickname, profile_image, social_provider, social_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, u.Nickname, nilEmpty(u.ProfileImage), u.SocialProvider, u.SocialID,
	)
	created, err := scanUser(row)
	if err != nil {
		return model.User{}, userConflict(err)
	}
	return created, nil
}

// GetUser looks a user up by primary key.
func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, "user_by_id", id))
	if err != nil {
		return u, notFound(err)
	}
	return u, nil
}

// GetUserByLogin looks a user up by username or email.
func (s *Store) GetUserByLogin(ctx context.Context, login string) (model.User, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM "+config.UsersTable+
		" WHERE username = $1 OR LOWER(email) = LOWER($1) ORDER BY (username = $1) DESC LIMIT 1", login)
	u, err := scanUser(row)
	if err != nil {
		return u, notFound(err)
	}
	return u, nil
}

// FindOrCreateSocialUser returns the account linked to (provider, social id),
// creating it from defaults when absent.
func (s *Store) FindOrCreateSocialUser(ctx context.Context, defaults model.User) (model.User, bool, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO `+config.UsersTable+` (username, email, nickname, profile_image, social_provider, social_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (social_provider, social_id) WHERE social_provider <> '' DO NOTHING
		RETURNING `+userColumns,
		defaults.Username, defaults.Email, defaults.Nickname, nilEmpty(defaults.ProfileImage),
		defaults.SocialProvider, defaults.SocialID,
	)
	u, err := scanUser(row)
	if err == nil {
		return u, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, false, userConflict(err)
	}

	row = s.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM "+config.UsersTable+
		" WHERE social_provider = $1 AND social_id = $2", defaults.SocialProvider, defaults.SocialID)
	u, err = scanUser(row)
	if err != nil {
		return u, false, notFound(err)
	}
	return u, false, nil
}

// UpdateUser applies patch and returns the stored user.
func (s *Store) UpdateUser(ctx context.Context, id int64, patch UserPatch) (model.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE `+config.UsersTable+` SET
			email = COALESCE($2, email),
			nickname = COALESCE($3, nickname),
			profile_image = CASE WHEN $4::text IS NULL THEN profile_image ELSE NULLIF($4::text, '') END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		id, patch.Email, patch.Nickname, patch.ProfileImage,
	)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return u, ErrNotFound
		}
		return u, userConflict(err)
	}
	return u, nil
}

// FavoriteTeams lists the user's favorites in the order they were added.
func (s *Store) FavoriteTeams(ctx context.Context, userID int64) ([]model.FavoriteTeam, error) {
	rows, err := s.pool.Query(ctx, "favorite_teams_for_user", userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	favs := []model.FavoriteTeam{}
	for rows.Next() {
		var f model.FavoriteTeam
		if err := rows.Scan(&f.TeamID, &f.TeamName, &f.League); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favs = append(favs, f)
	}
	return favs, rows.Err()
}

// AddFavoriteTeam follows teamID. The user row is locked for the duration
// so concurrent adds serialize; the insert trigger backs the cap.
func (s *Store) AddFavoriteTeam(ctx context.Context, userID int64, teamID string) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		var locked int64
		if err := tx.QueryRow(ctx, "SELECT id FROM "+config.UsersTable+" WHERE id = $1 FOR UPDATE", userID).Scan(&locked); err != nil {
			return notFound(err)
		}

		rows, err := tx.Query(ctx, "SELECT team_id FROM "+config.FavoritesTable+" WHERE user_id = $1", userID)
		if err != nil {
			return fmt.Errorf("query favorites: %w", err)
		}
		current, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.FavoriteTeam, error) {
			var f model.FavoriteTeam
			err := row.Scan(&f.TeamID)
			return f, err
		})
		if err != nil {
			return fmt.Errorf("scan favorites: %w", err)
		}
		if err := favorites.CheckAdd(current, teamID); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, "INSERT INTO "+config.FavoritesTable+" (user_id, team_id) VALUES ($1, $2)", userID, teamID)
		switch code, _ := pgCode(err); code {
		case "":
			return err
		case pgUniqueViolation:
			return favorites.ErrAlreadyFavorite
		case pgCheckViolation:
			return favorites.ErrLimitReached
		case pgForeignKey:
			return ErrNotFound
		default:
			return fmt.Errorf("insert favorite: %w", err)
		}
	})
}

// RemoveFavoriteTeam unfollows teamID.
func (s *Store) RemoveFavoriteTeam(ctx context.Context, userID int64, teamID string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM "+config.FavoritesTable+" WHERE user_id = $1 AND team_id = $2", userID, teamID)
	if err != nil {
		return fmt.Errorf("delete favorite: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return favorites.ErrNotFavorite
	}
	return nil
}
