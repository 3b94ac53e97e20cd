package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
)

// SaveRefreshToken records a newly issued refresh token id.
func (s *Store) SaveRefreshToken(ctx context.Context, jti string, userID int64, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO "+config.RefreshTokensTable+" (jti, user_id, expires_at) VALUES ($1, $2, $3)",
		jti, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

// RotateRefreshToken revokes oldJTI and records newJTI atomically. It
// returns ErrNotFound when oldJTI is unknown, expired or already revoked, so
// a refresh token can be exchanged only once.
func (s *Store) RotateRefreshToken(ctx context.Context, oldJTI, newJTI string, userID int64, expiresAt time.Time) error {
	return s.withTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE `+config.RefreshTokensTable+` SET revoked_at = NOW()
			WHERE jti = $1 AND user_id = $2 AND revoked_at IS NULL AND expires_at > NOW()`,
			oldJTI, userID)
		if err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if _, err := tx.Exec(ctx,
			"INSERT INTO "+config.RefreshTokensTable+" (jti, user_id, expires_at) VALUES ($1, $2, $3)",
			newJTI, userID, expiresAt); err != nil {
			return fmt.Errorf("save refresh token: %w", err)
		}
		return nil
	})
}

// RevokeRefreshToken marks jti as revoked. Revoking twice is not an error.
func (s *Store) RevokeRefreshToken(ctx context.Context, jti string) error {
	_, err := s.pool.Exec(ctx,
		"UPDATE "+config.RefreshTokensTable+" SET revoked_at = COALESCE(revoked_at, NOW()) WHERE jti = $1", jti)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

// PurgeRefreshTokens deletes tokens that expired, or were revoked, before
// cutoff.
func (s *Store) PurgeRefreshTokens(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM `+config.RefreshTokensTable+`
		WHERE expires_at < $1 OR revoked_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge refresh tokens: %w", err)
	}
	return tag.RowsAffected(), nil
}
