// Package auth issues and verifies JWT access/refresh pairs, hashes
// passwords and drives the Google and Naver OAuth code flows.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("token is invalid or expired")
)

// Token types carried in the token_type claim.
const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

// TokenStore tracks issued refresh tokens by jti. RotateRefreshToken must
// fail when oldJTI is unknown, expired or already revoked.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, jti string, userID int64, expiresAt time.Time) error
	RotateRefreshToken(ctx context.Context, oldJTI, newJTI string, userID int64, expiresAt time.Time) error
	RevokeRefreshToken(ctx context.Context, jti string) error
}

// Pair is the token response body.
type Pair struct {
	Refresh string `json:"refresh"`
	Access  string `json:"access"`
}

// Claims are the JWT claims for both token types.
type Claims struct {
	jwt.RegisteredClaims
	TokenType string `json:"token_type"`
	UserID    int64  `json:"user_id"`
}

// Issuer signs and verifies tokens with HS256.
type Issuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      TokenStore
}

// NewIssuer creates an Issuer from the JWT settings in cfg.
func NewIssuer(cfg *config.Config, store TokenStore) *Issuer {
	return &Issuer{
		secret:     []byte(cfg.JWTSecret),
		accessTTL:  cfg.JWTAccessTTL,
		refreshTTL: cfg.JWTRefreshTTL,
		store:      store,
	}
}

// Issue creates a new pair for userID and records the refresh jti.
func (i *Issuer) Issue(ctx context.Context, userID int64) (Pair, error) {
	refresh, jti, exp, err := i.sign(userID, TypeRefresh, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	if err := i.store.SaveRefreshToken(ctx, jti, userID, exp); err != nil {
		return Pair{}, fmt.Errorf("save refresh token: %w", err)
	}
	access, _, _, err := i.sign(userID, TypeAccess, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Refresh: refresh, Access: access}, nil
}

// ParseAccess verifies an access token and returns its user id.
func (i *Issuer) ParseAccess(token string) (int64, error) {
	c, err := i.parse(token, TypeAccess)
	if err != nil {
		return 0, err
	}
	return c.UserID, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked, so each refresh token works once.
func (i *Issuer) Refresh(ctx context.Context, refreshToken string) (Pair, error) {
	c, err := i.parse(refreshToken, TypeRefresh)
	if err != nil {
		return Pair{}, err
	}

	refresh, jti, exp, err := i.sign(c.UserID, TypeRefresh, i.refreshTTL)
	if err != nil {
		return Pair{}, err
	}
	if err := i.store.RotateRefreshToken(ctx, c.ID, jti, c.UserID, exp); err != nil {
		return Pair{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	access, _, _, err := i.sign(c.UserID, TypeAccess, i.accessTTL)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Refresh: refresh, Access: access}, nil
}

// Revoke invalidates a refresh token (logout).
func (i *Issuer) Revoke(ctx context.Context, refreshToken string) error {
	c, err := i.parse(refreshToken, TypeRefresh)
	if err != nil {
		return err
	}
	if err := i.store.RevokeRefreshToken(ctx, c.ID); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return nil
}

func (i *Issuer) sign(userID int64, tokenType string, ttl time.Duration) (token, jti string, exp time.Time, err error) {
	now := time.Now()
	jti = uuid.NewString()
	exp = now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		TokenType: tokenType,
		UserID:    userID,
	}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return token, jti, exp, nil
}

func (i *Issuer) parse(token, wantType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.TokenType != wantType || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
