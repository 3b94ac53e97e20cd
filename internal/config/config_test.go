package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonWindow_Computed(t *testing.T) {
	cfg := &Config{}

	start, end := cfg.SeasonWindow(time.Date(2025, time.October, 3, 12, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, time.August, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, time.May, 31, 0, 0, 0, 0, time.UTC), end)

	start, end = cfg.SeasonWindow(time.Date(2026, time.February, 14, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 2025, start.Year(), "February belongs to the season that began the previous August")
	assert.Equal(t, 2026, end.Year())
}

func TestSeasonWindow_Overrides(t *testing.T) {
	cfg := &Config{SeasonStart: "2024-08-16", SeasonEnd: "2025-05-25"}

	start, end := cfg.SeasonWindow(time.Now())
	assert.Equal(t, time.Date(2024, time.August, 16, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2025, time.May, 25, 0, 0, 0, 0, time.UTC), end)
}

func TestLoad(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ptj")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("CORS_ALLOW_ORIGINS", "http://a.test,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, time.Hour, cfg.MatchStaleAfter)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowOrigins)
	assert.NotEmpty(t, cfg.JWTSecret, "development falls back to a local secret")
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing database url", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("production requires jwt secret", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/ptj")
		t.Setenv("ENVIRONMENT", "production")
		t.Setenv("JWT_SECRET", "")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("inverted season bounds", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "postgres://localhost:5432/ptj")
		t.Setenv("SEASON_START", "2025-08-01")
		t.Setenv("SEASON_END", "2025-05-01")
		_, err := Load()
		assert.Error(t, err)
	})
}
