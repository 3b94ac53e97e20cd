// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// League is the competition every match and standing row belongs to.
const League = "Premier League"

// --------------------------------------------------------------------------
// Table names, matching schema.sql
// --------------------------------------------------------------------------

const (
	TeamsTable         = "teams"
	PlayersTable       = "players"
	StaffTable         = "staff"
	MatchesTable       = "matches"
	StandingsTable     = "team_standings"
	UsersTable         = "users"
	FavoritesTable     = "user_favorite_teams"
	RefreshTokensTable = "refresh_tokens"
)

// dateLayout is the format of SEASON_START and SEASON_END.
const dateLayout = "2006-01-02"

// --------------------------------------------------------------------------
// Config is populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	DBPoolMinConns int           `envconfig:"DB_POOL_MIN_CONNS" default:"2"`
	DBPoolMaxConns int           `envconfig:"DB_POOL_MAX_CONNS" default:"10"`
	DBPoolMaxLife  time.Duration `envconfig:"DB_POOL_MAX_LIFE" default:"30m"`

	// API server
	APIHost     string `envconfig:"API_HOST" default:"0.0.0.0"`
	APIPort     int    `envconfig:"API_PORT" default:"8000"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"` // development, staging, production
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat   string `envconfig:"LOG_FORMAT" default:"text"`

	// CORS
	CORSAllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:5173,http://127.0.0.1:5500"`

	// Rate limiting
	RateLimitEnabled  bool          `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"100"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"60s"`

	// Cache
	CacheEnabled bool   `envconfig:"CACHE_ENABLED" default:"true"`
	RedisURL     string `envconfig:"REDIS_URL"`

	// Auth
	JWTSecret     string        `envconfig:"JWT_SECRET"`
	JWTAccessTTL  time.Duration `envconfig:"JWT_ACCESS_TTL" default:"30m"`
	JWTRefreshTTL time.Duration `envconfig:"JWT_REFRESH_TTL" default:"168h"`

	// Social login
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string `envconfig:"GOOGLE_REDIRECT_URI"`
	NaverClientID      string `envconfig:"NAVER_CLIENT_ID"`
	NaverClientSecret  string `envconfig:"NAVER_CLIENT_SECRET"`
	NaverRedirectURI   string `envconfig:"NAVER_REDIRECT_URI"`

	// ESPN
	ESPNBaseURL           string        `envconfig:"ESPN_BASE_URL" default:"https://site.api.espn.com"`
	ESPNLeague            string        `envconfig:"ESPN_LEAGUE" default:"eng.1"`
	ESPNRequestsPerMinute int           `envconfig:"ESPN_REQUESTS_PER_MINUTE" default:"120"`
	ESPNTimeout           time.Duration `envconfig:"ESPN_TIMEOUT" default:"10s"`

	// Refresh
	MatchStaleAfter     time.Duration `envconfig:"MATCH_STALE_AFTER" default:"1h"`
	SeasonStart         string        `envconfig:"SEASON_START"`
	SeasonEnd           string        `envconfig:"SEASON_END"`
	StandingsDir        string        `envconfig:"STANDINGS_DIR" default:"data/standings"`
	StandingsRetention  time.Duration `envconfig:"STANDINGS_RETENTION" default:"720h"`
	RefreshOnRead       bool          `envconfig:"REFRESH_ON_READ" default:"true"`
	RefreshCron         string        `envconfig:"REFRESH_CRON" default:"0 * * * *"`
	RefreshTimeout      time.Duration `envconfig:"REFRESH_TIMEOUT" default:"2m"`
	MaintenanceInterval time.Duration `envconfig:"MAINTENANCE_INTERVAL" default:"1h"`

	// Static data files for cmd/ingest load
	DataDir string `envconfig:"DATA_DIR" default:"data"`

	// Monitoring
	MetricsEnabled bool `envconfig:"METRICS_ENABLED" default:"true"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		cfg.JWTSecret = "dev-insecure-secret"
	}
	if _, _, err := cfg.parseSeasonBounds(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// SeasonWindow returns the inclusive date range of the season in progress at
// now. SEASON_START and SEASON_END override the computed bounds. Without
// overrides a season runs from August 1 to May 31 of the following year;
// dates before July belong to the season that started the previous August.
func (c *Config) SeasonWindow(now time.Time) (start, end time.Time) {
	year := now.Year()
	if now.Month() < time.July {
		year--
	}
	start = time.Date(year, time.August, 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(year+1, time.May, 31, 0, 0, 0, 0, time.UTC)

	s, e, _ := c.parseSeasonBounds()
	if !s.IsZero() {
		start = s
	}
	if !e.IsZero() {
		end = e
	}
	return start, end
}

func (c *Config) parseSeasonBounds() (start, end time.Time, err error) {
	if c.SeasonStart != "" {
		if start, err = time.Parse(dateLayout, c.SeasonStart); err != nil {
			return start, end, fmt.Errorf("SEASON_START: %w", err)
		}
	}
	if c.SeasonEnd != "" {
		if end, err = time.Parse(dateLayout, c.SeasonEnd); err != nil {
			return start, end, fmt.Errorf("SEASON_END: %w", err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("SEASON_END %s is before SEASON_START %s", c.SeasonEnd, c.SeasonStart)
	}
	return start, end, nil
}

// --------------------------------------------------------------------------
// Logging
// --------------------------------------------------------------------------

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT.
func (c *Config) NewLogger() *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
