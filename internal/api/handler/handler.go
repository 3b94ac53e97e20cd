// Package handler provides HTTP handlers for all API endpoints.
// Handlers depend on narrow interfaces over the store and refresher so they
// can be exercised with in-memory fakes.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/Kimkangyeon-17/sports-ptj/internal/api/respond"
	"github.com/Kimkangyeon-17/sports-ptj/internal/auth"
	"github.com/Kimkangyeon-17/sports-ptj/internal/cache"
	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/favorites"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
	"github.com/Kimkangyeon-17/sports-ptj/internal/refresh"
	"github.com/Kimkangyeon-17/sports-ptj/internal/store"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Store is the persistence the handlers read and write.
type Store interface {
	ListTeams(ctx context.Context, opts store.ListOptions) ([]model.Team, int, error)
	SearchTeams(ctx context.Context, name, league string) ([]model.Team, error)
	GetTeam(ctx context.Context, id int64) (model.Team, error)
	GetTeamByTeamID(ctx context.Context, teamID string) (model.Team, error)

	ListPlayers(ctx context.Context, opts store.ListOptions) ([]model.Player, int, error)
	SearchPlayers(ctx context.Context, q store.PlayerQuery, page store.Page) ([]model.Player, int, error)
	PlayersByTeam(ctx context.Context, teamID, position string) ([]model.Player, error)
	GetPlayer(ctx context.Context, id int64) (model.Player, error)

	ListStaff(ctx context.Context, opts store.ListOptions) ([]model.Staff, int, error)
	SearchStaff(ctx context.Context, q store.StaffQuery, page store.Page) ([]model.Staff, int, error)
	GetStaff(ctx context.Context, id int64) (model.Staff, error)

	ListStandings(ctx context.Context) ([]model.TeamStanding, error)
	GetStanding(ctx context.Context, id int64) (model.TeamStanding, error)

	ListMatches(ctx context.Context, page store.Page) ([]model.Match, int, error)
	FindMatches(ctx context.Context, f store.MatchFilter) ([]model.Match, error)
	GetMatch(ctx context.Context, id int64) (model.Match, error)

	CreateUser(ctx context.Context, u model.User) (model.User, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByLogin(ctx context.Context, login string) (model.User, error)
	FindOrCreateSocialUser(ctx context.Context, defaults model.User) (model.User, bool, error)
	UpdateUser(ctx context.Context, id int64, patch store.UserPatch) (model.User, error)

	favorites.Repository
}

// Refresher pulls match and standings data from the provider.
type Refresher interface {
	MatchesIfStale(ctx context.Context)
	StandingsIfStale(ctx context.Context)
	SyncMatches(ctx context.Context) refresh.Result
	SyncStandings(ctx context.Context, force bool) refresh.Result
}

// Deps are the Handler's collaborators. Cache, Providers, Ping and Now are
// optional.
type Deps struct {
	Store     Store
	Refresher Refresher
	Tokens    *auth.Issuer
	Cache     cache.Store
	Providers map[string]*auth.Provider
	Ping      func(ctx context.Context) error
	Config    *config.Config
	Logger    *slog.Logger
	Now       func() time.Time
}

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store     Store
	favorites *favorites.Service
	refresher Refresher
	tokens    *auth.Issuer
	cache     cache.Store
	providers map[string]*auth.Provider
	ping      func(ctx context.Context) error
	cfg       *config.Config
	logger    *slog.Logger
	validate  *validator.Validate
	now       func() time.Time
}

// New creates a Handler with shared dependencies.
func New(d Deps) *Handler {
	h := &Handler{
		store:     d.Store,
		favorites: favorites.NewService(d.Store),
		refresher: d.Refresher,
		tokens:    d.Tokens,
		cache:     d.Cache,
		providers: d.Providers,
		ping:      d.Ping,
		cfg:       d.Config,
		logger:    d.Logger,
		validate:  newValidator(),
		now:       d.Now,
	}
	if h.cache == nil {
		h.cache = cache.New(false)
	}
	if h.providers == nil {
		h.providers = map[string]*auth.Provider{}
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status and the resource index.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Sports PTJ API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs/index.html",
		"resources": map[string]string{
			"teams":     "/api/teams/",
			"players":   "/api/players/",
			"staff":     "/api/staff/",
			"standings": "/api/standings/",
			"matches":   "/api/matches/",
			"accounts":  "/api/accounts/",
		},
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies Postgres connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.ping == nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "not configured",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})
		return
	}
	if err := h.ping(r.Context()); err != nil {
		h.logger.Warn("Database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns response cache statistics for the memory or Redis backend.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	status, code := "healthy", http.StatusOK
	if err := h.cache.Ping(r.Context()); err != nil {
		h.logger.Warn("Cache health check failed", "error", err)
		status, code = "unhealthy", http.StatusServiceUnavailable
	}
	respond.WriteJSONObject(w, code, map[string]interface{}{
		"status":    status,
		"cache":     h.cache.Stats(r.Context()),
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// apiError is a client error with its HTTP status and machine code.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func badRequest(code, message string) error {
	return &apiError{status: http.StatusBadRequest, code: code, message: message}
}

func notFound(message string) error {
	return &apiError{status: http.StatusNotFound, code: "NOT_FOUND", message: message}
}

// writeErr maps err to a response. Unknown errors are logged and reported as
// a generic 500.
func (h *Handler) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var ae *apiError
	var conflict *store.ConflictError
	switch {
	case errors.As(err, &ae):
		respond.WriteError(w, ae.status, ae.code, ae.message)
	case errors.As(err, &conflict):
		respond.WriteValidationError(w, "A user with that "+conflict.Field+" already exists.",
			map[string]string{conflict.Field: "already exists"})
	case errors.Is(err, store.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Not found.")
	case errors.Is(err, favorites.ErrLimitReached):
		respond.WriteError(w, http.StatusBadRequest, "FAVORITE_LIMIT_REACHED", err.Error())
	case errors.Is(err, favorites.ErrAlreadyFavorite):
		respond.WriteError(w, http.StatusBadRequest, "ALREADY_FAVORITE", err.Error())
	case errors.Is(err, favorites.ErrNotFavorite):
		respond.WriteError(w, http.StatusBadRequest, "NOT_FAVORITE", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		respond.WriteError(w, http.StatusBadRequest, "INVALID_CREDENTIALS", "Unable to log in with provided credentials.")
	case errors.Is(err, auth.ErrInvalidToken):
		respond.WriteError(w, http.StatusUnauthorized, "TOKEN_NOT_VALID", "Token is invalid or expired")
	default:
		h.logger.Error("Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		respond.WriteError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
	}
}

// --------------------------------------------------------------------------
// Request helpers
// --------------------------------------------------------------------------

// pathID parses the {id} URL parameter.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("INVALID_ID", "ID must be a positive integer")
	}
	return id, nil
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return badRequest("INVALID_JSON", "Request body must be a JSON object")
	}
	return nil
}

// currentUser returns the authenticated user id set by auth.RequireUser.
func currentUser(r *http.Request) (int64, error) {
	id, ok := auth.UserID(r.Context())
	if !ok {
		return 0, auth.ErrInvalidToken
	}
	return id, nil
}

// writeCached serves key from the response cache, honouring If-None-Match,
// and fills it from build on a miss. Errors from build are not cached.
func (h *Handler) writeCached(w http.ResponseWriter, r *http.Request, key string, ttl time.Duration, build func() (any, error)) {
	ctx := r.Context()
	if data, etag, ok := h.cache.Get(ctx, key); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, ttl, true)
		return
	}

	v, err := build()
	if err != nil {
		h.writeErr(w, r, err)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.writeErr(w, r, err)
		return
	}

	etag := h.cache.Set(ctx, key, data, ttl)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, ttl, false)
}
