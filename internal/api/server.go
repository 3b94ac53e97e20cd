// Package api wires the HTTP router: middleware, CORS, rate limiting,
// metrics, API docs and every route.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/Kimkangyeon-17/sports-ptj/internal/api/handler"
	"github.com/Kimkangyeon-17/sports-ptj/internal/auth"
	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/metrics"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(h *handler.Handler, tokens *auth.Issuer, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.StripSlashes) // "/api/teams/" and "/api/teams" are the same route
	r.Use(TimingMiddleware)
	if cfg.MetricsEnabled {
		r.Use(metrics.Middleware)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins: cfg.CORSAllowOrigins,
		AllowedMethods: []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{
			"Accept", "Accept-Encoding", "Authorization", "Content-Type", "If-None-Match", "Cache-Control",
		},
		ExposedHeaders:   []string{"X-Process-Time", "X-Cache", "ETag", "X-Request-Id"},
		AllowCredentials: true,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	requireUser := auth.RequireUser(tokens)

	// --- Routes ---

	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
		r.Get("/cache", h.HealthCheckCache)
	})

	if cfg.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/docs/index.html", http.StatusMovedPermanently)
	})
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Route("/api", func(r chi.Router) {
		r.Route("/teams", func(r chi.Router) {
			r.Get("/", h.ListTeams)
			r.Get("/search", h.SearchTeams)
			r.Get("/{id}", h.GetTeam)
			r.Get("/{id}/players", h.TeamPlayers)
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/", h.ListPlayers)
			r.Get("/search", h.SearchPlayers)
			r.Get("/{id}", h.GetPlayer)
		})

		r.Route("/staff", func(r chi.Router) {
			r.Get("/", h.ListStaff)
			r.Get("/search", h.SearchStaff)
			r.Get("/{id}", h.GetStaff)
		})

		r.Route("/standings", func(r chi.Router) {
			r.Get("/", h.ListStandings)
			r.Get("/{id}", h.GetStanding)
		})

		r.Route("/matches", func(r chi.Router) {
			r.Get("/", h.ListMatches)
			r.Get("/upcoming", h.UpcomingMatches)
			r.Get("/live", h.LiveMatches)
			r.Get("/finished", h.FinishedMatches)
			r.Get("/by_date", h.MatchesByDate)
			r.Get("/by_team", h.MatchesByTeam)
			r.Get("/by_matchday", h.MatchesByMatchday)
			r.With(requireUser).Post("/force_update", h.ForceUpdateMatches)
			r.Get("/{id}", h.GetMatch)
		})

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/token/refresh", h.RefreshToken)

			for _, p := range []string{model.ProviderGoogle, model.ProviderNaver} {
				r.Get("/"+p+"/login", h.SocialLogin(p))
				r.Get("/"+p+"/callback", h.SocialCallback(p))
			}

			r.Group(func(r chi.Router) {
				r.Use(requireUser)

				r.Post("/logout", h.Logout)
				r.Get("/user", h.CurrentUser)
				r.Get("/profile", h.CurrentUser)
				r.Put("/profile", h.UpdateProfile)
				r.Patch("/profile", h.UpdateProfile)
				r.Get("/dashboard", h.Dashboard)

				r.Route("/favorite-teams", func(r chi.Router) {
					r.Get("/", h.MyFavoriteTeams)
					r.Post("/add", h.AddFavoriteTeam)
					r.Delete("/remove/{team_id}", h.RemoveFavoriteTeam)
					r.Get("/matches", h.AllFavoriteMatches)
					r.Get("/matches/upcoming", h.UpcomingFavoriteMatches)
					r.Get("/matches/past", h.PastFavoriteMatches)
					r.Get("/{team_id}/matches", h.FavoriteTeamMatches)
				})
			})
		})
	})

	return r
}
