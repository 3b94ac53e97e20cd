package handler

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/Kimkangyeon-17/sports-ptj/internal/api/respond"
	"github.com/Kimkangyeon-17/sports-ptj/internal/auth"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

const stateCookieTTL = 10 * time.Minute

// SocialLoginResponse is the callback body.
type SocialLoginResponse struct {
	Message string            `json:"message"`
	Tokens  auth.Pair         `json:"tokens"`
	User    model.UserProfile `json:"user"`
	Created bool              `json:"created"`
}

func stateCookieName(provider string) string { return "oauth_state_" + provider }

// provider resolves a configured provider or writes the error.
func (h *Handler) provider(w http.ResponseWriter, r *http.Request, name string) (*auth.Provider, bool) {
	p, ok := h.providers[name]
	if !ok {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Unknown login provider")
		return nil, false
	}
	if !p.Configured() {
		respond.WriteError(w, http.StatusServiceUnavailable, "PROVIDER_NOT_CONFIGURED", auth.ErrProviderNotConfigured.Error())
		return nil, false
	}
	return p, true
}

// SocialLogin redirects to the provider's consent page.
// @Summary Social login redirect
// @Tags accounts
// @Param provider path string true "Provider" Enums(google, naver)
// @Success 302
// @Failure 503 {object} respond.ErrorResponse
// @Router /api/accounts/{provider}/login [get]
func (h *Handler) SocialLogin(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.provider(w, r, provider)
		if !ok {
			return
		}
		state := auth.NewState()
		http.SetCookie(w, &http.Cookie{
			Name:     stateCookieName(provider),
			Value:    state,
			Path:     "/api/accounts/" + provider,
			MaxAge:   int(stateCookieTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.cfg != nil && h.cfg.IsProduction(),
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, p.AuthCodeURL(state), http.StatusFound)
	}
}

// SocialCallback completes the code flow and logs the user in, creating the
// account on first login.
// @Summary Social login callback
// @Tags accounts
// @Produce json
// @Param provider path string true "Provider" Enums(google, naver)
// @Param code query string true "Authorization code"
// @Param state query string true "State issued by the login redirect"
// @Success 200 {object} SocialLoginResponse
// @Failure 400 {object} respond.ErrorResponse
// @Failure 502 {object} respond.ErrorResponse
// @Router /api/accounts/{provider}/callback [get]
func (h *Handler) SocialCallback(provider string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := h.provider(w, r, provider)
		if !ok {
			return
		}
		q := r.URL.Query()
		if e := q.Get("error"); e != "" {
			respond.WriteErrorDetail(w, http.StatusBadRequest, "OAUTH_DENIED", "Login was cancelled or denied", e)
			return
		}
		code, state := q.Get("code"), q.Get("state")
		if code == "" {
			respond.WriteError(w, http.StatusBadRequest, "MISSING_CODE", "code parameter is required")
			return
		}
		cookie, err := r.Cookie(stateCookieName(provider))
		if err != nil || state == "" || subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(state)) != 1 {
			respond.WriteError(w, http.StatusBadRequest, "INVALID_STATE", "OAuth state does not match")
			return
		}
		http.SetCookie(w, &http.Cookie{Name: stateCookieName(provider), Path: "/api/accounts/" + provider, MaxAge: -1})

		profile, err := p.Exchange(r.Context(), code, state)
		if err != nil {
			if errors.Is(err, auth.ErrProviderNotConfigured) {
				respond.WriteError(w, http.StatusServiceUnavailable, "PROVIDER_NOT_CONFIGURED", err.Error())
				return
			}
			h.logger.Warn("Social login exchange failed", "provider", provider, "error", err)
			respond.WriteError(w, http.StatusBadGateway, "OAUTH_EXCHANGE_FAILED", "Could not complete login with "+provider)
			return
		}

		u, created, err := h.store.FindOrCreateSocialUser(r.Context(), profile.User())
		if err != nil {
			h.writeErr(w, r, err)
			return
		}
		if created {
			h.logger.Info("Social user created", "provider", provider, "user_id", u.ID)
		}

		pair, err := h.tokens.Issue(r.Context(), u.ID)
		if err != nil {
			h.writeErr(w, r, err)
			return
		}
		up, err := h.profile(r, u)
		if err != nil {
			h.writeErr(w, r, err)
			return
		}
		respond.WriteJSONObject(w, http.StatusOK, SocialLoginResponse{
			Message: provider + " login succeeded",
			Tokens:  pair,
			User:    up,
			Created: created,
		})
	}
}
