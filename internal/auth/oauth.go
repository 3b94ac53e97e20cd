package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"

	"github.com/Kimkangyeon-17/sports-ptj/internal/config"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

// ErrProviderNotConfigured is returned for a provider without client
// credentials.
var ErrProviderNotConfigured = errors.New("social login provider is not configured")

const (
	googleProfileURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	naverProfileURL  = "https://openapi.naver.com/v1/nid/me"
)

var naverEndpoint = oauth2.Endpoint{
	AuthURL:   "https://nid.naver.com/oauth2.0/authorize",
	TokenURL:  "https://nid.naver.com/oauth2.0/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

// Profile is the identity returned by a provider.
type Profile struct {
	Provider     string
	ID           string
	Email        string
	Nickname     string
	ProfileImage string
}

// User returns the local account defaults for p. Missing email and nickname
// fall back to provider-scoped placeholders.
func (p Profile) User() model.User {
	email := p.Email
	if email == "" {
		domain := "gmail.com"
		if p.Provider == model.ProviderNaver {
			domain = "naver.com"
		}
		email = fmt.Sprintf("%s_%s@%s", p.Provider, p.ID, domain)
	}
	nickname := p.Nickname
	if nickname == "" {
		nickname = fmt.Sprintf("%s_user_%s", p.Provider, p.ID)
	}
	return model.User{
		Username:       p.Provider + "_" + p.ID,
		Email:          email,
		Nickname:       nickname,
		ProfileImage:   p.ProfileImage,
		SocialProvider: p.Provider,
		SocialID:       p.ID,
	}
}

// Provider runs the authorization code flow against one identity provider.
type Provider struct {
	Name       string
	config     oauth2.Config
	profileURL string
	decode     func([]byte) (Profile, error)
	httpClient *http.Client
}

// Endpoints overrides provider URLs. Empty fields keep the defaults.
type Endpoints struct {
	AuthURL    string
	TokenURL   string
	ProfileURL string
}

func (e Endpoints) apply(p *Provider) {
	if e.AuthURL != "" {
		p.config.Endpoint.AuthURL = e.AuthURL
	}
	if e.TokenURL != "" {
		p.config.Endpoint.TokenURL = e.TokenURL
	}
	if e.ProfileURL != "" {
		p.profileURL = e.ProfileURL
	}
}

// NewGoogle creates the Google provider.
func NewGoogle(clientID, clientSecret, redirectURL string, override Endpoints) *Provider {
	p := &Provider{
		Name: model.ProviderGoogle,
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     endpoints.Google,
		},
		profileURL: googleProfileURL,
		decode:     decodeGoogle,
	}
	override.apply(p)
	return p
}

// NewNaver creates the Naver provider.
func NewNaver(clientID, clientSecret, redirectURL string, override Endpoints) *Provider {
	p := &Provider{
		Name: model.ProviderNaver,
		config: oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     naverEndpoint,
		},
		profileURL: naverProfileURL,
		decode:     decodeNaver,
	}
	override.apply(p)
	return p
}

// Providers builds both providers from cfg, keyed by name.
func Providers(cfg *config.Config) map[string]*Provider {
	return map[string]*Provider{
		model.ProviderGoogle: NewGoogle(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURI, Endpoints{}),
		model.ProviderNaver:  NewNaver(cfg.NaverClientID, cfg.NaverClientSecret, cfg.NaverRedirectURI, Endpoints{}),
	}
}

// WithHTTPClient sets the client used for the token and profile calls.
func (p *Provider) WithHTTPClient(c *http.Client) *Provider {
	p.httpClient = c
	return p
}

// Configured reports whether client credentials are present.
func (p *Provider) Configured() bool {
	return p.config.ClientID != "" && p.config.ClientSecret != ""
}

// NewState returns a random OAuth state value.
func NewState() string { return uuid.NewString() }

// AuthCodeURL is the provider login page to redirect the user to.
func (p *Provider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token and fetches the
// user's profile with it.
func (p *Provider) Exchange(ctx context.Context, code, state string) (Profile, error) {
	if !p.Configured() {
		return Profile{}, ErrProviderNotConfigured
	}
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	var opts []oauth2.AuthCodeOption
	if p.Name == model.ProviderNaver {
		opts = append(opts, oauth2.SetAuthURLParam("state", state))
	}
	tok, err := p.config.Exchange(ctx, code, opts...)
	if err != nil {
		return Profile{}, fmt.Errorf("%s token exchange: %w", p.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return Profile{}, fmt.Errorf("create profile request: %w", err)
	}
	resp, err := p.config.Client(ctx, tok).Do(req)
	if err != nil {
		return Profile{}, fmt.Errorf("%s profile request: %w", p.Name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Profile{}, fmt.Errorf("%s profile returned %d", p.Name, resp.StatusCode)
	}

	profile, err := p.decode(body)
	if err != nil {
		return Profile{}, err
	}
	if profile.ID == "" {
		return Profile{}, fmt.Errorf("%s profile has no id", p.Name)
	}
	profile.Provider = p.Name
	return profile, nil
}

func decodeGoogle(body []byte) (Profile, error) {
	var v struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Profile{}, fmt.Errorf("decode google profile: %w", err)
	}
	return Profile{ID: v.ID, Email: v.Email, Nickname: v.Name, ProfileImage: v.Picture}, nil
}

func decodeNaver(body []byte) (Profile, error) {
	var v struct {
		Response struct {
			ID           string `json:"id"`
			Email        string `json:"email"`
			Nickname     string `json:"nickname"`
			ProfileImage string `json:"profile_image"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return Profile{}, fmt.Errorf("decode naver profile: %w", err)
	}
	r := v.Response
	return Profile{ID: r.ID, Email: r.Email, Nickname: r.Nickname, ProfileImage: r.ProfileImage}, nil
}
