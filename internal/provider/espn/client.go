// Package espn provides the HTTP client for ESPN's public soccer endpoints:
// the scoreboard (fixtures and results), the league table and team logos.
//
// The endpoints need no credentials but are rate-limited client side so a
// full-season sync does not hammer them.
package espn

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/Kimkangyeon-17/sports-ptj/internal/metrics"
	"github.com/Kimkangyeon-17/sports-ptj/internal/model"
)

// DefaultBaseURL is the host serving both the site and v2 APIs.
const DefaultBaseURL = "https://site.api.espn.com"

const dateParamLayout = "20060102"

// Client is the HTTP client for ESPN soccer endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	league     string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// Options configures a Client. Zero values select defaults.
type Options struct {
	BaseURL           string
	League            string
	RequestsPerMinute int
	Timeout           time.Duration
	HTTPClient        *http.Client
}

// NewClient creates an ESPN HTTP client with rate limiting.
func NewClient(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.League == "" {
		opts.League = "eng.1"
	}
	if opts.RequestsPerMinute <= 0 {
		opts.RequestsPerMinute = 120
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	rps := float64(opts.RequestsPerMinute) / 60.0
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		league:     opts.League,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger,
	}
}

// Scoreboard fetches every event between from and to inclusive. Events that
// cannot be parsed are skipped and described in skipped.
func (c *Client) Scoreboard(ctx context.Context, from, to time.Time) (matches []model.Match, skipped []string, err error) {
	params := url.Values{}
	params.Set("dates", from.Format(dateParamLayout)+"-"+to.Format(dateParamLayout))

	body, err := c.get(ctx, "scoreboard", "/apis/site/v2/sports/soccer/"+c.league+"/scoreboard", params)
	if err != nil {
		return nil, nil, err
	}
	return ParseScoreboard(body)
}

// TeamLogos maps team display names to their primary logo URL.
func (c *Client) TeamLogos(ctx context.Context) (map[string]string, error) {
	body, err := c.get(ctx, "teams", "/apis/site/v2/sports/soccer/"+c.league+"/teams", nil)
	if err != nil {
		return nil, err
	}
	return ParseTeamLogos(body)
}

// Standings fetches the league table for the season starting in season.
// logos, keyed by display name, fills in team_logo.
func (c *Client) Standings(ctx context.Context, season int, logos map[string]string) (rows []model.TeamStanding, skipped []string, err error) {
	params := url.Values{}
	params.Set("season", strconv.Itoa(season))

	body, err := c.get(ctx, "standings", "/apis/v2/sports/soccer/"+c.league+"/standings", params)
	if err != nil {
		return nil, nil, err
	}
	return ParseStandings(body, logos)
}

// get performs a rate-limited GET request and returns the body.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ProviderCallDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderCallsTotal.WithLabelValues(endpoint, "error").Inc()
		return nil, fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()
	metrics.ProviderCallsTotal.WithLabelValues(endpoint, strconv.Itoa(resp.StatusCode)).Inc()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ESPN %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}

	c.logger.Debug("ESPN request", "endpoint", endpoint, "bytes", len(body), "duration", time.Since(start))
	return body, nil
}

// truncate returns a truncated string for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
