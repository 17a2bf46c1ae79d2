// Package scoreapi is a client for the ranked-score head-to-head API used by /compare.
//
// Requests go through a token bucket limiter so a burst of /compare calls
// cannot exceed the configured requests per minute.
package scoreapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public score API.
const DefaultBaseURL = "https://ranked-score.vercel.app"

var (
	// ErrSeasonNotFound is returned when the requested season has no scores.
	ErrSeasonNotFound = errors.New("scoreapi: season not found")
	// ErrPlayerNotFound is returned when a player has no reference id.
	ErrPlayerNotFound = errors.New("scoreapi: player not found")
)

// Scores is a head-to-head result. References maps player names to ids,
// Values maps ids to scores.
type Scores struct {
	References map[string]string
	Values     map[string]float64
}

// Lookup resolves a player's id and score.
func (s Scores) Lookup(player string) (id string, score float64, err error) {
	id, ok := s.References[player]
	if !ok || id == "" {
		return "", 0, fmt.Errorf("%w: %s", ErrPlayerNotFound, player)
	}
	return id, s.Values[id], nil
}

// Client talks to the score API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New creates a rate-limited client. A nil httpClient uses a 15s timeout client.
func New(baseURL string, requestsPerMinute int, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}
	rps := float64(requestsPerMinute) / 60.0
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     logger.With(slog.String("component", "scoreapi")),
	}
}

// DetailsURL is the public page comparing two players.
func DetailsURL(p1, p2 string) string {
	q := url.Values{}
	q.Set("runnerOne", p1)
	q.Set("runnerTwo", p2)
	return "http://ranked-score.vercel.app/?" + q.Encode()
}

// AllTime returns all-time scores for two players.
func (c *Client) AllTime(ctx context.Context, p1, p2 string) (Scores, error) {
	var body struct {
		References map[string]string  `json:"references"`
		Scores     map[string]float64 `json:"scores"`
	}
	if err := c.get(ctx, "/api/getScoresFromVersusScores/"+url.PathEscape(p1)+"/"+url.PathEscape(p2), &body); err != nil {
		return Scores{}, err
	}
	return Scores{References: body.References, Values: body.Scores}, nil
}

// Season returns scores for a 1-based season number.
func (c *Client) Season(ctx context.Context, p1, p2 string, season int) (Scores, error) {
	var body struct {
		References      map[string]string    `json:"references"`
		ScoresPerSeason []map[string]float64 `json:"scoresPerSeason"`
	}
	if err := c.get(ctx, "/api/getScoresPerSeason/"+url.PathEscape(p1)+"/"+url.PathEscape(p2), &body); err != nil {
		return Scores{}, err
	}
	if season < 1 || season > len(body.ScoresPerSeason) || body.ScoresPerSeason[season-1] == nil {
		return Scores{}, fmt.Errorf("%w: %d", ErrSeasonNotFound, season)
	}
	return Scores{References: body.References, Values: body.ScoresPerSeason[season-1]}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("score api returned non-OK status", slog.String("path", path), slog.Int("status", resp.StatusCode))
		return fmt.Errorf("score api %s returned %d: %s", path, resp.StatusCode, truncate(body, 200))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// truncate returns a truncated string representation for error messages.
func truncate(b []byte, maxLen int) string {
	if len(b) <= maxLen {
		return string(b)
	}
	return string(b[:maxLen]) + "..."
}
