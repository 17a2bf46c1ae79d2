package ranked

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mcsr-br/ranked-bot/telemetry"
)

var (
	// ErrNoArray means the body held no match array, neither at the top level
	// nor under any of the wrapper keys.
	ErrNoArray = errors.New("ranked: response has no match array")
	// ErrUnexpectedStatus is returned for non-2xx feed responses.
	ErrUnexpectedStatus = errors.New("ranked: unexpected feed status")
)

// wrapperKeys are tried in order when the body is an object.
var wrapperKeys = []string{"data", "items", "results", "matches"}

const (
	previewRecords = 3
	previewBytes   = 1500
)

// Source yields the current batch of matches.
type Source interface {
	Fetch(ctx context.Context) ([]Match, error)
}

// Fetcher reads matches from the upstream feed with a single GET.
type Fetcher struct {
	URL        string
	HTTPClient *http.Client
	Debug      bool
	Logger     *slog.Logger
}

func (f *Fetcher) http() *http.Client {
	if f.HTTPClient != nil {
		return f.HTTPClient
	}
	return http.DefaultClient
}

func (f *Fetcher) logger(ctx context.Context) *slog.Logger {
	l := f.Logger
	if l == nil {
		l = slog.Default()
	}
	if corr := telemetry.GetCorrelation(ctx); corr != "" {
		l = l.With(slog.String("corr", corr))
	}
	return l.With(slog.String("component", "ranked_feed"))
}

// Fetch returns the feed's matches sorted by date ascending. Every failure is
// logged here and returned; an empty feed returns (nil, nil).
func (f *Fetcher) Fetch(ctx context.Context) ([]Match, error) {
	log := f.logger(ctx)
	log.Info("fetching ranked feed", slog.String("url", f.URL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		telemetry.IncFetchFailure("request")
		log.Error("build feed request", slog.Any("err", err))
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	resp, err := f.http().Do(req)
	if err != nil {
		telemetry.IncFetchFailure("network")
		log.Error("feed fetch failed", slog.Any("err", err))
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		telemetry.IncFetchFailure("status")
		log.Warn("feed returned non-OK status", slog.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	log.Info("feed fetch OK", slog.Int("status", resp.StatusCode))

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		telemetry.IncFetchFailure("network")
		log.Error("read feed body", slog.Any("err", err))
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	items, key, err := unwrapArray(body)
	if err != nil {
		if errors.Is(err, ErrNoArray) {
			telemetry.IncFetchFailure("no_array")
			log.Info("response has no items after parsing")
			return nil, err
		}
		telemetry.IncFetchFailure("parse")
		log.Error("failed to parse feed JSON", slog.Any("err", err))
		return nil, err
	}
	if key != "" {
		log.Info("unwrapped array from response object", slog.String("key", key))
	}
	if len(items) == 0 {
		log.Info("response has no items after parsing")
		return nil, nil
	}
	log.Info("feed items received", slog.Int("count", len(items)))
	if f.Debug {
		log.Info("payload preview", slog.String("preview", preview(items)))
	}

	matches := make([]Match, 0, len(items))
	for i, raw := range items {
		var m Match
		if err := json.Unmarshal(raw, &m); err != nil {
			log.Debug("skipping undecodable feed item", slog.Int("index", i), slog.Any("err", err))
			continue
		}
		matches = append(matches, m)
	}
	SortByDate(matches)
	if f.Debug && len(matches) > 0 {
		log.Info("feed sorted",
			slog.String("earliest", isoDate(matches[0].Date)),
			slog.String("latest", isoDate(matches[len(matches)-1].Date)))
	}
	return matches, nil
}

// unwrapArray returns the top-level array, or the first array found under the
// wrapper keys along with the key used.
func unwrapArray(body []byte) ([]json.RawMessage, string, error) {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return nil, "", fmt.Errorf("parse feed JSON: invalid document (%d bytes)", len(body))
	}
	switch {
	case len(trimmed) > 0 && trimmed[0] == '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, "", fmt.Errorf("parse feed JSON: %w", err)
		}
		return items, "", nil
	case len(trimmed) > 0 && trimmed[0] == '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return nil, "", fmt.Errorf("parse feed JSON: %w", err)
		}
		for _, key := range wrapperKeys {
			raw, ok := obj[key]
			raw = bytes.TrimSpace(raw)
			if !ok || len(raw) == 0 || raw[0] != '[' {
				continue
			}
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, "", fmt.Errorf("parse feed %q array: %w", key, err)
			}
			return items, key, nil
		}
	}
	return nil, "", ErrNoArray
}

// SortByDate orders matches by date ascending, keeping feed order for ties.
// A missing date sorts as 0.
func SortByDate(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return dateKey(matches[i].Date) < dateKey(matches[j].Date)
	})
}

func dateKey(n Number) float64 {
	if !n.Valid {
		return 0
	}
	return n.Value
}

func preview(items []json.RawMessage) string {
	n := len(items)
	if n > previewRecords {
		n = previewRecords
	}
	out, err := json.MarshalIndent(items[:n], "", "  ")
	if err != nil {
		return ""
	}
	if len(out) > previewBytes {
		out = out[:previewBytes]
	}
	return string(out)
}

func isoDate(n Number) string {
	t, ok := MatchTime(n)
	if !ok {
		return "—"
	}
	return t.UTC().Format(time.RFC3339)
}
