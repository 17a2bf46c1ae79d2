package scoreapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 60000, srv.Client(), nil)
}

func TestAllTime(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/api/getScoresFromVersusScores/Alice/Bob%20Jr" {
			t.Errorf("path = %s", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`{"references":{"Alice":"u1","Bob Jr":"u2"},"scores":{"u1":7,"u2":3.5}}`))
	})
	s, err := c.AllTime(context.Background(), "Alice", "Bob Jr")
	if err != nil {
		t.Fatalf("AllTime: %v", err)
	}
	id, score, err := s.Lookup("Bob Jr")
	if err != nil || id != "u2" || score != 3.5 {
		t.Errorf("Lookup = %q %v %v", id, score, err)
	}
	if _, _, err := s.Lookup("Carol"); !errors.Is(err, ErrPlayerNotFound) {
		t.Errorf("Lookup unknown = %v, want ErrPlayerNotFound", err)
	}
}

func TestSeason(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/getScoresPerSeason/") {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"references":{"a":"u1","b":"u2"},"scoresPerSeason":[{"u1":1,"u2":0},{"u1":2,"u2":5}]}`))
	})
	s, err := c.Season(context.Background(), "a", "b", 2)
	if err != nil {
		t.Fatalf("Season: %v", err)
	}
	if s.Values["u2"] != 5 {
		t.Errorf("season 2 scores = %v", s.Values)
	}
	for _, season := range []int{0, 3, -1} {
		if _, err := c.Season(context.Background(), "a", "b", season); !errors.Is(err, ErrSeasonNotFound) {
			t.Errorf("season %d: err = %v, want ErrSeasonNotFound", season, err)
		}
	}
}

func TestNonOKStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})
	_, err := c.AllTime(context.Background(), "a", "b")
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Errorf("err = %v, want 502 error", err)
	}
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := New("http://127.0.0.1:1", 1, nil, nil)
	// drain the single burst token
	c.limiter.Allow()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.AllTime(ctx, "a", "b"); err == nil || !strings.Contains(err.Error(), "rate limit wait") {
		t.Errorf("err = %v, want rate limit wait error", err)
	}
}

func TestDetailsURL(t *testing.T) {
	got := DetailsURL("Alice", "Bob Jr")
	if got != "http://ranked-score.vercel.app/?runnerOne=Alice&runnerTwo=Bob+Jr" {
		t.Errorf("DetailsURL = %q", got)
	}
}
