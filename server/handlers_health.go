package server

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/mcsr-br/ranked-bot/ranked"
)

// HandleHealthz responds to liveness probes. The process answering is enough.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz runs the readiness checks in order and reports the first failure.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	for _, check := range h.opts.Ready {
		if err := check.Fn(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":       "not_ready",
				"failed_check": check.Name,
				"error":        err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type statusResponse struct {
	Status          string              `json:"status"`
	UptimeSeconds   int64               `json:"uptime_seconds"`
	PostedCacheSize int                 `json:"posted_cache_size"`
	InFlight        int                 `json:"in_flight"`
	Jobs            []string            `json:"jobs"`
	LastTick        *ranked.TickSummary `json:"last_tick"`
}

// HandleStatus reports the last watcher tick, the dedup cache size and the running jobs.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	resp := statusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Jobs:          []string{},
	}
	if h.opts.PostedCount != nil {
		resp.PostedCacheSize = h.opts.PostedCount()
	}
	if h.opts.Jobs != nil {
		if jobs := h.opts.Jobs(); jobs != nil {
			resp.Jobs = jobs
		}
	}
	if h.opts.Watcher != nil {
		resp.InFlight = h.opts.Watcher.InFlight()
		if sum, ok := h.opts.Watcher.LastSummary(); ok {
			resp.LastTick = &sum
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
