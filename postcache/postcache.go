// Package postcache remembers which match ids have already been announced.
//
// A Set keeps the ids in memory and writes them through to a durable Backend
// so reposts are avoided across restarts. Loading fails open: an unreadable or
// corrupt backend yields an empty set (a possible duplicate post is preferred
// over not starting). Writes are best-effort; a failure is reported to the
// caller for logging and never undoes the in-memory record.
package postcache

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/mcsr-br/ranked-bot/telemetry"
)

// Backend is durable storage for the announced id set.
type Backend interface {
	// Load returns every stored id. A missing store is initialised empty.
	Load(ctx context.Context) ([]string, error)
	// Save persists the full current set.
	Save(ctx context.Context, ids []string) error
}

// Set is the process-wide record of announced match ids. The set only grows.
type Set struct {
	backend Backend
	logger  *slog.Logger

	mu  sync.RWMutex
	ids map[string]struct{}

	// saveMu orders writes so a stale snapshot never overwrites a newer one.
	saveMu sync.Mutex
}

// Open loads the set from backend. Load errors are logged and produce an empty set.
func Open(ctx context.Context, backend Backend, logger *slog.Logger) *Set {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Set{backend: backend, logger: logger, ids: make(map[string]struct{})}
	ids, err := backend.Load(ctx)
	if err != nil {
		logger.Warn("posted cache unreadable; starting empty", slog.Any("err", err), slog.String("component", "postcache"))
		return s
	}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	telemetry.SetPostedCacheSize(len(s.ids))
	logger.Info("posted cache loaded", slog.Int("count", len(s.ids)), slog.String("component", "postcache"))
	return s
}

// Has reports whether id was announced before.
func (s *Set) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.ids[id]
	return ok
}

// Remember records id and persists the set. It returns the persistence error,
// if any; the id stays recorded in memory either way. Remembering a known id
// does not write.
func (s *Set) Remember(ctx context.Context, id string) error {
	s.mu.Lock()
	if _, ok := s.ids[id]; ok {
		s.mu.Unlock()
		return nil
	}
	s.ids[id] = struct{}{}
	s.mu.Unlock()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	snapshot := s.Snapshot()
	telemetry.SetPostedCacheSize(len(snapshot))
	if err := s.backend.Save(ctx, snapshot); err != nil {
		telemetry.Inc(telemetry.PersistFailures)
		return err
	}
	return nil
}

// Len returns the number of remembered ids.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.ids)
}

// Snapshot returns the remembered ids in sorted order.
func (s *Set) Snapshot() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Set) snapshotLocked() []string {
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
