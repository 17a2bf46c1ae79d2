package server

import (
	"context"
	"time"

	"github.com/mcsr-br/ranked-bot/ranked"
)

// StatusSource reports what the watcher did last.
type StatusSource interface {
	LastSummary() (ranked.TickSummary, bool)
	InFlight() int
}

// Check is one readiness probe.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Options are the collaborators the HTTP handlers report on. Nil fields are skipped.
type Options struct {
	Watcher     StatusSource
	PostedCount func() int
	Jobs        func() []string
	Ready       []Check
	// StatusToken guards /status when non-empty.
	StatusToken string
}

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	opts    Options
	started time.Time
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(opts Options) *Handlers {
	return &Handlers{opts: opts, started: time.Now()}
}
