// Package jobs runs named recurring tasks on a fixed period.
//
// Each job runs once immediately when started and then on every tick of its
// interval. Runs are launched in their own goroutine, so a slow run never
// delays the next tick; the scheduler gives no overlap protection and callers
// that need it must guard their own state. Errors and panics from a run are
// logged and counted, they never stop the ticker.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcsr-br/ranked-bot/telemetry"
)

// RunFunc is one invocation of a job.
type RunFunc func(ctx context.Context) error

// Job describes a recurring task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      RunFunc
}

// StopFunc cancels a started job's future ticks. Safe to call more than once.
type StopFunc func()

// Start launches job and returns its stop handle. The parent ctx bounds the
// ticker; individual runs receive a context that is not cancelled by stop or
// by ctx so an in-progress run completes.
func Start(ctx context.Context, job Job, logger *slog.Logger) (StopFunc, error) {
	if job.Run == nil {
		return nil, fmt.Errorf("job %q: nil run func", job.Name)
	}
	if job.Interval <= 0 {
		return nil, fmt.Errorf("job %q: interval must be positive, got %v", job.Name, job.Interval)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("job", job.Name))

	tickCtx, cancel := context.WithCancel(ctx)
	runCtx := context.WithoutCancel(ctx)
	ticker := time.NewTicker(job.Interval)

	var stopOnce sync.Once
	stop := func() {
		stopOnce.Do(func() {
			cancel()
			ticker.Stop()
			logger.Info("job stopped")
		})
	}

	go invoke(runCtx, job, "initial", logger)
	go func() {
		for {
			select {
			case <-tickCtx.Done():
				return
			case <-ticker.C:
				go invoke(runCtx, job, "tick", logger)
			}
		}
	}()

	return stop, nil
}

// invoke runs the job once, converting panics into logged errors.
func invoke(ctx context.Context, job Job, phase string, logger *slog.Logger) {
	defer func() {
		if r := recover(); r != nil {
			telemetry.IncJobRun(job.Name, "panic")
			logger.Error("job run panicked", slog.String("phase", phase), slog.Any("panic", r))
		}
	}()
	if err := job.Run(ctx); err != nil {
		telemetry.IncJobRun(job.Name, "error")
		logger.Error("job run error", slog.String("phase", phase), slog.Any("err", err))
		return
	}
	telemetry.IncJobRun(job.Name, "ok")
}

// Registry collects jobs and starts/stops them together.
type Registry struct {
	logger *slog.Logger

	mu      sync.Mutex
	jobs    []Job
	stops   []StopFunc
	started []string
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger}
}

// Register adds a job to be started by StartAll.
func (r *Registry) Register(job Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
}

// StartAll starts every registered job that is not running yet. A job that
// fails to start is logged and skipped.
func (r *Registry) StartAll(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		stop, err := Start(ctx, job, r.logger)
		if err != nil {
			r.logger.Error("failed to start job", slog.String("job", job.Name), slog.Any("err", err))
			continue
		}
		r.stops = append(r.stops, stop)
		r.started = append(r.started, job.Name)
		r.logger.Info("started job", slog.String("job", job.Name), slog.Duration("interval", job.Interval))
	}
	r.jobs = nil
}

// StopAll stops every started job and clears the registry.
func (r *Registry) StopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stop := range r.stops {
		stop()
	}
	r.stops = nil
	r.started = nil
	r.jobs = nil
}

// Running returns the names of jobs started and not yet stopped.
func (r *Registry) Running() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.started))
	copy(out, r.started)
	return out
}
