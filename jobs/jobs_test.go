package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it is true or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestStartRunsImmediately(t *testing.T) {
	var calls atomic.Int32
	stop, err := Start(context.Background(), Job{
		Name:     "immediate",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		},
	}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stop()

	if !waitFor(t, time.Second, func() bool { return calls.Load() == 1 }) {
		t.Fatalf("expected one immediate run, got %d", calls.Load())
	}
}

func TestStartKeepsTickingAfterErrorsAndPanics(t *testing.T) {
	var calls atomic.Int32
	stop, err := Start(context.Background(), Job{
		Name:     "flaky",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			n := calls.Add(1)
			switch n % 3 {
			case 0:
				panic("boom")
			case 1:
				return errors.New("upstream down")
			}
			return nil
		},
	}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stop()

	if !waitFor(t, 2*time.Second, func() bool { return calls.Load() >= 6 }) {
		t.Fatalf("ticker stopped after failures; runs = %d", calls.Load())
	}
}

func TestSlowRunDoesNotDelayTicks(t *testing.T) {
	var started atomic.Int32
	release := make(chan struct{})
	stop, err := Start(context.Background(), Job{
		Name:     "slow",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			started.Add(1)
			<-release
			return nil
		},
	}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer stop()
	defer close(release)

	// runs overlap: several start while the first is still blocked
	if !waitFor(t, 2*time.Second, func() bool { return started.Load() >= 3 }) {
		t.Fatalf("expected overlapping runs, got %d", started.Load())
	}
}

func TestStopIsIdempotentAndHaltsTicks(t *testing.T) {
	var calls atomic.Int32
	stop, err := Start(context.Background(), Job{
		Name:     "stoppable",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			calls.Add(1)
			return nil
		},
	}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, time.Second, func() bool { return calls.Load() >= 2 })

	stop()
	stop()
	time.Sleep(20 * time.Millisecond) // let a tick that raced the stop finish
	after := calls.Load()
	time.Sleep(60 * time.Millisecond)
	if got := calls.Load(); got != after {
		t.Errorf("runs continued after stop: %d -> %d", after, got)
	}
}

func TestRunContextSurvivesStop(t *testing.T) {
	ctxErr := make(chan error, 1)
	entered := make(chan struct{})
	proceed := make(chan struct{})
	stop, err := Start(context.Background(), Job{
		Name:     "in-progress",
		Interval: time.Hour,
		Run: func(ctx context.Context) error {
			close(entered)
			<-proceed
			ctxErr <- ctx.Err()
			return nil
		},
	}, nil)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	<-entered
	stop()
	close(proceed)

	select {
	case err := <-ctxErr:
		if err != nil {
			t.Errorf("in-progress run context cancelled by stop: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("run did not finish")
	}
}

func TestStartValidation(t *testing.T) {
	if _, err := Start(context.Background(), Job{Name: "nil-run", Interval: time.Second}, nil); err == nil {
		t.Error("expected error for nil run func")
	}
	noop := func(context.Context) error { return nil }
	if _, err := Start(context.Background(), Job{Name: "zero", Run: noop}, nil); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestRegistryLifecycle(t *testing.T) {
	reg := NewRegistry(nil)
	var a, b atomic.Int32
	reg.Register(Job{Name: "a", Interval: time.Hour, Run: func(context.Context) error { a.Add(1); return nil }})
	reg.Register(Job{Name: "b", Interval: time.Hour, Run: func(context.Context) error { b.Add(1); return nil }})
	reg.Register(Job{Name: "broken", Interval: 0, Run: func(context.Context) error { return nil }})

	reg.StartAll(context.Background())
	if !waitFor(t, time.Second, func() bool { return a.Load() == 1 && b.Load() == 1 }) {
		t.Fatalf("expected both jobs to run once, got a=%d b=%d", a.Load(), b.Load())
	}
	running := reg.Running()
	if len(running) != 2 || running[0] != "a" || running[1] != "b" {
		t.Errorf("Running() = %v, want [a b]", running)
	}

	reg.StopAll()
	reg.StopAll()
	if got := reg.Running(); len(got) != 0 {
		t.Errorf("Running() after StopAll = %v, want empty", got)
	}
}
