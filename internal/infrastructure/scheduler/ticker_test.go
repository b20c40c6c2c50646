package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunOnStartFiresImmediately(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	s := NewIntervalScheduler(time.Hour, true)

	fired := make(chan struct{}, 1)
	err := s.Start(context.Background(), func(time.Time) {
		calls.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("job did not fire on start")
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected exactly one immediate call, got %d", got)
	}
}

func TestTicksOnInterval(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{}, 8)
	s := NewIntervalScheduler(10*time.Millisecond, false)
	if err := s.Start(context.Background(), func(time.Time) {
		select {
		case fired <- struct{}{}:
		default:
		}
	}); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = s.Stop(context.Background()) }()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("job never ticked")
	}
}

func TestStopHaltsTicking(t *testing.T) {
	t.Parallel()

	var calls atomic.Int64
	s := NewIntervalScheduler(5*time.Millisecond, false)
	if err := s.Start(context.Background(), func(time.Time) { calls.Add(1) }); err != nil {
		t.Fatalf("start: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}

	// Allow an in-flight job call to drain before sampling.
	time.Sleep(20 * time.Millisecond)
	settled := calls.Load()
	time.Sleep(30 * time.Millisecond)
	if got := calls.Load(); got != settled {
		t.Fatalf("job still ticking after Stop: %d -> %d", settled, got)
	}

	// A second Stop is a no-op rather than a panic on a closed channel.
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("second stop: %v", err)
	}
}

func TestConcurrentStopIsSafe(t *testing.T) {
	t.Parallel()

	s := NewIntervalScheduler(time.Millisecond, false)
	if err := s.Start(context.Background(), func(time.Time) {}); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func() {
			_ = s.Stop(context.Background())
			done <- struct{}{}
		}()
	}
	for i := 0; i < 4; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("concurrent Stop deadlocked")
		}
	}
}
