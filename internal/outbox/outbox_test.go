package outbox

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestRunsEnqueuedJob(t *testing.T) {
	o := New(8, 3, time.Millisecond)
	o.Start(context.Background())
	defer o.Stop()

	var ran atomic.Bool
	o.Enqueue(Job{Name: "test-job", Run: func(context.Context) error {
		ran.Store(true)
		return nil
	}})

	waitFor(t, time.Second, ran.Load)
}

func TestRetriesUntilSuccess(t *testing.T) {
	o := New(8, 3, time.Millisecond)
	o.Start(context.Background())
	defer o.Stop()

	var attempts atomic.Int32
	o.Enqueue(Job{Name: "flaky-job", Run: func(context.Context) error {
		if attempts.Add(1) < 3 {
			return errors.New("transient")
		}
		return nil
	}})

	waitFor(t, time.Second, func() bool { return attempts.Load() == 3 })
}

func TestGivesUpAfterMaxAttempts(t *testing.T) {
	o := New(8, 2, time.Millisecond)
	o.Start(context.Background())
	defer o.Stop()

	var attempts atomic.Int32
	var ran atomic.Bool
	o.Enqueue(Job{Name: "broken-job", Run: func(context.Context) error {
		attempts.Add(1)
		return errors.New("permanent")
	}})
	o.Enqueue(Job{Name: "next-job", Run: func(context.Context) error {
		ran.Store(true)
		return nil
	}})

	// The broken job must not starve later jobs.
	waitFor(t, time.Second, ran.Load)
	if got := attempts.Load(); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestStopRejectsNewJobs(t *testing.T) {
	o := New(8, 3, time.Millisecond)
	o.Start(context.Background())
	o.Stop()

	var ran atomic.Bool
	o.Enqueue(Job{Name: "late-job", Run: func(context.Context) error {
		ran.Store(true)
		return nil
	}})

	time.Sleep(50 * time.Millisecond)
	if ran.Load() {
		t.Fatal("job ran after Stop")
	}
}

func TestEnqueueDoesNotBlockWhenFull(t *testing.T) {
	o := New(1, 1, time.Millisecond)
	// Worker not started, so the buffer fills and extra jobs are dropped.
	o.Enqueue(Job{Name: "first", Run: func(context.Context) error { return nil }})

	done := make(chan struct{})
	go func() {
		o.Enqueue(Job{Name: "overflow", Run: func(context.Context) error { return nil }})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on full buffer")
	}
}
