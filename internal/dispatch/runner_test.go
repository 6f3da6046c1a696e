package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestGoRunsTask(t *testing.T) {
	r := NewRunner(4, nil)

	done := make(chan struct{})
	ok := r.Go("test", func(ctx context.Context) {
		close(done)
	})
	if !ok {
		t.Fatal("Go returned false on open runner")
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("task did not run")
	}
}

func TestConcurrencyBound(t *testing.T) {
	const limit = 2
	r := NewRunner(limit, nil)

	var running, peak atomic.Int64
	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		r.Go("bounded", func(ctx context.Context) {
			defer wg.Done()
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			running.Add(-1)
		})
	}
	wg.Wait()

	if got := peak.Load(); got > limit {
		t.Fatalf("peak concurrency %d exceeds limit %d", got, limit)
	}
}

func TestShutdownWaitsForTasks(t *testing.T) {
	r := NewRunner(4, nil)

	var finished atomic.Bool
	r.Go("slow", func(ctx context.Context) {
		time.Sleep(50 * time.Millisecond)
		finished.Store(true)
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !finished.Load() {
		t.Fatal("Shutdown returned before task completed")
	}
}

func TestGoAfterShutdownRejected(t *testing.T) {
	r := NewRunner(4, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if r.Go("late", func(ctx context.Context) {}) {
		t.Fatal("expected Go to reject tasks after Shutdown")
	}
}

func TestShutdownTimeout(t *testing.T) {
	r := NewRunner(1, nil)

	release := make(chan struct{})
	r.Go("stuck", func(ctx context.Context) {
		<-release
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := r.Shutdown(ctx); err == nil {
		t.Fatal("expected deadline error from Shutdown")
	}
	close(release)
}

func TestPanicDoesNotKillRunner(t *testing.T) {
	r := NewRunner(1, nil)

	r.Go("panics", func(ctx context.Context) {
		panic("boom")
	})

	done := make(chan struct{})
	r.Go("after", func(ctx context.Context) {
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runner stopped processing after panic")
	}
}
