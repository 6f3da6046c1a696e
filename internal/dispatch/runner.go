// Package dispatch runs webhook-triggered session work in the background,
// detached from the HTTP request that delivered the event.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Runner executes tasks on detached goroutines with a weighted semaphore
// bounding concurrency. The webhook handler returns 200 immediately; the
// session loop runs here.
type Runner struct {
	sem *semaphore.Weighted
	wg  sync.WaitGroup
	log *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewRunner creates a Runner allowing at most limit concurrent tasks.
func NewRunner(limit int64, log *slog.Logger) *Runner {
	if limit < 1 {
		limit = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Runner{
		sem: semaphore.NewWeighted(limit),
		log: log,
	}
}

// Go schedules fn on its own goroutine. The task context is detached from
// the caller's so the HTTP request finishing does not cancel the session.
// Returns false when the runner is shutting down.
func (r *Runner) Go(name string, fn func(ctx context.Context)) bool {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return false
	}
	r.wg.Add(1)
	r.mu.Unlock()

	taskID := uuid.NewString()
	go func() {
		defer r.wg.Done()

		ctx := context.Background()
		if err := r.sem.Acquire(ctx, 1); err != nil {
			r.log.Error("dispatch acquire failed", "task", name, "task_id", taskID, "error", err)
			return
		}
		defer r.sem.Release(1)

		start := time.Now()
		r.log.Info("dispatch task started", "task", name, "task_id", taskID)

		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error("dispatch task panicked", "task", name, "task_id", taskID, "panic", rec)
				return
			}
			r.log.Info("dispatch task finished", "task", name, "task_id", taskID, "duration", time.Since(start))
		}()

		fn(ctx)
	}()
	return true
}

// Shutdown stops accepting new tasks and waits for running ones to finish,
// up to the context deadline.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
