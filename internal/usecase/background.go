package usecase

import (
	"context"
	"sync"
	"time"

	"salonepay/pkg/logger"
)

// asyncRunner executes fire-and-forget work on its own goroutines, each with
// a bounded context and its own error boundary. The primary operation that
// submitted a task never observes its outcome; failures land in the log.
type asyncRunner struct {
	wg sync.WaitGroup
}

func (r *asyncRunner) Go(name string, timeout time.Duration, fn func(ctx context.Context) error) {
	r.wg.Add(1)

	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Background task %s panicked: %v", name, rec)
			}
		}()

		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		if err := fn(ctx); err != nil {
			logger.Warn("Background task %s failed: %v", name, err)
		}
	}()
}

// Wait blocks until all submitted tasks have finished. Used on shutdown so
// in-flight risk analyses and notifications get a chance to land.
func (r *asyncRunner) Wait() {
	r.wg.Wait()
}
