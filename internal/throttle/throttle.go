package throttle

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
)

const (
	// Sustained page throughput across all sessions
	DefaultPagesPerSecond = 500
	// Burst allows a large document through without waiting on the sustained rate
	DefaultBurstPages = 2000

	// Concurrent pipeline executions
	DefaultMaxWorkers = 4
)

// ErrWaitCancelled is returned when the caller's context ends before the gate admits it
var ErrWaitCancelled = errors.New("pipeline gate wait cancelled")

// Gate bounds how many pipelines run at once and how many pages per second they process.
// One Gate is shared by every session of a process.
type Gate struct {
	limiter   *rate.Limiter
	semaphore chan struct{}
	burst     int
}

// NewGate creates a gate. Non-positive arguments fall back to the defaults.
func NewGate(pagesPerSecond float64, burst, maxWorkers int) *Gate {
	if pagesPerSecond <= 0 {
		pagesPerSecond = DefaultPagesPerSecond
	}
	if burst <= 0 {
		burst = DefaultBurstPages
	}
	if maxWorkers <= 0 {
		maxWorkers = DefaultMaxWorkers
	}
	return &Gate{
		limiter:   rate.NewLimiter(rate.Limit(pagesPerSecond), burst),
		semaphore: make(chan struct{}, maxWorkers),
		burst:     burst,
	}
}

// NewDefaultGate creates a gate with the default limits
func NewDefaultGate() *Gate {
	return NewGate(DefaultPagesPerSecond, DefaultBurstPages, DefaultMaxWorkers)
}

// Acquire acquires a worker slot, blocking if all workers are busy
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %w", ErrWaitCancelled, ctx.Err())
	}
}

// Release releases a worker slot
func (g *Gate) Release() {
	<-g.semaphore
}

// weight clamps a page count to what the token bucket can ever grant
func (g *Gate) weight(pages int) int {
	if pages < 1 {
		return 1
	}
	if pages > g.burst {
		return g.burst
	}
	return pages
}

// Run executes fn once a worker slot is free and the page budget allows it.
// pages is the estimated page count the call will touch. There are no retries;
// fn's error is returned unchanged.
func Run[T any](ctx context.Context, g *Gate, pages int, log logger.Logger, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := g.Acquire(ctx); err != nil {
		return zero, err
	}
	defer g.Release()

	weight := g.weight(pages)
	if err := g.limiter.WaitN(ctx, weight); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, fmt.Errorf("%w: %w", ErrWaitCancelled, ctxErr)
		}
		// WaitN also fails when the deadline is too close to cover the wait
		return zero, fmt.Errorf("%w: %v", ErrWaitCancelled, err)
	}
	log.Debug("Pipeline admitted with weight %d", weight)

	return fn(ctx)
}
