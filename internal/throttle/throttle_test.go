package throttle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Epistemic-Technology/pdf-toolkit/internal/logger"
)

func TestRun_Success(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()
	gate := NewDefaultGate()

	result, err := Run(ctx, gate, 10, log, func(ctx context.Context) (string, error) {
		return "success", nil
	})

	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if result != "success" {
		t.Errorf("Expected 'success', got: %s", result)
	}
}

func TestRun_ErrorNotRetried(t *testing.T) {
	ctx := context.Background()
	log := logger.NewNoOpLogger()
	gate := NewDefaultGate()

	testErr := errors.New("pipeline failed")
	calls := 0
	_, err := Run(ctx, gate, 1, log, func(ctx context.Context) (int, error) {
		calls++
		return 0, testErr
	})

	if err != testErr {
		t.Errorf("Expected original error, got: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call, got: %d", calls)
	}
}

func TestRun_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	log := logger.NewNoOpLogger()
	gate := NewDefaultGate()

	// Cancel context immediately
	cancel()

	_, err := Run(ctx, gate, 1, log, func(ctx context.Context) (string, error) {
		t.Error("Function should not be called with cancelled context")
		return "", nil
	})

	if !errors.Is(err, ErrWaitCancelled) {
		t.Errorf("Expected ErrWaitCancelled, got: %v", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got: %v", err)
	}
}

func TestRun_WeightAboveBurst(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	log := logger.NewNoOpLogger()
	gate := NewGate(1000, 10, 1)

	// A page count larger than the burst must not fail outright
	_, err := Run(ctx, gate, 500, log, func(ctx context.Context) (bool, error) {
		return true, nil
	})
	if err != nil {
		t.Fatalf("Expected no error for oversized weight, got: %v", err)
	}
}

func TestRun_PageBudgetWait(t *testing.T) {
	log := logger.NewNoOpLogger()
	gate := NewGate(1, 5, 2)

	// The first call drains the bucket, the second cannot be admitted before the deadline
	if _, err := Run(context.Background(), gate, 5, log, func(ctx context.Context) (int, error) {
		return 0, nil
	}); err != nil {
		t.Fatalf("First call failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := Run(ctx, gate, 5, log, func(ctx context.Context) (int, error) {
		t.Error("Function should not run without page budget")
		return 0, nil
	})
	if !errors.Is(err, ErrWaitCancelled) {
		t.Errorf("Expected ErrWaitCancelled, got: %v", err)
	}
}

func TestGate_Acquire(t *testing.T) {
	ctx := context.Background()
	gate := NewGate(0, 0, 2)

	if err := gate.Acquire(ctx); err != nil {
		t.Fatalf("Failed to acquire first worker: %v", err)
	}
	if err := gate.Acquire(ctx); err != nil {
		t.Fatalf("Failed to acquire second worker: %v", err)
	}

	// Third acquire blocks until the timeout
	ctx2, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()

	err := gate.Acquire(ctx2)
	if !errors.Is(err, ErrWaitCancelled) {
		t.Errorf("Expected ErrWaitCancelled when pool is full, got: %v", err)
	}

	gate.Release()
	if err := gate.Acquire(ctx); err != nil {
		t.Fatalf("Failed to acquire worker after release: %v", err)
	}
}

func TestRun_BoundsConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping concurrency test in short mode")
	}

	ctx := context.Background()
	log := logger.NewNoOpLogger()
	gate := NewGate(10000, 10000, 2)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = Run(ctx, gate, 1, log, func(ctx context.Context) (struct{}, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				running.Add(-1)
				return struct{}{}, nil
			})
		}()
	}
	wg.Wait()

	if got := peak.Load(); got > 2 {
		t.Errorf("Expected at most 2 concurrent runs, got %d", got)
	}
}
