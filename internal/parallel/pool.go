package parallel

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// TaskResult is the outcome of one item.
type TaskResult[R any] struct {
	// Index is the position of the item in the input.
	Index    int
	Value    R
	Err      error
	Duration time.Duration
	// Skipped is set when the item never ran because the pool was cancelled.
	Skipped bool
}

// WorkerPool bounds how many items run at once.
type WorkerPool struct {
	maxWorkers int
	failFast   bool
}

// NewWorkerPool creates a pool. A maxWorkers of 0 means one worker per CPU.
// With failFast the first error cancels the items that have not started.
func NewWorkerPool(maxWorkers int, failFast bool) *WorkerPool {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}
	return &WorkerPool{maxWorkers: maxWorkers, failFast: failFast}
}

// Workers returns the concurrency limit.
func (p *WorkerPool) Workers() int {
	return p.maxWorkers
}

// Run calls fn for every item and returns one result per item, in input
// order. The returned error is the first failure when the pool is fail-fast,
// or the context error when ctx was cancelled; otherwise failures are only
// recorded in the results.
func Run[T, R any](ctx context.Context, p *WorkerPool, items []T, fn func(context.Context, T) (R, error)) ([]TaskResult[R], error) {
	results := make([]TaskResult[R], len(items))
	for i := range results {
		results[i] = TaskResult[R]{Index: i, Skipped: true}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxWorkers)

	for i, item := range items {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			start := time.Now()
			v, err := fn(gctx, item)
			results[i] = TaskResult[R]{Index: i, Value: v, Err: err, Duration: time.Since(start)}
			if err != nil && p.failFast {
				return fmt.Errorf("item %d: %w", i, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}
