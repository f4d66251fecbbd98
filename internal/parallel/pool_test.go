package parallel

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewWorkerPool(t *testing.T) {
	t.Run("creates pool with max workers", func(t *testing.T) {
		pool := NewWorkerPool(4, false)
		if pool.Workers() != 4 {
			t.Errorf("expected 4 workers, got %d", pool.Workers())
		}
	})

	t.Run("zero means one per CPU", func(t *testing.T) {
		if NewWorkerPool(0, false).Workers() < 1 {
			t.Error("expected at least one worker")
		}
	})
}

func TestRunKeepsInputOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}
	pool := NewWorkerPool(3, false)

	results, err := Run(context.Background(), pool, items, func(_ context.Context, n int) (int, error) {
		// Later items finish first.
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i, r := range results {
		if r.Index != i {
			t.Errorf("result %d has index %d", i, r.Index)
		}
		if r.Value != items[i]*10 {
			t.Errorf("result %d: got %d, want %d", i, r.Value, items[i]*10)
		}
		if r.Skipped {
			t.Errorf("result %d marked skipped", i)
		}
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	var running, peak atomic.Int32
	items := make([]int, 20)
	pool := NewWorkerPool(2, false)

	_, err := Run(context.Background(), pool, items, func(context.Context, int) (struct{}, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		running.Add(-1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent workers, saw %d", peak.Load())
	}
}

func TestRunCollectsErrors(t *testing.T) {
	boom := errors.New("boom")
	pool := NewWorkerPool(2, false)

	results, err := Run(context.Background(), pool, []string{"a", "bad", "c"}, func(_ context.Context, s string) (string, error) {
		if s == "bad" {
			return "", boom
		}
		return s, nil
	})
	if err != nil {
		t.Fatalf("without fail-fast Run should not fail: %v", err)
	}
	if !errors.Is(results[1].Err, boom) {
		t.Errorf("expected boom for item 1, got %v", results[1].Err)
	}
	if results[0].Value != "a" || results[2].Value != "c" {
		t.Errorf("other items should succeed: %+v", results)
	}
}

func TestRunFailFast(t *testing.T) {
	boom := errors.New("boom")
	var ran atomic.Int32
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}
	pool := NewWorkerPool(1, true)

	results, err := Run(context.Background(), pool, items, func(_ context.Context, n int) (int, error) {
		ran.Add(1)
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if ran.Load() >= int32(len(items)) {
		t.Errorf("fail-fast should skip remaining items, ran %d", ran.Load())
	}
	if !results[len(results)-1].Skipped {
		t.Error("last item should be skipped")
	}
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := Run(ctx, NewWorkerPool(2, false), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for _, r := range results {
		if !r.Skipped {
			t.Errorf("item %d should be skipped", r.Index)
		}
	}
}
