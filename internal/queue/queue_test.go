package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestLookahead_Order(t *testing.T) {
	q := NewLookahead[int](context.Background(), 3)
	defer q.Close()

	// later tasks finish first
	delays := []time.Duration{30 * time.Millisecond, 10 * time.Millisecond, 0}
	for i, d := range delays {
		i, d := i, d
		if err := q.Enqueue(func(ctx context.Context) (int, error) {
			time.Sleep(d)
			return i, nil
		}); err != nil {
			t.Fatalf("Enqueue(%d) error = %v", i, err)
		}
	}

	for want := range delays {
		got, err := q.Next(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("Next() = %d, want %d", got, want)
		}
	}

	if _, err := q.Next(context.Background()); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("expected ErrQueueEmpty, got %v", err)
	}

	stats := q.GetStats()
	if stats.TotalEnqueued != 3 || stats.TotalDequeued != 3 || stats.PeakSize != 3 || stats.CurrentSize != 0 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestLookahead_Bounded(t *testing.T) {
	q := NewLookahead[int](context.Background(), 2)
	defer q.Close()

	var running, peak atomic.Int32
	release := make(chan struct{})
	task := func(ctx context.Context) (int, error) {
		n := running.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		<-release
		running.Add(-1)
		return 0, nil
	}

	for i := 0; i < 2; i++ {
		if err := q.Enqueue(task); err != nil {
			t.Fatal(err)
		}
	}
	if !q.Full() {
		t.Error("queue should be full")
	}
	if err := q.Enqueue(task); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("third Enqueue() error = %v, want ErrQueueFull", err)
	}

	close(release)
	if _, err := q.Next(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(task); err != nil {
		t.Fatalf("Enqueue after Next error = %v", err)
	}
	for q.Pending() > 0 {
		if _, err := q.Next(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if peak.Load() > 2 {
		t.Errorf("%d tasks ran at once, want at most 2", peak.Load())
	}
}

func TestLookahead_Errors(t *testing.T) {
	q := NewLookahead[string](context.Background(), 1)
	defer q.Close()

	boom := errors.New("boom")
	if err := q.Enqueue(func(ctx context.Context) (string, error) { return "", boom }); err != nil {
		t.Fatal(err)
	}
	if _, err := q.Next(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Next() error = %v, want boom", err)
	}
	if q.GetStats().TotalFailed != 1 {
		t.Errorf("TotalFailed = %d, want 1", q.GetStats().TotalFailed)
	}
}

func TestLookahead_NextCanceled(t *testing.T) {
	q := NewLookahead[int](context.Background(), 1)
	defer q.Close()

	if err := q.Enqueue(func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	}); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := q.Next(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Next() error = %v, want deadline exceeded", err)
	}
}

func TestLookahead_Close(t *testing.T) {
	q := NewLookahead[int](context.Background(), 1)

	var canceled atomic.Bool
	if err := q.Enqueue(func(ctx context.Context) (int, error) {
		<-ctx.Done()
		canceled.Store(true)
		return 0, ctx.Err()
	}); err != nil {
		t.Fatal(err)
	}

	if err := q.Close(); err != nil {
		t.Fatal(err)
	}
	if !canceled.Load() {
		t.Error("Close should cancel and wait for running tasks")
	}
	if err := q.Enqueue(func(ctx context.Context) (int, error) { return 0, nil }); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Enqueue after Close error = %v", err)
	}
	if _, err := q.Next(context.Background()); !errors.Is(err, ErrQueueClosed) {
		t.Errorf("Next after Close error = %v", err)
	}
	if err := q.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
}
