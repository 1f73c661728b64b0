package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	// ErrQueueFull is returned when the lookahead window is used up.
	ErrQueueFull = errors.New("queue is full")

	// ErrQueueClosed is returned when operations are attempted on a closed queue.
	ErrQueueClosed = errors.New("queue is closed")

	// ErrQueueEmpty is returned by Next when nothing is pending.
	ErrQueueEmpty = errors.New("queue is empty")
)

// Task produces one result.
type Task[T any] func(ctx context.Context) (T, error)

type result[T any] struct {
	value T
	err   error
}

// Lookahead runs up to its capacity of tasks concurrently. A slot is held
// from Enqueue until the result is taken by Next, so the window bounds both
// concurrency and buffered results.
type Lookahead[T any] struct {
	sem      *semaphore.Weighted
	capacity int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending []chan result[T]
	closed  bool
	stats   Stats
}

// Stats tracks queue activity.
type Stats struct {
	TotalEnqueued int64
	TotalDequeued int64
	TotalFailed   int64
	CurrentSize   int
	PeakSize      int
	LastEnqueue   time.Time
	LastDequeue   time.Time
}

// NewLookahead creates a queue running at most capacity tasks ahead.
// Tasks see a context derived from ctx that is canceled by Close.
func NewLookahead[T any](ctx context.Context, capacity int) *Lookahead[T] {
	if capacity < 1 {
		capacity = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Lookahead[T]{
		sem:      semaphore.NewWeighted(int64(capacity)),
		capacity: capacity,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Capacity returns the size of the lookahead window.
func (q *Lookahead[T]) Capacity() int {
	return q.capacity
}

// Enqueue starts task in the background. It never blocks; when the window
// is full it returns ErrQueueFull.
func (q *Lookahead[T]) Enqueue(task Task[T]) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}
	if !q.sem.TryAcquire(1) {
		return ErrQueueFull
	}

	ch := make(chan result[T], 1)
	q.pending = append(q.pending, ch)

	q.stats.TotalEnqueued++
	q.stats.LastEnqueue = time.Now()
	q.stats.CurrentSize = len(q.pending)
	if q.stats.CurrentSize > q.stats.PeakSize {
		q.stats.PeakSize = q.stats.CurrentSize
	}

	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		v, err := task(q.ctx)
		ch <- result[T]{value: v, err: err}
	}()
	return nil
}

// Next waits for the oldest pending task and returns its result.
func (q *Lookahead[T]) Next(ctx context.Context) (T, error) {
	var zero T

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return zero, ErrQueueClosed
	}
	if len(q.pending) == 0 {
		q.mu.Unlock()
		return zero, ErrQueueEmpty
	}
	ch := q.pending[0]
	q.mu.Unlock()

	var res result[T]
	select {
	case res = <-ch:
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	q.mu.Lock()
	q.pending = q.pending[1:]
	q.stats.TotalDequeued++
	if res.err != nil {
		q.stats.TotalFailed++
	}
	q.stats.LastDequeue = time.Now()
	q.stats.CurrentSize = len(q.pending)
	q.mu.Unlock()

	q.sem.Release(1)
	return res.value, res.err
}

// Pending returns the number of tasks not yet taken by Next.
func (q *Lookahead[T]) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Full reports whether Enqueue would return ErrQueueFull.
func (q *Lookahead[T]) Full() bool {
	return q.Pending() >= q.capacity
}

// GetStats returns current queue statistics.
func (q *Lookahead[T]) GetStats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.stats
}

// Close cancels running tasks and waits for them to return.
func (q *Lookahead[T]) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	q.pending = nil
	q.mu.Unlock()

	q.cancel()
	q.wg.Wait()
	return nil
}
