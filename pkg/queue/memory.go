package queue

import (
	"context"
	"sync"
)

type memoryQueue struct {
	jobs    chan Job
	workers int

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewMemoryQueue creates an in-process queue holding at most size pending jobs
func NewMemoryQueue(size, workers int) Queue {
	if size < 1 {
		size = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &memoryQueue{
		jobs:    make(chan Job, size),
		workers: workers,
	}
}

func (q *memoryQueue) Enqueue(_ context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Start launches the workers. They run until Close drains the channel.
func (q *memoryQueue) Start(ctx context.Context, handler Handler) error {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go func() {
			defer q.wg.Done()
			for job := range q.jobs {
				run(ctx, handler, job)
			}
		}()
	}
	return nil
}

// Healthy reports whether the queue still accepts jobs
func (q *memoryQueue) Healthy() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return !q.closed
}

// Close stops accepting jobs and waits for the workers to finish what is buffered
func (q *memoryQueue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}
