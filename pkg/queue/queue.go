// Package queue runs notification jobs off the request path.
package queue

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"lead-intake/pkg/models"
)

var (
	ErrQueueFull   = errors.New("notification queue is full")
	ErrClosed      = errors.New("notification queue is closed")
	ErrUnavailable = errors.New("notification queue is unavailable")
)

// Job is one pending notification
type Job struct {
	ID         string      `json:"id"`
	Lead       models.Lead `json:"lead"`
	EnqueuedAt time.Time   `json:"enqueued_at"`
}

// NewJob wraps a lead with a fresh job ID
func NewJob(lead models.Lead) Job {
	return Job{
		ID:         uuid.NewString(),
		Lead:       lead,
		EnqueuedAt: time.Now().UTC(),
	}
}

// Handler executes a job. Queues do not retry, so handlers own their errors.
type Handler func(ctx context.Context, job Job)

// Queue accepts jobs without blocking the caller and runs them on background workers
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Start(ctx context.Context, handler Handler) error
	Healthy() bool
	Close() error
}

// run invokes handler, converting a panic into a log line so one bad job
// cannot take a worker down.
func run(ctx context.Context, handler Handler, job Job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[queue] job %s panicked: %v", job.ID, r)
		}
	}()
	handler(ctx, job)
}
