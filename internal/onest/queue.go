package onest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	dErrors "unicred/pkg/domain-errors"
)

// Task is one callback awaiting delivery.
type Task struct {
	TargetURL string
	Action    string
	Body      json.RawMessage
}

// Queue buffers callback tasks for a worker with its own retry policy,
// keeping delivery off the request path.
type Queue struct {
	tasks chan Task

	client     *Client
	maxRetries int
	backoff    time.Duration
	logger     *slog.Logger

	// sleep is swappable so tests run without real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// QueueOption configures a Queue.
type QueueOption func(*Queue)

// WithQueueLogger sets the worker logger.
func WithQueueLogger(logger *slog.Logger) QueueOption {
	return func(q *Queue) {
		if logger != nil {
			q.logger = logger
		}
	}
}

// WithRetryPolicy bounds delivery attempts per task.
func WithRetryPolicy(maxRetries int, backoff time.Duration) QueueOption {
	return func(q *Queue) {
		if maxRetries >= 0 {
			q.maxRetries = maxRetries
		}
		if backoff > 0 {
			q.backoff = backoff
		}
	}
}

// WithSleeper overrides the inter-retry wait, mainly for tests.
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) QueueOption {
	return func(q *Queue) {
		if sleep != nil {
			q.sleep = sleep
		}
	}
}

// NewQueue builds a callback queue with the given buffer size.
func NewQueue(client *Client, buffer int, opts ...QueueOption) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	q := &Queue{
		tasks:      make(chan Task, buffer),
		client:     client,
		maxRetries: 3,
		backoff:    2 * time.Second,
		logger:     slog.Default(),
		sleep:      sleepCtx,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Enqueue adds a task without blocking. A full queue is reported back to the
// caller instead of stalling the request.
func (q *Queue) Enqueue(task Task) error {
	select {
	case q.tasks <- task:
		return nil
	default:
		return dErrors.New(dErrors.CodeUnavailable, "callback queue is full")
	}
}

// Run consumes tasks until ctx is canceled. Each task gets up to
// 1+maxRetries attempts with a fixed backoff; exhausted tasks are logged and
// dropped.
func (q *Queue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case task := <-q.tasks:
			q.deliver(ctx, task)
		}
	}
}

func (q *Queue) deliver(ctx context.Context, task Task) {
	var err error
	for attempt := 0; attempt <= q.maxRetries; attempt++ {
		if attempt > 0 {
			if sleepErr := q.sleep(ctx, q.backoff); sleepErr != nil {
				return
			}
		}
		if err = q.client.Send(ctx, task.TargetURL, task.Body); err == nil {
			q.logger.InfoContext(ctx, "callback delivered",
				"action", task.Action, "target", task.TargetURL, "attempt", attempt+1)
			return
		}
		q.logger.WarnContext(ctx, "callback attempt failed",
			"action", task.Action, "target", task.TargetURL, "attempt", attempt+1, "error", err)
	}
	q.logger.ErrorContext(ctx, "callback abandoned after retries",
		"action", task.Action, "target", task.TargetURL, "attempts", q.maxRetries+1, "error", err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
