// Package audit captures issuance, verification, and batch lifecycle events.
// Events are emitted from domain logic into an in-process inbox and drained
// by a worker into a store, keeping the request path free of sink latency.
package audit

import (
	"context"
	"log/slog"
	"time"
)

// Action identifies what happened.
type Action string

const (
	ActionCredentialIssued   Action = "credential_issued"
	ActionCredentialVerified Action = "credential_verified"
	ActionCredentialRevoked  Action = "credential_revoked"
	ActionBatchCreated       Action = "batch_created"
	ActionBatchChunkDrained  Action = "batch_chunk_processed"
	ActionBatchCompleted     Action = "batch_completed"
	ActionCallbackDispatched Action = "callback_dispatched"
)

// Event is one audit record. Keep it transport-agnostic so stores and sinks
// can fan out.
type Event struct {
	Action         Action    `json:"action"`
	Timestamp      time.Time `json:"timestamp"`
	StudentID      string    `json:"studentId,omitempty"`
	CredentialID   string    `json:"credentialId,omitempty"`
	CredentialType string    `json:"credentialType,omitempty"`
	BatchID        string    `json:"batchId,omitempty"`
	Outcome        string    `json:"outcome,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	RequestID      string    `json:"requestId,omitempty"`
}

// Store is an append-only audit sink.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Publisher buffers events for background delivery. Publish never blocks the
// caller: when the inbox is full the event is dropped with a warning, since
// audit must not stall issuance.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
	clock  func() time.Time
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithLogger sets the publisher logger.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock sets the timestamp source, mainly for tests.
func WithClock(clock func() time.Time) PublisherOption {
	return func(p *Publisher) {
		if clock != nil {
			p.clock = clock
		}
	}
}

// NewPublisher constructs a Publisher with the given inbox capacity.
func NewPublisher(buffer int, opts ...PublisherOption) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	p := &Publisher{
		inbox:  make(chan Event, buffer),
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish enqueues an event, stamping it if the caller left Timestamp zero.
func (p *Publisher) Publish(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = p.clock().UTC()
	}
	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event", "action", event.Action)
	}
}

// Events exposes the inbox for a Worker to drain.
func (p *Publisher) Events() <-chan Event {
	return p.inbox
}

// Worker drains an event channel into a store.
type Worker struct {
	store  Store
	inbox  <-chan Event
	logger *slog.Logger
}

// NewWorker constructs a Worker.
func NewWorker(store Store, inbox <-chan Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run consumes events until ctx is cancelled. A failing append is logged and
// skipped rather than stopping the drain; losing one record beats losing the
// trail.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "appending audit event", "action", event.Action, "error", err)
			}
		}
	}
}
