package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisherStampsTimestamp(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	p := NewPublisher(4, WithClock(func() time.Time { return now }))

	p.Publish(context.Background(), Event{Action: ActionCredentialIssued})

	select {
	case e := <-p.Events():
		assert.Equal(t, now, e.Timestamp)
	default:
		t.Fatal("expected buffered event")
	}
}

func TestPublisherDropsWhenFull(t *testing.T) {
	p := NewPublisher(1)
	p.Publish(context.Background(), Event{Action: ActionBatchCreated})
	p.Publish(context.Background(), Event{Action: ActionBatchCompleted}) // dropped, must not block

	assert.Len(t, p.Events(), 1)
}

func TestWorkerDrainsIntoStore(t *testing.T) {
	p := NewPublisher(8)
	store := NewMemory()
	worker := NewWorker(store, p.Events(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	p.Publish(ctx, Event{Action: ActionCredentialIssued, CredentialID: "urn:uuid:1"})
	p.Publish(ctx, Event{Action: ActionBatchCompleted, BatchID: "b1"})

	require.Eventually(t, func() bool {
		return len(store.Events()) == 2
	}, time.Second, 10*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	events := store.Events()
	assert.Equal(t, ActionCredentialIssued, events[0].Action)
	assert.Equal(t, "b1", events[1].BatchID)
}
