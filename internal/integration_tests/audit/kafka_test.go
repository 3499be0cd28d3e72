//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"unicred/internal/audit"
	"unicred/pkg/testutil/containers"
)

func TestKafkaAuditSink(t *testing.T) {
	rp := containers.NewRedpandaContainer(t)
	ctx := context.Background()
	const topic = "unicred.issuance.audit.test"

	store, err := audit.NewKafka(ctx, []string{rp.Broker}, topic)
	require.NoError(t, err)
	defer store.Close()

	event := audit.Event{
		Action:         audit.ActionCredentialIssued,
		Timestamp:      time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		StudentID:      "01FE21BCS001",
		CredentialID:   "urn:uuid:cred-1",
		CredentialType: "markscard",
		BatchID:        "BATCH-it-1",
		Outcome:        "issued",
	}
	require.NoError(t, store.Append(ctx, event))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	fetches := consumer.PollFetches(fetchCtx)
	require.NoError(t, fetches.Err())

	records := fetches.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "BATCH-it-1", string(records[0].Key))

	var got audit.Event
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, audit.ActionCredentialIssued, got.Action)
	assert.Equal(t, "urn:uuid:cred-1", got.CredentialID)
	assert.Equal(t, "issued", got.Outcome)
}
