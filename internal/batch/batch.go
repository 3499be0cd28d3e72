// Package batch runs bulk credential issuance: a job is created with one
// pending log entry per matched student and drained chunk by chunk until no
// pending entries remain. Individual failures never abort a chunk; the batch
// always reaches completed once every entry has been attempted.
package batch

import (
	"context"
	"time"

	"unicred/internal/directory"
	"unicred/internal/vc/builder"
	"unicred/internal/vc/models"
)

// Status is the batch lifecycle state. There is no terminal failed state:
// item failures are recorded per entry.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
)

// EntryStatus is the state of one per-student log entry.
type EntryStatus string

const (
	EntryPending EntryStatus = "pending"
	EntrySuccess EntryStatus = "success"
	EntryFailed  EntryStatus = "failed"
)

// Job is one bulk issuance batch.
type Job struct {
	BatchID    string                `json:"batchId"`
	Type       models.CredentialType `json:"credentialType"`
	Filter     directory.Filter      `json:"filterCriteria"`
	Metadata   builder.Metadata      `json:"-"`
	IssuerName string                `json:"issuerName,omitempty"`
	Notes      string                `json:"notes,omitempty"`

	TotalCount     int    `json:"totalCount"`
	ProcessedCount int    `json:"processedCount"`
	SuccessCount   int    `json:"successCount"`
	FailedCount    int    `json:"failedCount"`
	Status         Status `json:"status"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// LogEntry is one student's slot in a batch. Entries are created pending and
// flip to success (with the credential id) or failed (with the captured
// error) exactly once.
type LogEntry struct {
	ID           int64       `json:"id"`
	BatchID      string      `json:"batchId"`
	StudentID    string      `json:"studentId"`
	Status       EntryStatus `json:"status"`
	CredentialID string      `json:"credentialId,omitempty"`
	ErrorMessage string      `json:"errorMessage,omitempty"`
	ProcessedAt  *time.Time  `json:"processedAt,omitempty"`
}

// Store persists jobs and their log entries.
//
// GetJob returns sentinel.ErrNotFound for unknown batch ids. PendingEntries
// returns up to limit pending entries in stable creation order, so repeated
// chunk calls walk the batch deterministically.
type Store interface {
	CreateJob(ctx context.Context, job *Job, entries []LogEntry) error
	GetJob(ctx context.Context, batchID string) (*Job, error)
	ListJobs(ctx context.Context) ([]Job, error)
	UpdateJob(ctx context.Context, job *Job) error

	PendingEntries(ctx context.Context, batchID string, limit int) ([]LogEntry, error)
	CountPending(ctx context.Context, batchID string) (int, error)
	UpdateEntry(ctx context.Context, entry *LogEntry) error
	Entries(ctx context.Context, batchID string) ([]LogEntry, error)
}
