package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"unicred/internal/audit"
	"unicred/internal/credential"
	"unicred/internal/directory"
	"unicred/internal/vc/builder"
	"unicred/internal/vc/metrics"
	"unicred/internal/vc/models"
	vcservice "unicred/internal/vc/service"
	dErrors "unicred/pkg/domain-errors"
	"unicred/pkg/platform/sentinel"
)

// Issuer is the slice of the credential engine the batch processor needs.
type Issuer interface {
	Issue(ctx context.Context, req vcservice.IssueRequest) (*credential.Record, error)
}

// ProgressReport summarizes one ProcessChunk call.
type ProgressReport struct {
	BatchID   string `json:"batchId"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Remaining int    `json:"remaining"`
	Status    Status `json:"status"`
}

// Service drives bulk issuance.
type Service struct {
	store     Store
	issuer    Issuer
	directory directory.Directory

	chunkSize   int
	maxParallel int

	audit   *audit.Publisher
	metrics *metrics.Metrics
	logger  *slog.Logger
	clock   func() time.Time

	// locks serializes chunk processing per batch so aggregate counters see
	// read-modify-write in isolation. Distinct batches proceed in parallel.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// Option configures the batch service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAudit enables audit event emission.
func WithAudit(publisher *audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source, mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs the batch service. chunkSize is the default chunk when a
// caller passes 0; maxParallel bounds concurrent issuance within a chunk.
func New(store Store, issuer Issuer, dir directory.Directory, chunkSize, maxParallel int, opts ...Option) *Service {
	if chunkSize <= 0 {
		chunkSize = 20
	}
	if maxParallel <= 0 {
		maxParallel = 1
	}
	s := &Service{
		store:       store,
		issuer:      issuer,
		directory:   dir,
		chunkSize:   chunkSize,
		maxParallel: maxParallel,
		logger:      slog.Default(),
		clock:       time.Now,
		locks:       make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateBatch resolves the matching student set and persists the job with
// one pending log entry per student.
func (s *Service) CreateBatch(ctx context.Context, credType models.CredentialType, filter directory.Filter, metadata builder.Metadata, notes string) (*Job, error) {
	if !credType.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unsupported credential type %q", credType)
	}

	students, err := s.directory.GetStudents(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "resolving students for batch")
	}
	if len(students) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no students match the filter criteria")
	}

	job := &Job{
		BatchID:    fmt.Sprintf("BATCH-%s", uuid.NewString()),
		Type:       credType,
		Filter:     filter,
		Metadata:   metadata,
		Notes:      notes,
		TotalCount: len(students),
		Status:     StatusPending,
		CreatedAt:  s.clock().UTC(),
	}
	entries := make([]LogEntry, 0, len(students))
	for _, student := range students {
		entries = append(entries, LogEntry{
			StudentID: student.StudentID,
			Status:    EntryPending,
		})
	}

	if err := s.store.CreateJob(ctx, job, entries); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "creating batch")
	}

	if s.metrics != nil {
		s.metrics.BatchesCreated.Inc()
	}
	if s.audit != nil {
		s.audit.Publish(ctx, audit.Event{
			Action:         audit.ActionBatchCreated,
			BatchID:        job.BatchID,
			CredentialType: string(credType),
			Outcome:        fmt.Sprintf("%d students matched", len(students)),
		})
	}
	s.logger.InfoContext(ctx, "batch created",
		"batch_id", job.BatchID, "type", credType, "total", len(students))
	return job, nil
}

// ProcessChunk drains up to chunkSize pending entries (0 means the service
// default). Each entry is attempted independently: a failure is recorded on
// that entry and never aborts the rest. Safe to call repeatedly until the
// batch drains; on an already-completed batch it is a no-op.
func (s *Service) ProcessChunk(ctx context.Context, batchID string, chunkSize int) (*ProgressReport, error) {
	if chunkSize <= 0 {
		chunkSize = s.chunkSize
	}

	lock := s.batchLock(batchID)
	lock.Lock()
	defer lock.Unlock()

	job, err := s.store.GetJob(ctx, batchID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "batch not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading batch")
	}

	entries, err := s.store.PendingEntries(ctx, batchID, chunkSize)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "selecting pending entries")
	}
	if len(entries) == 0 {
		// Drained already. A batch stuck in processing (e.g. a crash after
		// the last entry but before the final update) is flipped terminal.
		if job.Status == StatusProcessing {
			now := s.clock().UTC()
			job.Status = StatusCompleted
			job.CompletedAt = &now
			if err := s.store.UpdateJob(ctx, job); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "completing drained batch")
			}
		}
		return &ProgressReport{BatchID: batchID, Status: job.Status}, nil
	}

	if job.Status == StatusPending {
		job.Status = StatusProcessing
		if err := s.store.UpdateJob(ctx, job); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "marking batch processing")
		}
	}

	succeeded, failed := s.processEntries(ctx, job, entries)

	// Only outcomes that persisted count. An entry whose UpdateEntry failed
	// is still pending and will be selected again, so counting it here would
	// double-count on the retry.
	processed := succeeded + failed
	job.ProcessedCount += processed
	job.SuccessCount += succeeded
	job.FailedCount += failed

	remaining, err := s.store.CountPending(ctx, batchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "counting pending entries")
	}
	if remaining == 0 {
		now := s.clock().UTC()
		job.Status = StatusCompleted
		job.CompletedAt = &now
	}
	if err := s.store.UpdateJob(ctx, job); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "updating batch counters")
	}

	if s.metrics != nil && failed > 0 {
		s.metrics.BatchEntriesFailed.Add(float64(failed))
	}
	if s.audit != nil {
		action := audit.ActionBatchChunkDrained
		if job.Status == StatusCompleted {
			action = audit.ActionBatchCompleted
		}
		s.audit.Publish(ctx, audit.Event{
			Action:  action,
			BatchID: batchID,
			Outcome: fmt.Sprintf("processed=%d success=%d failed=%d remaining=%d", processed, succeeded, failed, remaining),
		})
	}
	s.logger.InfoContext(ctx, "batch chunk processed",
		"batch_id", batchID, "processed", processed,
		"succeeded", succeeded, "failed", failed, "remaining", remaining)

	return &ProgressReport{
		BatchID:   batchID,
		Processed: processed,
		Succeeded: succeeded,
		Failed:    failed,
		Remaining: remaining,
		Status:    job.Status,
	}, nil
}

// processEntries issues credentials for a chunk, bounded by maxParallel.
// Signing is CPU-bound and students are independent, so order within the
// chunk does not matter.
func (s *Service) processEntries(ctx context.Context, job *Job, entries []LogEntry) (succeeded, failed int) {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)

	for i := range entries {
		entry := entries[i]
		g.Go(func() error {
			rec, err := s.issuer.Issue(gctx, vcservice.IssueRequest{
				StudentID: entry.StudentID,
				Type:      job.Type,
				Metadata:  job.Metadata,
				BatchID:   job.BatchID,
			})

			now := s.clock().UTC()
			entry.ProcessedAt = &now
			if err != nil {
				entry.Status = EntryFailed
				entry.ErrorMessage = dErrors.MessageOf(err)
				s.logger.WarnContext(gctx, "batch entry failed",
					"batch_id", job.BatchID, "student_id", entry.StudentID, "error", err)
			} else {
				entry.Status = EntrySuccess
				entry.CredentialID = rec.CredentialID
			}

			if updateErr := s.store.UpdateEntry(gctx, &entry); updateErr != nil {
				s.logger.ErrorContext(gctx, "updating batch entry",
					"batch_id", job.BatchID, "entry_id", entry.ID, "error", updateErr)
				return nil
			}

			mu.Lock()
			if entry.Status == EntrySuccess {
				succeeded++
			} else {
				failed++
			}
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; failures are captured per entry.
	_ = g.Wait()
	return succeeded, failed
}

// GetBatch returns a job and its full entry log.
func (s *Service) GetBatch(ctx context.Context, batchID string) (*Job, []LogEntry, error) {
	job, err := s.store.GetJob(ctx, batchID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "batch not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading batch")
	}
	entries, err := s.store.Entries(ctx, batchID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading batch entries")
	}
	return job, entries, nil
}

// ListBatches returns all jobs, oldest first.
func (s *Service) ListBatches(ctx context.Context) ([]Job, error) {
	jobs, err := s.store.ListJobs(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing batches")
	}
	return jobs, nil
}

func (s *Service) batchLock(batchID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.locks[batchID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[batchID] = lock
	}
	return lock
}
