package batch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"unicred/internal/vc/models"
	"unicred/pkg/platform/sentinel"
)

// PostgresStore persists batch jobs and issue logs in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed batch store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateJob inserts the job and its pending entries in one transaction.
// Entry rows get their ids from the sequence, preserving creation order for
// deterministic chunk selection.
func (s *PostgresStore) CreateJob(ctx context.Context, job *Job, entries []LogEntry) error {
	filterJSON, err := json.Marshal(job.Filter)
	if err != nil {
		return fmt.Errorf("marshal filter criteria: %w", err)
	}
	metadataJSON, err := json.Marshal(job.Metadata)
	if err != nil {
		return fmt.Errorf("marshal batch metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create batch tx: %w", err)
	}
	defer tx.Rollback()

	jobQuery := `
		INSERT INTO credential_batches (
			batch_id, credential_type, filter_criteria, credential_metadata,
			issuer_name, additional_notes, total_count, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.ExecContext(ctx, jobQuery,
		job.BatchID, string(job.Type), filterJSON, metadataJSON,
		job.IssuerName, job.Notes, job.TotalCount, string(job.Status), job.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}

	if len(entries) > 0 {
		studentIDs := make([]string, len(entries))
		for i, e := range entries {
			studentIDs[i] = e.StudentID
		}
		entriesQuery := `
			INSERT INTO credential_issue_logs (batch_id, student_id, status)
			SELECT $1, unnest($2::text[]), 'pending'
		`
		if _, err := tx.ExecContext(ctx, entriesQuery, job.BatchID, pq.Array(studentIDs)); err != nil {
			return fmt.Errorf("insert issue logs: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create batch: %w", err)
	}
	return nil
}

const jobColumns = `
	batch_id, credential_type, filter_criteria, credential_metadata,
	issuer_name, additional_notes, total_count, processed_count,
	success_count, failed_count, status, created_at, completed_at
`

func scanJob(row interface{ Scan(...any) error }) (*Job, error) {
	var job Job
	var credType, status string
	var filterJSON, metadataJSON []byte
	err := row.Scan(
		&job.BatchID, &credType, &filterJSON, &metadataJSON,
		&job.IssuerName, &job.Notes, &job.TotalCount, &job.ProcessedCount,
		&job.SuccessCount, &job.FailedCount, &status, &job.CreatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	job.Type = models.CredentialType(credType)
	job.Status = Status(status)
	if len(filterJSON) > 0 {
		if err := json.Unmarshal(filterJSON, &job.Filter); err != nil {
			return nil, fmt.Errorf("unmarshal filter criteria: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &job.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal batch metadata: %w", err)
		}
	}
	return &job, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, batchID string) (*Job, error) {
	query := `SELECT` + jobColumns + `FROM credential_batches WHERE batch_id = $1`
	job, err := scanJob(s.db.QueryRowContext(ctx, query, batchID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}
	return job, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context) ([]Job, error) {
	query := `SELECT` + jobColumns + `FROM credential_batches ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var out []Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch row: %w", err)
		}
		out = append(out, *job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateJob(ctx context.Context, job *Job) error {
	query := `
		UPDATE credential_batches
		SET processed_count = $2, success_count = $3, failed_count = $4,
		    status = $5, completed_at = $6
		WHERE batch_id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		job.BatchID, job.ProcessedCount, job.SuccessCount, job.FailedCount,
		string(job.Status), job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update batch rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) PendingEntries(ctx context.Context, batchID string, limit int) ([]LogEntry, error) {
	query := `
		SELECT id, batch_id, student_id, status, COALESCE(credential_id, ''),
		       COALESCE(error_message, ''), processed_at
		FROM credential_issue_logs
		WHERE batch_id = $1 AND status = 'pending'
		ORDER BY id
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, batchID, limit)
	if err != nil {
		return nil, fmt.Errorf("select pending entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (s *PostgresStore) CountPending(ctx context.Context, batchID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credential_issue_logs WHERE batch_id = $1 AND status = 'pending'`,
		batchID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count pending entries: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) UpdateEntry(ctx context.Context, entry *LogEntry) error {
	query := `
		UPDATE credential_issue_logs
		SET status = $2, credential_id = NULLIF($3, ''), error_message = NULLIF($4, ''), processed_at = $5
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		entry.ID, string(entry.Status), entry.CredentialID, entry.ErrorMessage, entry.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("update issue log: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update issue log rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Entries(ctx context.Context, batchID string) ([]LogEntry, error) {
	query := `
		SELECT id, batch_id, student_id, status, COALESCE(credential_id, ''),
		       COALESCE(error_message, ''), processed_at
		FROM credential_issue_logs
		WHERE batch_id = $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("select issue logs: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]LogEntry, error) {
	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		var status string
		if err := rows.Scan(&e.ID, &e.BatchID, &e.StudentID, &status, &e.CredentialID, &e.ErrorMessage, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan issue log row: %w", err)
		}
		e.Status = EntryStatus(status)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issue log rows: %w", err)
	}
	return out, nil
}

var _ Store = (*PostgresStore)(nil)
