package credential

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"unicred/internal/vc/models"
	"unicred/pkg/platform/sentinel"
)

// PostgresStore persists credentials in PostgreSQL.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock func() time.Time) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewPostgres constructs a PostgreSQL-backed credential store.
func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *PostgresStore) Save(ctx context.Context, rec *Record) error {
	query := `
		INSERT INTO credentials (
			credential_id, batch_id, student_id, credential_type, document,
			issuer_did, issuer_name, proof_value, issued_at
		)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (credential_id) DO UPDATE SET
			document = EXCLUDED.document,
			proof_value = EXCLUDED.proof_value,
			issued_at = EXCLUDED.issued_at
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.CredentialID, rec.BatchID, rec.StudentID, string(rec.Type), []byte(rec.Document),
		rec.IssuerDID, rec.IssuerName, rec.ProofValue, rec.IssuedAt,
	)
	if err != nil {
		return fmt.Errorf("save credential: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, credentialID string) (*Record, error) {
	query := `
		SELECT credential_id, COALESCE(batch_id, ''), student_id, credential_type, document,
		       issuer_did, issuer_name, proof_value, issued_at,
		       is_revoked, revoked_at, revocation_reason,
		       verification_count, last_verified_at
		FROM credentials
		WHERE credential_id = $1
	`
	var rec Record
	var credType string
	var doc []byte
	err := s.db.QueryRowContext(ctx, query, credentialID).Scan(
		&rec.CredentialID, &rec.BatchID, &rec.StudentID, &credType, &doc,
		&rec.IssuerDID, &rec.IssuerName, &rec.ProofValue, &rec.IssuedAt,
		&rec.Revoked, &rec.RevokedAt, &rec.RevocationReason,
		&rec.VerificationCount, &rec.LastVerifiedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	rec.Type = models.CredentialType(credType)
	rec.Document = doc
	return &rec, nil
}

func (s *PostgresStore) ListByStudent(ctx context.Context, studentID string) ([]Record, error) {
	query := `
		SELECT credential_id, COALESCE(batch_id, ''), student_id, credential_type, document,
		       issuer_did, issuer_name, proof_value, issued_at,
		       is_revoked, revoked_at, revocation_reason,
		       verification_count, last_verified_at
		FROM credentials
		WHERE student_id = $1
		ORDER BY issued_at
	`
	rows, err := s.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list credentials by student: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var credType string
		var doc []byte
		if err := rows.Scan(
			&rec.CredentialID, &rec.BatchID, &rec.StudentID, &credType, &doc,
			&rec.IssuerDID, &rec.IssuerName, &rec.ProofValue, &rec.IssuedAt,
			&rec.Revoked, &rec.RevokedAt, &rec.RevocationReason,
			&rec.VerificationCount, &rec.LastVerifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scan credential row: %w", err)
		}
		rec.Type = models.CredentialType(credType)
		rec.Document = doc
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Search(ctx context.Context, filter SearchFilter) ([]Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT credential_id, COALESCE(batch_id, ''), student_id, credential_type, document,
		       issuer_did, issuer_name, proof_value, issued_at,
		       is_revoked, revoked_at, revocation_reason,
		       verification_count, last_verified_at
		FROM credentials
		WHERE is_revoked = FALSE
		  AND ($1 = '' OR student_id = $1)
		  AND ($2 = '' OR credential_type = $2)
		  AND ($3 = '' OR issuer_did = $3)
		ORDER BY issued_at
		LIMIT $4
	`
	rows, err := s.db.QueryContext(ctx, query,
		filter.StudentID, string(filter.Type), filter.IssuerDID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search credentials: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var credType string
		var doc []byte
		if err := rows.Scan(
			&rec.CredentialID, &rec.BatchID, &rec.StudentID, &credType, &doc,
			&rec.IssuerDID, &rec.IssuerName, &rec.ProofValue, &rec.IssuedAt,
			&rec.Revoked, &rec.RevokedAt, &rec.RevocationReason,
			&rec.VerificationCount, &rec.LastVerifiedAt,
		); err != nil {
			return nil, fmt.Errorf("scan credential row: %w", err)
		}
		rec.Type = models.CredentialType(credType)
		rec.Document = doc
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential rows: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Revoke(ctx context.Context, credentialID, reason string) error {
	query := `
		UPDATE credentials
		SET is_revoked = TRUE, revoked_at = $2, revocation_reason = $3
		WHERE credential_id = $1
	`
	res, err := s.db.ExecContext(ctx, query, credentialID, s.clock().UTC(), reason)
	if err != nil {
		return fmt.Errorf("revoke credential: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke credential rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) RecordVerification(ctx context.Context, credentialID string) error {
	query := `
		UPDATE credentials
		SET verification_count = verification_count + 1, last_verified_at = $2
		WHERE credential_id = $1
	`
	res, err := s.db.ExecContext(ctx, query, credentialID, s.clock().UTC())
	if err != nil {
		return fmt.Errorf("record verification: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record verification rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// SaveGradeArtifacts writes the marks-card header and its course rows in one
// transaction; course rows use a single unnest insert instead of per-row
// round trips.
func (s *PostgresStore) SaveGradeArtifacts(ctx context.Context, header *GradeHeader, rows []CourseRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin grade artifacts tx: %w", err)
	}
	defer tx.Rollback()

	headerQuery := `
		INSERT INTO credential_grade_headers (
			credential_id, usn, student_name, branch, program,
			father_or_mother_name, exam_session, issue_date, total_credits, sgpa
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (credential_id) DO NOTHING
	`
	_, err = tx.ExecContext(ctx, headerQuery,
		header.CredentialID, header.USN, header.StudentName, header.Branch, header.Program,
		header.FatherOrMotherName, header.ExamSession, header.IssueDate, header.TotalCredits, header.SGPA,
	)
	if err != nil {
		return fmt.Errorf("save grade header: %w", err)
	}

	if len(rows) > 0 {
		serials := make([]int64, len(rows))
		codes := make([]string, len(rows))
		names := make([]string, len(rows))
		credits := make([]int64, len(rows))
		grades := make([]string, len(rows))
		gpas := make([]float64, len(rows))
		for i, r := range rows {
			serials[i] = int64(r.SerialNo)
			codes[i] = r.CourseCode
			names[i] = r.CourseName
			credits[i] = int64(r.Credits)
			grades[i] = r.Grade
			gpas[i] = r.GPA
		}
		rowsQuery := `
			INSERT INTO credential_course_records (
				credential_id, serial_no, course_code, course_name, credits, grade, gpa
			)
			SELECT $1, unnest($2::int[]), unnest($3::text[]), unnest($4::text[]),
			       unnest($5::int[]), unnest($6::text[]), unnest($7::numeric[])
		`
		_, err = tx.ExecContext(ctx, rowsQuery,
			header.CredentialID,
			pq.Array(serials), pq.Array(codes), pq.Array(names),
			pq.Array(credits), pq.Array(grades), pq.Array(gpas),
		)
		if err != nil {
			return fmt.Errorf("save course records: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit grade artifacts: %w", err)
	}
	return nil
}

func (s *PostgresStore) GradeArtifacts(ctx context.Context, credentialID string) (*GradeHeader, []CourseRecord, error) {
	headerQuery := `
		SELECT credential_id, usn, student_name, branch, program,
		       father_or_mother_name, exam_session, issue_date, total_credits, sgpa
		FROM credential_grade_headers
		WHERE credential_id = $1
	`
	var h GradeHeader
	err := s.db.QueryRowContext(ctx, headerQuery, credentialID).Scan(
		&h.CredentialID, &h.USN, &h.StudentName, &h.Branch, &h.Program,
		&h.FatherOrMotherName, &h.ExamSession, &h.IssueDate, &h.TotalCredits, &h.SGPA,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, sentinel.ErrNotFound
		}
		return nil, nil, fmt.Errorf("get grade header: %w", err)
	}

	rowsQuery := `
		SELECT serial_no, course_code, course_name, credits, grade, gpa
		FROM credential_course_records
		WHERE credential_id = $1
		ORDER BY serial_no
	`
	rows, err := s.db.QueryContext(ctx, rowsQuery, credentialID)
	if err != nil {
		return nil, nil, fmt.Errorf("list course records: %w", err)
	}
	defer rows.Close()

	var records []CourseRecord
	for rows.Next() {
		r := CourseRecord{CredentialID: credentialID}
		if err := rows.Scan(&r.SerialNo, &r.CourseCode, &r.CourseName, &r.Credits, &r.Grade, &r.GPA); err != nil {
			return nil, nil, fmt.Errorf("scan course record: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate course records: %w", err)
	}
	return &h, records, nil
}

var _ Store = (*PostgresStore)(nil)
