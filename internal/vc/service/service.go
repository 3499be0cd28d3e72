// Package service is the credential engine: it builds, signs, persists,
// verifies, and revokes credential documents.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"unicred/internal/audit"
	"unicred/internal/credential"
	"unicred/internal/directory"
	"unicred/internal/keystore"
	"unicred/internal/vc/builder"
	"unicred/internal/vc/metrics"
	"unicred/internal/vc/models"
	"unicred/internal/vc/signer"
	"unicred/internal/verifier"
	dErrors "unicred/pkg/domain-errors"
	"unicred/pkg/platform/sentinel"
)

// Credential status values reported by Verify.
const (
	StatusActive  = "active"
	StatusRevoked = "revoked"
	StatusUnknown = "unknown"
)

// IssueRequest is one credential issuance order.
type IssueRequest struct {
	StudentID string
	Type      models.CredentialType
	Semester  int
	Metadata  builder.Metadata

	// BatchID links the resulting credential back to the batch entry that
	// produced it; empty for direct issuance.
	BatchID string
}

// VerifyResult is the full verification outcome: the cryptographic check
// plus the revocation status and, when configured, the external reference
// verifier's supplementary opinion.
type VerifyResult struct {
	Valid    bool             `json:"valid"`
	Status   string           `json:"status"`
	Reason   string           `json:"reason"`
	External *verifier.Result `json:"external,omitempty"`
}

// Service wires the engine's collaborators.
type Service struct {
	keys      *keystore.Service
	directory directory.Directory
	builder   *builder.Builder
	signer    *signer.Signer
	store     credential.Store

	external verifier.External
	audit    *audit.Publisher
	metrics  *metrics.Metrics
	logger   *slog.Logger
	tracer   trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithExternalVerifier enables the best-effort secondary verifier.
func WithExternalVerifier(ext verifier.External) Option {
	return func(s *Service) { s.external = ext }
}

// WithAudit enables audit event emission.
func WithAudit(publisher *audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithMetrics enables Prometheus metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the credential engine.
func New(keys *keystore.Service, dir directory.Directory, b *builder.Builder, sig *signer.Signer, store credential.Store, opts ...Option) *Service {
	s := &Service{
		keys:      keys,
		directory: dir,
		builder:   b,
		signer:    sig,
		store:     store,
		logger:    slog.Default(),
		tracer:    otel.Tracer("unicred/vc"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue builds, signs, and persists one credential for a student. For
// marks cards it also fetches the student's marks and persists the
// denormalized grade artifacts.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*credential.Record, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "vc.issue", trace.WithAttributes(
		attribute.String("credential.type", string(req.Type)),
		attribute.String("student.id", req.StudentID),
	))
	defer span.End()

	rec, err := s.issue(ctx, req)
	if err != nil {
		span.RecordError(err)
		if s.metrics != nil {
			s.metrics.IssueFailures.WithLabelValues(string(req.Type)).Inc()
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.CredentialsIssued.WithLabelValues(string(req.Type)).Inc()
		s.metrics.ObserveIssue(start)
	}
	if s.audit != nil {
		s.audit.Publish(ctx, audit.Event{
			Action:         audit.ActionCredentialIssued,
			StudentID:      rec.StudentID,
			CredentialID:   rec.CredentialID,
			CredentialType: string(rec.Type),
			BatchID:        req.BatchID,
			Outcome:        "success",
		})
	}
	s.logger.InfoContext(ctx, "credential issued",
		"credential_id", rec.CredentialID,
		"student_id", rec.StudentID,
		"type", rec.Type,
	)
	return rec, nil
}

func (s *Service) issue(ctx context.Context, req IssueRequest) (*credential.Record, error) {
	student, err := s.directory.GetStudent(ctx, req.StudentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "looking up student")
	}
	if student == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "Student data not found in academic system")
	}

	buildReq := builder.Request{
		Type:     req.Type,
		Student:  *student,
		Semester: req.Semester,
		Metadata: req.Metadata,
	}
	if req.Type == models.TypeMarksCard || req.Type == models.TypeTranscript {
		semester := 0 // transcript wants every semester
		if req.Type == models.TypeMarksCard {
			semester = req.Semester
			if semester == 0 {
				semester = student.CurrentSemester
			}
		}
		marks, err := s.directory.GetMarks(ctx, student.StudentID, semester)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "fetching marks")
		}
		courses, err := s.directory.GetCourses(ctx)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "fetching course catalog")
		}
		buildReq.Marks = marks
		buildReq.Courses = courses
	}

	key, err := s.keys.GetOrCreate(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading issuer key")
	}

	doc, err := s.builder.Build(key.DID, buildReq)
	if err != nil {
		return nil, err
	}
	signed, err := s.signer.Sign(key, doc)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(signed)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "encoding signed credential")
	}
	issuedAt, err := time.Parse(time.RFC3339, signed.IssuanceDate)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "parsing issuance date")
	}

	rec := &credential.Record{
		CredentialID: signed.ID,
		BatchID:      req.BatchID,
		StudentID:    student.StudentID,
		Type:         req.Type,
		Document:     raw,
		IssuerDID:    key.DID,
		IssuerName:   signed.Issuer.Name,
		ProofValue:   signed.Proof.ProofValue,
		IssuedAt:     issuedAt,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "persisting credential")
	}

	if subject, ok := signed.CredentialSubject.(models.MarksCardSubject); ok {
		if err := s.saveGradeArtifacts(ctx, signed.ID, issuedAt, subject, req.Metadata); err != nil {
			// The credential itself is issued and valid; the registrar
			// export rows are best-effort.
			s.logger.WarnContext(ctx, "persisting grade artifacts failed",
				"credential_id", signed.ID, "error", err)
		}
	}
	return rec, nil
}

func (s *Service) saveGradeArtifacts(ctx context.Context, credentialID string, issuedAt time.Time, subject models.MarksCardSubject, md builder.Metadata) error {
	header := &credential.GradeHeader{
		CredentialID:       credentialID,
		USN:                subject.StudentID,
		StudentName:        subject.Name,
		Branch:             subject.Department,
		Program:            subject.Program,
		FatherOrMotherName: md.FatherOrMotherName,
		ExamSession:        subject.ExamSession,
		IssueDate:          issuedAt,
		TotalCredits:       subject.TotalCredits,
		SGPA:               subject.SGPA,
	}
	rows := make([]credential.CourseRecord, 0, len(subject.Courses))
	for i, line := range subject.Courses {
		rows = append(rows, credential.CourseRecord{
			CredentialID: credentialID,
			SerialNo:     i + 1,
			CourseCode:   line.CourseCode,
			CourseName:   line.CourseName,
			Credits:      line.Credits,
			Grade:        line.Grade,
			GPA:          line.GPA,
		})
	}
	return s.store.SaveGradeArtifacts(ctx, header, rows)
}

// Verify checks an incoming credential document. The trusted public key is
// always loaded from the keystore, never taken from the document. Revocation
// is consulted when the credential id is known to this issuer; the external
// verifier is best-effort and can never flip the primary outcome.
func (s *Service) Verify(ctx context.Context, document map[string]any) (*VerifyResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "vc.verify")
	defer span.End()

	key, err := s.keys.GetOrCreate(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading issuer key")
	}

	sig := s.signer.Verify(key.PublicKey, document)
	result := &VerifyResult{
		Valid:  sig.Valid,
		Status: StatusUnknown,
		Reason: sig.Reason,
	}

	credentialID, _ := document["id"].(string)
	if credentialID != "" {
		rec, err := s.store.Get(ctx, credentialID)
		switch {
		case err == nil && rec.Revoked:
			result.Valid = false
			result.Status = StatusRevoked
			result.Reason = "credential has been revoked"
		case err == nil:
			result.Status = StatusActive
			if recErr := s.store.RecordVerification(ctx, credentialID); recErr != nil {
				s.logger.WarnContext(ctx, "recording verification failed",
					"credential_id", credentialID, "error", recErr)
			}
		case errors.Is(err, sentinel.ErrNotFound):
			// Foreign or unpersisted credential: signature check stands alone.
		default:
			s.logger.WarnContext(ctx, "credential lookup failed during verify",
				"credential_id", credentialID, "error", err)
		}
	}

	if s.external != nil {
		ext, err := s.external.Check(ctx, document)
		if err != nil {
			s.logger.WarnContext(ctx, "external verifier unreachable", "error", err)
		} else {
			result.External = ext
		}
	}

	outcome := "invalid"
	if result.Valid {
		outcome = "valid"
	}
	if s.metrics != nil {
		s.metrics.Verifications.WithLabelValues(outcome).Inc()
		s.metrics.ObserveVerify(start)
	}
	if s.audit != nil {
		s.audit.Publish(ctx, audit.Event{
			Action:       audit.ActionCredentialVerified,
			CredentialID: credentialID,
			Outcome:      outcome,
			Reason:       result.Reason,
		})
	}
	return result, nil
}

// Get returns one issued credential.
func (s *Service) Get(ctx context.Context, credentialID string) (*credential.Record, error) {
	rec, err := s.store.Get(ctx, credentialID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "loading credential")
	}
	return rec, nil
}

// ListByStudent returns every credential issued to a student, oldest first.
func (s *Service) ListByStudent(ctx context.Context, studentID string) ([]credential.Record, error) {
	recs, err := s.store.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "listing credentials")
	}
	return recs, nil
}

// Revoke marks a credential revoked with a reason. Verification of a revoked
// credential reports invalid regardless of its signature.
func (s *Service) Revoke(ctx context.Context, credentialID, reason string) error {
	err := s.store.Revoke(ctx, credentialID, reason)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "credential not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "revoking credential")
	}
	if s.audit != nil {
		s.audit.Publish(ctx, audit.Event{
			Action:       audit.ActionCredentialRevoked,
			CredentialID: credentialID,
			Reason:       reason,
		})
	}
	s.logger.InfoContext(ctx, "credential revoked", "credential_id", credentialID, "reason", reason)
	return nil
}

// DID returns the issuer DID, creating the issuer key if needed.
func (s *Service) DID(ctx context.Context) (string, error) {
	return s.keys.DID(ctx)
}
