// Package credential persists issued credential documents and their
// revocation and verification bookkeeping.
package credential

import (
	"context"
	"encoding/json"
	"time"

	"unicred/internal/vc/models"
)

// Record is one issued credential row. Document holds the full signed VC
// JSON; the remaining columns are denormalized for lookup and audit.
type Record struct {
	CredentialID string                `json:"credentialId"`
	BatchID      string                `json:"batchId,omitempty"`
	StudentID    string                `json:"studentId"`
	Type         models.CredentialType `json:"credentialType"`
	Document     json.RawMessage       `json:"document"`
	IssuerDID    string                `json:"issuerDid"`
	IssuerName   string                `json:"issuerName,omitempty"`
	ProofValue   string                `json:"proofValue,omitempty"`
	IssuedAt     time.Time             `json:"issuedAt"`

	Revoked          bool       `json:"revoked"`
	RevokedAt        *time.Time `json:"revokedAt,omitempty"`
	RevocationReason string     `json:"revocationReason,omitempty"`

	VerificationCount int        `json:"verificationCount"`
	LastVerifiedAt    *time.Time `json:"lastVerifiedAt,omitempty"`
}

// GradeHeader is the denormalized marks-card header kept alongside a
// markscard credential for registrar exports.
type GradeHeader struct {
	CredentialID       string    `json:"credentialId"`
	USN                string    `json:"usn"`
	StudentName        string    `json:"studentName"`
	Branch             string    `json:"branch"`
	Program            string    `json:"program"`
	FatherOrMotherName string    `json:"fatherOrMotherName,omitempty"`
	ExamSession        string    `json:"examSession"`
	IssueDate          time.Time `json:"issueDate"`
	TotalCredits       int       `json:"totalCredits"`
	SGPA               float64   `json:"sgpa"`
}

// CourseRecord is one graded course row of a marks-card export.
type CourseRecord struct {
	CredentialID string  `json:"credentialId"`
	SerialNo     int     `json:"serialNo"`
	CourseCode   string  `json:"courseCode"`
	CourseName   string  `json:"courseName"`
	Credits      int     `json:"credits"`
	Grade        string  `json:"grade"`
	GPA          float64 `json:"gpa"`
}

// SearchFilter narrows discovery queries. Zero values mean "any"; revoked
// credentials are never returned. Limit 0 falls back to 50.
type SearchFilter struct {
	StudentID string                `json:"student_id,omitempty"`
	Type      models.CredentialType `json:"credential_type,omitempty"`
	IssuerDID string                `json:"issuer_id,omitempty"`
	Limit     int                   `json:"-"`
}

// Store persists credential records.
//
// Get returns sentinel.ErrNotFound for unknown ids. Save upserts by
// credential id.
type Store interface {
	Save(ctx context.Context, rec *Record) error
	Get(ctx context.Context, credentialID string) (*Record, error)
	ListByStudent(ctx context.Context, studentID string) ([]Record, error)
	Search(ctx context.Context, filter SearchFilter) ([]Record, error)
	Revoke(ctx context.Context, credentialID, reason string) error
	RecordVerification(ctx context.Context, credentialID string) error
	SaveGradeArtifacts(ctx context.Context, header *GradeHeader, rows []CourseRecord) error
	GradeArtifacts(ctx context.Context, credentialID string) (*GradeHeader, []CourseRecord, error)
}
