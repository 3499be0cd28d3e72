// Package models defines the verifiable credential document shapes shared by
// the builder, signer, and stores.
package models

// Context lists the JSON-LD schema URIs every issued credential carries, in
// order. The second entry is the Ed25519Signature2020 suite context.
var Context = []string{
	"https://www.w3.org/2018/credentials/v1",
	"https://w3id.org/security/suites/ed25519-2020/v1",
}

// SecuritySuiteContext is the minimal context canonicalized together with the
// proof options when computing the proof digest.
const SecuritySuiteContext = "https://w3id.org/security/suites/ed25519-2020/v1"

// CredentialType enumerates the credential kinds this issuer produces.
type CredentialType string

const (
	TypeMarksCard        CredentialType = "markscard"
	TypeTranscript       CredentialType = "transcript"
	TypeCourseCompletion CredentialType = "course_completion"
	TypeWorkshop         CredentialType = "workshop"
	TypeHackathon        CredentialType = "hackathon"
)

// IsValid reports whether t is a known credential type.
func (t CredentialType) IsValid() bool {
	switch t {
	case TypeMarksCard, TypeTranscript, TypeCourseCompletion, TypeWorkshop, TypeHackathon:
		return true
	}
	return false
}

// VCTypeName maps the type to the tag carried in the document's `type` array.
// Unknown types fall back to the generic tag so forward-compatible documents
// stay well-formed.
func (t CredentialType) VCTypeName() string {
	switch t {
	case TypeMarksCard:
		return "MarksCardCredential"
	case TypeTranscript:
		return "TranscriptCredential"
	case TypeCourseCompletion:
		return "CourseCompletionCredential"
	case TypeWorkshop:
		return "WorkshopCertificateCredential"
	case TypeHackathon:
		return "HackathonCertificateCredential"
	default:
		return "EducationalCredential"
	}
}

// Issuer identifies the signing institution inside the document.
type Issuer struct {
	ID              string   `json:"id"`
	Name            string   `json:"name,omitempty"`
	AssertionMethod []string `json:"assertionMethod,omitempty"`
}

// Proof is the Ed25519Signature2020 envelope attached to a signed document.
// A document carrying a proof is issued and final.
type Proof struct {
	Type               string `json:"type"`
	Created            string `json:"created"`
	VerificationMethod string `json:"verificationMethod"`
	ProofPurpose       string `json:"proofPurpose"`
	ProofValue         string `json:"proofValue,omitempty"`
}

// CredentialStatus is kept for wallet compatibility; no status list protocol
// is implemented behind it.
type CredentialStatus struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Document is a W3C-style verifiable credential for an academic record.
type Document struct {
	Context           []string          `json:"@context"`
	ID                string            `json:"id"`
	Type              []string          `json:"type"`
	Issuer            Issuer            `json:"issuer"`
	IssuanceDate      string            `json:"issuanceDate"`
	CredentialSubject Subject           `json:"credentialSubject"`
	CredentialStatus  *CredentialStatus `json:"credentialStatus,omitempty"`
	Proof             *Proof            `json:"proof,omitempty"`
}
