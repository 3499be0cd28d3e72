// Package builder assembles unsigned credential documents from academic
// records. It is pure: all external data arrives in the Request, all
// time/identity comes through injectable hooks, so building the same request
// at the same instant yields the same document.
package builder

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"unicred/internal/directory"
	"unicred/internal/vc/models"
	dErrors "unicred/pkg/domain-errors"
)

const defaultTranscriptProgram = "Bachelor of Technology (B.Tech)"

// Metadata carries caller-supplied claims for the non-derived credential
// types, plus optional overrides for the derived ones. Zero values mean
// "not provided".
type Metadata struct {
	Program            string `json:"program,omitempty"`
	ExamSession        string `json:"examSession,omitempty"`
	FatherOrMotherName string `json:"fatherOrMotherName,omitempty"`

	CourseName     string `json:"courseName,omitempty"`
	CourseCode     string `json:"courseCode,omitempty"`
	CompletionDate string `json:"completionDate,omitempty"`
	Credits        int    `json:"credits,omitempty"`

	WorkshopName  string `json:"workshopName,omitempty"`
	DurationHours int    `json:"durationHours,omitempty"`

	HackathonName     string `json:"hackathonName,omitempty"`
	Position          string `json:"position,omitempty"`
	PrizeWon          string `json:"prizeWon,omitempty"`
	ParticipationDate string `json:"participationDate,omitempty"`
	TeamName          string `json:"teamName,omitempty"`

	Organizer   string `json:"organizer,omitempty"`
	Description string `json:"description,omitempty"`

	// Claims feeds the generic fallback subject for unknown types.
	Claims map[string]any `json:"claims,omitempty"`
}

// Request is everything needed to build one credential document.
type Request struct {
	Type    models.CredentialType
	Student directory.Student

	// Marks and Courses back the derived types (markscard, transcript).
	Marks   []directory.Mark
	Courses []directory.Course

	// Semester selects the marks card semester; 0 means the student's
	// current semester.
	Semester int

	Metadata Metadata
}

// Builder turns Requests into unsigned documents.
type Builder struct {
	issuerName string
	now        func() time.Time
	newID      func() string
}

// Option configures a Builder.
type Option func(*Builder)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(b *Builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithIDSource overrides the credential id generator, mainly for tests.
func WithIDSource(newID func() string) Option {
	return func(b *Builder) {
		if newID != nil {
			b.newID = newID
		}
	}
}

// New constructs a Builder. issuerName is the institution name stamped into
// every document's issuer block.
func New(issuerName string, opts ...Option) *Builder {
	b := &Builder{
		issuerName: issuerName,
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles an unsigned credential document for the given issuer DID.
// The document id is a fresh urn:uuid and issuanceDate the current UTC time
// at second precision.
func (b *Builder) Build(issuerDID string, req Request) (models.Document, error) {
	if issuerDID == "" {
		return models.Document{}, dErrors.New(dErrors.CodeInternal, "issuer DID is empty")
	}

	subject, err := b.buildSubject(req)
	if err != nil {
		return models.Document{}, err
	}

	id := fmt.Sprintf("urn:uuid:%s", b.newID())
	doc := models.Document{
		Context: models.Context,
		ID:      id,
		Type:    []string{"VerifiableCredential", req.Type.VCTypeName()},
		Issuer: models.Issuer{
			ID:              issuerDID,
			Name:            b.issuerName,
			AssertionMethod: []string{issuerDID + "#key-1"},
		},
		IssuanceDate:      b.now().UTC().Truncate(time.Second).Format(time.RFC3339),
		CredentialSubject: subject,
		CredentialStatus: &models.CredentialStatus{
			ID:   id + "#status",
			Type: "CredentialStatusList2020",
		},
	}
	return doc, nil
}

func (b *Builder) buildSubject(req Request) (models.Subject, error) {
	s := req.Student
	base := models.SubjectBase{
		ID:         "did:student:" + s.StudentID,
		StudentID:  s.StudentID,
		Name:       s.FullName(),
		Email:      s.Email,
		Department: s.Department,
		BatchYear:  s.BatchYear,
	}
	md := req.Metadata

	switch req.Type {
	case models.TypeMarksCard:
		semester := req.Semester
		if semester == 0 {
			semester = s.CurrentSemester
		}
		marks := req.Marks
		if semester > 0 {
			filtered := make([]directory.Mark, 0, len(marks))
			for _, m := range marks {
				if m.Semester == semester {
					filtered = append(filtered, m)
				}
			}
			marks = filtered
		}
		lines := courseLines(marks, courseIndex(req.Courses))
		sgpa, credits := weightedGPA(lines)
		program := md.Program
		if program == "" {
			program = s.CourseEnrolled
		}
		return models.MarksCardSubject{
			SubjectBase:    base,
			CredentialType: "MarksCard",
			Courses:        lines,
			TotalCredits:   credits,
			SGPA:           sgpa,
			Program:        program,
			ExamSession:    md.ExamSession,
		}, nil

	case models.TypeTranscript:
		idx := courseIndex(req.Courses)
		semesters := aggregateSemesters(req.Marks, idx)
		cgpa, totalCredits := cumulativeGPA(semesters)
		program := md.Program
		if program == "" {
			program = defaultTranscriptProgram
		}
		return models.TranscriptSubject{
			SubjectBase:      base,
			CredentialType:   "Transcript",
			Program:          program,
			Branch:           s.Department,
			YearOfCompletion: yearOfCompletion(s.BatchYear, b.now().UTC().Year(), len(semesters)),
			Semesters:        semesters,
			CGPA:             cgpa,
			CGPAInWords:      NumberInWords(cgpa),
			ResultClass:      ResultClass(cgpa),
			TotalCredits:     totalCredits,
			DateOfIssue:      b.now().UTC().Format("2006-01-02"),
		}, nil

	case models.TypeCourseCompletion:
		return models.CourseCompletionSubject{
			SubjectBase:    base,
			CredentialType: "CourseCompletion",
			CourseName:     md.CourseName,
			CourseCode:     md.CourseCode,
			CompletionDate: md.CompletionDate,
			Credits:        md.Credits,
			Description:    md.Description,
		}, nil

	case models.TypeWorkshop:
		return models.WorkshopSubject{
			SubjectBase:    base,
			CredentialType: "WorkshopCertificate",
			WorkshopName:   md.WorkshopName,
			DurationHours:  md.DurationHours,
			CompletionDate: md.CompletionDate,
			Organizer:      md.Organizer,
			Description:    md.Description,
		}, nil

	case models.TypeHackathon:
		return models.HackathonSubject{
			SubjectBase:       base,
			CredentialType:    "HackathonCertificate",
			HackathonName:     md.HackathonName,
			Position:          md.Position,
			PrizeWon:          md.PrizeWon,
			ParticipationDate: md.ParticipationDate,
			TeamName:          md.TeamName,
			Organizer:         md.Organizer,
			Description:       md.Description,
		}, nil

	default:
		return models.GenericSubject{
			SubjectBase: base,
			Claims:      md.Claims,
		}, nil
	}
}
