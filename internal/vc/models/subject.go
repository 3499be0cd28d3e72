package models

// Subject is the closed set of credentialSubject shapes. Keeping it a sealed
// interface gives the builder compile-time exhaustiveness over the five known
// credential types; GenericSubject is the forward-compatibility escape hatch.
type Subject interface {
	subject()
}

// SubjectBase carries the claims every credential type shares.
type SubjectBase struct {
	ID         string `json:"id"`
	StudentID  string `json:"studentId"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	BatchYear  int    `json:"batchYear,omitempty"`
}

// CourseLine is one graded course inside a marks card or transcript semester.
type CourseLine struct {
	CourseCode string  `json:"courseCode"`
	CourseName string  `json:"courseName"`
	Credits    int     `json:"credits"`
	Grade      string  `json:"grade"`
	GPA        float64 `json:"gpa"`
}

// SemesterRecord is one semester block inside a transcript.
type SemesterRecord struct {
	Semester int          `json:"semester"`
	Courses  []CourseLine `json:"courses"`
	SGPA     float64      `json:"sgpa"`
	Credits  int          `json:"credits"`
}

// MarksCardSubject holds one semester's graded courses.
type MarksCardSubject struct {
	SubjectBase
	CredentialType string       `json:"credentialType"`
	Courses        []CourseLine `json:"courses"`
	TotalCredits   int          `json:"totalCredits"`
	SGPA           float64      `json:"sgpa"`
	Program        string       `json:"program,omitempty"`
	ExamSession    string       `json:"examSession,omitempty"`
}

// TranscriptSubject holds the full per-semester academic history.
type TranscriptSubject struct {
	SubjectBase
	CredentialType   string           `json:"credentialType"`
	Program          string           `json:"program,omitempty"`
	Branch           string           `json:"branch,omitempty"`
	YearOfCompletion string           `json:"yearOfCompletion"`
	Semesters        []SemesterRecord `json:"semesters"`
	CGPA             float64          `json:"cgpa"`
	CGPAInWords      string           `json:"cgpaInWords"`
	ResultClass      string           `json:"resultClass"`
	TotalCredits     int              `json:"totalCredits"`
	DateOfIssue      string           `json:"dateOfIssue,omitempty"`
}

// CourseCompletionSubject certifies one completed course.
type CourseCompletionSubject struct {
	SubjectBase
	CredentialType string `json:"credentialType"`
	CourseName     string `json:"courseName,omitempty"`
	CourseCode     string `json:"courseCode,omitempty"`
	CompletionDate string `json:"completionDate,omitempty"`
	Credits        int    `json:"credits,omitempty"`
	Description    string `json:"description,omitempty"`
}

// WorkshopSubject certifies workshop attendance.
type WorkshopSubject struct {
	SubjectBase
	CredentialType string `json:"credentialType"`
	WorkshopName   string `json:"workshopName,omitempty"`
	DurationHours  int    `json:"durationHours,omitempty"`
	CompletionDate string `json:"completionDate,omitempty"`
	Organizer      string `json:"organizer,omitempty"`
	Description    string `json:"description,omitempty"`
}

// HackathonSubject certifies hackathon participation, optionally with a
// placement and prize.
type HackathonSubject struct {
	SubjectBase
	CredentialType    string `json:"credentialType"`
	HackathonName     string `json:"hackathonName,omitempty"`
	Position          string `json:"position,omitempty"`
	PrizeWon          string `json:"prizeWon,omitempty"`
	ParticipationDate string `json:"participationDate,omitempty"`
	TeamName          string `json:"teamName,omitempty"`
	Organizer         string `json:"organizer,omitempty"`
	Description       string `json:"description,omitempty"`
}

// GenericSubject carries an open claim map for credential types this issuer
// does not model yet.
type GenericSubject struct {
	SubjectBase
	Claims map[string]any `json:"claims,omitempty"`
}

func (MarksCardSubject) subject()        {}
func (TranscriptSubject) subject()       {}
func (CourseCompletionSubject) subject() {}
func (WorkshopSubject) subject()         {}
func (HackathonSubject) subject()        {}
func (GenericSubject) subject()          {}
