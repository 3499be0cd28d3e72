package builder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unicred/internal/directory"
	"unicred/internal/vc/models"
)

var testStudent = directory.Student{
	StudentID:       "01FE21BCS001",
	FirstName:       "Asha",
	LastName:        "Rao",
	Email:           "asha@example.edu",
	Department:      "CSE",
	BatchYear:       2022,
	CourseEnrolled:  "B.Tech CSE",
	CurrentSemester: 3,
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// eightSemesters produces one 4-credit course with the given gpa per
// semester 1..n.
func eightSemesters(n int, gpa float64) ([]directory.Mark, []directory.Course) {
	var marks []directory.Mark
	var courses []directory.Course
	for i := 1; i <= n; i++ {
		id := string(rune('a' + i))
		courses = append(courses, directory.Course{
			CourseID:   id,
			CourseCode: "CS" + id,
			CourseName: "Course " + id,
			Credits:    4,
			Semester:   i,
		})
		g := gpa
		marks = append(marks, directory.Mark{
			StudentID: testStudent.StudentID,
			CourseID:  id,
			Semester:  i,
			Grade:     "A",
			GPA:       &g,
		})
	}
	return marks, courses
}

func TestBuildEnvelope(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 30, 0, 123456789, time.UTC)
	b := New("KLE Technological University",
		WithClock(fixedClock(now)),
		WithIDSource(func() string { return "0000-test" }),
	)

	doc, err := b.Build("did:key:zIssuer", Request{
		Type:    models.TypeWorkshop,
		Student: testStudent,
		Metadata: Metadata{
			WorkshopName:  "Intro to Distributed Systems",
			DurationHours: 16,
			Organizer:     "IEEE Student Branch",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, models.Context, doc.Context)
	assert.Equal(t, "urn:uuid:0000-test", doc.ID)
	assert.Equal(t, []string{"VerifiableCredential", "WorkshopCertificateCredential"}, doc.Type)
	assert.Equal(t, "did:key:zIssuer", doc.Issuer.ID)
	assert.Equal(t, "KLE Technological University", doc.Issuer.Name)
	assert.Equal(t, []string{"did:key:zIssuer#key-1"}, doc.Issuer.AssertionMethod)
	assert.Equal(t, "2025-06-01T10:30:00Z", doc.IssuanceDate, "second precision, Z suffix")
	require.NotNil(t, doc.CredentialStatus)
	assert.Equal(t, "urn:uuid:0000-test#status", doc.CredentialStatus.ID)
	assert.Equal(t, "CredentialStatusList2020", doc.CredentialStatus.Type)
	assert.Nil(t, doc.Proof, "builder never attaches a proof")

	subject, ok := doc.CredentialSubject.(models.WorkshopSubject)
	require.True(t, ok)
	assert.Equal(t, "did:student:01FE21BCS001", subject.ID)
	assert.Equal(t, "Asha Rao", subject.Name)
	assert.Equal(t, "WorkshopCertificate", subject.CredentialType)
	assert.Equal(t, 16, subject.DurationHours)
}

func TestBuildRejectsEmptyIssuerDID(t *testing.T) {
	b := New("Test University")
	_, err := b.Build("", Request{Type: models.TypeWorkshop, Student: testStudent})
	require.Error(t, err)
}

func TestBuildMarksCard(t *testing.T) {
	b := New("Test University")
	gpa := 9.0
	marks := []directory.Mark{
		{StudentID: testStudent.StudentID, CourseID: "c1", Semester: 3, Grade: "A", GPA: &gpa},
		{StudentID: testStudent.StudentID, CourseID: "c2", Semester: 3, Grade: "B"},
		{StudentID: testStudent.StudentID, CourseID: "c3", Semester: 2, Grade: "S"}, // other semester
	}
	courses := []directory.Course{
		{CourseID: "c1", CourseCode: "CS301", CourseName: "Operating Systems", Credits: 4},
		{CourseID: "c2", CourseCode: "CS302", CourseName: "Networks", Credits: 4},
		{CourseID: "c3", CourseCode: "CS201", CourseName: "Old Course", Credits: 4},
	}

	doc, err := b.Build("did:key:zIssuer", Request{
		Type:     models.TypeMarksCard,
		Student:  testStudent,
		Marks:    marks,
		Courses:  courses,
		Metadata: Metadata{ExamSession: "May 2025"},
	})
	require.NoError(t, err)

	subject, ok := doc.CredentialSubject.(models.MarksCardSubject)
	require.True(t, ok)
	assert.Equal(t, "MarksCard", subject.CredentialType)
	require.Len(t, subject.Courses, 2, "defaults to the student's current semester")
	assert.Equal(t, 8, subject.TotalCredits)
	assert.Equal(t, 8.5, subject.SGPA, "(9*4 + 8*4) / 8")
	assert.Equal(t, "B.Tech CSE", subject.Program, "falls back to enrolled course")
	assert.Equal(t, "May 2025", subject.ExamSession)

	// Explicit semester override picks the other semester's marks.
	doc, err = b.Build("did:key:zIssuer", Request{
		Type:     models.TypeMarksCard,
		Student:  testStudent,
		Marks:    marks,
		Courses:  courses,
		Semester: 2,
	})
	require.NoError(t, err)
	subject = doc.CredentialSubject.(models.MarksCardSubject)
	require.Len(t, subject.Courses, 1)
	assert.Equal(t, "CS201", subject.Courses[0].CourseCode)
	assert.Equal(t, 10.0, subject.Courses[0].GPA)
}

func TestBuildTranscriptCompleted(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b := New("Test University", WithClock(fixedClock(now)))
	marks, courses := eightSemesters(8, 9.0)

	doc, err := b.Build("did:key:zIssuer", Request{
		Type:    models.TypeTranscript,
		Student: testStudent, // batch 2022, graduation 2026 > 2025
		Marks:   marks,
		Courses: courses,
	})
	require.NoError(t, err)

	subject, ok := doc.CredentialSubject.(models.TranscriptSubject)
	require.True(t, ok)
	assert.Equal(t, "Transcript", subject.CredentialType)
	assert.Equal(t, "Completed", subject.YearOfCompletion)
	require.Len(t, subject.Semesters, 8)
	assert.Equal(t, 1, subject.Semesters[0].Semester)
	assert.Equal(t, 9.0, subject.Semesters[0].SGPA)
	assert.Equal(t, 32, subject.TotalCredits)
	assert.Equal(t, 9.0, subject.CGPA)
	assert.Equal(t, "Nine Point Zero Zero", subject.CGPAInWords)
	assert.Equal(t, "First Class with Distinction", subject.ResultClass)
	assert.Equal(t, "Bachelor of Technology (B.Tech)", subject.Program)
	assert.Equal(t, "CSE", subject.Branch)
	assert.Equal(t, "2025-03-01", subject.DateOfIssue)
}

func TestBuildTranscriptPursuing(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	b := New("Test University", WithClock(fixedClock(now)))

	t.Run("only four semesters recorded", func(t *testing.T) {
		marks, courses := eightSemesters(4, 8.0)
		doc, err := b.Build("did:key:zIssuer", Request{
			Type:    models.TypeTranscript,
			Student: testStudent,
			Marks:   marks,
			Courses: courses,
		})
		require.NoError(t, err)
		subject := doc.CredentialSubject.(models.TranscriptSubject)
		assert.Equal(t, "Pursuing", subject.YearOfCompletion)
		assert.Len(t, subject.Semesters, 4)
	})

	t.Run("graduation year already reached", func(t *testing.T) {
		student := testStudent
		student.BatchYear = 2021 // graduation 2025 <= 2025
		marks, courses := eightSemesters(8, 8.0)
		doc, err := b.Build("did:key:zIssuer", Request{
			Type:    models.TypeTranscript,
			Student: student,
			Marks:   marks,
			Courses: courses,
		})
		require.NoError(t, err)
		subject := doc.CredentialSubject.(models.TranscriptSubject)
		assert.Equal(t, "Pursuing", subject.YearOfCompletion)
	})
}

func TestBuildTranscriptHalfPointCGPA(t *testing.T) {
	// Two semesters, equal credits, GPAs 9.0 and 8.0: cgpa lands exactly on
	// 8.50 and in the distinction band.
	b := New("Test University", WithClock(fixedClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))))
	nine, eight := 9.0, 8.0
	marks := []directory.Mark{
		{StudentID: testStudent.StudentID, CourseID: "c1", Semester: 1, Grade: "A", GPA: &nine},
		{StudentID: testStudent.StudentID, CourseID: "c2", Semester: 2, Grade: "B", GPA: &eight},
	}
	courses := []directory.Course{
		{CourseID: "c1", CourseCode: "CS101", Credits: 4, Semester: 1},
		{CourseID: "c2", CourseCode: "CS201", Credits: 4, Semester: 2},
	}

	doc, err := b.Build("did:key:zIssuer", Request{
		Type:    models.TypeTranscript,
		Student: testStudent,
		Marks:   marks,
		Courses: courses,
	})
	require.NoError(t, err)

	subject := doc.CredentialSubject.(models.TranscriptSubject)
	assert.Equal(t, 8.5, subject.CGPA)
	assert.Equal(t, "First Class with Distinction", subject.ResultClass)
	assert.Equal(t, "Eight Point Five Zero", subject.CGPAInWords)
}

func TestBuildGenericFallback(t *testing.T) {
	b := New("Test University")
	doc, err := b.Build("did:key:zIssuer", Request{
		Type:     models.CredentialType("letter_of_recommendation"),
		Student:  testStudent,
		Metadata: Metadata{Claims: map[string]any{"recommender": "Prof. K"}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"VerifiableCredential", "EducationalCredential"}, doc.Type)
	subject, ok := doc.CredentialSubject.(models.GenericSubject)
	require.True(t, ok)
	assert.Equal(t, "Prof. K", subject.Claims["recommender"])
}
