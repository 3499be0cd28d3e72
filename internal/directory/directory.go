// Package directory defines the read-only port to the external academic
// records system. Implementations must degrade failures to empty results:
// the credential core treats a missing student as data-not-found, never as a
// transport error surfacing mid-batch.
package directory

//go:generate mockgen -source=directory.go -destination=mocks/mocks.go -package=mocks Directory

import (
	"context"
	"strings"
)

// Student is one student record as the academic system reports it.
type Student struct {
	StudentID       string `json:"student_id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Email           string `json:"email"`
	Department      string `json:"department"`
	BatchYear       int    `json:"batch_year"`
	Division        string `json:"division"`
	Section         string `json:"section"`
	CourseEnrolled  string `json:"course_enrolled"`
	CurrentSemester int    `json:"current_semester"`
}

// FullName joins first and last name, tolerating either being empty.
func (s Student) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Faculty is one staff record as the academic system reports it.
type Faculty struct {
	FacultyID   string `json:"faculty_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
	IsAdmin     bool   `json:"is_admin"`
}

// FullName joins first and last name, tolerating either being empty.
func (f Faculty) FullName() string {
	return strings.TrimSpace(f.FirstName + " " + f.LastName)
}

// Course is a course catalog entry.
type Course struct {
	CourseID   string `json:"course_id"`
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
	Department string `json:"department"`
	Credits    int    `json:"credits"`
	Semester   int    `json:"semester"`
}

// Mark is one graded course result. GPA is nil when the academic system only
// recorded a letter grade; the builder falls back to the grade table.
type Mark struct {
	StudentID string   `json:"student_id"`
	CourseID  string   `json:"course_id"`
	Semester  int      `json:"semester"`
	Grade     string   `json:"grade"`
	GPA       *float64 `json:"gpa"`
}

// Filter selects students for bulk issuance. Zero values mean "any".
type Filter struct {
	StudentID       string `json:"student_id,omitempty"`
	Department      string `json:"department,omitempty"`
	BatchYear       int    `json:"batch_year,omitempty"`
	Division        string `json:"division,omitempty"`
	CourseEnrolled  string `json:"course_enrolled,omitempty"`
	CurrentSemester int    `json:"current_semester,omitempty"`
}

// Matches reports whether s passes every set criterion.
func (f Filter) Matches(s Student) bool {
	if f.StudentID != "" && s.StudentID != f.StudentID {
		return false
	}
	if f.Department != "" && s.Department != f.Department {
		return false
	}
	if f.BatchYear != 0 && s.BatchYear != f.BatchYear {
		return false
	}
	if f.Division != "" && s.Division != f.Division {
		return false
	}
	if f.CourseEnrolled != "" && s.CourseEnrolled != f.CourseEnrolled {
		return false
	}
	if f.CurrentSemester != 0 && s.CurrentSemester != f.CurrentSemester {
		return false
	}
	return true
}

// Directory is the academic records lookup port.
//
// GetStudent and GetFaculty return (nil, nil) when the record does not
// exist. GetMarks with semester 0 returns all semesters.
type Directory interface {
	GetStudent(ctx context.Context, studentID string) (*Student, error)
	GetStudents(ctx context.Context, filter Filter) ([]Student, error)
	GetCourses(ctx context.Context) ([]Course, error)
	GetMarks(ctx context.Context, studentID string, semester int) ([]Mark, error)
	GetFaculty(ctx context.Context, facultyID string) (*Faculty, error)
}
