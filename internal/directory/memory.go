package directory

import (
	"context"
	"sort"
	"sync"
)

// InMemory is a directory fake for tests and local development. It is safe
// for concurrent use.
type InMemory struct {
	mu       sync.RWMutex
	students map[string]Student
	courses  map[string]Course
	faculty  map[string]Faculty
	marks    []Mark
}

// NewInMemory constructs an empty in-memory directory.
func NewInMemory() *InMemory {
	return &InMemory{
		students: make(map[string]Student),
		courses:  make(map[string]Course),
		faculty:  make(map[string]Faculty),
	}
}

// AddStudent registers or replaces a student record.
func (d *InMemory) AddStudent(s Student) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.students[s.StudentID] = s
}

// AddCourse registers or replaces a course catalog entry.
func (d *InMemory) AddCourse(c Course) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.courses[c.CourseID] = c
}

// AddMark appends a graded result.
func (d *InMemory) AddMark(m Mark) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.marks = append(d.marks, m)
}

func (d *InMemory) GetStudent(_ context.Context, studentID string) (*Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if s, ok := d.students[studentID]; ok {
		return &s, nil
	}
	return nil, nil
}

func (d *InMemory) GetStudents(_ context.Context, filter Filter) ([]Student, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	matched := make([]Student, 0, len(d.students))
	for _, s := range d.students {
		if filter.Matches(s) {
			matched = append(matched, s)
		}
	}
	// Map iteration order is random; callers (batch creation) need a stable
	// student ordering.
	sort.Slice(matched, func(i, j int) bool { return matched[i].StudentID < matched[j].StudentID })
	return matched, nil
}

func (d *InMemory) GetCourses(_ context.Context) ([]Course, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	courses := make([]Course, 0, len(d.courses))
	for _, c := range d.courses {
		courses = append(courses, c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CourseID < courses[j].CourseID })
	return courses, nil
}

// AddFaculty registers or replaces a staff record.
func (d *InMemory) AddFaculty(f Faculty) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.faculty[f.FacultyID] = f
}

func (d *InMemory) GetFaculty(_ context.Context, facultyID string) (*Faculty, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if f, ok := d.faculty[facultyID]; ok {
		return &f, nil
	}
	return nil, nil
}

func (d *InMemory) GetMarks(_ context.Context, studentID string, semester int) ([]Mark, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []Mark
	for _, m := range d.marks {
		if m.StudentID != studentID {
			continue
		}
		if semester > 0 && m.Semester != semester {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

var _ Directory = (*InMemory)(nil)
