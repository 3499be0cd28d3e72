package contineo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unicred/internal/directory"
	"unicred/internal/platform/config"
)

func newClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.DirectoryConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
}

func TestGetStudentsUnwrapsEnvelope(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/students", r.URL.Path)
		w.Write([]byte(`{"success":true,"data":[
			{"student_id":"S1","first_name":"Asha","last_name":"Rao","department":"CSE","batch_year":2022},
			{"student_id":"S2","first_name":"Ravi","last_name":"K","department":"ECE","batch_year":2022}
		]}`))
	}))

	students, err := c.GetStudents(context.Background(), directory.Filter{})
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Asha Rao", students[0].FullName())
}

func TestGetStudentsBareArray(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"student_id":"S1","department":"CSE"}]`))
	}))

	students, err := c.GetStudents(context.Background(), directory.Filter{})
	require.NoError(t, err)
	require.Len(t, students, 1)
}

func TestGetStudentsAppliesFilter(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"student_id":"S1","department":"CSE","batch_year":2022},
			{"student_id":"S2","department":"ECE","batch_year":2022},
			{"student_id":"S3","department":"CSE","batch_year":2021}
		]}`))
	}))

	students, err := c.GetStudents(context.Background(), directory.Filter{Department: "CSE", BatchYear: 2022})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "S1", students[0].StudentID)
}

func TestGetStudentMissingReturnsNil(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"student_id":"S1"}]}`))
	}))

	s, err := c.GetStudent(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestFailuresDegradeToEmpty(t *testing.T) {
	t.Run("http error", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		students, err := c.GetStudents(context.Background(), directory.Filter{})
		require.NoError(t, err)
		assert.Empty(t, students)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		courses, err := c.GetCourses(context.Background())
		require.NoError(t, err)
		assert.Empty(t, courses)
	})

	t.Run("unreachable server", func(t *testing.T) {
		c := New(config.DirectoryConfig{BaseURL: "http://127.0.0.1:1", Timeout: 200 * time.Millisecond})
		marks, err := c.GetMarks(context.Background(), "S1", 0)
		require.NoError(t, err)
		assert.Empty(t, marks)
	})
}

func TestGetFacultyMatchesCaseInsensitively(t *testing.T) {
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/faculty", r.URL.Path)
		w.Write([]byte(`{"data":[
			{"faculty_id":"FAC01","first_name":"Meera","last_name":"Iyer","designation":"Professor","is_admin":true},
			{"faculty_id":"FAC02","first_name":"Sunil","last_name":"D"}
		]}`))
	}))

	f, err := c.GetFaculty(context.Background(), "fac01")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "Meera Iyer", f.FullName())
	assert.True(t, f.IsAdmin)

	missing, err := c.GetFaculty(context.Background(), "FAC99")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetMarksFiltersLocally(t *testing.T) {
	// The upstream is known to ignore its query parameters; the client must
	// re-filter by student and semester.
	c := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[
			{"student_id":"S1","course_id":"C1","semester":1,"grade":"A"},
			{"student_id":"S1","course_id":"C2","semester":2,"grade":"B"},
			{"student_id":"S2","course_id":"C1","semester":1,"grade":"S"}
		]}`))
	}))

	marks, err := c.GetMarks(context.Background(), "S1", 2)
	require.NoError(t, err)
	require.Len(t, marks, 1)
	assert.Equal(t, "C2", marks[0].CourseID)

	all, err := c.GetMarks(context.Background(), "S1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
