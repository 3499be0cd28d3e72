// Package contineo implements the directory port against a Contineo-style
// academic records HTTP API.
package contineo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"unicred/internal/directory"
	"unicred/internal/platform/config"
)

// Client talks to the academic records API. Every lookup degrades to an empty
// result on transport or decoding failure so one flaky upstream call can
// never abort a batch; failures are logged, not returned.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New constructs a Contineo client. The per-call timeout from cfg bounds each
// lookup so a slow upstream cannot starve a processing chunk.
func New(cfg config.DirectoryConfig, opts ...Option) *Client {
	c := &Client{
		baseURL: cfg.BaseURL,
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the Contineo response wrapper: {"success": true, "data": [...]}.
// Some deployments return the bare array instead.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

func get[T any](ctx context.Context, c *Client, endpoint string, params url.Values) []T {
	u := c.baseURL + "/" + endpoint
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		c.logger.ErrorContext(ctx, "building directory request", "endpoint", endpoint, "error", err)
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "directory request failed", "endpoint", endpoint, "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "directory returned non-200", "endpoint", endpoint, "status", resp.StatusCode)
		return nil
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		c.logger.WarnContext(ctx, "directory returned invalid JSON", "endpoint", endpoint, "error", err)
		return nil
	}

	// Unwrap the {success, data} envelope when present.
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && len(env.Data) > 0 {
		raw = env.Data
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		c.logger.WarnContext(ctx, "directory payload shape unexpected", "endpoint", endpoint, "error", err)
		return nil
	}
	return items
}

func (c *Client) GetStudents(ctx context.Context, filter directory.Filter) ([]directory.Student, error) {
	students := get[directory.Student](ctx, c, "students", nil)
	if filter == (directory.Filter{}) {
		return students, nil
	}
	matched := make([]directory.Student, 0, len(students))
	for _, s := range students {
		if filter.Matches(s) {
			matched = append(matched, s)
		}
	}
	return matched, nil
}

func (c *Client) GetStudent(ctx context.Context, studentID string) (*directory.Student, error) {
	students := get[directory.Student](ctx, c, "students", nil)
	for _, s := range students {
		if s.StudentID == studentID {
			return &s, nil
		}
	}
	return nil, nil
}

func (c *Client) GetCourses(ctx context.Context) ([]directory.Course, error) {
	return get[directory.Course](ctx, c, "courses", nil), nil
}

func (c *Client) GetFaculty(ctx context.Context, facultyID string) (*directory.Faculty, error) {
	faculty := get[directory.Faculty](ctx, c, "faculty", nil)
	for _, f := range faculty {
		// Faculty IDs are matched case-insensitively upstream.
		if strings.EqualFold(f.FacultyID, facultyID) {
			return &f, nil
		}
	}
	return nil, nil
}

func (c *Client) GetMarks(ctx context.Context, studentID string, semester int) ([]directory.Mark, error) {
	params := url.Values{"student_id": []string{studentID}}
	if semester > 0 {
		params.Set("semester", strconv.Itoa(semester))
	}
	marks := get[directory.Mark](ctx, c, "marks", params)

	// The API has been observed to ignore its query filters; filter locally
	// so marks are always student (and semester) specific.
	filtered := marks[:0]
	for _, m := range marks {
		if m.StudentID != studentID {
			continue
		}
		if semester > 0 && m.Semester != semester {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered, nil
}

var _ directory.Directory = (*Client)(nil)

// String implements fmt.Stringer for debug logging.
func (c *Client) String() string {
	return fmt.Sprintf("contineo(%s)", c.baseURL)
}
