package credential

import (
	"context"
	"sort"
	"sync"
	"time"

	"unicred/pkg/platform/sentinel"
)

// MemoryStore is an in-memory credential store for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	clock   func() time.Time
	records map[string]*Record
	headers map[string]*GradeHeader
	courses map[string][]CourseRecord
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock sets the clock function for testability.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemory constructs an empty in-memory credential store.
func NewMemory(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		clock:   time.Now,
		records: make(map[string]*Record),
		headers: make(map[string]*GradeHeader),
		courses: make(map[string][]CourseRecord),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *rec
	s.records[rec.CredentialID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, credentialID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[credentialID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *MemoryStore) ListByStudent(_ context.Context, studentID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, rec := range s.records {
		if rec.StudentID == studentID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out, nil
}

func (s *MemoryStore) Search(_ context.Context, filter SearchFilter) ([]Record, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Record
	for _, rec := range s.records {
		if rec.Revoked {
			continue
		}
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.Type != "" && rec.Type != filter.Type {
			continue
		}
		if filter.IssuerDID != "" && rec.IssuerDID != filter.IssuerDID {
			continue
		}
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Revoke(_ context.Context, credentialID, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[credentialID]
	if !ok {
		return sentinel.ErrNotFound
	}
	now := s.clock().UTC()
	rec.Revoked = true
	rec.RevokedAt = &now
	rec.RevocationReason = reason
	return nil
}

func (s *MemoryStore) RecordVerification(_ context.Context, credentialID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[credentialID]
	if !ok {
		return sentinel.ErrNotFound
	}
	now := s.clock().UTC()
	rec.VerificationCount++
	rec.LastVerifiedAt = &now
	return nil
}

func (s *MemoryStore) SaveGradeArtifacts(_ context.Context, header *GradeHeader, rows []CourseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *header
	s.headers[header.CredentialID] = &cp
	s.courses[header.CredentialID] = append([]CourseRecord(nil), rows...)
	return nil
}

func (s *MemoryStore) GradeArtifacts(_ context.Context, credentialID string) (*GradeHeader, []CourseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	header, ok := s.headers[credentialID]
	if !ok {
		return nil, nil, sentinel.ErrNotFound
	}
	cp := *header
	return &cp, append([]CourseRecord(nil), s.courses[credentialID]...), nil
}

var _ Store = (*MemoryStore)(nil)
