package batch

import (
	"context"
	"sort"
	"sync"

	"unicred/pkg/platform/sentinel"
)

// MemoryStore is an in-memory batch store for tests and local runs.
type MemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	jobs    map[string]*Job
	entries map[string][]*LogEntry
}

// NewMemory constructs an empty in-memory batch store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		nextID:  1,
		jobs:    make(map[string]*Job),
		entries: make(map[string][]*LogEntry),
	}
}

func (s *MemoryStore) CreateJob(_ context.Context, job *Job, entries []LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.BatchID]; exists {
		return sentinel.ErrConflict
	}
	cp := *job
	s.jobs[job.BatchID] = &cp
	for i := range entries {
		e := entries[i]
		e.ID = s.nextID
		s.nextID++
		e.BatchID = job.BatchID
		s.entries[job.BatchID] = append(s.entries[job.BatchID], &e)
	}
	return nil
}

func (s *MemoryStore) GetJob(_ context.Context, batchID string) (*Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[batchID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *MemoryStore) ListJobs(_ context.Context) ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, *job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateJob(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.BatchID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *job
	s.jobs[job.BatchID] = &cp
	return nil
}

func (s *MemoryStore) PendingEntries(_ context.Context, batchID string, limit int) ([]LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []LogEntry
	for _, e := range s.entries[batchID] {
		if e.Status != EntryPending {
			continue
		}
		out = append(out, *e)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *MemoryStore) CountPending(_ context.Context, batchID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, e := range s.entries[batchID] {
		if e.Status == EntryPending {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) UpdateEntry(_ context.Context, entry *LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries[entry.BatchID] {
		if e.ID == entry.ID {
			cp := *entry
			*e = cp
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *MemoryStore) Entries(_ context.Context, batchID string) ([]LogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.entries[batchID]
	if !ok {
		if _, jobOK := s.jobs[batchID]; !jobOK {
			return nil, sentinel.ErrNotFound
		}
	}
	out := make([]LogEntry, 0, len(stored))
	for _, e := range stored {
		out = append(out, *e)
	}
	return out, nil
}

var _ Store = (*MemoryStore)(nil)
