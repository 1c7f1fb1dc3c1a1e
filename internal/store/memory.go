package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/nvandessel/cable/internal/sections"
)

// InMemoryResultStore implements ResultStore for testing and dry runs.
type InMemoryResultStore struct {
	mu   sync.RWMutex
	runs map[string]RunRecord
	now  func() time.Time
}

// NewInMemoryResultStore creates a new in-memory store.
func NewInMemoryResultStore() *InMemoryResultStore {
	return &InMemoryResultStore{
		runs: make(map[string]RunRecord),
		now:  time.Now,
	}
}

// SaveRun stores a deep copy of run.
func (s *InMemoryResultStore) SaveRun(ctx context.Context, run RunRecord) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := prepare(&run, s.now); err != nil {
		return "", err
	}
	if _, exists := s.runs[run.ID]; exists {
		return "", fmt.Errorf("run %s already exists", run.ID)
	}
	s.runs[run.ID] = cloneRun(run)
	return run.ID, nil
}

// GetRun returns a copy of the stored run.
func (s *InMemoryResultStore) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	out := cloneRun(run)
	return &out, nil
}

// ListRuns returns summaries, newest first.
func (s *InMemoryResultStore) ListRuns(ctx context.Context) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		out = append(out, run.Summary())
	}
	sortSummaries(out)
	return out, nil
}

// DeleteRun removes a run.
func (s *InMemoryResultStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	delete(s.runs, id)
	return nil
}

// Close is a no-op.
func (s *InMemoryResultStore) Close() error {
	return nil
}

func cloneRun(r RunRecord) RunRecord {
	out := r
	out.Sections = make([]sections.Geometry, len(r.Sections))
	for i, g := range r.Sections {
		g.Nodes = append([]int64(nil), g.Nodes...)
		out.Sections[i] = g
	}
	out.Time = append([]float64(nil), r.Time...)
	out.Traces = make([]TraceRecord, len(r.Traces))
	for i, tr := range r.Traces {
		tr.Values = append([]float64(nil), tr.Values...)
		out.Traces[i] = tr
	}
	return out
}

func sortSummaries(s []RunSummary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].CreatedAt.Equal(s[j].CreatedAt) {
			return s[i].CreatedAt.After(s[j].CreatedAt)
		}
		return s[i].ID < s[j].ID
	})
}
