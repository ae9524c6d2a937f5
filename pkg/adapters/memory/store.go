package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/cutline/pkg/domain"
)

// Store implements ports.JobStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Job
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Job),
	}
}

// Save persists a copy of the job.
func (s *Store) Save(ctx context.Context, job *domain.Job) error {
	cp := job.Snapshot()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[job.ID] = cp
	return nil
}

// Load returns a copy so callers can't mutate the stored record.
func (s *Store) Load(ctx context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.data[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return job.Snapshot(), nil
}

// Delete removes the job.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored job IDs in sorted order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
