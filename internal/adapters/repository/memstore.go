package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// MemStore is a map-backed Store guarded by a single RWMutex. Reads return
// value copies; nested maps and slices are treated as immutable once stored,
// so mutations must go through the Update callbacks.
type MemStore struct {
	mu          sync.RWMutex
	contractors map[string]model.Contractor
	jobs        map[string]model.Job
	assignments map[string]model.Assignment
}

// NewMemStore creates an empty in-memory store.
func NewMemStore(ctx context.Context) *MemStore {
	return &MemStore{
		contractors: make(map[string]model.Contractor),
		jobs:        make(map[string]model.Job),
		assignments: make(map[string]model.Assignment),
	}
}

// Contractor returns a contractor by id.
func (s *MemStore) Contractor(ctx context.Context, id string) (model.Contractor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contractors[id]
	if !ok {
		return model.Contractor{}, fmt.Errorf("contractor %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// ListContractors returns every contractor.
func (s *MemStore) ListContractors(ctx context.Context) ([]model.Contractor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Contractor, 0, len(s.contractors))
	for _, c := range s.contractors {
		out = append(out, c)
	}
	return out, nil
}

// PutContractor inserts or replaces a contractor.
func (s *MemStore) PutContractor(ctx context.Context, c model.Contractor) error {
	if c.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contractors[c.ID] = c
	return nil
}

// UpdateContractor applies fn to the stored contractor atomically.
func (s *MemStore) UpdateContractor(ctx context.Context, id string, fn func(*model.Contractor) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contractors[id]
	if !ok {
		return fmt.Errorf("contractor %s: %w", id, ErrNotFound)
	}
	if err := fn(&c); err != nil {
		return err
	}
	s.contractors[id] = c
	return nil
}

// Job returns a job by id.
func (s *MemStore) Job(ctx context.Context, id string) (model.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return model.Job{}, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	return j, nil
}

// PutJob inserts or replaces a job.
func (s *MemStore) PutJob(ctx context.Context, j model.Job) error {
	if j.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
	return nil
}

// UpdateJob applies fn to the stored job atomically.
func (s *MemStore) UpdateJob(ctx context.Context, id string, fn func(*model.Job) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err := fn(&j); err != nil {
		return err
	}
	s.jobs[id] = j
	return nil
}

// Assignment returns an assignment by id.
func (s *MemStore) Assignment(ctx context.Context, id string) (model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.assignments[id]
	if !ok {
		return model.Assignment{}, fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	return a, nil
}

// PutAssignment inserts or replaces an assignment.
func (s *MemStore) PutAssignment(ctx context.Context, a model.Assignment) error {
	if a.ID == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[a.ID] = a
	return nil
}

// UpdateAssignment applies fn to the stored assignment atomically.
func (s *MemStore) UpdateAssignment(ctx context.Context, id string, fn func(*model.Assignment) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[id]
	if !ok {
		return fmt.Errorf("assignment %s: %w", id, ErrNotFound)
	}
	if err := fn(&a); err != nil {
		return err
	}
	s.assignments[id] = a
	return nil
}

// AssignmentsForContractor returns the contractor's assignments.
func (s *MemStore) AssignmentsForContractor(ctx context.Context, contractorID string) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Assignment
	for _, a := range s.assignments {
		if a.ContractorID == contractorID {
			out = append(out, a)
		}
	}
	return out, nil
}

// AssignmentsForJob returns the job's assignments.
func (s *MemStore) AssignmentsForJob(ctx context.Context, jobID string) ([]model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Assignment
	for _, a := range s.assignments {
		if a.JobID == jobID {
			out = append(out, a)
		}
	}
	return out, nil
}

// Counts reports entity counts for the stats surface.
func (s *MemStore) Counts(ctx context.Context) (contractors, jobs, assignments int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.contractors), len(s.jobs), len(s.assignments)
}
