package app

import (
	"context"
	"fmt"

	"github.com/fieldwise/dispatch/internal/adapters/repository"
	"github.com/fieldwise/dispatch/internal/domain/model"
	"github.com/fieldwise/dispatch/pkg/metrics"
)

// Stats returns a monitoring snapshot for the /stats endpoint.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":       s.started,
		"audit_workers": s.workerCount,
		"audit_queue":   s.queueSize,
		"parallelism":   s.parallelism,
	}
	if !s.started {
		return stats
	}

	queueLen := s.auditQueue.Len()
	stats["audit_queue_length"] = queueLen
	metrics.UpdateAuditQueueSize(queueLen)

	if counter, ok := s.store.(interface {
		Counts(ctx context.Context) (contractors, jobs, assignments int)
	}); ok {
		contractors, jobs, assignments := counter.Counts(ctx)
		stats["contractors"] = contractors
		stats["jobs"] = jobs
		stats["assignments"] = assignments
	}
	if cfg, err := s.cache.Active(ctx); err == nil {
		stats["config_version"] = cfg.Version
	}
	return stats
}

// RegisterContractor inserts or replaces a contractor.
func (s *Service) RegisterContractor(ctx context.Context, c model.Contractor) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	if c.ID == "" {
		return repository.ErrMissingID
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return s.store.PutContractor(ctx, c)
}

// CreateJob inserts a new job in Created status.
func (s *Service) CreateJob(ctx context.Context, j model.Job) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	if j.ID == "" {
		return repository.ErrMissingID
	}
	if j.Status == "" {
		j.Status = model.JobCreated
	}
	return s.store.PutJob(ctx, j)
}

// Job returns one job by id.
func (s *Service) Job(ctx context.Context, id string) (model.Job, error) {
	return s.store.Job(ctx, id)
}

// Contractor returns one contractor by id.
func (s *Service) Contractor(ctx context.Context, id string) (model.Contractor, error) {
	return s.store.Contractor(ctx, id)
}
