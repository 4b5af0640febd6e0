package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldwise/dispatch/internal/adapters/repository"
	"github.com/fieldwise/dispatch/internal/domain/model"
	"github.com/fieldwise/dispatch/pkg/logger"
)

// CreateAssignment books a contractor for a job window. Source records
// whether a dispatcher picked the contractor manually or accepted a
// recommendation; auditID links back to the recommendation audit record.
func (s *Service) CreateAssignment(
	ctx context.Context,
	jobID, contractorID string,
	window model.TimeWindow,
	source model.AssignmentSource,
	auditID string,
) (*model.Assignment, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	if !window.End.After(window.Start) {
		return nil, fmt.Errorf("assignment window %s: %w", window, ErrValidation)
	}
	if source != model.SourceManual && source != model.SourceRecommended {
		return nil, fmt.Errorf("assignment source %q: %w", source, ErrValidation)
	}

	job, err := s.store.Job(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", jobID, err)
	}
	if job.Terminal() {
		return nil, fmt.Errorf("job %s is %s: %w", job.ID, job.Status, ErrValidation)
	}
	if _, err := s.store.Contractor(ctx, contractorID); err != nil {
		return nil, fmt.Errorf("contractor %s: %w", contractorID, err)
	}

	assignment := model.Assignment{
		ID:           uuid.NewString(),
		JobID:        jobID,
		ContractorID: contractorID,
		Window:       window,
		Source:       source,
		Status:       model.AssignmentPending,
		AuditID:      auditID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.PutAssignment(ctx, assignment); err != nil {
		return nil, fmt.Errorf("store assignment: %w", err)
	}

	// Pending bookings already occupy calendar capacity.
	if err := s.adjustUtilization(ctx, contractorID, 1); err != nil {
		s.log.Warn(ctx, "utilization adjust failed",
			logger.String("contractor_id", contractorID),
			logger.Error(err))
	}

	s.log.Info(ctx, "assignment created",
		logger.String("assignment_id", assignment.ID),
		logger.String("job_id", jobID),
		logger.String("contractor_id", contractorID),
		logger.String("source", string(source)))
	return &assignment, nil
}

// ConfirmAssignment moves a pending assignment to confirmed and the job to
// Assigned on its first confirmation.
func (s *Service) ConfirmAssignment(ctx context.Context, assignmentID string) (*model.Assignment, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}

	var confirmed model.Assignment
	err := s.store.UpdateAssignment(ctx, assignmentID, func(a *model.Assignment) error {
		if a.Status != model.AssignmentPending {
			return fmt.Errorf("assignment %s is %s: %w", a.ID, a.Status, model.ErrInvalidTransition)
		}
		a.Status = model.AssignmentConfirmed
		confirmed = *a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.syncJobAssignments(ctx, confirmed.JobID); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "assignment confirmed",
		logger.String("assignment_id", confirmed.ID),
		logger.String("job_id", confirmed.JobID))
	return &confirmed, nil
}

// CancelAssignment cancels a pending or confirmed assignment, releasing the
// contractor's capacity. A job left without confirmed assignments drops back
// to Created.
func (s *Service) CancelAssignment(ctx context.Context, assignmentID string) (*model.Assignment, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}

	var cancelled model.Assignment
	err := s.store.UpdateAssignment(ctx, assignmentID, func(a *model.Assignment) error {
		if !a.Active() {
			return fmt.Errorf("assignment %s is %s: %w", a.ID, a.Status, model.ErrInvalidTransition)
		}
		a.Status = model.AssignmentCancelled
		cancelled = *a
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.adjustUtilization(ctx, cancelled.ContractorID, -1); err != nil {
		s.log.Warn(ctx, "utilization adjust failed",
			logger.String("contractor_id", cancelled.ContractorID),
			logger.Error(err))
	}
	if err := s.syncJobAssignments(ctx, cancelled.JobID); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "assignment cancelled",
		logger.String("assignment_id", cancelled.ID),
		logger.String("job_id", cancelled.JobID))
	return &cancelled, nil
}

// syncJobAssignments rederives the job's assigned contractor list from its
// confirmed assignments and keeps the job status in step.
func (s *Service) syncJobAssignments(ctx context.Context, jobID string) error {
	assignments, err := s.store.AssignmentsForJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("assignments for job %s: %w", jobID, err)
	}
	var contractors []string
	for _, a := range assignments {
		if a.Status == model.AssignmentConfirmed {
			contractors = append(contractors, a.ContractorID)
		}
	}

	return s.store.UpdateJob(ctx, jobID, func(j *model.Job) error {
		j.AssignedContractors = contractors
		switch {
		case len(contractors) > 0 && j.Status == model.JobCreated:
			return j.Transition(model.JobAssigned)
		case len(contractors) == 0 && j.Status == model.JobAssigned:
			return j.Transition(model.JobCreated)
		default:
			return nil
		}
	})
}

func (s *Service) adjustUtilization(ctx context.Context, contractorID string, delta int) error {
	err := s.store.UpdateContractor(ctx, contractorID, func(c *model.Contractor) error {
		c.JobsBookedToday += delta
		if c.JobsBookedToday < 0 {
			c.JobsBookedToday = 0
		}
		if c.MaxJobsPerDay > 0 {
			c.CurrentUtilization = float64(c.JobsBookedToday) / float64(c.MaxJobsPerDay)
			if c.CurrentUtilization > 1 {
				c.CurrentUtilization = 1
			}
		}
		return nil
	})
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	return err
}
