// Package repository defines the entity store interfaces the core consumes
// and an in-memory implementation.
package repository

import (
	"context"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// ContractorStore provides read/write access to contractors.
type ContractorStore interface {
	// Contractor returns a contractor by id or ErrNotFound.
	Contractor(ctx context.Context, id string) (model.Contractor, error)

	// ListContractors returns every contractor, order unspecified.
	ListContractors(ctx context.Context) ([]model.Contractor, error)

	// PutContractor inserts or replaces a contractor.
	PutContractor(ctx context.Context, c model.Contractor) error

	// UpdateContractor applies fn to the stored contractor atomically.
	UpdateContractor(ctx context.Context, id string, fn func(*model.Contractor) error) error
}

// JobStore provides read/write access to jobs.
type JobStore interface {
	// Job returns a job by id or ErrNotFound.
	Job(ctx context.Context, id string) (model.Job, error)

	// PutJob inserts or replaces a job.
	PutJob(ctx context.Context, j model.Job) error

	// UpdateJob applies fn to the stored job atomically.
	UpdateJob(ctx context.Context, id string, fn func(*model.Job) error) error
}

// AssignmentStore provides read/write access to assignments.
type AssignmentStore interface {
	// Assignment returns an assignment by id or ErrNotFound.
	Assignment(ctx context.Context, id string) (model.Assignment, error)

	// PutAssignment inserts or replaces an assignment.
	PutAssignment(ctx context.Context, a model.Assignment) error

	// UpdateAssignment applies fn to the stored assignment atomically.
	UpdateAssignment(ctx context.Context, id string, fn func(*model.Assignment) error) error

	// AssignmentsForContractor returns the contractor's assignments.
	AssignmentsForContractor(ctx context.Context, contractorID string) ([]model.Assignment, error)

	// AssignmentsForJob returns the job's assignments.
	AssignmentsForJob(ctx context.Context, jobID string) ([]model.Assignment, error)
}

// Store bundles the three entity stores.
type Store interface {
	ContractorStore
	JobStore
	AssignmentStore
}
