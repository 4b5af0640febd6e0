package model

import (
	"fmt"
	"time"
)

// JobStatus is the lifecycle state of a job.
type JobStatus string

const (
	JobCreated    JobStatus = "created"
	JobAssigned   JobStatus = "assigned"
	JobInProgress JobStatus = "in_progress"
	JobCompleted  JobStatus = "completed"
	JobCancelled  JobStatus = "cancelled"
)

// allowedTransitions encodes the job state machine. Cancellation is allowed
// only from Created and Assigned; Cancelled and Completed are terminal.
var allowedTransitions = map[JobStatus][]JobStatus{
	JobCreated:    {JobAssigned, JobCancelled},
	JobAssigned:   {JobCreated, JobInProgress, JobCancelled},
	JobInProgress: {JobCompleted},
}

// Job is a unit of field-service work to be dispatched.
type Job struct {
	ID             string        `json:"id"`
	Type           string        `json:"type"`
	RequiredSkills []string      `json:"required_skills"`
	Duration       time.Duration `json:"duration"`
	Location       LatLng        `json:"location"`
	DesiredDate    Date          `json:"desired_date"`
	ServiceWindow  TimeWindow    `json:"service_window"`
	Priority       int           `json:"priority"`
	Status         JobStatus     `json:"status"`

	// Derived from active assignments; not mutated directly.
	AssignedContractors []string `json:"assigned_contractors"`

	// LastAuditID references the most recent recommendation audit record.
	LastAuditID string `json:"last_audit_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CanTransition reports whether the status change is allowed.
func (j *Job) CanTransition(to JobStatus) bool {
	for _, next := range allowedTransitions[j.Status] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition moves the job to a new status or fails with ErrInvalidTransition.
func (j *Job) Transition(to JobStatus) error {
	if !j.CanTransition(to) {
		return fmt.Errorf("job %s: %s -> %s: %w", j.ID, j.Status, to, ErrInvalidTransition)
	}
	j.Status = to
	return nil
}

// Terminal reports whether the job can no longer accept recommendations.
func (j *Job) Terminal() bool {
	return j.Status == JobCancelled || j.Status == JobCompleted
}

// AssignmentSource records how an assignment was created.
type AssignmentSource string

const (
	SourceManual      AssignmentSource = "manual"
	SourceRecommended AssignmentSource = "recommended"
)

// AssignmentStatus is the lifecycle state of an assignment.
type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentConfirmed AssignmentStatus = "confirmed"
	AssignmentCancelled AssignmentStatus = "cancelled"
)

// Assignment books a contractor's calendar for a concrete interval. It is the
// unit that occupies capacity; job assignment lists are derived from it.
type Assignment struct {
	ID           string           `json:"id"`
	JobID        string           `json:"job_id"`
	ContractorID string           `json:"contractor_id"`
	Window       TimeWindow       `json:"window"`
	Source       AssignmentSource `json:"source"`
	Status       AssignmentStatus `json:"status"`
	AuditID      string           `json:"audit_id,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// Active reports whether the assignment still occupies calendar capacity.
func (a *Assignment) Active() bool {
	return a.Status == AssignmentPending || a.Status == AssignmentConfirmed
}
