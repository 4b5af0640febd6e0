package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// handleContractors serves POST /contractors.
func (s *Server) handleContractors(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	var contractor model.Contractor
	if !decodeBody(w, r, &contractor) {
		return
	}
	if err := s.deps.RegisterContractor(r.Context(), contractor); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, contractor)
}

// handleJobs serves POST /jobs and GET /jobs?id=.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var job model.Job
		if !decodeBody(w, r, &job) {
			return
		}
		if err := s.deps.CreateJob(r.Context(), job); err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, job)

	case http.MethodGet:
		id := r.URL.Query().Get("id")
		if id == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", errors.New("missing id"))
			return
		}
		job, err := s.deps.Job(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, job)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	}
}

// assignmentRequest mirrors the POST /assignments body.
type assignmentRequest struct {
	JobID        string           `json:"job_id"`
	ContractorID string           `json:"contractor_id"`
	Window       model.TimeWindow `json:"window"`
	Source       string           `json:"source"`
	AuditID      string           `json:"audit_id,omitempty"`
}

// handleAssignments serves POST /assignments.
func (s *Server) handleAssignments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	var body assignmentRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.JobID == "" || body.ContractorID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("missing job_id or contractor_id"))
		return
	}

	created, err := s.deps.CreateAssignment(r.Context(), body.JobID, body.ContractorID,
		body.Window, model.AssignmentSource(body.Source), body.AuditID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleAssignmentAction serves POST /assignments/{id}/confirm and
// POST /assignments/{id}/cancel.
func (s *Server) handleAssignmentAction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/assignments/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", ErrBadRequest)
		return
	}
	id, action := parts[0], parts[1]

	var (
		assignment *model.Assignment
		err        error
	)
	switch action {
	case "confirm":
		assignment, err = s.deps.ConfirmAssignment(r.Context(), id)
	case "cancel":
		assignment, err = s.deps.CancelAssignment(r.Context(), id)
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", ErrBadRequest)
		return
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assignment)
}

// handleAudit serves GET /audit/{id} and GET /audit/?job=.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/audit/")
	if id == "" {
		jobID := r.URL.Query().Get("job")
		if jobID == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", errors.New("missing audit id or job parameter"))
			return
		}
		trail, err := s.deps.AuditTrailForJob(r.Context(), jobID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, trail)
		return
	}

	record, err := s.deps.GetAuditRecord(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
