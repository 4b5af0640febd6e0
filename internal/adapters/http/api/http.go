// Package api declares HTTP contracts and route registration helpers. The
// core service stays transport-agnostic; this package is one thin embedding.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	RequestRecommendations(ctx context.Context, req model.RecommendationRequest) (*model.RecommendationResult, error)

	GetActiveWeightsConfig(ctx context.Context) (*model.WeightsConfig, error)
	UpdateWeightsConfig(ctx context.Context, cfg model.WeightsConfig, actor string) (*model.WeightsConfig, error)
	RollbackWeightsConfig(ctx context.Context, targetVersion int64, actor string) (*model.WeightsConfig, error)
	GetWeightsConfigHistory(ctx context.Context) ([]model.WeightsConfig, error)

	CreateAssignment(ctx context.Context, jobID, contractorID string, window model.TimeWindow, source model.AssignmentSource, auditID string) (*model.Assignment, error)
	ConfirmAssignment(ctx context.Context, assignmentID string) (*model.Assignment, error)
	CancelAssignment(ctx context.Context, assignmentID string) (*model.Assignment, error)

	RegisterContractor(ctx context.Context, c model.Contractor) error
	CreateJob(ctx context.Context, j model.Job) error
	Job(ctx context.Context, id string) (model.Job, error)

	GetAuditRecord(ctx context.Context, id string) (*model.AuditRecord, error)
	AuditTrailForJob(ctx context.Context, jobID string) ([]model.AuditRecord, error)

	Stats(ctx context.Context) map[string]any
}

// Server wires HTTP routes for the dispatch API.
type Server struct {
	deps Dependencies
}

// NewServer creates the API server.
func NewServer(deps Dependencies) *Server {
	return &Server{deps: deps}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.handleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.handleStats, "stats"))
	mux.HandleFunc("/recommendations", MetricsMiddleware(s.handleRecommendations, "recommendations"))
	mux.HandleFunc("/config/weights", MetricsMiddleware(s.handleWeights, "config_weights"))
	mux.HandleFunc("/config/weights/rollback", MetricsMiddleware(s.handleWeightsRollback, "config_rollback"))
	mux.HandleFunc("/config/weights/history", MetricsMiddleware(s.handleWeightsHistory, "config_history"))
	mux.HandleFunc("/contractors", MetricsMiddleware(s.handleContractors, "contractors"))
	mux.HandleFunc("/jobs", MetricsMiddleware(s.handleJobs, "jobs"))
	mux.HandleFunc("/assignments", MetricsMiddleware(s.handleAssignments, "assignments"))
	mux.HandleFunc("/assignments/", MetricsMiddleware(s.handleAssignmentAction, "assignment_action"))
	mux.HandleFunc("/audit/", MetricsMiddleware(s.handleAudit, "audit"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err)
		return false
	}
	return true
}
