package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/fieldwise/dispatch/internal/adapters/repository"
	"github.com/fieldwise/dispatch/internal/adapters/sqlite"
	"github.com/fieldwise/dispatch/internal/app"
	"github.com/fieldwise/dispatch/internal/domain/model"
)

// recommendationRequest mirrors the POST /recommendations body.
type recommendationRequest struct {
	JobID         string            `json:"job_id"`
	DesiredDate   model.Date        `json:"desired_date,omitempty"`
	ServiceWindow *model.TimeWindow `json:"service_window,omitempty"`
	MaxResults    int               `json:"max_results,omitempty"`
	Actor         string            `json:"actor,omitempty"`
}

func (r recommendationRequest) validate() error {
	if strings.TrimSpace(r.JobID) == "" {
		return errors.New("missing job_id")
	}
	if r.MaxResults < 0 {
		return errors.New("max_results must be non-negative")
	}
	return nil
}

// handleRecommendations serves POST /recommendations.
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	var body recommendationRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if err := body.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", err)
		return
	}

	req := model.RecommendationRequest{
		JobID:       body.JobID,
		DesiredDate: body.DesiredDate,
		MaxResults:  body.MaxResults,
		Actor:       body.Actor,
	}
	if body.ServiceWindow != nil {
		req.ServiceWindow = *body.ServiceWindow
	}

	result, err := s.deps.RequestRecommendations(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeServiceError maps service errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, sqlite.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, app.ErrValidation),
		errors.Is(err, model.ErrInvalidWeights),
		errors.Is(err, model.ErrUnknownFactor),
		errors.Is(err, sqlite.ErrInvalidRollback):
		writeError(w, http.StatusBadRequest, "invalid_request", err)
	case errors.Is(err, model.ErrInvalidTransition), errors.Is(err, sqlite.ErrConflict):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, app.ErrNotStarted), errors.Is(err, app.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
