package api

import (
	"errors"
	"net/http"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// weightsRequest mirrors the POST /config/weights body.
type weightsRequest struct {
	Weights     model.Weights        `json:"weights"`
	TieBreakers []string             `json:"tie_breakers"`
	Rotation    model.RotationConfig `json:"rotation"`
	Actor       string               `json:"actor"`
}

// handleWeights serves GET and POST /config/weights.
func (s *Server) handleWeights(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		cfg, err := s.deps.GetActiveWeightsConfig(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, cfg)

	case http.MethodPost:
		var body weightsRequest
		if !decodeBody(w, r, &body) {
			return
		}
		if body.Actor == "" {
			writeError(w, http.StatusBadRequest, "invalid_request", errors.New("missing actor"))
			return
		}

		cfg := model.WeightsConfig{
			Weights:  body.Weights,
			Rotation: body.Rotation,
		}
		for _, name := range body.TieBreakers {
			factor, err := model.ParseFactor(name)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request", err)
				return
			}
			cfg.TieBreakers = append(cfg.TieBreakers, factor)
		}

		created, err := s.deps.UpdateWeightsConfig(r.Context(), cfg, body.Actor)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
	}
}

// rollbackRequest mirrors the POST /config/weights/rollback body.
type rollbackRequest struct {
	Version int64  `json:"version"`
	Actor   string `json:"actor"`
}

// handleWeightsRollback serves POST /config/weights/rollback.
func (s *Server) handleWeightsRollback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	var body rollbackRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Version <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", errors.New("missing version"))
		return
	}

	created, err := s.deps.RollbackWeightsConfig(r.Context(), body.Version, body.Actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// handleWeightsHistory serves GET /config/weights/history.
func (s *Server) handleWeightsHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	history, err := s.deps.GetWeightsConfigHistory(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, history)
}
