package model

import "time"

// ScoreBreakdown carries the per-factor raw scores (0-100 each) behind a
// candidate's final score. Ephemeral outside the audit snapshot.
type ScoreBreakdown struct {
	Availability float64 `json:"availability"`
	Rating       float64 `json:"rating"`
	Distance     float64 `json:"distance"`
	Rotation     float64 `json:"rotation,omitempty"`

	// DistanceUnknown marks the sentinel applied when the batch distance
	// resolver failed for this candidate.
	DistanceUnknown bool `json:"distance_unknown,omitempty"`
}

// FactorScore returns the raw score of a named factor.
func (b ScoreBreakdown) FactorScore(f Factor) float64 {
	switch f {
	case FactorAvailability:
		return b.Availability
	case FactorRating:
		return b.Rating
	case FactorDistance:
		return b.Distance
	default:
		return 0
	}
}

// Recommendation is one ranked candidate returned to the caller.
type Recommendation struct {
	ContractorID   string         `json:"contractor_id"`
	ContractorName string         `json:"contractor_name"`
	Score          float64        `json:"score"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	Rationale      string         `json:"rationale"`
	Slots          []TimeWindow   `json:"slots"`
	DistanceMeters float64        `json:"distance_meters"`
	ETAMinutes     float64        `json:"eta_minutes"`
}

// RecommendationRequest captures the parameters of one ranking request.
type RecommendationRequest struct {
	JobID         string     `json:"job_id"`
	DesiredDate   Date       `json:"desired_date"`
	ServiceWindow TimeWindow `json:"service_window"`
	MaxResults    int        `json:"max_results"`
	Actor         string     `json:"actor"`
}

// RecommendationResult is the full response for one ranking request.
type RecommendationResult struct {
	RequestID         string           `json:"request_id"`
	JobID             string           `json:"job_id"`
	Recommendations   []Recommendation `json:"recommendations"`
	ConfigVersionUsed int64            `json:"config_version_used"`
	GeneratedAt       time.Time        `json:"generated_at"`

	// EmptyReason explains an empty ranked list (all candidates hard-filtered).
	EmptyReason string `json:"empty_reason,omitempty"`
}

// ScoredCandidate is the audit snapshot of one scored candidate, kept for
// every candidate whether or not it made the returned list.
type ScoredCandidate struct {
	ContractorID   string         `json:"contractor_id"`
	ContractorName string         `json:"contractor_name"`
	Score          float64        `json:"score"`
	Breakdown      ScoreBreakdown `json:"breakdown"`
	Slots          []TimeWindow   `json:"slots"`
	DistanceMeters float64        `json:"distance_meters"`
	ETAMinutes     float64        `json:"eta_minutes"`
	Returned       bool           `json:"returned"`
}

// AuditRecord is the immutable trail of one recommendation request.
// Write-once, never updated.
type AuditRecord struct {
	ID          string                `json:"id"`
	JobID       string                `json:"job_id"`
	Request     RecommendationRequest `json:"request"`
	Candidates  []ScoredCandidate     `json:"candidates"`
	ConfigUsed  int64                 `json:"config_used"`
	EmptyReason string                `json:"empty_reason,omitempty"`
	Actor       string                `json:"actor"`
	CreatedAt   time.Time             `json:"created_at"`
}
