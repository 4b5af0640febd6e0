package model

import (
	"fmt"
	"math"
	"time"
)

// Factor names a scoring dimension usable as a tie-breaker. The set is
// closed; unknown names are rejected at config-write time.
type Factor string

const (
	FactorAvailability Factor = "availability"
	FactorRating       Factor = "rating"
	FactorDistance     Factor = "distance"
)

// ParseFactor validates a factor name.
func ParseFactor(s string) (Factor, error) {
	switch Factor(s) {
	case FactorAvailability, FactorRating, FactorDistance:
		return Factor(s), nil
	default:
		return "", fmt.Errorf("factor %q: %w", s, ErrUnknownFactor)
	}
}

// RotationConfig tunes the under-utilization boost that nudges work toward
// less busy contractors.
type RotationConfig struct {
	Enabled                   bool    `json:"enabled"`
	BoostPoints               float64 `json:"boost_points"`
	UnderUtilizationThreshold float64 `json:"under_utilization_threshold"`
}

// Weights is the factor weight triple. Each weight lies in [0,1] and the
// triple sums to 1.0 within tolerance.
type Weights struct {
	Availability float64 `json:"availability"`
	Rating       float64 `json:"rating"`
	Distance     float64 `json:"distance"`
}

// weightSumTolerance absorbs float formatting noise in submitted weights.
const weightSumTolerance = 1e-6

// Validate checks range and sum constraints.
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"availability": w.Availability,
		"rating":       w.Rating,
		"distance":     w.Distance,
	} {
		if v < 0 || v > 1 || math.IsNaN(v) {
			return fmt.Errorf("weight %s=%v outside [0,1]: %w", name, v, ErrInvalidWeights)
		}
	}
	if sum := w.Availability + w.Rating + w.Distance; math.Abs(sum-1.0) > weightSumTolerance {
		return fmt.Errorf("weights sum to %v, want 1.0: %w", sum, ErrInvalidWeights)
	}
	return nil
}

// WeightsConfig is one immutable version of the scoring configuration.
// Exactly one version is active at any time; rollbacks append a new version
// rather than reactivating an old row.
type WeightsConfig struct {
	Version     int64          `json:"version"`
	Weights     Weights        `json:"weights"`
	TieBreakers []Factor       `json:"tie_breakers"`
	Rotation    RotationConfig `json:"rotation"`
	Active      bool           `json:"active"`
	CreatedBy   string         `json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`

	// RolledBackFrom is set when this version copies an older one.
	RolledBackFrom int64 `json:"rolled_back_from,omitempty"`
}

// Validate checks the full config, including tie-breaker factor names.
func (c *WeightsConfig) Validate() error {
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	seen := make(map[Factor]struct{}, len(c.TieBreakers))
	for _, f := range c.TieBreakers {
		if _, err := ParseFactor(string(f)); err != nil {
			return err
		}
		if _, dup := seen[f]; dup {
			return fmt.Errorf("duplicate tie-breaker %q: %w", f, ErrInvalidWeights)
		}
		seen[f] = struct{}{}
	}
	if r := c.Rotation; r.Enabled {
		if r.BoostPoints < 0 {
			return fmt.Errorf("rotation boost %v negative: %w", r.BoostPoints, ErrInvalidWeights)
		}
		if r.UnderUtilizationThreshold < 0 || r.UnderUtilizationThreshold > 1 {
			return fmt.Errorf("rotation threshold %v outside [0,1]: %w", r.UnderUtilizationThreshold, ErrInvalidWeights)
		}
	}
	return nil
}

// DefaultWeightsConfig is the seed configuration installed when the store is
// empty.
func DefaultWeightsConfig() WeightsConfig {
	return WeightsConfig{
		Weights:     Weights{Availability: 0.4, Rating: 0.4, Distance: 0.2},
		TieBreakers: []Factor{FactorRating, FactorDistance},
		Rotation: RotationConfig{
			Enabled:                   false,
			BoostPoints:               5,
			UnderUtilizationThreshold: 0.5,
		},
	}
}
