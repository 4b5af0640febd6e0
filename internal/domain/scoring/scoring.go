// Package scoring combines availability, rating and distance into a ranked
// score with deterministic tie-breaking. All computation is pure; identical
// inputs always produce identical output.
package scoring

import (
	"math"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultMaxServiceRadiusMeters = 50_000
	maxScoreValue                 = 100
	tieEpsilon                    = 0.01
)

// DistanceInfo is the resolved distance for one candidate. Unknown marks the
// sentinel applied when the batch resolver failed for this pair.
type DistanceInfo struct {
	Meters     float64
	ETAMinutes float64
	Unknown    bool
}

// Engine computes candidate scores against the active weights config.
type Engine struct {
	maxServiceRadiusMeters float64
}

// NewEngine creates a scoring engine with configuration options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		maxServiceRadiusMeters: defaultMaxServiceRadiusMeters,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Score computes the factor breakdown and final score for one candidate.
// slots must be non-empty and ordered by earliest start; callers hard-filter
// zero-availability candidates before this stage.
func (e *Engine) Score(
	contractor *model.Contractor,
	serviceWindow model.TimeWindow,
	slots []model.TimeWindow,
	dist DistanceInfo,
	cfg *model.WeightsConfig,
) (model.ScoreBreakdown, float64) {
	breakdown := model.ScoreBreakdown{
		Availability: e.availabilityScore(serviceWindow, slots),
		Rating:       contractor.NormalizedRating(),
		Distance:     e.distanceScore(dist),
	}
	breakdown.DistanceUnknown = dist.Unknown

	final := cfg.Weights.Availability*breakdown.Availability +
		cfg.Weights.Rating*breakdown.Rating +
		cfg.Weights.Distance*breakdown.Distance

	if r := cfg.Rotation; r.Enabled && contractor.CurrentUtilization < r.UnderUtilizationThreshold {
		breakdown.Rotation = r.BoostPoints
		final += r.BoostPoints
	}

	return breakdown, clamp(final)
}

// availabilityScore rewards candidates who can start close to the window
// open: 100 means an immediate start, 0 a start at or past window close.
func (e *Engine) availabilityScore(window model.TimeWindow, slots []model.TimeWindow) float64 {
	if len(slots) == 0 {
		return 0
	}
	windowLen := window.Duration().Seconds()
	if windowLen <= 0 {
		return 0
	}
	delay := slots[0].Start.Sub(window.Start).Seconds()
	return clamp(maxScoreValue * (1 - delay/windowLen))
}

// distanceScore decays linearly to zero at the service radius. Unknown
// distances score zero and are flagged in the breakdown.
func (e *Engine) distanceScore(dist DistanceInfo) float64 {
	if dist.Unknown {
		return 0
	}
	return clamp(maxScoreValue * (1 - dist.Meters/e.maxServiceRadiusMeters))
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(maxScoreValue, v))
}
