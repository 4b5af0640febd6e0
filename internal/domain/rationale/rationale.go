// Package rationale produces bounded-length, deterministic human-readable
// explanations from a score breakdown. No randomness, no mutable state.
package rationale

import (
	"fmt"
	"strings"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

// Template thresholds.
const (
	// MaxLength bounds the generated text, ellipsis included.
	MaxLength = 200

	highScoreThreshold = 80
	goodScoreThreshold = 60
	listedThreshold    = 50

	ellipsis = "..."
)

// descriptor buckets a generic factor score.
func descriptor(score float64) string {
	switch {
	case score >= 80:
		return "excellent"
	case score >= 60:
		return "good"
	case score >= 40:
		return "moderate"
	default:
		return "limited"
	}
}

// ratingDescriptor uses shifted buckets; customer ratings cluster high, so
// the thresholds sit higher than the generic ones.
func ratingDescriptor(score float64) string {
	switch {
	case score >= 90:
		return "excellent"
	case score >= 75:
		return "good"
	case score >= 60:
		return "moderate"
	case score >= 50:
		return "fair"
	default:
		return "limited"
	}
}

func describe(f model.Factor, score float64) string {
	if f == model.FactorRating {
		return ratingDescriptor(score)
	}
	return descriptor(score)
}

// display names for factors in rationale text.
var factorNames = map[model.Factor]string{
	model.FactorAvailability: "availability",
	model.FactorRating:       "customer rating",
	model.FactorDistance:     "proximity",
}

// Generate builds the rationale for one candidate. The result never exceeds
// MaxLength characters; longer text is cut at the character boundary with a
// trailing ellipsis.
func Generate(breakdown model.ScoreBreakdown, finalScore float64) string {
	primary, rest := splitPrimary(breakdown)
	primaryScore := breakdown.FactorScore(primary)

	var text string
	switch {
	case primaryScore >= highScoreThreshold:
		text = fmt.Sprintf("Strong match on %s (%.0f/100): %s is %s, %s is %s. Overall score %.1f.",
			factorNames[primary], primaryScore,
			factorNames[rest[0]], describe(rest[0], breakdown.FactorScore(rest[0])),
			factorNames[rest[1]], describe(rest[1], breakdown.FactorScore(rest[1])),
			finalScore)
	case primaryScore >= goodScoreThreshold:
		text = fmt.Sprintf("Good match on %s (%.0f/100): %s is %s, %s is %s. Overall score %.1f.",
			factorNames[primary], primaryScore,
			factorNames[rest[0]], describe(rest[0], breakdown.FactorScore(rest[0])),
			factorNames[rest[1]], describe(rest[1], breakdown.FactorScore(rest[1])),
			finalScore)
	default:
		text = balanced(breakdown, finalScore)
	}

	if breakdown.DistanceUnknown {
		text += " Distance could not be resolved."
	}
	return truncate(text)
}

// balanced lists every factor at or above the listing threshold, or falls
// back to a bare overall-score sentence.
func balanced(breakdown model.ScoreBreakdown, finalScore float64) string {
	var parts []string
	for _, f := range []model.Factor{model.FactorAvailability, model.FactorRating, model.FactorDistance} {
		if score := breakdown.FactorScore(f); score >= listedThreshold {
			parts = append(parts, fmt.Sprintf("%s is %s (%.0f)", factorNames[f], describe(f, score), score))
		}
	}
	if len(parts) == 0 {
		return fmt.Sprintf("Overall score %.1f.", finalScore)
	}
	return fmt.Sprintf("Balanced profile: %s. Overall score %.1f.", strings.Join(parts, ", "), finalScore)
}

// splitPrimary picks the highest factor as primary and returns the other two
// in canonical order. Ties resolve in availability, rating, distance order.
func splitPrimary(breakdown model.ScoreBreakdown) (model.Factor, [2]model.Factor) {
	order := []model.Factor{model.FactorAvailability, model.FactorRating, model.FactorDistance}
	primary := order[0]
	for _, f := range order[1:] {
		if breakdown.FactorScore(f) > breakdown.FactorScore(primary) {
			primary = f
		}
	}
	var rest [2]model.Factor
	i := 0
	for _, f := range order {
		if f != primary {
			rest[i] = f
			i++
		}
	}
	return primary, rest
}

// truncate enforces the length bound. Cutting inside a numeric token is an
// accepted limitation.
func truncate(s string) string {
	if len(s) <= MaxLength {
		return s
	}
	return s[:MaxLength-len(ellipsis)] + ellipsis
}
