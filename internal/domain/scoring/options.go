// Package scoring combines availability, rating and distance into a ranked
// score with deterministic tie-breaking.
package scoring

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithMaxServiceRadius sets the distance in meters at which the distance
// score reaches zero.
func WithMaxServiceRadius(meters float64) Option {
	return func(e *Engine) {
		if meters > 0 {
			e.maxServiceRadiusMeters = meters
		}
	}
}
