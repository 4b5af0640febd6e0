package routing

import "github.com/fieldwise/dispatch/pkg/logger"

// Option configures the haversine resolver.
type Option func(*HaversineResolver)

// WithAverageSpeed overrides the driving speed in km/h used for ETA
// estimates. Non-positive values are ignored.
func WithAverageSpeed(kmh float64) Option {
	return func(r *HaversineResolver) {
		if kmh > 0 {
			r.speedKmh = kmh
		}
	}
}

// WithLogger overrides the resolver's logger.
func WithLogger(log logger.Logger) Option {
	return func(r *HaversineResolver) {
		r.log = log
	}
}
