// Package routing resolves driving distance and ETA between a job site and a
// batch of contractor locations. The default resolver is a great-circle
// estimate; a real routing provider plugs in behind the same interface.
package routing

import (
	"context"
	"math"

	"github.com/fieldwise/dispatch/internal/domain/model"
	"github.com/fieldwise/dispatch/pkg/logger"
	"github.com/fieldwise/dispatch/pkg/metrics"
)

// Result is the resolved distance and travel estimate for one destination.
type Result struct {
	Meters     float64
	ETAMinutes float64
}

// BatchResolver resolves distances from one origin to many destinations in a
// single call. Implementations return partial results: a destination missing
// from the map could not be resolved and the caller degrades gracefully.
type BatchResolver interface {
	ResolveBatch(ctx context.Context, origin model.LatLng, destinations map[string]model.LatLng) (map[string]Result, error)
}

const (
	earthRadiusMeters = 6_371_000

	// defaultSpeedKmh approximates urban driving for ETA purposes.
	defaultSpeedKmh = 40.0
)

// HaversineResolver estimates distance as the great-circle arc and ETA from a
// flat average speed. Deterministic and dependency-free, used as the default
// and in tests.
type HaversineResolver struct {
	speedKmh float64
	log      logger.Logger
}

// NewHaversineResolver builds the default resolver.
func NewHaversineResolver(opts ...Option) *HaversineResolver {
	r := &HaversineResolver{
		speedKmh: defaultSpeedKmh,
		log:      logger.Get().Named("routing"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveBatch computes results for every destination with valid coordinates.
// Invalid coordinates are skipped rather than failing the batch; the caller
// treats missing keys as unknown distance.
func (r *HaversineResolver) ResolveBatch(ctx context.Context, origin model.LatLng, destinations map[string]model.LatLng) (map[string]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !validCoords(origin) {
		return nil, ErrInvalidOrigin
	}

	results := make(map[string]Result, len(destinations))
	for id, dest := range destinations {
		if !validCoords(dest) {
			r.log.Warn(ctx, "skipping destination with invalid coordinates",
				logger.String("id", id),
				logger.Float64("lat", dest.Lat),
				logger.Float64("lng", dest.Lng))
			metrics.RecordDistanceResolveFailure()
			continue
		}
		meters := haversineMeters(origin, dest)
		results[id] = Result{
			Meters:     meters,
			ETAMinutes: meters / (r.speedKmh * 1000 / 60),
		}
	}
	if len(results) < len(destinations) {
		metrics.RecordDistancePartialResult()
	}
	return results, nil
}

func validCoords(p model.LatLng) bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func haversineMeters(a, b model.LatLng) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
