package routing

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/fieldwise/dispatch/internal/domain/model"
)

func TestHaversineResolver(t *testing.T) {
	ctx := context.Background()

	Convey("Given a haversine resolver", t, func() {
		resolver := NewHaversineResolver()
		origin := model.LatLng{Lat: 40.7128, Lng: -74.0060} // lower Manhattan

		Convey("A batch of valid destinations resolves fully", func() {
			results, err := resolver.ResolveBatch(ctx, origin, map[string]model.LatLng{
				"near": {Lat: 40.7580, Lng: -73.9855}, // midtown, ~5.3km
				"far":  {Lat: 40.6413, Lng: -73.7781}, // JFK, ~21km
			})
			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 2)

			So(results["near"].Meters, ShouldBeBetween, 5000, 5700)
			So(results["far"].Meters, ShouldBeBetween, 20000, 22500)
			So(results["near"].Meters, ShouldBeLessThan, results["far"].Meters)
		})

		Convey("ETA follows distance at the configured speed", func() {
			fast := NewHaversineResolver(WithAverageSpeed(60))
			results, err := fast.ResolveBatch(ctx, origin, map[string]model.LatLng{
				"km": {Lat: 40.7128, Lng: -74.0060},
			})
			So(err, ShouldBeNil)
			// Same point: zero distance, zero ETA.
			So(results["km"].Meters, ShouldAlmostEqual, 0, 1e-6)
			So(results["km"].ETAMinutes, ShouldAlmostEqual, 0, 1e-6)

			slow := NewHaversineResolver(WithAverageSpeed(30))
			dest := map[string]model.LatLng{"mid": {Lat: 40.7580, Lng: -73.9855}}
			fastRes, err := fast.ResolveBatch(ctx, origin, dest)
			So(err, ShouldBeNil)
			slowRes, err := slow.ResolveBatch(ctx, origin, dest)
			So(err, ShouldBeNil)
			So(slowRes["mid"].ETAMinutes, ShouldAlmostEqual, 2*fastRes["mid"].ETAMinutes, 1e-9)
		})

		Convey("Invalid destinations are skipped, not fatal", func() {
			results, err := resolver.ResolveBatch(ctx, origin, map[string]model.LatLng{
				"ok":  {Lat: 40.7580, Lng: -73.9855},
				"bad": {Lat: 120, Lng: 0},
			})
			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 1)
			_, found := results["bad"]
			So(found, ShouldBeFalse)
		})

		Convey("An invalid origin fails the whole batch", func() {
			_, err := resolver.ResolveBatch(ctx, model.LatLng{Lat: -91, Lng: 0}, nil)
			So(err, ShouldWrap, ErrInvalidOrigin)
		})

		Convey("A cancelled context aborts the batch", func() {
			cancelled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := resolver.ResolveBatch(cancelled, origin, nil)
			So(err, ShouldWrap, context.Canceled)
		})
	})
}
