package rationale_test

import (
	"testing"

	"github.com/fieldwise/dispatch/internal/domain/model"
	"github.com/fieldwise/dispatch/internal/domain/rationale"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerate(t *testing.T) {
	Convey("Given the reference breakdown (availability 95, rating 90, distance 40)", t, func() {
		breakdown := model.ScoreBreakdown{Availability: 95, Rating: 90, Distance: 40}

		Convey("Then the high-score template names availability as primary", func() {
			text := rationale.Generate(breakdown, 82.0)
			So(text, ShouldStartWith, "Strong match on availability (95/100)")
			So(text, ShouldContainSubstring, "customer rating is excellent")
			So(text, ShouldContainSubstring, "proximity is moderate")
			So(text, ShouldContainSubstring, "82.0")
		})
	})

	Convey("Given a primary factor in the good band", t, func() {
		breakdown := model.ScoreBreakdown{Availability: 70, Rating: 55, Distance: 45}

		Convey("Then the good-score template is used", func() {
			text := rationale.Generate(breakdown, 60.5)
			So(text, ShouldStartWith, "Good match on availability (70/100)")
		})
	})

	Convey("Given no factor above the good band", t, func() {
		Convey("When some factors reach the listing threshold", func() {
			breakdown := model.ScoreBreakdown{Availability: 55, Rating: 52, Distance: 30}
			text := rationale.Generate(breakdown, 48.2)

			Convey("Then a balanced sentence lists them with descriptors", func() {
				So(text, ShouldStartWith, "Balanced profile:")
				So(text, ShouldContainSubstring, "availability is moderate (55)")
				So(text, ShouldContainSubstring, "customer rating is fair (52)")
				So(text, ShouldNotContainSubstring, "proximity")
			})
		})

		Convey("When no factor qualifies", func() {
			breakdown := model.ScoreBreakdown{Availability: 20, Rating: 30, Distance: 10}
			text := rationale.Generate(breakdown, 21.0)

			Convey("Then only the overall score is reported", func() {
				So(text, ShouldEqual, "Overall score 21.0.")
			})
		})
	})

	Convey("Given rating-specific buckets", t, func() {
		Convey("Then a rating of 80 is only good, not excellent", func() {
			breakdown := model.ScoreBreakdown{Availability: 95, Rating: 80, Distance: 40}
			text := rationale.Generate(breakdown, 75)
			So(text, ShouldContainSubstring, "customer rating is good")
		})
	})

	Convey("Given an unknown distance sentinel", t, func() {
		breakdown := model.ScoreBreakdown{Availability: 90, Rating: 85, Distance: 0, DistanceUnknown: true}
		text := rationale.Generate(breakdown, 70)

		Convey("Then the rationale flags the unresolved distance", func() {
			So(text, ShouldContainSubstring, "Distance could not be resolved.")
		})
	})

	Convey("Given determinism and the length invariant", t, func() {
		Convey("Then identical inputs produce identical text", func() {
			b := model.ScoreBreakdown{Availability: 77.7, Rating: 66.6, Distance: 55.5}
			So(rationale.Generate(b, 70.1), ShouldEqual, rationale.Generate(b, 70.1))
		})

		Convey("Then the length never exceeds the bound", func() {
			for _, b := range []model.ScoreBreakdown{
				{Availability: 100, Rating: 100, Distance: 100},
				{Availability: 0, Rating: 0, Distance: 0},
				{Availability: 83.333333, Rating: 91.111111, Distance: 47.777777, DistanceUnknown: true},
			} {
				for _, final := range []float64{0, 50.123456, 100} {
					text := rationale.Generate(b, final)
					So(len(text), ShouldBeLessThanOrEqualTo, rationale.MaxLength)
				}
			}
		})
	})
}
