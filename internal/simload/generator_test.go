package simload

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGenerator(t *testing.T) {
	Convey("Given a seeded generator", t, func() {
		gen := NewGenerator(7)

		Convey("Contractors are well-formed", func() {
			contractors := gen.Contractors(50)
			So(contractors, ShouldHaveLength, 50)
			for _, c := range contractors {
				So(c.ID, ShouldNotBeEmpty)
				So(len(c.Skills), ShouldBeBetween, 0, 4)
				So(c.Rating, ShouldBeBetween, 49, 101)
				So(c.RatingScale, ShouldEqual, 100)
				So(c.Hours, ShouldContainKey, time.Monday)
				So(c.MaxJobsPerDay, ShouldBeGreaterThan, 0)
			}
		})

		Convey("Jobs land on the shared target date with valid windows", func() {
			jobs := gen.Jobs(50)
			So(jobs, ShouldHaveLength, 50)
			date := jobs[0].DesiredDate
			So(date.Weekday(), ShouldEqual, time.Monday)
			for _, j := range jobs {
				So(j.DesiredDate, ShouldResemble, date)
				So(j.Duration, ShouldBeGreaterThan, 0)
				So(j.ServiceWindow.End.After(j.ServiceWindow.Start), ShouldBeTrue)
				So(j.RequiredSkills, ShouldNotBeEmpty)
			}
		})

		Convey("The same seed reproduces the same pool", func() {
			a := NewGenerator(42).Contractors(10)
			b := NewGenerator(42).Contractors(10)
			So(a, ShouldResemble, b)
		})

		Convey("Different seeds diverge", func() {
			a := NewGenerator(1).Contractors(10)
			b := NewGenerator(2).Contractors(10)
			So(a, ShouldNotResemble, b)
		})
	})
}
