package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fieldwise/dispatch/internal/adapters/repository"
	"github.com/fieldwise/dispatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := repository.NewMemStore(ctx)

		Convey("Then missing entities report ErrNotFound", func() {
			_, err := store.Contractor(ctx, "nope")
			So(err, ShouldWrap, repository.ErrNotFound)
			_, err = store.Job(ctx, "nope")
			So(err, ShouldWrap, repository.ErrNotFound)
			_, err = store.Assignment(ctx, "nope")
			So(err, ShouldWrap, repository.ErrNotFound)
		})

		Convey("Then entities without ids are rejected", func() {
			So(store.PutContractor(ctx, model.Contractor{}), ShouldEqual, repository.ErrMissingID)
			So(store.PutJob(ctx, model.Job{}), ShouldEqual, repository.ErrMissingID)
			So(store.PutAssignment(ctx, model.Assignment{}), ShouldEqual, repository.ErrMissingID)
		})

		Convey("When a contractor is stored", func() {
			So(store.PutContractor(ctx, model.Contractor{ID: "ctr-1", Name: "Dana"}), ShouldBeNil)

			Convey("Then reads return an independent copy", func() {
				c, err := store.Contractor(ctx, "ctr-1")
				So(err, ShouldBeNil)
				c.Name = "changed"
				again, _ := store.Contractor(ctx, "ctr-1")
				So(again.Name, ShouldEqual, "Dana")
			})

			Convey("Then updates apply atomically through the callback", func() {
				err := store.UpdateContractor(ctx, "ctr-1", func(c *model.Contractor) error {
					c.JobsBookedToday++
					return nil
				})
				So(err, ShouldBeNil)
				c, _ := store.Contractor(ctx, "ctr-1")
				So(c.JobsBookedToday, ShouldEqual, 1)
			})
		})

		Convey("When assignments exist for several jobs and contractors", func() {
			now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
			for _, a := range []model.Assignment{
				{ID: "a1", JobID: "j1", ContractorID: "c1", Window: model.TimeWindow{Start: now, End: now.Add(time.Hour)}},
				{ID: "a2", JobID: "j1", ContractorID: "c2", Window: model.TimeWindow{Start: now, End: now.Add(time.Hour)}},
				{ID: "a3", JobID: "j2", ContractorID: "c1", Window: model.TimeWindow{Start: now, End: now.Add(time.Hour)}},
			} {
				So(store.PutAssignment(ctx, a), ShouldBeNil)
			}

			Convey("Then filters select by contractor and job", func() {
				byCtr, err := store.AssignmentsForContractor(ctx, "c1")
				So(err, ShouldBeNil)
				So(byCtr, ShouldHaveLength, 2)

				byJob, err := store.AssignmentsForJob(ctx, "j1")
				So(err, ShouldBeNil)
				So(byJob, ShouldHaveLength, 2)
			})

			Convey("Then counts reflect stored entities", func() {
				contractors, jobs, assignments := store.Counts(ctx)
				So(contractors, ShouldEqual, 0)
				So(jobs, ShouldEqual, 0)
				So(assignments, ShouldEqual, 3)
			})
		})
	})

	Convey("Given concurrent writers", t, func() {
		store := repository.NewMemStore(ctx)
		So(store.PutContractor(ctx, model.Contractor{ID: "ctr-1"}), ShouldBeNil)

		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = store.UpdateContractor(ctx, "ctr-1", func(c *model.Contractor) error {
					c.JobsBookedToday++
					return nil
				})
			}()
		}
		wg.Wait()

		Convey("Then every update lands exactly once", func() {
			c, err := store.Contractor(ctx, "ctr-1")
			So(err, ShouldBeNil)
			So(c.JobsBookedToday, ShouldEqual, 50)
		})
	})
}
