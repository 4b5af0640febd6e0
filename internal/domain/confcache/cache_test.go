package confcache_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fieldwise/dispatch/internal/domain/confcache"
	"github.com/fieldwise/dispatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCache(t *testing.T) {
	ctx := context.Background()

	Convey("Given a cache over a counting loader", t, func() {
		var loads, version atomic.Int64
		version.Store(1)
		loader := func(ctx context.Context) (*model.WeightsConfig, error) {
			loads.Add(1)
			cfg := model.DefaultWeightsConfig()
			cfg.Version = version.Load()
			cfg.Active = true
			return &cfg, nil
		}

		now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		cache := confcache.New(loader, confcache.WithTTL(5*time.Second), confcache.WithClock(clock))

		Convey("When read twice within the TTL", func() {
			first, err := cache.Active(ctx)
			So(err, ShouldBeNil)
			second, err := cache.Active(ctx)
			So(err, ShouldBeNil)

			Convey("Then the loader runs once", func() {
				So(loads.Load(), ShouldEqual, 1)
				So(first.Version, ShouldEqual, second.Version)
			})
		})

		Convey("When the TTL elapses", func() {
			_, _ = cache.Active(ctx)
			version.Store(2)
			now = now.Add(6 * time.Second)
			cfg, err := cache.Active(ctx)
			So(err, ShouldBeNil)

			Convey("Then a fresh copy is loaded", func() {
				So(cfg.Version, ShouldEqual, 2)
				So(loads.Load(), ShouldEqual, 2)
			})
		})

		Convey("When invalidated after a write", func() {
			_, _ = cache.Active(ctx)
			version.Store(3)
			cache.Invalidate()
			cfg, err := cache.Active(ctx)
			So(err, ShouldBeNil)

			Convey("Then the next read observes the new version", func() {
				So(cfg.Version, ShouldEqual, 3)
			})
		})
	})

	Convey("Given a failing loader", t, func() {
		boom := errors.New("store down")

		Convey("When no copy was ever cached", func() {
			cache := confcache.New(func(ctx context.Context) (*model.WeightsConfig, error) {
				return nil, boom
			})

			Convey("Then the error surfaces", func() {
				_, err := cache.Active(ctx)
				So(err, ShouldEqual, boom)
			})
		})

		Convey("When a stale copy exists", func() {
			healthy := true
			now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
			cache := confcache.New(func(ctx context.Context) (*model.WeightsConfig, error) {
				if !healthy {
					return nil, boom
				}
				cfg := model.DefaultWeightsConfig()
				cfg.Version = 7
				return &cfg, nil
			}, confcache.WithTTL(time.Second), confcache.WithClock(func() time.Time { return now }))

			_, err := cache.Active(ctx)
			So(err, ShouldBeNil)
			healthy = false
			now = now.Add(2 * time.Second)

			Convey("Then the stale copy is served instead of failing", func() {
				cfg, err := cache.Active(ctx)
				So(err, ShouldBeNil)
				So(cfg.Version, ShouldEqual, 7)
			})
		})
	})
}
