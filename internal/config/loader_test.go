package config

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoad(t *testing.T) {
	Convey("Load layers defaults, file, and env", t, func() {
		Convey("With nothing set, defaults apply", func() {
			cfg, err := Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":9080")
			So(cfg.AuditQueueSize, ShouldEqual, 10_000)
			So(cfg.AvgSpeedKmh, ShouldAlmostEqual, 40)
		})

		Convey("Env vars override defaults", func() {
			t.Setenv("DISPATCH_ADDR", ":7070")
			t.Setenv("DISPATCH_AUDIT_WORKER_COUNT", "5")

			cfg, err := Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":7070")
			So(cfg.AuditWorkerCount, ShouldEqual, 5)
			So(cfg.SQLitePath, ShouldEqual, "data/dispatch.db")
		})

		Convey("A YAML file overrides defaults, env overrides the file", func() {
			So(os.Unsetenv("DISPATCH_ADDR"), ShouldBeNil)
			So(os.Unsetenv("DISPATCH_AUDIT_WORKER_COUNT"), ShouldBeNil)

			path := filepath.Join(t.TempDir(), "dispatch.yaml")
			So(os.WriteFile(path, []byte("addr: \":6060\"\nlog_level: debug\n"), 0o600), ShouldBeNil)
			t.Setenv("DISPATCH_CONFIG", path)
			t.Setenv("DISPATCH_LOG_LEVEL", "warn")

			cfg, err := Load()
			So(err, ShouldBeNil)
			So(cfg.Addr, ShouldEqual, ":6060")
			So(cfg.LogLevel, ShouldEqual, "warn")
		})

		Convey("Invalid values are rejected", func() {
			t.Setenv("DISPATCH_AUDIT_QUEUE_SIZE", "-1")
			_, err := Load()
			So(err, ShouldWrap, ErrInvalidConfig)
		})

		Convey("A missing config file fails the load", func() {
			t.Setenv("DISPATCH_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))
			_, err := Load()
			So(err, ShouldWrap, ErrLoadConfig)
		})
	})
}
