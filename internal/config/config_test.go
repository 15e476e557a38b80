package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/matchpulse/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DatabaseDriver, convey.ShouldEqual, "sqlite")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.PreMatchSchedule, convey.ShouldEqual, "@hourly")
			convey.So(cfg.LiveSchedule, convey.ShouldEqual, "@every 10m")
			convey.So(cfg.RedisAddr, convey.ShouldBeEmpty)
		})

		convey.Convey("Then the defaults validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then durations are derived from the numeric fields", func() {
			convey.So(cfg.ScoreTTL(), convey.ShouldEqual, 48*time.Hour)
			convey.So(cfg.PreMatchHorizon(), convey.ShouldEqual, 7*24*time.Hour)
			convey.So(cfg.FeedRetention(), convey.ShouldEqual, 24*time.Hour)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New()

		cases := map[string]func(*config.Config){
			"empty addr":         func(c *config.Config) { c.Addr = "" },
			"empty dsn":          func(c *config.Config) { c.DatabaseDSN = "" },
			"unknown driver":     func(c *config.Config) { c.DatabaseDriver = "mysql" },
			"unknown log format": func(c *config.Config) { c.LogFormat = "xml" },
			"unknown log level":  func(c *config.Config) { c.LogLevel = "trace" },
			"zero workers":       func(c *config.Config) { c.WorkerCount = 0 },
			"negative queue":     func(c *config.Config) { c.QueueSize = -1 },
			"empty schedule":     func(c *config.Config) { c.LiveSchedule = "" },
			"negative redis db":  func(c *config.Config) { c.RedisDB = -1 },
		}
		for name, mutate := range cases {
			convey.Convey("When it has "+name, func() {
				mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation fails with ErrInvalidConfig", func() {
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				})
			})
		}

		convey.Convey("When the driver is postgres", func() {
			cfg.DatabaseDriver = "postgres"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
