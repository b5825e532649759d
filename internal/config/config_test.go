package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/truerecord/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.FirstWeek, convey.ShouldEqual, 1)
			convey.So(cfg.LastWeek, convey.ShouldEqual, 17)
			convey.So(cfg.FetchConcurrency, convey.ShouldEqual, 4)
			convey.So(cfg.CacheDriver, convey.ShouldEqual, config.CacheDriverRedis)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then durations are derived from the numeric fields", func() {
			convey.So(cfg.HTTPTimeout().Seconds(), convey.ShouldEqual, 10)
			convey.So(cfg.JobTTL().Minutes(), convey.ShouldEqual, 60)
			convey.So(cfg.CacheTTL(), convey.ShouldEqual, 0)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given invalid configs", t, func() {
		cases := map[string]func(*config.Config){
			"empty addr":          func(c *config.Config) { c.Addr = "" },
			"zero season":         func(c *config.Config) { c.Season = 0 },
			"first week zero":     func(c *config.Config) { c.FirstWeek = 0 },
			"inverted weeks":      func(c *config.Config) { c.FirstWeek, c.LastWeek = 5, 4 },
			"no concurrency":      func(c *config.Config) { c.FetchConcurrency = 0 },
			"no workers":          func(c *config.Config) { c.WorkerCount = 0 },
			"no queue":            func(c *config.Config) { c.QueueSize = 0 },
			"unknown driver":      func(c *config.Config) { c.CacheDriver = "memcached" },
			"redis without url":   func(c *config.Config) { c.RedisURL = "" },
			"negative cache ttl":  func(c *config.Config) { c.CacheTTLHours = -1 },
			"zero upstream limit": func(c *config.Config) { c.HTTPTimeoutMS = 0 },
			"league with colon":   func(c *config.Config) { c.LeagueID = "42:2023" },
		}

		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			_ = name
		}

		convey.Convey("The memory driver does not need a redis url", func() {
			cfg := config.New()
			cfg.CacheDriver = config.CacheDriverMemory
			cfg.RedisURL = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
