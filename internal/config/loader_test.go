package config_test

import (
	"errors"
	"os"
	"testing"

	"github.com/okian/truerecord/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load("")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.CacheDriver, convey.ShouldEqual, "redis")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 64)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TRUERECORD_ADDR", ":8080")
			_ = os.Setenv("TRUERECORD_LEAGUE_ID", "336358")
			_ = os.Setenv("TRUERECORD_SEASON", "2023")
			_ = os.Setenv("TRUERECORD_FETCH_CONCURRENCY", "8")
			_ = os.Setenv("TRUERECORD_CACHE_DRIVER", "memory")
			_ = os.Setenv("TRUERECORD_REFRESH_ON_START", "true")
			defer clearConfigEnvVars()

			cfg, err := config.Load("")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.LeagueID, convey.ShouldEqual, "336358")
				convey.So(cfg.Season, convey.ShouldEqual, 2023)
				convey.So(cfg.FetchConcurrency, convey.ShouldEqual, 8)
				convey.So(cfg.CacheDriver, convey.ShouldEqual, "memory")
				convey.So(cfg.RefreshOnStart, convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
league_id: "42"
season: 2022
first_week: 2
last_week: 14
worker_count: 3
cors_origins:
  - https://example.com
  - https://league.example.com
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TRUERECORD_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load("")

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LeagueID, convey.ShouldEqual, "42")
				convey.So(cfg.Season, convey.ShouldEqual, 2022)
				convey.So(cfg.FirstWeek, convey.ShouldEqual, 2)
				convey.So(cfg.LastWeek, convey.ShouldEqual, 14)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://example.com", "https://league.example.com"})
			})
		})

		convey.Convey("When an explicit path is given and env overrides it", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
worker_count: 24
`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TRUERECORD_WORKER_COUNT", "32")
			defer clearConfigEnvVars()

			cfg, err := config.Load(tmpFile)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 32)
				convey.So(cfg.FetchConcurrency, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.Load(tmpFile)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			cfg, err := config.Load("/non/existent/file.yaml")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the file sets an empty addr", func() {
			tmpFile := createTempConfigFile(`addr: ""`)
			defer func() { _ = os.Remove(tmpFile) }()

			cfg, err := config.Load(tmpFile)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TRUERECORD_QUEUE_SIZE", "invalid")
			defer clearConfigEnvVars()

			cfg, err := config.Load("")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func clearConfigEnvVars() {
	envVars := []string{
		"TRUERECORD_CONFIG",
		"TRUERECORD_ADDR",
		"TRUERECORD_LEAGUE_ID",
		"TRUERECORD_SEASON",
		"TRUERECORD_FETCH_CONCURRENCY",
		"TRUERECORD_CACHE_DRIVER",
		"TRUERECORD_REFRESH_ON_START",
		"TRUERECORD_WORKER_COUNT",
		"TRUERECORD_QUEUE_SIZE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "truerecord-config-*.yaml")
	if err != nil {
		panic(err)
	}

	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}

	if err := tmpFile.Close(); err != nil {
		panic(err)
	}

	return tmpFile.Name()
}
