// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and TRUERECORD_ env vars over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Cache drivers.
const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LeagueID and Season are used when a request does not name them.
	LeagueID string `koanf:"league_id"`
	Season   int    `koanf:"season"`

	// FirstWeek and LastWeek bound the weeks a refresh fetches. LastWeek is
	// further capped by the league's current week.
	FirstWeek int `koanf:"first_week"`
	LastWeek  int `koanf:"last_week"`

	// ESPNBaseURL points at the fantasy football v3 API.
	ESPNBaseURL string `koanf:"espn_base_url"`

	// ESPNS2 and ESPNSWID are the cookies private leagues require.
	ESPNS2   string `koanf:"espn_s2"`
	ESPNSWID string `koanf:"espn_swid"`

	// HTTPTimeoutMS bounds each upstream request.
	HTTPTimeoutMS int `koanf:"http_timeout_ms"`

	// FetchConcurrency bounds concurrent week fetches during a refresh.
	FetchConcurrency int `koanf:"fetch_concurrency"`

	// CacheDriver is redis or memory.
	CacheDriver string `koanf:"cache_driver"`

	// RedisURL is parsed with redis.ParseURL.
	RedisURL string `koanf:"redis_url"`

	// CacheTTLHours expires season keys; 0 keeps them forever.
	CacheTTLHours int `koanf:"cache_ttl_hours"`

	// RefreshSchedule is a cron spec; empty disables scheduled refreshes.
	RefreshSchedule string `koanf:"refresh_schedule"`

	// Timezone is the cron location.
	Timezone string `koanf:"timezone"`

	// RefreshOnStart enqueues one refresh at boot.
	RefreshOnStart bool `koanf:"refresh_on_start"`

	// QueueSize bounds the refresh job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of refresh workers.
	WorkerCount int `koanf:"worker_count"`

	// JobTTLMinutes is how long job status stays readable.
	JobTTLMinutes int `koanf:"job_ttl_minutes"`

	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `koanf:"cors_origins"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		Season:           time.Now().Year(),
		FirstWeek:        1,
		LastWeek:         17,
		ESPNBaseURL:      "https://lm-api-reads.fantasy.espn.com/apis/v3/games/ffl",
		HTTPTimeoutMS:    10_000,
		FetchConcurrency: 4,
		CacheDriver:      CacheDriverRedis,
		RedisURL:         "redis://localhost:6379/0",
		CacheTTLHours:    0,
		RefreshSchedule:  "0 */6 * * *",
		Timezone:         "America/New_York",
		RefreshOnStart:   false,
		QueueSize:        64,
		WorkerCount:      runtime.NumCPU(),
		JobTTLMinutes:    60,
		CORSOrigins:      []string{"*"},
	}
}

// HTTPTimeout returns HTTPTimeoutMS as a duration.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutMS) * time.Millisecond
}

// CacheTTL returns CacheTTLHours as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLHours) * time.Hour
}

// JobTTL returns JobTTLMinutes as a duration.
func (c *Config) JobTTL() time.Duration {
	return time.Duration(c.JobTTLMinutes) * time.Minute
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.LeagueID != "" && !numeric(c.LeagueID):
		return fmt.Errorf("%w: league_id %q must be numeric", ErrInvalidConfig, c.LeagueID)
	case c.Season <= 0:
		return fmt.Errorf("%w: season must be positive", ErrInvalidConfig)
	case c.FirstWeek < 1:
		return fmt.Errorf("%w: first_week must be at least 1", ErrInvalidConfig)
	case c.LastWeek < c.FirstWeek:
		return fmt.Errorf("%w: last_week %d before first_week %d", ErrInvalidConfig, c.LastWeek, c.FirstWeek)
	case c.ESPNBaseURL == "":
		return fmt.Errorf("%w: espn_base_url must not be empty", ErrInvalidConfig)
	case c.HTTPTimeoutMS <= 0:
		return fmt.Errorf("%w: http_timeout_ms must be positive", ErrInvalidConfig)
	case c.FetchConcurrency <= 0:
		return fmt.Errorf("%w: fetch_concurrency must be positive", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.CacheTTLHours < 0 || c.JobTTLMinutes < 0:
		return fmt.Errorf("%w: ttl must not be negative", ErrInvalidConfig)
	}

	switch strings.ToLower(c.CacheDriver) {
	case CacheDriverMemory:
	case CacheDriverRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: redis_url required for redis cache", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown cache_driver %q", ErrInvalidConfig, c.CacheDriver)
	}
	return nil
}

func numeric(s string) bool {
	_, err := strconv.ParseUint(s, 10, 64)
	return err == nil
}
