// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// DatabaseDriver is sqlite or postgres.
	DatabaseDriver string `koanf:"database_driver"`
	DatabaseDSN    string `koanf:"database_dsn"`

	// RedisAddr enables score publishing when set.
	RedisAddr       string `koanf:"redis_addr"`
	RedisDB         int    `koanf:"redis_db"`
	ScoreTTLSeconds int    `koanf:"score_ttl_seconds"`

	// Cron specs for the two sweeps.
	PreMatchSchedule string `koanf:"prematch_schedule"`
	LiveSchedule     string `koanf:"live_schedule"`

	// PreMatchHorizonHours bounds how far ahead fixtures are scored.
	PreMatchHorizonHours int `koanf:"prematch_horizon_hours"`

	// FeedRetentionHours drops feed entries that stopped updating.
	FeedRetentionHours int `koanf:"feed_retention_hours"`

	// QueueSize bounds the in-memory job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize bounds the pending-job set.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxFeedLimit caps GET /feed?limit.
	MaxFeedLimit int `koanf:"max_feed_limit"`

	ContextRetryAttempts int `koanf:"context_retry_attempts"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		DatabaseDriver:       "sqlite",
		DatabaseDSN:          "matchpulse.db",
		RedisDB:              0,
		ScoreTTLSeconds:      48 * 60 * 60,
		PreMatchSchedule:     "@hourly",
		LiveSchedule:         "@every 10m",
		PreMatchHorizonHours: 7 * 24,
		FeedRetentionHours:   24,
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU() * 2,
		DedupeSize:           50_000,
		MaxFeedLimit:         100,
		ContextRetryAttempts: 3,
	}
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DatabaseDSN == "":
		return fmt.Errorf("%w: database_dsn must not be empty", ErrInvalidConfig)
	case c.PreMatchSchedule == "" || c.LiveSchedule == "":
		return fmt.Errorf("%w: sweep schedules must not be empty", ErrInvalidConfig)
	}

	switch strings.ToLower(c.DatabaseDriver) {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("%w: database_driver %q", ErrInvalidConfig, c.DatabaseDriver)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}

	positive := map[string]int{
		"queue_size":             c.QueueSize,
		"worker_count":           c.WorkerCount,
		"dedupe_size":            c.DedupeSize,
		"max_feed_limit":         c.MaxFeedLimit,
		"prematch_horizon_hours": c.PreMatchHorizonHours,
		"feed_retention_hours":   c.FeedRetentionHours,
		"score_ttl_seconds":      c.ScoreTTLSeconds,
		"context_retry_attempts": c.ContextRetryAttempts,
	}
	for key, v := range positive {
		if v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, key, v)
		}
	}
	if c.RedisDB < 0 {
		return fmt.Errorf("%w: redis_db must not be negative", ErrInvalidConfig)
	}
	return nil
}

// ScoreTTL is ScoreTTLSeconds as a duration.
func (c *Config) ScoreTTL() time.Duration {
	return time.Duration(c.ScoreTTLSeconds) * time.Second
}

// PreMatchHorizon is PreMatchHorizonHours as a duration.
func (c *Config) PreMatchHorizon() time.Duration {
	return time.Duration(c.PreMatchHorizonHours) * time.Hour
}

// FeedRetention is FeedRetentionHours as a duration.
func (c *Config) FeedRetention() time.Duration {
	return time.Duration(c.FeedRetentionHours) * time.Hour
}
