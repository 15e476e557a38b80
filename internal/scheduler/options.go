package scheduler

import (
	"time"

	"github.com/okian/matchpulse/pkg/logger"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithPreMatchSchedule sets the cron spec of the pre-match sweep.
func WithPreMatchSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.preMatchSpec = spec
		}
	}
}

// WithLiveSchedule sets the cron spec of the live sweep.
func WithLiveSchedule(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.liveSpec = spec
		}
	}
}

// WithHorizon sets how far ahead the pre-match sweep looks.
func WithHorizon(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.horizon = d
		}
	}
}

// WithPruner drops feed entries older than retention on every live sweep.
func WithPruner(p Pruner, retention time.Duration) Option {
	return func(s *Scheduler) {
		s.pruner = p
		if retention > 0 {
			s.retention = retention
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}
