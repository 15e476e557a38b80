package service

import (
	"time"

	"github.com/okian/matchpulse/internal/adapters/mq/worker"
	"github.com/okian/matchpulse/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the job queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the pending-job set.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxFeedLimit caps feed reads.
func WithMaxFeedLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxFeedLimit = n
		}
	}
}

// WithRetryAttempts sets how often a context lookup is attempted.
func WithRetryAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retryAttempts = n
		}
	}
}

// WithSchedules sets the cron specs of the pre-match and live sweeps.
func WithSchedules(preMatch, live string) Option {
	return func(s *Service) {
		if preMatch != "" {
			s.preMatchSpec = preMatch
		}
		if live != "" {
			s.liveSpec = live
		}
	}
}

// WithHorizon sets how far ahead fixtures are scored.
func WithHorizon(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.horizon = d
		}
	}
}

// WithFeedRetention drops feed entries not updated for d.
func WithFeedRetention(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.retention = d
		}
	}
}

// WithPublisher broadcasts every persisted score.
func WithPublisher(p worker.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithClock overrides time.Now for the scheduler and processor.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}
