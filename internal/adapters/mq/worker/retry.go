package worker

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/okian/matchpulse/internal/domain/model"
	"github.com/okian/matchpulse/pkg/logger"
	"github.com/okian/matchpulse/pkg/metrics"
)

const (
	defaultRetryAttempts = 3
	defaultRetryInterval = 200 * time.Millisecond
)

// retryingSource wraps a Source with exponential backoff. Unknown matches
// are not retried.
type retryingSource struct {
	inner    Source
	attempts int
	interval time.Duration
	logger   logger.Logger
}

// NewRetryingSource wraps inner with retries. Non-positive values use defaults.
func NewRetryingSource(inner Source, attempts int, interval time.Duration) Source {
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}
	if interval <= 0 {
		interval = defaultRetryInterval
	}
	return &retryingSource{
		inner:    inner,
		attempts: attempts,
		interval: interval,
		logger:   logger.Get().Named("source"),
	}
}

func (r *retryingSource) MatchContext(ctx context.Context, matchID string) (model.MatchContext, error) {
	var mc model.MatchContext
	err := r.retry(ctx, matchID, func() error {
		var err error
		mc, err = r.inner.MatchContext(ctx, matchID)
		return err
	})
	return mc, err
}

func (r *retryingSource) LiveInput(ctx context.Context, matchID string, now time.Time) (model.LiveInput, error) {
	var in model.LiveInput
	err := r.retry(ctx, matchID, func() error {
		var err error
		in, err = r.inner.LiveInput(ctx, matchID, now)
		return err
	})
	return in, err
}

func (r *retryingSource) retry(ctx context.Context, matchID string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.interval
	b.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.attempts-1)), ctx)
	return backoff.RetryNotify(func() error {
		err := op()
		if errors.Is(err, model.ErrMatchNotFound) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		metrics.RecordContextRetry()
		r.logger.Warn(ctx, "context lookup retry",
			logger.String("match_id", matchID),
			logger.Duration("wait", wait),
			logger.Error(err),
		)
	})
}
