package repository

import "time"

// Option applies a configuration option to the TreapStore.
type Option func(*TreapStore)

// WithMaxLimit caps how many entries a single TopN call returns.
func WithMaxLimit(n int) Option {
	return func(s *TreapStore) {
		if n > 0 {
			s.maxLimit = n
		}
	}
}

// WithClock overrides the time source used to stamp entries.
func WithClock(now func() time.Time) Option {
	return func(s *TreapStore) {
		if now != nil {
			s.now = now
		}
	}
}
