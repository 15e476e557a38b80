package publish

import "time"

// Option configures a RedisPublisher.
type Option func(*RedisPublisher)

// WithPrefix sets the key prefix. Empty values are ignored.
func WithPrefix(prefix string) Option {
	return func(p *RedisPublisher) {
		if prefix != "" {
			p.prefix = prefix
		}
	}
}

// WithTTL sets how long a score hash lives without updates.
func WithTTL(ttl time.Duration) Option {
	return func(p *RedisPublisher) {
		if ttl > 0 {
			p.ttl = ttl
		}
	}
}

// WithStreamMaxLen caps the update stream, trimming approximately.
func WithStreamMaxLen(n int64) Option {
	return func(p *RedisPublisher) {
		if n > 0 {
			p.streamMaxLen = n
		}
	}
}
