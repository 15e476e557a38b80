// Package publish mirrors persisted scores into Redis: a hash per match, a
// sorted set for the feed and a stream of updates for downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/matchpulse/internal/domain/model"
)

const (
	defaultPrefix       = "matchpulse"
	defaultTTL          = 48 * time.Hour
	defaultStreamMaxLen = 10000
)

// Fields of the per-match hash.
const (
	fieldPreMatch = "prematch"
	fieldLive     = "live"
)

// Update is the stream message for one score change.
type Update struct {
	MatchID     string    `json:"match_id"`
	Kind        string    `json:"kind"`
	Score       float64   `json:"score"`
	GameTime    float64   `json:"game_time,omitempty"`
	Final       bool      `json:"final,omitempty"`
	Explanation string    `json:"explanation,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RedisPublisher writes score records to Redis.
type RedisPublisher struct {
	client       redis.UniversalClient
	prefix       string
	ttl          time.Duration
	streamMaxLen int64
}

// NewRedisPublisher creates a publisher over client.
func NewRedisPublisher(client redis.UniversalClient, opts ...Option) *RedisPublisher {
	p := &RedisPublisher{
		client:       client,
		prefix:       defaultPrefix,
		ttl:          defaultTTL,
		streamMaxLen: defaultStreamMaxLen,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ScoreKey is the hash holding the latest records of a match.
func (p *RedisPublisher) ScoreKey(matchID string) string {
	return p.prefix + ":score:" + matchID
}

// FeedKey is the sorted set ranking matches by feed score.
func (p *RedisPublisher) FeedKey() string {
	return p.prefix + ":feed"
}

// StreamKey is the stream carrying every update.
func (p *RedisPublisher) StreamKey() string {
	return p.prefix + ":updates"
}

// Publish writes rec in a single pipeline.
func (p *RedisPublisher) Publish(ctx context.Context, rec model.ScoreRecord) error {
	upd, field := updateOf(rec)
	if field == "" {
		return fmt.Errorf("publish %s: record has no score", rec.MatchID)
	}

	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	msg, err := json.Marshal(upd)
	if err != nil {
		return fmt.Errorf("marshal update: %w", err)
	}

	key := p.ScoreKey(rec.MatchID)
	pipe := p.client.Pipeline()
	pipe.HSet(ctx, key, field, body)
	pipe.Expire(ctx, key, p.ttl)
	pipe.ZAdd(ctx, p.FeedKey(), redis.Z{Score: rec.FeedScore(), Member: rec.MatchID})
	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: p.StreamKey(),
		MaxLen: p.streamMaxLen,
		Approx: true,
		Values: map[string]interface{}{
			"match_id": rec.MatchID,
			"kind":     upd.Kind,
			"data":     string(msg),
		},
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish %s: %w", rec.MatchID, err)
	}
	return nil
}

// Remove drops a match from the feed set and deletes its hash.
func (p *RedisPublisher) Remove(ctx context.Context, matchID string) error {
	pipe := p.client.Pipeline()
	pipe.ZRem(ctx, p.FeedKey(), matchID)
	pipe.Del(ctx, p.ScoreKey(matchID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("remove %s: %w", matchID, err)
	}
	return nil
}

// Ping checks the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// updateOf picks the half of rec that changed. Live wins when both are set.
func updateOf(rec model.ScoreRecord) (Update, string) {
	upd := Update{
		MatchID:     rec.MatchID,
		Explanation: rec.Explanation(),
		UpdatedAt:   rec.UpdatedAt,
	}
	switch {
	case rec.Live != nil:
		upd.Kind = string(model.JobLive)
		upd.Score = *rec.Live
		upd.GameTime = rec.GameTime
		upd.Final = rec.LiveFinal
		return upd, fieldLive
	case rec.PreMatch != nil:
		upd.Kind = string(model.JobPreMatch)
		upd.Score = *rec.PreMatch
		return upd, fieldPreMatch
	default:
		return upd, ""
	}
}
