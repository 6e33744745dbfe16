package worker

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sentKeyPrefix    = "welcome:sent:"
	attemptKeyPrefix = "welcome:attempts:"
)

// RedisTracker implements Tracker on Redis. Sent markers expire so the keys
// don't accumulate forever; within the TTL duplicate deliveries are
// suppressed, afterwards the send itself is still harmless to repeat.
type RedisTracker struct {
	RDB        *redis.Client
	SentTTL    time.Duration
	AttemptTTL time.Duration
}

func NewRedisTracker(rdb *redis.Client) *RedisTracker {
	return &RedisTracker{
		RDB:        rdb,
		SentTTL:    7 * 24 * time.Hour,
		AttemptTTL: 24 * time.Hour,
	}
}

func (t *RedisTracker) AlreadySent(ctx context.Context, email string) (bool, error) {
	n, err := t.RDB.Exists(ctx, sentKeyPrefix+email).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (t *RedisTracker) MarkSent(ctx context.Context, email string) error {
	return t.RDB.Set(ctx, sentKeyPrefix+email, 1, t.SentTTL).Err()
}

func (t *RedisTracker) IncrAttempts(ctx context.Context, messageID string) (int, error) {
	key := attemptKeyPrefix + messageID
	n, err := t.RDB.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		_ = t.RDB.Expire(ctx, key, t.AttemptTTL).Err()
	}
	return int(n), nil
}

func (t *RedisTracker) ClearAttempts(ctx context.Context, messageID string) error {
	return t.RDB.Del(ctx, attemptKeyPrefix+messageID).Err()
}

var _ Tracker = (*RedisTracker)(nil)
