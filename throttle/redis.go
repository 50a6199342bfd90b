package throttle

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	attemptsPrefix = "login:attempts:"
	blockedPrefix  = "login:blocked:"
)

// RedisStore keeps throttle state in redis so lockouts survive restarts and
// are shared across instances.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore returns a Store backed by the given redis client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Incr(ctx context.Context, key string) (int, error) {
	n, err := s.client.Incr(ctx, attemptsPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	// counter expires on its own if the user never comes back
	if err := s.client.Expire(ctx, attemptsPrefix+key, LockoutDuration).Err(); err != nil {
		zap.S().Warnw("failed to set login counter expiry", "error", err)
	}
	return int(n), nil
}

func (s *RedisStore) Block(ctx context.Context, key string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		ttl = time.Second
	}
	return s.client.Set(ctx, blockedPrefix+key, until.UTC().Format(time.RFC3339), ttl).Err()
}

func (s *RedisStore) BlockedUntil(ctx context.Context, key string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, blockedPrefix+key).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	until, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return time.Time{}, false, err
	}
	return until, true, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	return s.client.Del(ctx, attemptsPrefix+key, blockedPrefix+key).Err()
}
