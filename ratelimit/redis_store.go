package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/serverlesskit/ratelimit/internal/log"
)

// ensure that RedisStore satisfies the Store interface
var _ Store = &RedisStore{}

// RedisStore runs the algorithm scripts on a Redis server. Atomicity
// comes from Redis executing each script as a single command.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client. The client is owned by
// the caller and may be shared with other parts of the application.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Eval runs script through EVALSHA, falling back to a full EVAL when
// the server does not have the script cached yet.
func (s *RedisStore) Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error) {
	reply, err := redis.NewScript(script).Run(ctx, s.client, keys, args...).Result()
	if err != nil {
		log.Logger().Error("failed to execute script", zap.Error(err))
		return nil, fmt.Errorf("%w: eval: %v", ErrStoreUnavailable, err)
	}
	return reply, nil
}

// GetWithTTL reads value and remaining TTL in one round trip using a
// pipeline.
func (s *RedisStore) GetWithTTL(ctx context.Context, key string) (string, time.Duration, bool, error) {
	p := s.client.Pipeline()
	getResult := p.Get(ctx, key)
	ttlResult := p.PTTL(ctx, key)

	if _, err := p.Exec(ctx); err != nil && err != redis.Nil {
		log.Logger().Error("failed to read key", zap.String("key", key), zap.Error(err))
		return "", 0, false, fmt.Errorf("%w: get %s: %v", ErrStoreUnavailable, key, err)
	}

	value, err := getResult.Result()
	if err == redis.Nil {
		return "", 0, false, nil
	}
	if err != nil {
		return "", 0, false, fmt.Errorf("%w: get %s: %v", ErrStoreUnavailable, key, err)
	}

	// PTTL returns a negative duration for keys without expiration.
	ttl, err := ttlResult.Result()
	if err != nil {
		return "", 0, false, fmt.Errorf("%w: pttl %s: %v", ErrStoreUnavailable, key, err)
	}
	if ttl < 0 {
		ttl = 0
	}

	return value, ttl, true, nil
}

// SetWithTTL writes value at key with a millisecond-precision
// expiration.
func (s *RedisStore) SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Logger().Error("failed to write key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: set %s: %v", ErrStoreUnavailable, key, err)
	}
	return nil
}
