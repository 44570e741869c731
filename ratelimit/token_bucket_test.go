package ratelimit

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenBucketKey(identifier string) string {
	return fmt.Sprintf("%s:%s:%s", DefaultPrefix, nameTokenBucket, identifier)
}

func TestTokenBucket_ConsumeAndRefill(t *testing.T) {
	store, _ := newTestStore(t)
	clock := newFakeClock(testBase)

	// 2 tokens, regaining 1 per second.
	limiter, err := NewTokenBucket(store, 2, 1, time.Second, WithClock(clock.Now))
	require.Nil(t, err)

	ctx := context.Background()

	res, err := limiter.Limit(ctx, "user")
	assert.Nil(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Remaining)

	res, err = limiter.Limit(ctx, "user")
	assert.Nil(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)

	res, err = limiter.Limit(ctx, "user")
	assert.Nil(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, clock.Now().UnixMilli()+1000, res.Reset)

	// One token regenerates after a full interval.
	clock.Advance(time.Second)

	res, err = limiter.Limit(ctx, "user")
	assert.Nil(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)

	res, err = limiter.Limit(ctx, "user")
	assert.Nil(t, err)
	assert.False(t, res.Allowed)
}

func TestTokenBucket_RefillNeverExceedsCapacity(t *testing.T) {
	store, _ := newTestStore(t)
	clock := newFakeClock(testBase)

	limiter, err := NewTokenBucket(store, 2, 1, time.Second, WithClock(clock.Now))
	require.Nil(t, err)

	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err = limiter.Limit(ctx, "user")
		assert.Nil(t, err)
	}

	// Idle long enough to earn far more than the capacity.
	clock.Advance(100 * time.Second)

	remaining, err := limiter.Remaining(ctx, "user")
	assert.Nil(t, err)
	assert.Equal(t, int64(2), remaining)

	res, err := limiter.Limit(ctx, "user")
	assert.Nil(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, int64(1), res.Remaining)
}

func TestTokenBucket_DenialsKeepTheRefillClockMoving(t *testing.T) {
	store, _ := newTestStore(t)
	clock := newFakeClock(testBase)

	// 2 tokens, regaining 2 per second: one token per 500ms.
	limiter, err := NewTokenBucket(store, 2, 2, time.Second, WithClock(clock.Now))
	require.Nil(t, err)

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := limiter.Limit(ctx, "user")
		assert.Nil(t, err)
		assert.True(t, res.Allowed)
	}

	// A quarter interval earns half a token: not enough, and the
	// denial persists the fractional balance with a fresh timestamp.
	clock.Advance(250 * time.Millisecond)
	res, err := limiter.Limit(ctx, "user")
	assert.Nil(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(0), res.Remaining)
	assert.Equal(t, clock.Now().UnixMilli()+250, res.Reset)

	clock.Advance(250 * time.Millisecond)
	res, err = limiter.Limit(ctx, "user")
	assert.Nil(t, err)
	assert.True(t, res.Allowed)
}

func TestTokenBucket_RepeatedDenialsDoNotAccumulate(t *testing.T) {
	store, _ := newTestStore(t)
	clock := newFakeClock(testBase)

	limiter, err := NewTokenBucket(store, 2, 1, time.Second, WithClock(clock.Now))
	require.Nil(t, err)

	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err = limiter.Limit(ctx, "user")
		assert.Nil(t, err)
	}

	for i := 0; i < 5; i++ {
		res, err := limiter.Limit(ctx, "user")
		assert.Nil(t, err)
		assert.False(t, res.Allowed)
		assert.Equal(t, int64(0), res.Remaining)
	}
}

func TestTokenBucket_RateAboveCapacityIsDeniedButStillEvaluated(t *testing.T) {
	store, server := newTestStore(t)
	clock := newFakeClock(testBase)

	limiter, err := NewTokenBucket(store, 2, 1, time.Second, WithClock(clock.Now))
	require.Nil(t, err)

	res, err := limiter.LimitN(context.Background(), "user", 5)
	assert.Nil(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, int64(2), res.Remaining)

	// The evaluation still wrote the bucket state.
	assert.Equal(t, "2", server.HGet(tokenBucketKey("user"), "tokens"))
	assert.Equal(t,
		fmt.Sprintf("%d", clock.Now().UnixMilli()),
		server.HGet(tokenBucketKey("user"), "updated_at"))
}

func TestTokenBucket_RemainingAndReset(t *testing.T) {
	store, _ := newTestStore(t)
	clock := newFakeClock(testBase)

	limiter, err := NewTokenBucket(store, 2, 1, time.Second, WithClock(clock.Now))
	require.Nil(t, err)

	ctx := context.Background()

	remaining, err := limiter.Remaining(ctx, "user")
	assert.Nil(t, err)
	assert.Equal(t, int64(2), remaining)

	reset, err := limiter.Reset(ctx, "user")
	assert.Nil(t, err)
	assert.Equal(t, int64(-1), reset)

	for i := 0; i < 2; i++ {
		_, err = limiter.Limit(ctx, "user")
		assert.Nil(t, err)
	}

	remaining, err = limiter.Remaining(ctx, "user")
	assert.Nil(t, err)
	assert.Equal(t, int64(0), remaining)

	// Empty bucket refills completely after two intervals.
	reset, err = limiter.Reset(ctx, "user")
	assert.Nil(t, err)
	assert.Equal(t, clock.Now().UnixMilli()+2000, reset)

	clock.Advance(500 * time.Millisecond)

	remaining, err = limiter.Remaining(ctx, "user")
	assert.Nil(t, err)
	assert.Equal(t, int64(0), remaining)
}
