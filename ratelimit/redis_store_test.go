package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRedisStore_GetWithTTL(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	_, _, ok, err := store.GetWithTTL(ctx, "missing")
	assert.Nil(t, err)
	assert.False(t, ok)

	err = store.SetWithTTL(ctx, "counter", "42", time.Minute)
	assert.Nil(t, err)

	value, ttl, ok, err := store.GetWithTTL(ctx, "counter")
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "42", value)
	assert.Equal(t, time.Minute, ttl)
}

func TestRedisStore_SetWithoutExpiration(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	err := store.SetWithTTL(ctx, "state", "persistent", 0)
	assert.Nil(t, err)

	value, ttl, ok, err := store.GetWithTTL(ctx, "state")
	assert.Nil(t, err)
	assert.True(t, ok)
	assert.Equal(t, "persistent", value)
	assert.Equal(t, time.Duration(0), ttl)
}

func TestRedisStore_Eval(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	reply, err := store.Eval(ctx, `return redis.call("INCRBY", KEYS[1], ARGV[1])`,
		[]string{"counter"}, 3)
	assert.Nil(t, err)
	assert.Equal(t, int64(3), reply)

	reply, err = store.Eval(ctx, `return redis.call("INCRBY", KEYS[1], ARGV[1])`,
		[]string{"counter"}, 4)
	assert.Nil(t, err)
	assert.Equal(t, int64(7), reply)
}

func TestRedisStore_UnreachableServer(t *testing.T) {
	store, server := newTestStore(t)
	server.Close()

	ctx := context.Background()

	_, err := store.Eval(ctx, `return 1`, nil)
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	_, _, _, err = store.GetWithTTL(ctx, "counter")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	err = store.SetWithTTL(ctx, "counter", "1", time.Minute)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
