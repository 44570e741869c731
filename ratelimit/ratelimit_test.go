package ratelimit

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

// testBase sits exactly on a one-minute window boundary.
var testBase = time.Date(2022, 5, 10, 9, 15, 0, 0, time.UTC)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	server, err := miniredis.Run()
	require.Nil(t, err)
	t.Cleanup(server.Close)

	client := redis.NewClient(&redis.Options{
		Addr: server.Addr(),
	})
	t.Cleanup(func() {
		client.Close()
	})

	return NewRedisStore(client), server
}

// fakeClock is a manually advanced clock for deterministic window and
// refill arithmetic.
type fakeClock struct {
	now time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}
