package ratelimit

import (
	"context"
	"time"
)

// Store is the storage capability the algorithms run against. The only
// contract that matters is that Eval executes the given script as one
// indivisible unit relative to every other caller touching the same
// keys, across all processes sharing the store. Everything else about
// correctness under concurrency rests on that guarantee.
type Store interface {
	// Eval executes a script atomically against the store and returns
	// its reply.
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) (interface{}, error)

	// GetWithTTL reads the value stored at key together with its
	// remaining time to live. ok is false when the key does not exist.
	GetWithTTL(ctx context.Context, key string) (value string, ttl time.Duration, ok bool, err error)

	// SetWithTTL writes value at key, expiring after ttl. A zero ttl
	// stores the value without expiration.
	SetWithTTL(ctx context.Context, key string, value string, ttl time.Duration) error
}
