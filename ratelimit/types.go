package ratelimit

import (
	"context"
	"time"
)

// Result is the outcome of a single rate limit evaluation.
type Result struct {
	// Allowed reports whether the request may proceed.
	Allowed bool
	// Limit is the configured threshold (max requests per window, or
	// bucket capacity for the token bucket).
	Limit int64
	// Remaining is how much quota is left in the current window or
	// bucket. It goes negative when a weighted call overshoots the
	// limit.
	Remaining int64
	// Reset is the unix time in milliseconds when the consumed quota
	// starts returning toward zero: the next window boundary, or the
	// time for the bucket to refill.
	Reset int64
}

// Algorithm evaluates rate limit decisions for identifiers. Each
// implementation performs its whole read-modify-write cycle inside a
// single atomic store operation, so concurrent callers against the
// same identifier are serialized by the store, not by the client.
type Algorithm interface {
	// Limit consumes rate units of quota for identifier and decides
	// whether the request passes. Quota is consumed even when the
	// request is denied.
	Limit(ctx context.Context, identifier string, rate int64) (*Result, error)

	// Remaining reports how much quota identifier has left without
	// consuming any.
	Remaining(ctx context.Context, identifier string) (int64, error)

	// Reset reports the unix time in milliseconds when identifier's
	// state next resets, or -1 when the identifier has no state yet.
	Reset(ctx context.Context, identifier string) (int64, error)
}

const (
	// DefaultPrefix namespaces all keys written by this package so
	// they can share a store with application data.
	DefaultPrefix = "ratelimit"

	nameFixedWindow   = "fixed_window"
	nameSlidingWindow = "sliding_window"
	nameTokenBucket   = "token_bucket"
)

type settings struct {
	prefix  string
	timeNow func() time.Time
}

// Option customizes a Limiter.
type Option func(*settings)

// WithPrefix sets the key prefix. Limiters sharing one store but
// holding distinct prefixes never touch each other's keys.
func WithPrefix(prefix string) Option {
	return func(s *settings) {
		s.prefix = prefix
	}
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		s.timeNow = now
	}
}

func newSettings(opts []Option) settings {
	s := settings{
		prefix:  DefaultPrefix,
		timeNow: time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
