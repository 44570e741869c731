package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Limiter binds one algorithm to a key prefix and exposes the
// decision API. It holds no mutable state of its own: every decision
// is one atomic round trip to the store, so a single Limiter is safe
// to share across any number of goroutines or processes.
type Limiter struct {
	algo    Algorithm
	timeNow func() time.Time
}

// NewFixedWindow builds a limiter that allows max requests per window.
func NewFixedWindow(store Store, max int64, window time.Duration, opts ...Option) (*Limiter, error) {
	s, err := validate(store, opts, max > 0, window > 0)
	if err != nil {
		return nil, err
	}
	return &Limiter{
		algo: &fixedWindow{
			store:   store,
			prefix:  s.prefix,
			max:     max,
			window:  window,
			timeNow: s.timeNow,
		},
		timeNow: s.timeNow,
	}, nil
}

// NewSlidingWindow builds a limiter that allows max requests per
// window, interpolated across two adjacent fixed windows.
func NewSlidingWindow(store Store, max int64, window time.Duration, opts ...Option) (*Limiter, error) {
	s, err := validate(store, opts, max > 0, window > 0)
	if err != nil {
		return nil, err
	}
	return &Limiter{
		algo: &slidingWindow{
			store:   store,
			prefix:  s.prefix,
			max:     max,
			window:  window,
			timeNow: s.timeNow,
		},
		timeNow: s.timeNow,
	}, nil
}

// NewTokenBucket builds a limiter over a bucket of up to maxTokens
// that regains refillRate tokens per interval.
func NewTokenBucket(store Store, maxTokens, refillRate int64, interval time.Duration, opts ...Option) (*Limiter, error) {
	s, err := validate(store, opts, maxTokens > 0, refillRate > 0, interval > 0)
	if err != nil {
		return nil, err
	}
	return &Limiter{
		algo: &tokenBucket{
			store:    store,
			prefix:   s.prefix,
			max:      maxTokens,
			refill:   refillRate,
			interval: interval,
			timeNow:  s.timeNow,
		},
		timeNow: s.timeNow,
	}, nil
}

func validate(store Store, opts []Option, positive ...bool) (settings, error) {
	if store == nil {
		return settings{}, fmt.Errorf("store must not be nil: %w", ErrInvalidConfig)
	}
	for _, ok := range positive {
		if !ok {
			return settings{}, fmt.Errorf("limits, windows and rates must be positive: %w", ErrInvalidConfig)
		}
	}
	s := newSettings(opts)
	if s.prefix == "" {
		return settings{}, fmt.Errorf("prefix must not be empty: %w", ErrInvalidConfig)
	}
	return s, nil
}

// Limit consumes one unit of quota for identifier and reports whether
// the request passes.
func (l *Limiter) Limit(ctx context.Context, identifier string) (*Result, error) {
	return l.LimitN(ctx, identifier, 1)
}

// LimitN consumes rate units of quota in a single decision, letting
// one logical request count as several.
func (l *Limiter) LimitN(ctx context.Context, identifier string, rate int64) (*Result, error) {
	if identifier == "" {
		return nil, ErrEmptyIdentifier
	}
	if rate <= 0 {
		return nil, fmt.Errorf("rate must be positive: %w", ErrInvalidConfig)
	}
	return l.algo.Limit(ctx, identifier, rate)
}

// BlockUntilReady waits for one unit of quota to become available.
func (l *Limiter) BlockUntilReady(ctx context.Context, identifier string, timeout time.Duration) (*Result, error) {
	return l.BlockUntilReadyN(ctx, identifier, timeout, 1)
}

// BlockUntilReadyN calls LimitN and, when denied, sleeps until the
// reported reset time (capped by the remaining timeout) before
// retrying. When the timeout elapses it returns the last denied
// Result rather than an error: callers tell "timed out waiting" from
// "store failed" by the return channel, and from a plain rejection by
// the elapsed wall time. A store failure aborts the loop immediately.
func (l *Limiter) BlockUntilReadyN(ctx context.Context, identifier string, timeout time.Duration, rate int64) (*Result, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive: %w", ErrInvalidConfig)
	}

	res, err := l.LimitN(ctx, identifier, rate)
	if err != nil || res.Allowed {
		return res, err
	}

	deadline := l.timeNow().Add(timeout)
	for !res.Allowed {
		now := l.timeNow()
		if !now.Before(deadline) {
			return res, nil
		}

		wait := time.UnixMilli(res.Reset).Sub(now)
		if remaining := deadline.Sub(now); remaining < wait {
			wait = remaining
		}
		if wait <= 0 {
			// The reset boundary already passed, retry right away.
			wait = time.Millisecond
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}

		res, err = l.LimitN(ctx, identifier, rate)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

// Remaining reports how much quota identifier has left without
// consuming any.
func (l *Limiter) Remaining(ctx context.Context, identifier string) (int64, error) {
	if identifier == "" {
		return 0, ErrEmptyIdentifier
	}
	return l.algo.Remaining(ctx, identifier)
}

// Reset reports the unix time in milliseconds when identifier's state
// next resets, or -1 when the identifier has no state.
func (l *Limiter) Reset(ctx context.Context, identifier string) (int64, error) {
	if identifier == "" {
		return 0, ErrEmptyIdentifier
	}
	return l.algo.Reset(ctx, identifier)
}

// sleep yields until d elapses or ctx is cancelled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
