package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

var _ Algorithm = &fixedWindow{}

// fixedWindow counts requests in discrete, non-overlapping time slices.
// Each slice has its own counter key that expires once the slice is no
// longer current.
type fixedWindow struct {
	store   Store
	prefix  string
	max     int64
	window  time.Duration
	timeNow func() time.Time
}

func (f *fixedWindow) key(identifier string, index int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", f.prefix, nameFixedWindow, identifier, index)
}

func (f *fixedWindow) windowIndex(now time.Time) int64 {
	return now.UnixMilli() / f.window.Milliseconds()
}

// Limit increments the current window's counter by rate and compares
// the new total against the threshold. The counter moves even when the
// request is denied: a rejected caller still consumed quota, which is
// what keeps "requests made" accounting honest for over-limit callers.
func (f *fixedWindow) Limit(ctx context.Context, identifier string, rate int64) (*Result, error) {
	now := f.timeNow()
	windowMs := f.window.Milliseconds()
	index := f.windowIndex(now)

	reply, err := f.store.Eval(ctx, fixedWindowScript, []string{f.key(identifier, index)}, windowMs, rate)
	if err != nil {
		return nil, err
	}

	count, err := toInt64(reply)
	if err != nil {
		return nil, err
	}

	return &Result{
		Allowed:   count <= f.max,
		Limit:     f.max,
		Remaining: f.max - count,
		Reset:     (index + 1) * windowMs,
	}, nil
}

func (f *fixedWindow) Remaining(ctx context.Context, identifier string) (int64, error) {
	value, _, ok, err := f.store.GetWithTTL(ctx, f.key(identifier, f.windowIndex(f.timeNow())))
	if err != nil {
		return 0, err
	}
	if !ok {
		// No requests yet in the current window.
		return f.max, nil
	}

	count, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	return f.max - count, nil
}

func (f *fixedWindow) Reset(ctx context.Context, identifier string) (int64, error) {
	now := f.timeNow()
	index := f.windowIndex(now)

	_, _, ok, err := f.store.GetWithTTL(ctx, f.key(identifier, index))
	if err != nil {
		return 0, err
	}
	if !ok {
		return -1, nil
	}
	return (index + 1) * f.window.Milliseconds(), nil
}
