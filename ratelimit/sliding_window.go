package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

var _ Algorithm = &slidingWindow{}

// slidingWindow approximates a continuously moving window from two
// adjacent fixed windows. The previous window's count is weighted by
// how much of it still overlaps the sliding interval. The
// approximation is exact under uniform arrival within the previous
// window and keeps storage at O(1) per identifier, unlike a request
// log which grows without bound.
type slidingWindow struct {
	store   Store
	prefix  string
	max     int64
	window  time.Duration
	timeNow func() time.Time
}

func (s *slidingWindow) key(identifier string, index int64) string {
	return fmt.Sprintf("%s:%s:%s:%d", s.prefix, nameSlidingWindow, identifier, index)
}

// Limit increments the current window's counter by rate, reads the
// previous window's counter in the same script, and compares the
// weighted total against the threshold. The comparison uses the exact
// fractional value; only the reported Remaining is truncated toward
// zero.
func (s *slidingWindow) Limit(ctx context.Context, identifier string, rate int64) (*Result, error) {
	now := s.timeNow()
	nowMs := now.UnixMilli()
	windowMs := s.window.Milliseconds()
	index := nowMs / windowMs

	keys := []string{s.key(identifier, index), s.key(identifier, index-1)}
	reply, err := s.store.Eval(ctx, slidingWindowScript, keys, windowMs, rate)
	if err != nil {
		return nil, err
	}

	values, err := toSlice(reply, 2)
	if err != nil {
		return nil, err
	}
	current, err := toInt64(values[0])
	if err != nil {
		return nil, err
	}
	previous, err := toInt64(values[1])
	if err != nil {
		return nil, err
	}

	elapsed := float64(nowMs%windowMs) / float64(windowMs)
	weighted := float64(previous)*(1-elapsed) + float64(current)

	return &Result{
		Allowed:   weighted <= float64(s.max),
		Limit:     s.max,
		Remaining: int64(float64(s.max) - weighted),
		Reset:     (index + 1) * windowMs,
	}, nil
}

func (s *slidingWindow) Remaining(ctx context.Context, identifier string) (int64, error) {
	now := s.timeNow()
	nowMs := now.UnixMilli()
	windowMs := s.window.Milliseconds()
	index := nowMs / windowMs

	current, err := s.counter(ctx, identifier, index)
	if err != nil {
		return 0, err
	}
	previous, err := s.counter(ctx, identifier, index-1)
	if err != nil {
		return 0, err
	}

	elapsed := float64(nowMs%windowMs) / float64(windowMs)
	weighted := float64(previous)*(1-elapsed) + float64(current)

	if weighted >= float64(s.max) {
		return 0, nil
	}
	return int64(float64(s.max) - weighted), nil
}

func (s *slidingWindow) Reset(ctx context.Context, identifier string) (int64, error) {
	now := s.timeNow()
	windowMs := s.window.Milliseconds()
	index := now.UnixMilli() / windowMs

	for _, i := range []int64{index, index - 1} {
		_, _, ok, err := s.store.GetWithTTL(ctx, s.key(identifier, i))
		if err != nil {
			return 0, err
		}
		if ok {
			return (index + 1) * windowMs, nil
		}
	}
	return -1, nil
}

func (s *slidingWindow) counter(ctx context.Context, identifier string, index int64) (int64, error) {
	value, _, ok, err := s.store.GetWithTTL(ctx, s.key(identifier, index))
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}
