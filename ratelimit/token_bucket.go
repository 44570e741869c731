package ratelimit

import (
	"context"
	"fmt"
	"math"
	"time"
)

var _ Algorithm = &tokenBucket{}

// tokenBucket models continuous linear refill instead of discrete
// windows: a bucket of up to max tokens regains refillRate tokens per
// interval, and every call tries to take rate tokens from it. The
// bucket state carries no TTL, it is re-derived from the elapsed time
// on the next evaluation.
type tokenBucket struct {
	store    Store
	prefix   string
	max      int64
	refill   int64
	interval time.Duration
	timeNow  func() time.Time
}

func (t *tokenBucket) key(identifier string) string {
	return fmt.Sprintf("%s:%s:%s", t.prefix, nameTokenBucket, identifier)
}

// Limit refills the bucket from the elapsed time, then consumes rate
// tokens when enough are available. A rate larger than the bucket
// capacity can never pass, but the script still runs so the refill
// clock stays fresh. The script persists updated state on deny too,
// for the same reason.
func (t *tokenBucket) Limit(ctx context.Context, identifier string, rate int64) (*Result, error) {
	nowMs := t.timeNow().UnixMilli()
	intervalMs := t.interval.Milliseconds()

	reply, err := t.store.Eval(ctx, tokenBucketScript, []string{t.key(identifier)},
		t.max, intervalMs, t.refill, nowMs, rate)
	if err != nil {
		return nil, err
	}

	values, err := toSlice(reply, 2)
	if err != nil {
		return nil, err
	}
	allowed, err := toInt64(values[0])
	if err != nil {
		return nil, err
	}
	tokens, err := toFloat64(values[1])
	if err != nil {
		return nil, err
	}

	var reset int64
	if allowed == 1 {
		reset = nowMs + t.timeToRegain(float64(t.max)-tokens)
	} else {
		reset = nowMs + t.timeToRegain(float64(rate)-tokens)
	}

	return &Result{
		Allowed:   allowed == 1,
		Limit:     t.max,
		Remaining: int64(math.Floor(tokens)),
		Reset:     reset,
	}, nil
}

func (t *tokenBucket) Remaining(ctx context.Context, identifier string) (int64, error) {
	tokens, ok, err := t.peek(ctx, identifier)
	if err != nil {
		return 0, err
	}
	if !ok {
		// The bucket does not exist yet, so it is full.
		return t.max, nil
	}
	return int64(math.Floor(tokens)), nil
}

func (t *tokenBucket) Reset(ctx context.Context, identifier string) (int64, error) {
	tokens, ok, err := t.peek(ctx, identifier)
	if err != nil {
		return 0, err
	}
	if !ok {
		return -1, nil
	}
	return t.timeNow().UnixMilli() + t.timeToRegain(float64(t.max)-tokens), nil
}

// peek reads the stored bucket and applies the refill for the time
// elapsed since, without writing anything back.
func (t *tokenBucket) peek(ctx context.Context, identifier string) (float64, bool, error) {
	reply, err := t.store.Eval(ctx, tokenBucketPeekScript, []string{t.key(identifier)})
	if err != nil {
		return 0, false, err
	}

	values, ok := reply.([]interface{})
	if !ok {
		return 0, false, fmt.Errorf("unexpected script reply: %v", reply)
	}
	if len(values) == 0 {
		return 0, false, nil
	}
	if len(values) != 2 {
		return 0, false, fmt.Errorf("unexpected script reply: %v", reply)
	}

	tokens, err := toFloat64(values[0])
	if err != nil {
		return 0, false, err
	}
	updatedAt, err := toInt64(values[1])
	if err != nil {
		return 0, false, err
	}

	elapsed := t.timeNow().UnixMilli() - updatedAt
	refilled := float64(elapsed) * float64(t.refill) / float64(t.interval.Milliseconds())
	tokens = math.Min(float64(t.max), tokens+refilled)

	return tokens, true, nil
}

// timeToRegain is the number of milliseconds of linear refill needed
// to regain missing tokens, never negative.
func (t *tokenBucket) timeToRegain(missing float64) int64 {
	if missing <= 0 {
		return 0
	}
	return int64(math.Ceil(missing * float64(t.interval.Milliseconds()) / float64(t.refill)))
}
