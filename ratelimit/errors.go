package ratelimit

import "errors"

var (
	// ErrInvalidConfig marks configuration that cannot produce a
	// meaningful limiter: non-positive windows, limits, token counts
	// or rates. Nothing is clamped silently.
	ErrInvalidConfig = errors.New("invalid rate limiter configuration")

	// ErrEmptyIdentifier is returned when a limit check is attempted
	// without an identifier.
	ErrEmptyIdentifier = errors.New("empty rate limit identifier")

	// ErrStoreUnavailable wraps failures talking to the backing
	// store. They surface immediately out of a single evaluation and
	// are never retried internally.
	ErrStoreUnavailable = errors.New("rate limit store unavailable")
)
