// Package ratelimit makes allow/deny decisions against a remote
// key-value store, so that stateless callers (serverless functions,
// horizontally scaled replicas) share one global budget per
// identifier without holding any local counters.
//
// Three algorithms are provided, each behind the same Limiter API:
//
//   - Fixed window: requests are counted in discrete time slices.
//   - Sliding window: two adjacent fixed windows are interpolated to
//     approximate a continuously moving window in O(1) space.
//   - Token bucket: a bucket of tokens refills linearly over time and
//     each call consumes one or more of them.
//
// Every decision is a single round trip: the whole read-modify-write
// cycle runs inside one atomic script on the store, which is what
// keeps concurrent callers against the same identifier consistent.
// The client side holds no mutable state, so a Limiter can be shared
// freely across goroutines.
//
//	store := ratelimit.NewRedisStore(client)
//	limiter, err := ratelimit.NewSlidingWindow(store, 100, time.Minute)
//	res, err := limiter.Limit(ctx, "user_123")
//	if !res.Allowed {
//		// reject, res.Reset says when quota returns
//	}
//
// BlockUntilReady retries a denied decision until quota frees up or a
// caller-supplied timeout elapses; on timeout it returns the last
// denied Result rather than an error. Store failures, by contrast,
// are always surfaced as errors and never retried internally.
package ratelimit
