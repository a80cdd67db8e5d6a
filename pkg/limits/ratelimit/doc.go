// Package ratelimit provides per-client token bucket rate limiting.
//
// A TokenBucket admits bursts up to its capacity while holding the long-run
// rate at its refill rate:
//
//	bucket := ratelimit.NewTokenBucket(100, 50) // burst 100, 50/s
//	if !bucket.Take(1) {
//	    // rejected
//	}
//
// A Limiter keeps one bucket per key, typically the client address, and
// evicts the least recently seen key once MaxClients buckets exist.
//
// All types are safe for concurrent use.
package ratelimit
