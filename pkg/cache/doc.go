// Package cache memoizes evaluation responses.
//
// Evaluation is deterministic, so a response is fully identified by the
// engine version and the deterministic hash of the normalized input; Key
// combines the two. Cached responses carry the evaluatedAt of the original
// evaluation and callers re-stamp it on a hit.
//
// Backends: Memory (github.com/golang/groupcache/lru behind a mutex, with
// an optional TTL), Redis (github.com/redis/go-redis/v9, JSON values with
// a TTL) and Noop.
package cache
