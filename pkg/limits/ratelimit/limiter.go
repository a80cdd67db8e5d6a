package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang/groupcache/lru"
)

// Config configures a Limiter.
type Config struct {
	// RequestsPerSecond is the refill rate of every bucket.
	RequestsPerSecond float64

	// Burst is the capacity of every bucket.
	Burst int

	// MaxClients bounds the number of buckets kept.
	MaxClients int
}

// Decision is the outcome of Limiter.Allow.
type Decision struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	RetryAfter time.Duration
}

// Limiter keeps a token bucket per key.
type Limiter struct {
	config  Config
	now     func() time.Time
	mu      sync.Mutex
	buckets *lru.Cache
}

// NewLimiter creates a keyed limiter.
func NewLimiter(config Config) (*Limiter, error) {
	return newLimiter(config, time.Now)
}

func newLimiter(config Config, now func() time.Time) (*Limiter, error) {
	if config.RequestsPerSecond <= 0 {
		return nil, fmt.Errorf("requests per second must be positive, got %v", config.RequestsPerSecond)
	}
	if config.Burst < 1 {
		return nil, fmt.Errorf("burst must be at least 1, got %d", config.Burst)
	}
	if config.MaxClients < 1 {
		return nil, fmt.Errorf("max clients must be at least 1, got %d", config.MaxClients)
	}
	return &Limiter{
		config:  config,
		now:     now,
		buckets: lru.New(config.MaxClients),
	}, nil
}

// Allow takes one token from key's bucket.
func (l *Limiter) Allow(key string) Decision {
	bucket := l.bucket(key)

	d := Decision{Limit: bucket.Capacity()}
	d.Allowed = bucket.Take(1)
	d.Remaining = bucket.Remaining()
	if !d.Allowed {
		d.RetryAfter = bucket.TimeUntilAvailable(1)
	}
	return d
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.buckets.Len()
}

func (l *Limiter) bucket(key string) *TokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.buckets.Get(key); ok {
		return v.(*TokenBucket)
	}
	b := newTokenBucket(int64(l.config.Burst), l.config.RequestsPerSecond, l.now)
	l.buckets.Add(key, b)
	return b
}
