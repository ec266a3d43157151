// Package ratelimit implements a fixed-window request counter keyed by
// client identity.
package ratelimit

import (
	"sync"
	"time"
)

type bucket struct {
	count   int
	resetAt time.Time
}

// Limiter admits at most limit requests per key within a fixed window.
// Windows are fixed, not sliding: bursts straddling a window boundary can
// admit up to twice the limit across adjacent windows, which is the accepted
// tradeoff for this scheme. Buckets are created lazily and never evicted,
// so the limiter is suitable for a single long-lived process only; a
// multi-instance deployment needs a shared TTL-bearing store instead.
type Limiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	now func() time.Time
}

// NewLimiter creates a limiter admitting limit requests per window per key
func NewLimiter(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow records one request for key and reports whether it is admitted.
// On rejection it returns the time remaining until the window resets.
func (l *Limiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		l.buckets[key] = &bucket{count: 1, resetAt: now.Add(l.window)}
		return true, 0
	}

	b.count++
	if b.count <= l.limit {
		return true, 0
	}

	return false, b.resetAt.Sub(now)
}

// Len returns the number of tracked keys
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
