// Package ratelimit provides the per-caller limiter the analyzer's serving
// layer injects in front of Analyze. It is a collaborator behind a small
// interface rather than ambient state, so callers can swap or stub it.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter decides whether a caller may issue another analysis right now
type Limiter interface {
	Allow(caller string) bool
}

// PerCaller is a token-bucket limiter keyed by caller identity
type PerCaller struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	limit   rate.Limit
	burst   int
}

// NewPerCaller creates a limiter allowing perMinute analyses per caller with
// the given burst. perMinute <= 0 disables limiting entirely.
func NewPerCaller(perMinute, burst int) *PerCaller {
	if burst <= 0 {
		burst = 1
	}
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60)
	}
	return &PerCaller{
		buckets: make(map[string]*rate.Limiter),
		limit:   limit,
		burst:   burst,
	}
}

// Allow reports whether the caller has budget for one more analysis
func (p *PerCaller) Allow(caller string) bool {
	p.mu.Lock()
	bucket, ok := p.buckets[caller]
	if !ok {
		bucket = rate.NewLimiter(p.limit, p.burst)
		p.buckets[caller] = bucket
	}
	p.mu.Unlock()

	return bucket.Allow()
}

// Unlimited is a Limiter that never rejects
type Unlimited struct{}

// Allow always returns true
func (Unlimited) Allow(string) bool { return true }
