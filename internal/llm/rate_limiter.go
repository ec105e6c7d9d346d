package llm

import (
	"context"
	"sync"
	"time"
)

// ModelLimit defines the client-side request budget for a single model.
type ModelLimit struct {
	// RequestsPerMinute limits API calls per minute.
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`

	// Burst allows short runs above the steady rate.
	Burst int `yaml:"burst" json:"burst"`
}

// DefaultModelLimit returns the free-tier request budget for known Gemini
// models. Staying under these client-side keeps most requests from ever
// seeing a 429, which matters because a 429 burns a slot in the fallback
// chain.
func DefaultModelLimit(model string) ModelLimit {
	switch model {
	case "gemini-2.5-flash":
		return ModelLimit{RequestsPerMinute: 10, Burst: 2}
	case "gemini-2.0-flash-exp":
		return ModelLimit{RequestsPerMinute: 10, Burst: 2}
	case "gemini-1.5-flash":
		return ModelLimit{RequestsPerMinute: 15, Burst: 2}
	default:
		return ModelLimit{RequestsPerMinute: 10, Burst: 2}
	}
}

// ModelUsage tracks per-model request statistics.
type ModelUsage struct {
	Requests      int64     `json:"requests"`
	Tokens        int64     `json:"tokens"`
	LastRequestAt time.Time `json:"last_request_at"`
}

// Limiter spaces out API calls per model using token buckets. Free-tier
// Gemini quotas are enforced per model, so the limiter is keyed by model
// name rather than by provider.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]ModelLimit
	buckets map[string]*tokenBucket
	usage   map[string]*ModelUsage
}

// tokenBucket implements the token bucket algorithm for rate limiting.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

// NewLimiter creates a rate limiter. Buckets are created lazily with
// DefaultModelLimit the first time a model is seen.
func NewLimiter() *Limiter {
	return &Limiter{
		limits:  make(map[string]ModelLimit),
		buckets: make(map[string]*tokenBucket),
		usage:   make(map[string]*ModelUsage),
	}
}

// SetLimit overrides the budget for a model. Replaces any existing bucket.
func (l *Limiter) SetLimit(model string, limit ModelLimit) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limits[model] = limit
	l.buckets[model] = newTokenBucket(limit)
}

// Wait blocks until a request slot for model is available or the context
// is cancelled.
func (l *Limiter) Wait(ctx context.Context, model string) error {
	bucket := l.bucket(model)
	for {
		wait := bucket.take()
		if wait == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
			// Another caller may have taken the refilled token; loop and
			// try again.
		}
	}
}

// CanProceed reports whether a request for model would go through without
// blocking.
func (l *Limiter) CanProceed(model string) bool {
	return l.bucket(model).peek() >= 1
}

// WaitTime returns the estimated wait before a request for model can
// proceed.
func (l *Limiter) WaitTime(model string) time.Duration {
	bucket := l.bucket(model)
	bucket.mu.Lock()
	defer bucket.mu.Unlock()
	bucket.refill()
	if bucket.tokens >= 1 {
		return 0
	}
	return time.Duration((1 - bucket.tokens) / bucket.refillRate * float64(time.Second))
}

// RecordUsage records actual token usage after a request completes.
func (l *Limiter) RecordUsage(model string, tokens int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.usage[model]
	if !ok {
		u = &ModelUsage{}
		l.usage[model] = u
	}
	u.Requests++
	u.Tokens += int64(tokens)
	u.LastRequestAt = time.Now()
}

// Usage returns a copy of the usage statistics for model.
func (l *Limiter) Usage(model string) ModelUsage {
	l.mu.Lock()
	defer l.mu.Unlock()
	if u, ok := l.usage[model]; ok {
		return *u
	}
	return ModelUsage{}
}

// AllUsage returns usage statistics for every model seen so far.
func (l *Limiter) AllUsage() map[string]ModelUsage {
	l.mu.Lock()
	defer l.mu.Unlock()
	result := make(map[string]ModelUsage, len(l.usage))
	for model, u := range l.usage {
		result[model] = *u
	}
	return result
}

// bucket returns the token bucket for model, creating one with default
// limits on first use.
func (l *Limiter) bucket(model string) *tokenBucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	if b, ok := l.buckets[model]; ok {
		return b
	}

	limit, ok := l.limits[model]
	if !ok {
		limit = DefaultModelLimit(model)
		l.limits[model] = limit
	}
	b := newTokenBucket(limit)
	l.buckets[model] = b
	return b
}

func newTokenBucket(limit ModelLimit) *tokenBucket {
	maxTokens := float64(limit.Burst)
	if maxTokens < 1 {
		maxTokens = 1
	}
	return &tokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: float64(limit.RequestsPerMinute) / 60.0,
		lastRefill: time.Now(),
	}
}

// take consumes a token if one is available, otherwise returns how long to
// wait before retrying.
func (tb *tokenBucket) take() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= 1 {
		tb.tokens--
		return 0
	}
	return time.Duration((1 - tb.tokens) / tb.refillRate * float64(time.Second))
}

// peek returns the current token count without consuming.
func (tb *tokenBucket) peek() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.refill()
	return tb.tokens
}

// refill adds tokens based on elapsed time (must be called with lock held).
func (tb *tokenBucket) refill() {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens += elapsed * tb.refillRate
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}
	tb.lastRefill = now
}
