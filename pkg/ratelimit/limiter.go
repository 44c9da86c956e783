package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for rate limiting
type Limiter interface {
	// Allow reports whether a request may proceed right now, consuming a token if so
	Allow() bool
	// Wait blocks until a request may proceed or ctx is done
	Wait(ctx context.Context) error
	// Reset restores the limiter to a full bucket
	Reset()
}

// TokenBucket is a token bucket limiter refilled continuously at a fixed rate
type TokenBucket struct {
	mu      sync.RWMutex
	limiter *rate.Limiter
	burst   int
}

// NewTokenBucket creates a limiter allowing requestsPerMinute on average with
// bursts of up to burst requests. A non-positive rate disables limiting.
func NewTokenBucket(requestsPerMinute, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	limit := rate.Inf
	if requestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	return &TokenBucket{
		limiter: rate.NewLimiter(limit, burst),
		burst:   burst,
	}
}

// Allow checks if a request can proceed
func (tb *TokenBucket) Allow() bool {
	return tb.current().Allow()
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	return tb.current().Wait(ctx)
}

// Reset refills the bucket to capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	tb.limiter = rate.NewLimiter(tb.limiter.Limit(), tb.burst)
}

// Delay reports how long the caller would wait for the next token without
// consuming it
func (tb *TokenBucket) Delay() time.Duration {
	r := tb.current().Reserve()
	defer r.Cancel()
	return r.Delay()
}

func (tb *TokenBucket) current() *rate.Limiter {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return tb.limiter
}

// Unlimited is a Limiter that never blocks
type Unlimited struct{}

func (Unlimited) Allow() bool                    { return true }
func (Unlimited) Wait(ctx context.Context) error { return ctx.Err() }
func (Unlimited) Reset()                         {}
