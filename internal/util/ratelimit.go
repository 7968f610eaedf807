package util

import (
	"context"
	"sync"
	"time"
)

// rateLimitPoll is how often Wait rechecks the bucket while blocked.
const rateLimitPoll = 10 * time.Millisecond

// RateLimiter paces gateway calls with a single-token bucket refilled at a
// fixed per-minute rate. The export command uses it so a full universe walk
// stays under the gateway's request budget.
type RateLimiter struct {
	perSecond float64
	tokens    float64
	last      time.Time
	mu        sync.Mutex
}

// NewRateLimiter allows perMinute operations per minute. The first call to
// Wait passes immediately.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{
		perSecond: float64(perMinute) / 60.0,
		tokens:    1,
		last:      time.Now(),
	}
}

// Wait blocks until the next operation is allowed or the context is
// cancelled.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := time.Now()
		rl.tokens += now.Sub(rl.last).Seconds() * rl.perSecond
		if rl.tokens > 1 {
			rl.tokens = 1
		}
		rl.last = now

		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		rl.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(rateLimitPoll):
		}
	}
}
