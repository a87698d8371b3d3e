package llm

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket for outbound model calls, with an extra
// cool-down after the service reports overload.
type RateLimiter struct {
	mu       sync.Mutex
	limiter  *rate.Limiter
	retryAt  time.Time
	cooldown time.Duration
}

// NewRateLimiter returns nil when rps is zero, meaning unlimited.
func NewRateLimiter(rps float64, burst int, cooldown time.Duration) *RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst), cooldown: cooldown}
}

// Wait blocks until a call may be made.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()

	if wait := time.Until(retryAt); wait > 0 {
		if err := sleepContext(ctx, wait); err != nil {
			return err
		}
	}
	return r.limiter.Wait(ctx)
}

// RecordOverload pushes the next permitted call out by the cool-down.
func (r *RateLimiter) RecordOverload() {
	if r.cooldown <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = time.Now().Add(r.cooldown)
}

// RateLimitedClient throttles calls through a RateLimiter.
type RateLimitedClient struct {
	inner   ChatClient
	limiter *RateLimiter
}

func NewRateLimitedClient(inner ChatClient, limiter *RateLimiter) ChatClient {
	if limiter == nil {
		return inner
	}
	return &RateLimitedClient{inner: inner, limiter: limiter}
}

func (c *RateLimitedClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Join(ErrTimeout, err)
	}
	resp, err := c.inner.Chat(ctx, req)
	if errors.Is(err, ErrOverloaded) {
		c.limiter.RecordOverload()
	}
	return resp, err
}
