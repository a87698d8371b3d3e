package llm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"
)

// RetryPolicy is exponential backoff with jitter:
// delay(attempt) = BaseDelay * 2^attempt + rand[0, MaxJitter).
type RetryPolicy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxJitter  time.Duration
}

// Backoff returns the wait before retry number attempt (0-based), using
// jitter for the random component.
func (p RetryPolicy) Backoff(attempt int, jitter func(time.Duration) time.Duration) time.Duration {
	d := p.BaseDelay << attempt
	if p.MaxJitter > 0 && jitter != nil {
		d += jitter(p.MaxJitter)
	}
	return d
}

func randomJitter(limit time.Duration) time.Duration {
	return time.Duration(rand.Int64N(int64(limit)))
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryingClient retries overload failures with backoff. Auth failures
// return immediately, as does anything that is neither auth nor overload.
type RetryingClient struct {
	inner  ChatClient
	policy RetryPolicy
	logger *slog.Logger
	sleep  func(context.Context, time.Duration) error
	jitter func(time.Duration) time.Duration
}

func NewRetryingClient(inner ChatClient, policy RetryPolicy, logger *slog.Logger) *RetryingClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &RetryingClient{inner: inner, policy: policy, logger: logger, sleep: sleepContext, jitter: randomJitter}
}

func (c *RetryingClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	for attempt := 0; ; attempt++ {
		resp, err := c.inner.Chat(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !errors.Is(err, ErrOverloaded) {
			return nil, err
		}
		if attempt >= c.policy.MaxRetries {
			c.logger.Warn("llm retry budget exhausted", "task", req.Task, "attempts", attempt+1, "error", err)
			return nil, err
		}

		delay := c.policy.Backoff(attempt, c.jitter)
		c.logger.Warn("llm busy, retrying", "task", req.Task, "attempt", attempt+1, "delay_ms", delay.Milliseconds(), "error", err)
		if serr := c.sleep(ctx, delay); serr != nil {
			return nil, errors.Join(ErrTimeout, serr)
		}
	}
}
