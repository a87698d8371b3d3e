package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerClient stops calling the model for a cool-down period after a run
// of overload failures. While open, calls fail fast with ErrOverloaded.
type BreakerClient struct {
	inner ChatClient
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerClient(inner ChatClient, failures int, timeout time.Duration, logger *slog.Logger) *BreakerClient {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if failures < 1 {
		failures = 1
	}
	settings := gobreaker.Settings{
		Name:        "llm",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failures)
		},
		// Only overload counts against the service; a bad key or a bad
		// request says nothing about its health.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, ErrOverloaded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerClient{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (c *BreakerClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	out, err := c.cb.Execute(func() (interface{}, error) {
		return c.inner.Chat(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%w: %v", ErrOverloaded, err)
	}
	if err != nil {
		return nil, err
	}
	return out.(*ChatResponse), nil
}

// State reports the breaker state for health output.
func (c *BreakerClient) State() string {
	return c.cb.State().String()
}
