package llm

import (
	"context"
	"log/slog"
	"time"
)

// NewClient assembles the production stack, outermost first:
// retry → circuit breaker → rate limit → OpenAI-compatible API.
// A disabled config yields a client that always returns ErrDisabled.
func NewClient(cfg LLMConfig, observer Observer, logger *slog.Logger) ChatClient {
	if !cfg.Enabled {
		return disabledClient{}
	}
	var c ChatClient = NewOpenAIClient(cfg, observer)
	c = NewRateLimitedClient(c, NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, time.Second))
	c = NewBreakerClient(c, cfg.BreakerFailures, time.Duration(cfg.BreakerTimeoutMs)*time.Millisecond, logger)
	return NewRetryingClient(c, cfg.RetryPolicy(), logger)
}

type disabledClient struct{}

func (disabledClient) Chat(context.Context, ChatRequest) (*ChatResponse, error) {
	return nil, ErrDisabled
}
