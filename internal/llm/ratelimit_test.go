package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRateLimiter_ZeroMeansUnlimited(t *testing.T) {
	assert.Nil(t, NewRateLimiter(0, 1, time.Second))

	inner := &scriptedClient{results: []scriptedResult{ok("x")}}
	assert.Same(t, ChatClient(inner), NewRateLimitedClient(inner, nil))
}

func TestRateLimitedClient_BurstPassesThrough(t *testing.T) {
	inner := &scriptedClient{results: []scriptedResult{ok("x")}}
	c := NewRateLimitedClient(inner, NewRateLimiter(1, 3, 0))

	for range 3 {
		_, err := c.Chat(context.Background(), ChatRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.Calls())
}

func TestRateLimitedClient_CancelledWait(t *testing.T) {
	inner := &scriptedClient{results: []scriptedResult{overloaded()}}
	limiter := NewRateLimiter(1, 1, time.Hour)
	c := NewRateLimitedClient(inner, limiter)

	_, err := c.Chat(context.Background(), ChatRequest{})
	require.ErrorIs(t, err, ErrOverloaded)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Chat(ctx, ChatRequest{})
	assert.ErrorIs(t, err, ErrTimeout, "overload cool-down blocks the next call")
	assert.Equal(t, 1, inner.Calls())
}
