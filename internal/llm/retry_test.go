package llm

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetrying(inner ChatClient, policy RetryPolicy) (*RetryingClient, *[]time.Duration) {
	var waits []time.Duration
	c := NewRetryingClient(inner, policy, nil)
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	c.jitter = func(time.Duration) time.Duration { return 250 * time.Millisecond }
	return c, &waits
}

func TestRetryingClient_ThreeOverloadsThenSuccess(t *testing.T) {
	inner := &scriptedClient{results: []scriptedResult{overloaded(), overloaded(), overloaded(), ok("done")}}
	c, waits := newTestRetrying(inner, DefaultConfig().RetryPolicy())

	resp, err := c.Chat(context.Background(), ChatRequest{Task: TaskChat})

	require.NoError(t, err)
	assert.Equal(t, "done", resp.Content)
	assert.Equal(t, 4, inner.Calls())
	assert.Equal(t, []time.Duration{
		2250 * time.Millisecond,
		4250 * time.Millisecond,
		8250 * time.Millisecond,
	}, *waits)
}

func TestRetryingClient_AuthErrorIsNotRetried(t *testing.T) {
	inner := &scriptedClient{results: []scriptedResult{{err: NewAPIError(403, "PERMISSION_DENIED")}}}
	c, waits := newTestRetrying(inner, DefaultConfig().RetryPolicy())

	_, err := c.Chat(context.Background(), ChatRequest{})

	assert.ErrorIs(t, err, ErrAuth)
	assert.Equal(t, 1, inner.Calls())
	assert.Empty(t, *waits)
}

func TestRetryingClient_OtherErrorIsNotRetried(t *testing.T) {
	inner := &scriptedClient{results: []scriptedResult{{err: NewAPIError(500, "internal")}}}
	c, _ := newTestRetrying(inner, DefaultConfig().RetryPolicy())

	_, err := c.Chat(context.Background(), ChatRequest{})

	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 1, inner.Calls())
}

func TestRetryingClient_BudgetExhausted(t *testing.T) {
	inner := &scriptedClient{results: []scriptedResult{overloaded()}}
	c, waits := newTestRetrying(inner, RetryPolicy{MaxRetries: 2, BaseDelay: time.Second})

	_, err := c.Chat(context.Background(), ChatRequest{})

	assert.ErrorIs(t, err, ErrOverloaded)
	assert.Equal(t, 3, inner.Calls())
	assert.Len(t, *waits, 2)
}

func TestRetryingClient_CancelledDuringBackoff(t *testing.T) {
	inner := &scriptedClient{results: []scriptedResult{overloaded()}}
	c := NewRetryingClient(inner, RetryPolicy{MaxRetries: 3, BaseDelay: time.Hour}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Chat(ctx, ChatRequest{})

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, 1, inner.Calls())
}

func TestRetryPolicy_Backoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 2 * time.Second, MaxJitter: time.Second}
	noJitter := func(time.Duration) time.Duration { return 0 }

	assert.Equal(t, 2*time.Second, p.Backoff(0, noJitter))
	assert.Equal(t, 4*time.Second, p.Backoff(1, noJitter))
	assert.Equal(t, 8*time.Second, p.Backoff(2, noJitter))

	for range 50 {
		d := p.Backoff(0, randomJitter)
		assert.GreaterOrEqual(t, d, 2*time.Second)
		assert.Less(t, d, 3*time.Second)
	}
}
