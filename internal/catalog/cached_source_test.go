package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alexanderramin/coursechat/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	staticSource
	calls int
}

func (s *countingSource) Fetch(ctx context.Context) ([]byte, error) {
	s.calls++
	return s.staticSource.Fetch(ctx)
}

func newMemCache(t *testing.T) *cache.BadgerCache {
	t.Helper()
	c, err := cache.NewInMemoryBadgerCache()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestCachedSource_ServesFreshCopy(t *testing.T) {
	inner := &countingSource{staticSource: staticSource{body: []byte(`[]`)}}
	src := NewCachedSource(inner, newMemCache(t), time.Minute, time.Hour, nil)

	for range 3 {
		body, err := src.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "[]", string(body))
	}
	assert.Equal(t, 1, inner.calls)
}

func TestCachedSource_FallsBackToStale(t *testing.T) {
	c := newMemCache(t)
	inner := &countingSource{staticSource: staticSource{body: []byte(`[{"id":1}]`)}}
	src := NewCachedSource(inner, c, time.Minute, time.Hour, nil)
	_, err := src.Fetch(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Delete(src.freshKey()))
	inner.staticSource = staticSource{err: errors.New("offline")}

	body, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `[{"id":1}]`, string(body))
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_NoCopyPropagatesError(t *testing.T) {
	inner := &countingSource{staticSource: staticSource{err: ErrFeedUnavailable}}
	src := NewCachedSource(inner, newMemCache(t), time.Minute, time.Hour, nil)

	_, err := src.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFeedUnavailable)
}
