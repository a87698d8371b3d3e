package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *BadgerCache {
	t.Helper()
	c, err := NewInMemoryBadgerCache()
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBadgerCache_SetGet(t *testing.T) {
	c := newTestCache(t)

	require.NoError(t, c.Set("feed", []byte(`[1,2]`), time.Minute))

	got, err := c.Get("feed")
	require.NoError(t, err)
	assert.Equal(t, `[1,2]`, string(got))
}

func TestBadgerCache_MissingKey(t *testing.T) {
	c := newTestCache(t)

	_, err := c.Get("nope")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestBadgerCache_Delete(t *testing.T) {
	c := newTestCache(t)
	require.NoError(t, c.Set("k", []byte("v"), 0))

	require.NoError(t, c.Delete("k"))

	_, err := c.Get("k")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestBadgerCache_OnDisk(t *testing.T) {
	dir := t.TempDir()
	c, err := NewBadgerCache(dir)
	require.NoError(t, err)
	require.NoError(t, c.Set("k", []byte("persisted"), 0))
	require.NoError(t, c.Close())

	reopened, err := NewBadgerCache(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "persisted", string(got))
}
