package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contexture-ai/contexture/pkg/cache"
)

func newCache(t *testing.T) *cache.BadgerCache {
	t.Helper()
	c, err := cache.NewBadgerCache("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSetGet(t *testing.T) {
	c := newCache(t)

	require.NoError(t, c.Set("key", []byte("value"), time.Minute))

	got, err := c.Get("key")
	require.NoError(t, err)
	assert.Equal(t, []byte("value"), got)
}

func TestGetMissing(t *testing.T) {
	c := newCache(t)

	_, err := c.Get("absent")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
}

func TestDelete(t *testing.T) {
	c := newCache(t)

	require.NoError(t, c.Set("key", []byte("value"), time.Minute))
	require.NoError(t, c.Delete("key"))

	_, err := c.Get("key")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
}

func TestDeletePrefix(t *testing.T) {
	c := newCache(t)

	require.NoError(t, c.Set("graph:u1|t1:", []byte("a"), time.Minute))
	require.NoError(t, c.Set("graph:u1|t1:ctx-1", []byte("b"), time.Minute))
	require.NoError(t, c.Set("graph:u2|t1:", []byte("c"), time.Minute))

	require.NoError(t, c.DeletePrefix("graph:u1|t1"))

	_, err := c.Get("graph:u1|t1:")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
	_, err = c.Get("graph:u1|t1:ctx-1")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)

	kept, err := c.Get("graph:u2|t1:")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), kept)
}

func TestTTLExpiry(t *testing.T) {
	c := newCache(t)

	require.NoError(t, c.Set("short", []byte("v"), 50*time.Millisecond))
	time.Sleep(120 * time.Millisecond)

	_, err := c.Get("short")
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
}
