package dbkit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheKey(t *testing.T) {
	k := CacheKey{Dialect: "postgres", Schema: "public", Table: "users"}
	assert.Equal(t, "postgres:public:users", k.String())
	assert.Equal(t, "postgres:public:", k.Prefix())
	assert.Equal(t, "sqlite::t", CacheKey{Dialect: "sqlite", Table: "t"}.String())
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()

	t.Run("GetMissing", func(t *testing.T) {
		c := NewMemoryCache()
		v, err := c.Get(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("SetGet", func(t *testing.T) {
		c := NewMemoryCache()
		buf := []byte("value")
		require.NoError(t, c.Set(ctx, "k", buf, 0))
		buf[0] = 'X'
		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, []byte("value"), v, "stored value must not alias the caller's slice")
	})

	t.Run("TTL", func(t *testing.T) {
		c := NewMemoryCache()
		now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		c.now = func() time.Time { return now }
		require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))

		v, _ := c.Get(ctx, "k")
		assert.NotNil(t, v)

		now = now.Add(2 * time.Minute)
		v, _ = c.Get(ctx, "k")
		assert.Nil(t, v)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("DeletePrefix", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "pg:public:a", []byte("1"), 0))
		require.NoError(t, c.Set(ctx, "pg:public:b", []byte("2"), 0))
		require.NoError(t, c.Set(ctx, "pg:other:a", []byte("3"), 0))
		require.NoError(t, c.DeletePrefix(ctx, "pg:public:"))
		assert.Equal(t, 1, c.Len())

		require.NoError(t, c.Delete(ctx, "pg:other:a"))
		assert.Equal(t, 0, c.Len())
	})

	t.Run("Clear", func(t *testing.T) {
		c := NewMemoryCache()
		require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
		require.NoError(t, c.Clear(ctx))
		assert.Equal(t, 0, c.Len())
	})

	t.Run("Concurrent", func(t *testing.T) {
		c := NewMemoryCache()
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = c.Set(ctx, "k", []byte("v"), 0)
				_, _ = c.Get(ctx, "k")
			}()
		}
		wg.Wait()
		assert.Equal(t, 1, c.Len())
	})
}
