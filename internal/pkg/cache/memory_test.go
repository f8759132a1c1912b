package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agromarket/internal/pkg/cache"
)

func TestMemoryClient_GetSetDelete(t *testing.T) {
	c := cache.NewMemoryClient()
	ctx := context.Background()

	_, err := c.Get(ctx, "product:1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "product:1", []byte(`{"name":"Apple"}`), time.Minute))
	v, err := c.Get(ctx, "product:1")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"Apple"}`, v)

	require.NoError(t, c.Delete(ctx, "product:1"))
	_, err = c.Get(ctx, "product:1")
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
}

func TestMemoryClient_IncrWindow(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c := cache.NewMemoryClient()
	c.SetClock(func() time.Time { return now })
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := c.Incr(ctx, "rate-limit:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	now = now.Add(time.Minute)
	n, err := c.Incr(ctx, "rate-limit:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
