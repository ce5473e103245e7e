package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/skywatch/internal/core/ports"
)

func TestCache_GetSet(t *testing.T) {
	c := New(10)
	defer c.Close()
	ctx := context.Background()

	_, err := c.Get(ctx, "nope")
	assert.True(t, errors.Is(err, ports.ErrCacheMiss))

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestCache_NeverReadsPastExpiry(t *testing.T) {
	c := New(10)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 30*time.Millisecond))
	time.Sleep(60 * time.Millisecond)

	_, err := c.Get(ctx, "k")
	assert.True(t, errors.Is(err, ports.ErrCacheMiss))
}

func TestCache_BoundedCapacity(t *testing.T) {
	c := New(3)
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), time.Minute))
	}
	assert.LessOrEqual(t, c.Len(), 3)

	_, err := c.Get(ctx, "k0")
	assert.True(t, errors.Is(err, ports.ErrCacheMiss), "oldest entry should be evicted")
	_, err = c.Get(ctx, "k4")
	assert.NoError(t, err)
}

func TestCache_Flush(t *testing.T) {
	c := New(10)
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "a", []byte("1"), time.Minute))
	require.NoError(t, c.Flush(ctx))
	assert.Equal(t, 0, c.Len())
}
