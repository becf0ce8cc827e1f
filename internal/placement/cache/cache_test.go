package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusgate/internal/placement/models"
)

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemory()
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	gen, err := c.Generation(ctx)
	require.NoError(t, err)
	stored, err := c.Set(ctx, &models.Report{Total: 3}, time.Minute, gen)
	require.NoError(t, err)
	require.True(t, stored)
	got, ok, err := c.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got.Total)

	now = now.Add(time.Minute)
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok, "expired at ttl")

	_, err = c.Set(ctx, &models.Report{Total: 4}, time.Minute, gen)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))
	_, ok, _ = c.Get(ctx)
	assert.False(t, ok)
}

func TestMemoryCacheDropsReportsFromBeforeInvalidation(t *testing.T) {
	ctx := context.Background()
	c := NewMemory()

	stale, err := c.Generation(ctx)
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx))

	stored, err := c.Set(ctx, &models.Report{Total: 1}, time.Minute, stale)
	require.NoError(t, err)
	assert.False(t, stored)
	_, ok, _ := c.Get(ctx)
	assert.False(t, ok)

	current, err := c.Generation(ctx)
	require.NoError(t, err)
	assert.Equal(t, stale+1, current)
	stored, err = c.Set(ctx, &models.Report{Total: 2}, time.Minute, current)
	require.NoError(t, err)
	assert.True(t, stored)
}
