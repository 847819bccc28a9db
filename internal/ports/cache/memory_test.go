package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	require.NoError(t, c.Set(ctx, "employee:detail:1", item{Name: "Ada", Count: 2}, time.Hour))

	var got item
	ok, err := c.Get(ctx, "employee:detail:1", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, item{Name: "Ada", Count: 2}, got)

	require.NoError(t, c.Delete(ctx, "employee:detail:1"))
	ok, err = c.Get(ctx, "employee:detail:1", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", item{Name: "x"}, time.Minute))

	var got item
	now = now.Add(59 * time.Second)
	ok, _ := c.Get(ctx, "k", &got)
	assert.True(t, ok, "entry still inside its ttl")

	now = now.Add(time.Second)
	ok, _ = c.Get(ctx, "k", &got)
	assert.False(t, ok, "entry must not be served at its expiry instant")
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := NewMemoryCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", 1, 0))
	now = now.Add(1000 * time.Hour)

	var got int
	ok, _ := c.Get(ctx, "k", &got)
	assert.True(t, ok)
	assert.Equal(t, 1, got)
}

func TestMemoryCacheDeletePrefix(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	for _, k := range []string{"employees:list:1:10", "employees:list:2:10", "employee:detail:1"} {
		require.NoError(t, c.Set(ctx, k, k, time.Hour))
	}

	require.NoError(t, c.DeletePrefix(ctx, "employees:list:"))

	var v string
	ok, _ := c.Get(ctx, "employees:list:1:10", &v)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, "employees:list:2:10", &v)
	assert.False(t, ok)
	ok, _ = c.Get(ctx, "employee:detail:1", &v)
	assert.True(t, ok)
}

func TestMemoryCacheReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()

	v := []int{1, 2, 3}
	require.NoError(t, c.Set(ctx, "k", v, time.Hour))
	v[0] = 99

	var got []int
	_, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, got)
}
