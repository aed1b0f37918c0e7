package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenCache_SetGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryTokenCache()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "tok", time.Minute))
	token, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "tok", token)

	require.NoError(t, c.Delete(ctx, "k"))
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryTokenCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryTokenCache()
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", "tok", 10*time.Minute))

	now = now.Add(9 * time.Minute)
	_, ok := c.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok, "entry is gone at its expiry instant")
}

func TestMemoryTokenCache_NonPositiveTTLIsNotStored(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryTokenCache()

	require.NoError(t, c.Set(ctx, "k", "tok", 0))
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestKey(t *testing.T) {
	a := Key("amadeus", "https://test.api.amadeus.com", "client-a")
	b := Key("amadeus", "https://test.api.amadeus.com", "client-b")

	assert.True(t, strings.HasPrefix(a, "flightwatch:amadeus:token:"))
	assert.NotEqual(t, a, b)
	assert.NotContains(t, a, "client-a")
	assert.Equal(t, a, Key("amadeus", "https://test.api.amadeus.com", "client-a"))
}
