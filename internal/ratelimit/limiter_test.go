package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestSourceLimiter_SameSourceSharesBucket(t *testing.T) {
	l := NewSourceLimiter(RateLimitConfig{RequestsPerSecond: 5, BurstSize: 5})

	assert.Same(t, l.GetLimiter("amadeus"), l.GetLimiter("amadeus"))
	assert.NotSame(t, l.GetLimiter("amadeus"), l.GetLimiter("fixture"))
}

func TestSourceLimiter_ZeroRateIsUnlimited(t *testing.T) {
	l := NewSourceLimiter(RateLimitConfig{})

	assert.Equal(t, rate.Inf, l.GetLimiter("fixture").Limit())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Wait(ctx, "fixture"))
	}
}

func TestSourceLimiter_BlocksPastBurst(t *testing.T) {
	l := NewSourceLimiter(RateLimitConfig{RequestsPerSecond: 0.1, BurstSize: 2})

	ctx := context.Background()
	require.NoError(t, l.Wait(ctx, "amadeus"))
	require.NoError(t, l.Wait(ctx, "amadeus"))

	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(short, "amadeus"), "third call exceeds burst at 0.1 rps")
}

func TestSourceLimiter_SetSourceLimit(t *testing.T) {
	l := NewSourceLimiter(RateLimitConfig{RequestsPerSecond: 5, BurstSize: 5})
	l.SetSourceLimit("amadeus", RateLimitConfig{RequestsPerSecond: 2, BurstSize: 0})

	limiter := l.GetLimiter("amadeus")
	assert.Equal(t, rate.Limit(2), limiter.Limit())
	assert.Equal(t, 1, limiter.Burst())
}

func TestSourceLimiter_SetSourceLimitLeavesOthersOnDefaults(t *testing.T) {
	l := NewSourceLimiter(RateLimitConfig{RequestsPerSecond: 5, BurstSize: 5})
	l.SetSourceLimit("amadeus", RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3})

	assert.Equal(t, rate.Limit(1), l.GetLimiter("amadeus").Limit())
	assert.Equal(t, rate.Limit(5), l.GetLimiter("fixture").Limit())
	assert.Equal(t, 5, l.GetLimiter("fixture").Burst())
}
