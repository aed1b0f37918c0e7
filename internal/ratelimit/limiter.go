package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// SourceLimiter paces calls per offer source. Sources without an explicit
// limit share the defaults, each with its own bucket.
type SourceLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	defaults RateLimitConfig
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func (c RateLimitConfig) limiter() *rate.Limiter {
	if c.RequestsPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := c.BurstSize
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.RequestsPerSecond), burst)
}

func NewSourceLimiter(config RateLimitConfig) *SourceLimiter {
	return &SourceLimiter{
		limiters: make(map[string]*rate.Limiter),
		defaults: config,
	}
}

func (l *SourceLimiter) GetLimiter(source string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[source]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if limiter, exists = l.limiters[source]; exists {
		return limiter
	}

	limiter = l.defaults.limiter()
	l.limiters[source] = limiter
	return limiter
}

// SetSourceLimit gives source its own limit, replacing any existing bucket.
func (l *SourceLimiter) SetSourceLimit(source string, config RateLimitConfig) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.limiters[source] = config.limiter()
}

// Wait blocks until source may be called or ctx ends.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	return l.GetLimiter(source).Wait(ctx)
}
