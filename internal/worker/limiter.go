package worker

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter rate limits calls per key. Keys that parse as URLs are reduced to
// their host, so every endpoint of one provider shares a budget.
type Limiter struct {
	limiters     map[string]*rate.Limiter
	mu           sync.RWMutex
	defaultRate  rate.Limit
	defaultBurst int
}

// NewLimiter creates a new rate limiter
func NewLimiter(requestsPerSecond float64, burst int) *Limiter {
	if burst <= 0 {
		burst = 1
	}

	return &Limiter{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  rate.Limit(requestsPerSecond),
		defaultBurst: burst,
	}
}

// NewIntervalLimiter allows one call per interval with no bursting
func NewIntervalLimiter(interval time.Duration) *Limiter {
	if interval <= 0 {
		return NewLimiter(float64(rate.Inf), 1)
	}
	l := NewLimiter(0, 1)
	l.defaultRate = rate.Every(interval)
	return l
}

// Wait blocks until a call under key is allowed or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.getLimiter(limiterKey(key)).Wait(ctx)
}

// Allow checks if a call is allowed without waiting
func (l *Limiter) Allow(key string) bool {
	return l.getLimiter(limiterKey(key)).Allow()
}

func (l *Limiter) getLimiter(key string) *rate.Limiter {
	l.mu.RLock()
	limiter, exists := l.limiters[key]
	l.mu.RUnlock()

	if exists {
		return limiter
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(l.defaultRate, l.defaultBurst)
	l.limiters[key] = limiter

	return limiter
}

// SetRate sets a custom rate limit for a specific key
func (l *Limiter) SetRate(key string, requestsPerSecond float64, burst int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if burst <= 0 {
		burst = l.defaultBurst
	}

	l.limiters[limiterKey(key)] = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
}

// limiterKey reduces URLs to their host
func limiterKey(key string) string {
	if strings.Contains(key, "://") {
		if parsed, err := url.Parse(key); err == nil && parsed.Host != "" {
			return strings.ToLower(parsed.Host)
		}
	}
	return strings.ToLower(key)
}
