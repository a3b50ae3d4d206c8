package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig shapes the exponential backoff applied to a failing
// adapter initializer.
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
	MaxRetries      uint64
}

// DefaultRetryConfig is the standard initializer retry schedule:
// 500ms doubling to a 30s ceiling, eight attempts.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		MaxRetries:      8,
	}
}

// RetryPolicyProvider resolves the retry schedule for a named adapter.
type RetryPolicyProvider interface {
	RetryConfigFor(adapterName string) RetryConfig
}

// RetryRegistry is a name-keyed RetryPolicyProvider with a shared
// fallback. Safe for concurrent use.
type RetryRegistry struct {
	mu       sync.RWMutex
	fallback RetryConfig
	perName  map[string]RetryConfig
}

// NewRetryRegistry builds a registry using the given fallback schedule.
func NewRetryRegistry(fallback RetryConfig) *RetryRegistry {
	return &RetryRegistry{
		fallback: fallback,
		perName:  make(map[string]RetryConfig),
	}
}

// Set overrides the schedule for one adapter.
func (r *RetryRegistry) Set(adapterName string, cfg RetryConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.perName[adapterName] = cfg
}

func (r *RetryRegistry) RetryConfigFor(adapterName string) RetryConfig {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cfg, ok := r.perName[adapterName]; ok {
		return cfg
	}
	return r.fallback
}

// newBackOff converts a RetryConfig into a backoff.BackOff bound to ctx.
func (c RetryConfig) newBackOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.InitialInterval
	eb.MaxInterval = c.MaxInterval
	if c.Multiplier > 0 {
		eb.Multiplier = c.Multiplier
	}
	// Attempts are bounded by MaxRetries, not elapsed time; the caller's
	// context carries the global deadline.
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = backoff.WithContext(eb, ctx)
	if c.MaxRetries > 0 {
		b = backoff.WithMaxRetries(b, c.MaxRetries)
	}
	return b
}
