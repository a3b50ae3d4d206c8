package mongo

import (
	"sync"
	"time"
)

// HealthCache remembers when collections were last confirmed healthy so
// hot paths can skip redundant pings. The adapter invalidates it on
// every re-initialization, since cached assessments describe the old
// connection.
type HealthCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

// NewHealthCache builds a cache whose entries stay fresh for ttl.
func NewHealthCache(ttl time.Duration) *HealthCache {
	return &HealthCache{
		ttl:     ttl,
		entries: make(map[string]time.Time),
		now:     time.Now,
	}
}

// MarkHealthy records a successful health assessment for the key.
func (c *HealthCache) MarkHealthy(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = c.now()
}

// IsFresh reports whether the key has a health assessment younger than
// the TTL.
func (c *HealthCache) IsFresh(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	at, ok := c.entries[key]
	if !ok {
		return false
	}
	return c.now().Sub(at) < c.ttl
}

// Invalidate drops one key.
func (c *HealthCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// InvalidateAll drops every cached assessment.
func (c *HealthCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]time.Time)
}
