package config

import (
	"sync"

	"depctl/internal/adapter"
)

// Store holds the active configuration behind a lock so reloads swap it
// atomically while adapters read it per operation.
type Store struct {
	mu  sync.RWMutex
	cfg Config
}

// NewStore builds a store seeded with cfg.
func NewStore(cfg Config) *Store {
	return &Store{cfg: cfg}
}

// Get returns the active configuration.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Swap replaces the active configuration.
func (s *Store) Swap(cfg Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
}

// ReadinessFor resolves the gate configuration for a named adapter.
// Unknown adapters and unparseable policies get the defaults, so a bad
// reload can degrade behavior but never break the gate.
func (s *Store) ReadinessFor(adapterName string) adapter.Config {
	s.mu.RLock()
	ac, ok := s.cfg.Adapters[adapterName]
	s.mu.RUnlock()

	cfg := adapter.DefaultConfig()
	if !ok {
		return cfg
	}

	if policy, err := adapter.ParsePolicy(ac.Readiness.Policy); err == nil {
		cfg.Policy = policy
	}
	if ac.Readiness.Timeout > 0 {
		cfg.Timeout = ac.Readiness.Timeout
	}
	if ac.Readiness.GatingEnabled != nil {
		cfg.GatingEnabled = *ac.Readiness.GatingEnabled
	}
	return cfg
}
