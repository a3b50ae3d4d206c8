package adapter

import (
	"context"
	"errors"
	"time"

	"depctl/internal/readiness"
)

// Base is the embeddable default implementation of the Readiness
// contract. It wraps a StateManager, either its own or a shared one,
// and fills in adapter identity on errors.
type Base struct {
	name           string
	manager        *readiness.StateManager
	defaultTimeout time.Duration
}

// NewBase creates a readiness base owning a fresh state manager.
func NewBase(name string, defaultTimeout time.Duration) *Base {
	return NewBaseWithManager(name, defaultTimeout, readiness.NewStateManager())
}

// NewBaseWithManager creates a readiness base over an existing manager.
// This is the composition case: a repository that rides on a shared
// connection provider's readiness instead of tracking its own.
func NewBaseWithManager(name string, defaultTimeout time.Duration, manager *readiness.StateManager) *Base {
	return &Base{
		name:           name,
		manager:        manager,
		defaultTimeout: defaultTimeout,
	}
}

// AdapterName returns the adapter's identity used in logs and errors.
func (b *Base) AdapterName() string {
	return b.name
}

// ReadinessState implements Readiness.
func (b *Base) ReadinessState() readiness.State {
	return b.manager.State()
}

// IsReady implements Readiness. True for Ready and Degraded; see the
// StateManager documentation for the Degraded caveat.
func (b *Base) IsReady() bool {
	return b.manager.IsReady()
}

// ReadinessTimeout implements Readiness.
func (b *Base) ReadinessTimeout() time.Duration {
	return b.defaultTimeout
}

// CheckReady implements Readiness. The base variant is a synchronous
// state read; adapters needing a live probe override it.
func (b *Base) CheckReady(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return b.manager.IsReady(), nil
}

// WaitForReady implements Readiness, substituting the adapter default
// when no timeout is given and stamping the adapter name onto not-ready
// errors for diagnosis.
func (b *Base) WaitForReady(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = b.defaultTimeout
	}

	err := b.manager.Wait(ctx, timeout)
	if err == nil {
		return nil
	}

	var nre *readiness.NotReadyError
	if errors.As(err, &nre) && nre.Adapter == "" {
		nre.Adapter = b.name
	}
	return err
}

// SubscribeReadiness implements Readiness.
func (b *Base) SubscribeReadiness(fn readiness.Subscriber) func() {
	return b.manager.Subscribe(fn)
}

// StateManager implements Readiness.
func (b *Base) StateManager() *readiness.StateManager {
	return b.manager
}
