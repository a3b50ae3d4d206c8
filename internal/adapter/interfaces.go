package adapter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"depctl/internal/readiness"
)

// Policy controls how the readiness gate treats an operation on an
// adapter that is not yet ready.
type Policy string

const (
	// PolicyImmediate fails the operation right away when the adapter is
	// not ready.
	PolicyImmediate Policy = "immediate"

	// PolicyHold blocks the caller until the adapter is ready or the
	// configured timeout elapses. This is the default.
	PolicyHold Policy = "hold"

	// PolicyDegrade runs the operation regardless of state; the adapter
	// itself is responsible for degraded-mode behavior.
	PolicyDegrade Policy = "degrade"
)

// ParsePolicy converts a configuration string to a Policy. An empty
// string resolves to PolicyHold.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(s)) {
	case PolicyImmediate:
		return PolicyImmediate, nil
	case PolicyHold, "":
		return PolicyHold, nil
	case PolicyDegrade:
		return PolicyDegrade, nil
	}
	return "", fmt.Errorf("unknown readiness policy %q", s)
}

// Readiness is the contract an adapter implements to participate in
// readiness gating and coordinated initialization. Implementations
// usually embed Base rather than hand-rolling this.
type Readiness interface {
	// ReadinessState returns the full operational state. Prefer this over
	// IsReady when the caller must distinguish Ready from Degraded.
	ReadinessState() readiness.State

	// IsReady reports Ready or Degraded. Advisory fast-path only; see the
	// StateManager documentation for the Degraded caveat.
	IsReady() bool

	// ReadinessTimeout is the adapter's default wait timeout, used when a
	// caller or configuration supplies none. Fast services use seconds;
	// adapters with heavy startup (model downloads, large index builds)
	// declare minutes.
	ReadinessTimeout() time.Duration

	// CheckReady is the probe variant of IsReady. The default delegates
	// to the state manager; adapters needing a live check override it.
	CheckReady(ctx context.Context) (bool, error)

	// WaitForReady blocks until ready, the timeout elapses, or ctx is
	// cancelled. A non-positive timeout substitutes ReadinessTimeout.
	WaitForReady(ctx context.Context, timeout time.Duration) error

	// SubscribeReadiness registers a state change observer (health
	// endpoints, metrics) and returns an unsubscribe function.
	SubscribeReadiness(fn readiness.Subscriber) func()

	// StateManager exposes the underlying manager for composition, e.g. a
	// repository sharing its connection provider's manager instead of
	// owning one.
	StateManager() *readiness.StateManager
}

// Config is the per-adapter readiness configuration resolved at operation
// time. It is a value so the gate can re-read it on every call, which is
// what makes live reconfiguration work.
type Config struct {
	Policy        Policy
	Timeout       time.Duration
	GatingEnabled bool
}

// DefaultConfig is used for adapters that expose readiness but no
// configuration: gating on, Hold policy, adapter-default timeout.
func DefaultConfig() Config {
	return Config{Policy: PolicyHold, GatingEnabled: true}
}

// Configured is implemented by adapters whose readiness behavior is
// driven by configuration. The gate re-reads it per call.
type Configured interface {
	ReadinessConfig() Config
}

// Initializer is the one-time async bootstrap routine an adapter runs to
// establish (or fail) connectivity before operations are permitted. The
// implementation drives its own state manager from Initializing to Ready
// or Failed; re-invocation must be safe so the coordinator can retry and
// recovery cycles can re-run it.
type Initializer interface {
	AdapterName() string
	InitializeAdapter(ctx context.Context) error
}
