package readiness

import "time"

// State represents the operational state of an adapter, distinct from
// process liveness: a process can be alive while one of its adapters is
// still connecting or has lost its backing service.
type State string

const (
	// StateInitializing is the state every adapter starts in. Operations
	// gated on readiness are held or rejected until the initializer
	// finishes.
	StateInitializing State = "Initializing"

	// StateReady means the adapter can serve requests at full capability.
	StateReady State = "Ready"

	// StateDegraded means the adapter is usable with known reduced
	// capability. Degraded counts as ready for gating purposes; callers
	// that care about full capability must read the state itself.
	StateDegraded State = "Degraded"

	// StateFailed means the adapter cannot serve requests. A recovery
	// attempt cycles back through Initializing.
	StateFailed State = "Failed"
)

// Valid reports whether s is one of the four defined states.
func (s State) Valid() bool {
	switch s {
	case StateInitializing, StateReady, StateDegraded, StateFailed:
		return true
	}
	return false
}

// Operational reports whether the state counts as ready: Ready or
// Degraded. Note that Degraded deliberately counts as operational; this
// mirrors IsReady on the manager.
func (s State) Operational() bool {
	return s == StateReady || s == StateDegraded
}

// Snapshot is a point-in-time view of a manager's state, suitable for
// health-check aggregation.
type Snapshot struct {
	State          State     `json:"state"`
	LastTransition time.Time `json:"lastTransition"`
}

// Subscriber is invoked synchronously after each actual state change with
// the previous and the new state. Subscribers observe transitions in the
// order they were applied.
type Subscriber func(previous, current State)
