package readiness

import (
	"context"
	"fmt"
	"sync"
	"time"

	"depctl/pkg/logging"
)

// StateManager is the single source of truth for one adapter's operational
// state. It is safe for concurrent use by many readers and one state owner
// (the adapter's initializer); state is mutated only through TransitionTo.
//
// The ready signal is a channel that is closed exactly when the state is
// Ready or Degraded, which gives broadcast wake-up semantics for Wait. A
// transition back to Initializing re-arms a fresh channel so future
// waiters block again, enabling a Failed -> Initializing -> Ready recovery
// cycle.
type StateManager struct {
	mu             sync.Mutex
	state          State
	lastTransition time.Time
	readyCh        chan struct{}
	readyClosed    bool

	subscribers []subscription
	nextSubID   int

	// dispatchMu serializes TransitionTo end to end so subscribers observe
	// transitions in apply order. Readers never take it, so State/IsReady
	// stay cheap while notifications run.
	dispatchMu sync.Mutex
}

type subscription struct {
	id int
	fn Subscriber
}

// NewStateManager creates a manager in StateInitializing with an unarmed
// ready signal.
func NewStateManager() *StateManager {
	return &StateManager{
		state:          StateInitializing,
		lastTransition: time.Now(),
		readyCh:        make(chan struct{}),
	}
}

// State returns the current state.
func (m *StateManager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsReady reports whether the state is Ready or Degraded.
//
// This is the cheap fast-path check for latency-sensitive call sites that
// accept degraded-as-ready semantics. It is advisory only: a Degraded
// adapter reports true here, so callers that must not proceed against
// reduced capability have to read State instead. It must never be used to
// bypass policy enforcement in the gate.
func (m *StateManager) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Operational()
}

// Snapshot returns the current state together with the time of the last
// transition, for health-check surfaces.
func (m *StateManager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Snapshot{State: m.state, LastTransition: m.lastTransition}
}

// TransitionTo sets the state. Transitioning to the current state is a
// no-op: no signal change, no notification. Otherwise the ready signal
// tracks the state: fulfilled on Ready/Degraded, re-armed on any
// transition out of an operational state, so the channel is closed
// exactly while the adapter is operational. Subscribers are invoked
// synchronously with the previous and new state after the state lock is
// released.
func (m *StateManager) TransitionTo(newState State) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	m.mu.Lock()
	if m.state == newState {
		m.mu.Unlock()
		return
	}

	previous := m.state
	m.state = newState
	m.lastTransition = time.Now()

	if newState.Operational() {
		// Fulfilling an already-fulfilled signal is a no-op (Ready ->
		// Degraded and back must not panic on a closed channel).
		if !m.readyClosed {
			close(m.readyCh)
			m.readyClosed = true
		}
	} else {
		// Leaving an operational state (Failed after Ready, or a recovery
		// cycle back to Initializing): future waiters must block again.
		if m.readyClosed {
			m.readyCh = make(chan struct{})
			m.readyClosed = false
		}
	}

	subs := make([]subscription, len(m.subscribers))
	copy(subs, m.subscribers)
	m.mu.Unlock()

	logging.Debug("Readiness", "State transition: %s -> %s", previous, newState)

	for _, sub := range subs {
		notify(sub.fn, previous, newState)
	}
}

// notify invokes one subscriber, containing panics so a misbehaving
// observer cannot corrupt manager state or starve later subscribers.
func notify(fn Subscriber, previous, current State) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Readiness", fmt.Errorf("%v", r), "State change subscriber panicked on %s -> %s", previous, current)
		}
	}()
	fn(previous, current)
}

// Subscribe registers fn for state change notifications and returns a
// function that removes the subscription.
func (m *StateManager) Subscribe(fn Subscriber) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers = append(m.subscribers, subscription{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subscribers {
			if sub.id == id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Wait blocks until the ready signal is fulfilled, the timeout elapses, or
// ctx is cancelled. All concurrent waiters are released by a single
// transition to Ready or Degraded.
//
// A timeout produces a NotReadyError wrapping ErrWaitTimeout; a
// cancellation propagates ctx.Err() unchanged. A non-positive timeout is
// rejected with ErrNoTimeout; there is no unbounded wait.
func (m *StateManager) Wait(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		return ErrNoTimeout
	}

	m.mu.Lock()
	ch := m.readyCh
	fulfilled := m.readyClosed
	m.mu.Unlock()

	if fulfilled {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ch:
		return nil
	case <-timer.C:
		return &NotReadyError{
			State:  m.State(),
			Reason: fmt.Sprintf("readiness not reached within %s", timeout),
			Err:    ErrWaitTimeout,
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
