package readiness

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateManager_InitialState(t *testing.T) {
	m := NewStateManager()

	assert.Equal(t, StateInitializing, m.State())
	assert.False(t, m.IsReady())

	snap := m.Snapshot()
	assert.Equal(t, StateInitializing, snap.State)
	assert.False(t, snap.LastTransition.IsZero())
}

func TestStateManager_IsReadyTracksTransitions(t *testing.T) {
	// IsReady must be true immediately after any transition to Ready or
	// Degraded, and false after Initializing or Failed following a ready
	// state.
	m := NewStateManager()

	m.TransitionTo(StateReady)
	assert.True(t, m.IsReady())

	m.TransitionTo(StateDegraded)
	assert.True(t, m.IsReady(), "Degraded counts as ready")

	m.TransitionTo(StateFailed)
	assert.False(t, m.IsReady())

	m.TransitionTo(StateInitializing)
	assert.False(t, m.IsReady())

	m.TransitionTo(StateReady)
	assert.True(t, m.IsReady())
}

func TestStateManager_NoOpTransitionIsSilent(t *testing.T) {
	m := NewStateManager()

	var notifications int32
	m.Subscribe(func(previous, current State) {
		atomic.AddInt32(&notifications, 1)
	})

	m.TransitionTo(StateInitializing) // same as current
	assert.Equal(t, int32(0), atomic.LoadInt32(&notifications))

	m.TransitionTo(StateReady)
	assert.Equal(t, int32(1), atomic.LoadInt32(&notifications))

	m.TransitionTo(StateReady) // same again
	assert.Equal(t, int32(1), atomic.LoadInt32(&notifications))
}

func TestStateManager_SubscribersSeePreviousAndCurrent(t *testing.T) {
	m := NewStateManager()

	type change struct{ previous, current State }
	var mu sync.Mutex
	var seen []change

	unsubscribe := m.Subscribe(func(previous, current State) {
		mu.Lock()
		seen = append(seen, change{previous, current})
		mu.Unlock()
	})

	m.TransitionTo(StateReady)
	m.TransitionTo(StateDegraded)
	m.TransitionTo(StateFailed)

	mu.Lock()
	require.Len(t, seen, 3)
	assert.Equal(t, change{StateInitializing, StateReady}, seen[0])
	assert.Equal(t, change{StateReady, StateDegraded}, seen[1])
	assert.Equal(t, change{StateDegraded, StateFailed}, seen[2])
	mu.Unlock()

	unsubscribe()
	m.TransitionTo(StateInitializing)

	mu.Lock()
	assert.Len(t, seen, 3, "no notifications after unsubscribe")
	mu.Unlock()
}

func TestStateManager_SubscriberPanicDoesNotCorruptState(t *testing.T) {
	m := NewStateManager()

	m.Subscribe(func(previous, current State) {
		panic("misbehaving observer")
	})
	var after int32
	m.Subscribe(func(previous, current State) {
		atomic.AddInt32(&after, 1)
	})

	assert.NotPanics(t, func() { m.TransitionTo(StateReady) })
	assert.Equal(t, StateReady, m.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&after), "later subscribers still notified")
}

func TestStateManager_WaitReleasedByTransition(t *testing.T) {
	// A waiter started before the transition completes once the manager
	// becomes Ready.
	m := NewStateManager()

	done := make(chan error, 1)
	go func() {
		done <- m.Wait(context.Background(), 5*time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	m.TransitionTo(StateReady)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter was not released by transition to Ready")
	}
	assert.True(t, m.IsReady())
}

func TestStateManager_WaitBroadcastsToAllWaiters(t *testing.T) {
	for _, n := range []int{1, 10, 100} {
		m := NewStateManager()

		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- m.Wait(context.Background(), 5*time.Second)
			}()
		}

		time.Sleep(10 * time.Millisecond)
		m.TransitionTo(StateReady)

		waitDone := make(chan struct{})
		go func() {
			wg.Wait()
			close(waitDone)
		}()

		select {
		case <-waitDone:
		case <-time.After(2 * time.Second):
			t.Fatalf("not all %d waiters released", n)
		}

		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}
	}
}

func TestStateManager_WaitTimesOut(t *testing.T) {
	m := NewStateManager()

	start := time.Now()
	err := m.Wait(context.Background(), 100*time.Millisecond)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWaitTimeout))

	var nre *NotReadyError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, StateInitializing, nre.State)

	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond, "timeout should fire close to the deadline")
}

func TestStateManager_WaitTimesOutInFailedState(t *testing.T) {
	m := NewStateManager()
	m.TransitionTo(StateFailed)

	err := m.Wait(context.Background(), 50*time.Millisecond)
	require.Error(t, err)

	var nre *NotReadyError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, StateFailed, nre.State)
}

func TestStateManager_WaitBlocksAgainAfterReadyFails(t *testing.T) {
	// Losing the backing service after a successful startup must not
	// leave the ready signal fulfilled: a wait against the failed adapter
	// has to time out, not succeed on the stale signal.
	m := NewStateManager()
	m.TransitionTo(StateReady)
	require.NoError(t, m.Wait(context.Background(), 50*time.Millisecond))

	m.TransitionTo(StateFailed)

	err := m.Wait(context.Background(), 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWaitTimeout))

	var nre *NotReadyError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, StateFailed, nre.State)

	// The same holds when Degraded is the operational state that is lost.
	m.TransitionTo(StateDegraded)
	require.NoError(t, m.Wait(context.Background(), 50*time.Millisecond))
	m.TransitionTo(StateFailed)
	err = m.Wait(context.Background(), 50*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWaitTimeout))
}

func TestStateManager_WaitPropagatesCancellation(t *testing.T) {
	m := NewStateManager()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- m.Wait(ctx, 5*time.Second)
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, errors.Is(err, ErrWaitTimeout))
	case <-time.After(time.Second):
		t.Fatal("wait did not return on cancellation")
	}
}

func TestStateManager_WaitRejectsZeroTimeout(t *testing.T) {
	m := NewStateManager()

	err := m.Wait(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNoTimeout)

	err = m.Wait(context.Background(), -time.Second)
	assert.ErrorIs(t, err, ErrNoTimeout)
}

func TestStateManager_RecoveryCycleRearmsSignal(t *testing.T) {
	m := NewStateManager()

	m.TransitionTo(StateReady)
	require.NoError(t, m.Wait(context.Background(), 50*time.Millisecond))

	// Leaving Ready re-arms the signal; re-entering Initializing keeps
	// new waiters blocked until the recovery completes.
	m.TransitionTo(StateFailed)
	m.TransitionTo(StateInitializing)

	err := m.Wait(context.Background(), 50*time.Millisecond)
	require.Error(t, err, "waiters must block after recovery begins")
	assert.True(t, errors.Is(err, ErrWaitTimeout))

	// Completing the recovery releases waiters again.
	done := make(chan error, 1)
	go func() {
		done <- m.Wait(context.Background(), 5*time.Second)
	}()
	time.Sleep(10 * time.Millisecond)
	m.TransitionTo(StateReady)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter not released after recovery to Ready")
	}
}

func TestStateManager_ConcurrentTransitionsConverge(t *testing.T) {
	m := NewStateManager()

	var notifications int32
	m.Subscribe(func(previous, current State) {
		atomic.AddInt32(&notifications, 1)
	})

	// Hammer the manager from many goroutines; every actual change fires
	// exactly one notification, and the final state is one of the values
	// written.
	states := []State{StateReady, StateDegraded, StateFailed, StateInitializing}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m.TransitionTo(states[i%len(states)])
		}(i)
	}
	wg.Wait()

	final := m.State()
	assert.True(t, final.Valid())
	// No-op transitions are silent, so at most one notification per call.
	assert.LessOrEqual(t, atomic.LoadInt32(&notifications), int32(50))
	assert.Greater(t, atomic.LoadInt32(&notifications), int32(0))
}

func TestState_Valid(t *testing.T) {
	assert.True(t, StateReady.Valid())
	assert.True(t, StateDegraded.Valid())
	assert.False(t, State("Bogus").Valid())
}
