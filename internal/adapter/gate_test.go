package adapter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"depctl/internal/readiness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedAdapter is a minimal adapter implementing both capability
// contracts, with a mutable config so tests can flip policies per call.
type gatedAdapter struct {
	*Base
	cfg atomic.Pointer[Config]
}

func newGatedAdapter(name string) *gatedAdapter {
	a := &gatedAdapter{Base: NewBase(name, time.Second)}
	cfg := Config{Policy: PolicyHold, Timeout: time.Second, GatingEnabled: true}
	a.cfg.Store(&cfg)
	return a
}

func (a *gatedAdapter) setConfig(cfg Config) {
	a.cfg.Store(&cfg)
}

func (a *gatedAdapter) ReadinessConfig() Config {
	return *a.cfg.Load()
}

func TestWithReadiness_PassthroughForNonParticipants(t *testing.T) {
	// A target without the readiness capability runs exactly once with no
	// policy applied.
	var calls int32
	err := WithReadiness(context.Background(), struct{}{}, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWithReadiness_PassthroughWhenGatingDisabled(t *testing.T) {
	a := newGatedAdapter("test-adapter")
	a.setConfig(Config{Policy: PolicyImmediate, GatingEnabled: false})
	// Still Initializing: Immediate would reject, but gating is off.

	var calls int32
	err := WithReadiness(context.Background(), a, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWithReadiness_ImmediateRejectsWithoutRunning(t *testing.T) {
	a := newGatedAdapter("test-adapter")
	a.setConfig(Config{Policy: PolicyImmediate, GatingEnabled: true})

	var calls int32
	start := time.Now()
	err := WithReadiness(context.Background(), a, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	elapsed := time.Since(start)

	require.Error(t, err)
	var nre *readiness.NotReadyError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, "test-adapter", nre.Adapter)
	assert.Equal(t, readiness.StateInitializing, nre.State)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls), "operation must never run")
	assert.Less(t, elapsed, 100*time.Millisecond, "immediate policy must not wait")
}

func TestWithReadiness_ImmediateRejectsFailedState(t *testing.T) {
	a := newGatedAdapter("test-adapter")
	a.setConfig(Config{Policy: PolicyImmediate, GatingEnabled: true})
	a.StateManager().TransitionTo(readiness.StateFailed)

	var calls int32
	err := WithReadiness(context.Background(), a, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	var nre *readiness.NotReadyError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, readiness.StateFailed, nre.State)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWithReadiness_ImmediateProceedsWhenReady(t *testing.T) {
	a := newGatedAdapter("test-adapter")
	a.setConfig(Config{Policy: PolicyImmediate, GatingEnabled: true})
	a.StateManager().TransitionTo(readiness.StateReady)

	var calls int32
	err := WithReadiness(context.Background(), a, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWithReadiness_HoldWaitsForTransition(t *testing.T) {
	// The adapter becomes Ready shortly after the gated call begins; the
	// operation runs exactly once, after the transition.
	a := newGatedAdapter("test-adapter")
	a.setConfig(Config{Policy: PolicyHold, Timeout: time.Second, GatingEnabled: true})

	go func() {
		time.Sleep(50 * time.Millisecond)
		a.StateManager().TransitionTo(readiness.StateReady)
	}()

	var calls int32
	err := WithReadiness(context.Background(), a, func(ctx context.Context) error {
		assert.True(t, a.IsReady(), "operation must run after the transition")
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWithReadiness_HoldTimesOutWithoutRunning(t *testing.T) {
	a := newGatedAdapter("test-adapter")
	a.setConfig(Config{Policy: PolicyHold, Timeout: 50 * time.Millisecond, GatingEnabled: true})

	var calls int32
	err := WithReadiness(context.Background(), a, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, readiness.ErrWaitTimeout))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWithReadiness_HoldRejectsAdapterThatWasReadyThenFailed(t *testing.T) {
	// A lost backing service after a successful startup must not let
	// Hold-gated operations through on the stale ready signal.
	a := newGatedAdapter("test-adapter")
	a.setConfig(Config{Policy: PolicyHold, Timeout: 50 * time.Millisecond, GatingEnabled: true})
	a.StateManager().TransitionTo(readiness.StateReady)
	a.StateManager().TransitionTo(readiness.StateFailed)

	var calls int32
	err := WithReadiness(context.Background(), a, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.Error(t, err)
	var nre *readiness.NotReadyError
	require.ErrorAs(t, err, &nre)
	assert.Equal(t, readiness.StateFailed, nre.State)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWithReadiness_HoldPropagatesCancellation(t *testing.T) {
	a := newGatedAdapter("test-adapter")
	a.setConfig(Config{Policy: PolicyHold, Timeout: 5 * time.Second, GatingEnabled: true})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	var calls int32
	err := WithReadiness(ctx, a, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWithReadiness_DegradeAlwaysRuns(t *testing.T) {
	a := newGatedAdapter("test-adapter")
	a.setConfig(Config{Policy: PolicyDegrade, GatingEnabled: true})
	a.StateManager().TransitionTo(readiness.StateFailed)

	var calls int32
	err := WithReadiness(context.Background(), a, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "degrade runs the operation unconditionally")
}

func TestWithReadiness_DefaultsToHoldWithoutConfig(t *testing.T) {
	// An adapter exposing Readiness but not Configured gets Hold with the
	// adapter's own default timeout.
	base := NewBase("bare-adapter", 100*time.Millisecond)

	var calls int32
	err := WithReadiness(context.Background(), base, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.Error(t, err, "still Initializing, Hold must time out on the adapter default")
	assert.True(t, errors.Is(err, readiness.ErrWaitTimeout))
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestWithReadinessResult_ReturnsValue(t *testing.T) {
	a := newGatedAdapter("test-adapter")
	a.StateManager().TransitionTo(readiness.StateReady)

	got, err := WithReadinessResult(context.Background(), a, func(ctx context.Context) (int, error) {
		return 42, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestWithReadinessResult_ZeroValueOnRejection(t *testing.T) {
	a := newGatedAdapter("test-adapter")
	a.setConfig(Config{Policy: PolicyImmediate, GatingEnabled: true})

	got, err := WithReadinessResult(context.Background(), a, func(ctx context.Context) (string, error) {
		return "should not happen", nil
	})

	require.Error(t, err)
	assert.Empty(t, got)
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyHold, p)

	p, err = ParsePolicy("Immediate")
	require.NoError(t, err)
	assert.Equal(t, PolicyImmediate, p)

	_, err = ParsePolicy("whenever")
	assert.Error(t, err)
}
