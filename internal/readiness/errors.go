package readiness

import (
	"errors"
	"fmt"
)

// ErrNoTimeout is returned when a blocking wait is requested without a
// positive timeout. A missing timeout for a genuinely blocking operation
// is a configuration error and must be rejected eagerly rather than
// silently hanging.
var ErrNoTimeout = errors.New("readiness wait requires a positive timeout")

// ErrWaitTimeout marks a NotReadyError caused by a wait deadline.
// Distinguish it from a policy rejection with errors.Is.
var ErrWaitTimeout = errors.New("timed out waiting for readiness")

// NotReadyError is returned when a gated operation is rejected or a
// readiness wait times out. It carries the adapter identity and the state
// observed at the time, so callers can decide whether to retry.
type NotReadyError struct {
	Adapter string
	State   State
	Reason  string
	Err     error
}

func (e *NotReadyError) Error() string {
	adapter := e.Adapter
	if adapter == "" {
		adapter = "adapter"
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s not ready (state: %s): %s", adapter, e.State, e.Reason)
	}
	return fmt.Sprintf("%s not ready (state: %s)", adapter, e.State)
}

func (e *NotReadyError) Unwrap() error {
	return e.Err
}

// IsNotReady reports whether err is (or wraps) a NotReadyError.
func IsNotReady(err error) bool {
	var nre *NotReadyError
	return errors.As(err, &nre)
}
