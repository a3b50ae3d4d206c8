package adapter

import (
	"context"
	"fmt"

	"depctl/internal/readiness"
)

// WithReadiness wraps an operation with policy-driven readiness
// enforcement. This is the single chokepoint all adapter operations pass
// through.
//
// Targets that do not implement the Readiness contract pass through
// untouched, as do adapters with gating disabled, so non-participating
// code pays nothing.
//
// Whatever the policy, op runs at most once, and only after the policy's
// precondition holds (or is explicitly bypassed for PolicyDegrade).
func WithReadiness(ctx context.Context, target any, op func(ctx context.Context) error) error {
	r, ok := target.(Readiness)
	if !ok {
		return op(ctx)
	}

	// Configuration is re-read on every call so policy changes picked up
	// by the config watcher apply to in-flight workloads without restart.
	cfg := DefaultConfig()
	if c, ok := target.(Configured); ok {
		cfg = c.ReadinessConfig()
	}

	if !cfg.GatingEnabled {
		return op(ctx)
	}

	policy := cfg.Policy
	if policy == "" {
		policy = PolicyHold
	}

	switch policy {
	case PolicyImmediate:
		ready, err := r.CheckReady(ctx)
		if err != nil {
			return err
		}
		if !ready {
			return &readiness.NotReadyError{
				Adapter: targetName(target),
				State:   r.ReadinessState(),
				Reason:  "operation rejected by immediate readiness policy",
			}
		}
		return op(ctx)

	case PolicyDegrade:
		return op(ctx)

	default: // PolicyHold
		if err := r.WaitForReady(ctx, cfg.Timeout); err != nil {
			return err
		}
		return op(ctx)
	}
}

// WithReadinessResult is the value-returning form of WithReadiness.
func WithReadinessResult[T any](ctx context.Context, target any, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := WithReadiness(ctx, target, func(ctx context.Context) error {
		value, err := op(ctx)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	return result, err
}

func targetName(target any) string {
	type named interface{ AdapterName() string }
	if n, ok := target.(named); ok && n.AdapterName() != "" {
		return n.AdapterName()
	}
	return fmt.Sprintf("%T", target)
}
