package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"depctl/internal/adapter"
	"depctl/internal/readiness"
	"depctl/pkg/logging"
)

// DefaultGlobalTimeout bounds each adapter's full initialization cycle,
// retries included.
const DefaultGlobalTimeout = 5 * time.Minute

// registration pairs an initializer with the state manager the service
// drives to Failed when every attempt is exhausted.
type registration struct {
	init    adapter.Initializer
	manager *readiness.StateManager
}

// InitializationService runs adapter initializers in policy-ordered
// waves. Waves execute sequentially; members of a wave execute
// concurrently. An individual adapter failing never fails the run: the
// adapter is forced to Failed and the rest of the startup proceeds.
type InitializationService struct {
	mu            sync.Mutex
	registrations []registration
	policies      []OrderingPolicy
	retries       RetryPolicyProvider
	globalTimeout time.Duration
}

// Option customizes an InitializationService.
type Option func(*InitializationService)

// WithGlobalTimeout bounds each adapter's initialization cycle. A
// non-positive value keeps DefaultGlobalTimeout.
func WithGlobalTimeout(d time.Duration) Option {
	return func(s *InitializationService) {
		if d > 0 {
			s.globalTimeout = d
		}
	}
}

// WithRetryProvider replaces the default retry schedule source.
func WithRetryProvider(p RetryPolicyProvider) Option {
	return func(s *InitializationService) {
		if p != nil {
			s.retries = p
		}
	}
}

// NewInitializationService builds a service using the default retry
// schedule and global timeout.
func NewInitializationService(opts ...Option) *InitializationService {
	s := &InitializationService{
		retries:       NewRetryRegistry(DefaultRetryConfig()),
		globalTimeout: DefaultGlobalTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds an initializer. The manager is the adapter's readiness
// state manager; the service forces it to Failed if initialization is
// exhausted without the adapter ever reporting a terminal state itself.
func (s *InitializationService) Register(init adapter.Initializer, manager *readiness.StateManager) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registrations = append(s.registrations, registration{init: init, manager: manager})
}

// AddOrderingPolicy adds a wave policy. Policies claim initializers in
// ascending Priority order; unclaimed initializers run in a final wave.
func (s *InitializationService) AddOrderingPolicy(p OrderingPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = append(s.policies, p)
}

// Run executes all registered initializers and blocks until every wave
// has finished. The returned error reflects only coordinator-level
// problems (currently just upfront context cancellation); individual
// adapter failures are absorbed and reported through readiness state.
func (s *InitializationService) Run(ctx context.Context) error {
	s.mu.Lock()
	inits := make([]adapter.Initializer, 0, len(s.registrations))
	managers := make(map[adapter.Initializer]*readiness.StateManager, len(s.registrations))
	for _, reg := range s.registrations {
		inits = append(inits, reg.init)
		managers[reg.init] = reg.manager
	}
	policies := make([]OrderingPolicy, len(s.policies))
	copy(policies, s.policies)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	waves := planWaves(policies, inits)
	logging.Info("Bootstrap", "Starting initialization: %d adapters in %d waves", len(inits), len(waves))

	var failed, succeeded int
	var countMu sync.Mutex

	for _, w := range waves {
		logging.Debug("Bootstrap", "Running wave %q with %d adapters", w.name, len(w.members))

		var wg sync.WaitGroup
		for _, init := range w.members {
			wg.Add(1)
			go func(init adapter.Initializer) {
				defer wg.Done()
				err := s.runOne(ctx, init, managers[init])
				countMu.Lock()
				if err != nil {
					failed++
				} else {
					succeeded++
				}
				countMu.Unlock()
			}(init)
		}
		wg.Wait()
	}

	logging.Info("Bootstrap", "Initialization complete: %d succeeded, %d failed", succeeded, failed)
	return nil
}

// runOne drives a single adapter through its retry schedule under the
// global timeout, recovering panics and forcing the state manager to
// Failed when the adapter never reached a terminal state on its own.
func (s *InitializationService) runOne(ctx context.Context, init adapter.Initializer, manager *readiness.StateManager) error {
	name := init.AdapterName()

	adapterCtx, cancel := context.WithTimeout(ctx, s.globalTimeout)
	defer cancel()

	cfg := s.retries.RetryConfigFor(name)
	attempt := 0

	err := backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			logging.Debug("Bootstrap", "Retrying adapter %s (attempt %d)", name, attempt)
		}
		return s.attempt(adapterCtx, init)
	}, cfg.newBackOff(adapterCtx))

	if err != nil {
		logging.Error("Bootstrap", err, "Adapter %s failed to initialize after %d attempts", name, attempt)
		if manager != nil && !manager.State().Operational() {
			// The initializer may have left the manager in Initializing;
			// make the failure observable to the gate and health surface.
			manager.TransitionTo(readiness.StateFailed)
		}
		return err
	}

	logging.Info("Bootstrap", "Adapter %s initialized after %d attempt(s)", name, attempt)
	return nil
}

// attempt invokes the initializer once, converting panics to errors so a
// misbehaving adapter cannot take down the startup goroutine.
func (s *InitializationService) attempt(ctx context.Context, init adapter.Initializer) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("adapter %s panicked during initialization: %v", init.AdapterName(), r)
		}
	}()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return backoff.Permanent(ctxErr)
	}
	return init.InitializeAdapter(ctx)
}
