package orchestration

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"depctl/pkg/logging"
)

// Orchestrator evaluates every registered service dependency in
// parallel, then provisions the containers the decisions call for in
// priority order.
type Orchestrator struct {
	mu         sync.Mutex
	evaluators []Evaluator
	containers ContainerManager
	sessionID  string
	decisions  []Decision
}

// NewOrchestrator builds an orchestrator with a fresh session ID used
// to scope container names.
func NewOrchestrator(containers ContainerManager) *Orchestrator {
	return &Orchestrator{
		containers: containers,
		sessionID:  uuid.NewString(),
	}
}

// SessionID is the identifier scoping this run's container names.
func (o *Orchestrator) SessionID() string { return o.sessionID }

// Register adds an evaluator. Not safe to call after Run has started.
func (o *Orchestrator) Register(e Evaluator) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.evaluators = append(o.evaluators, e)
}

// Decisions returns a copy of the decisions from the last Run.
func (o *Orchestrator) Decisions() []Decision {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]Decision, len(o.decisions))
	copy(out, o.decisions)
	return out
}

// Run evaluates all services concurrently and then provisions the
// resulting containers sequentially in ascending descriptor priority.
// Any ConfigError from an evaluator or ProvisionError from provisioning
// aborts the run.
func (o *Orchestrator) Run(ctx context.Context) ([]Decision, error) {
	decisions, err := o.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if err := o.provision(ctx, decisions); err != nil {
		return nil, err
	}
	return decisions, nil
}

// Evaluate runs every evaluator concurrently and records the decisions
// without provisioning anything.
func (o *Orchestrator) Evaluate(ctx context.Context) ([]Decision, error) {
	o.mu.Lock()
	evaluators := make([]Evaluator, len(o.evaluators))
	copy(evaluators, o.evaluators)
	o.mu.Unlock()

	decisions := make([]Decision, len(evaluators))
	g, gctx := errgroup.WithContext(ctx)
	for i, e := range evaluators {
		i, e := i, e
		g.Go(func() error {
			d, err := e.Evaluate(gctx)
			if err != nil {
				return err
			}
			decisions[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, d := range decisions {
		logging.Info("Orchestration", "Decision for %s: %s (%s)", d.Service, d.Action, d.Reason)
	}

	o.mu.Lock()
	o.decisions = decisions
	o.mu.Unlock()
	return decisions, nil
}

// provision starts the containers the decisions call for, one at a
// time, lowest priority first so foundational dependencies come up
// before their consumers.
func (o *Orchestrator) provision(ctx context.Context, decisions []Decision) error {
	var toProvision []Decision
	for _, d := range decisions {
		if d.Action == ActionProvisionContainer {
			toProvision = append(toProvision, d)
		}
	}
	if len(toProvision) == 0 {
		return nil
	}

	sort.SliceStable(toProvision, func(i, j int) bool {
		return toProvision[i].Descriptor.Priority < toProvision[j].Descriptor.Priority
	})

	for _, d := range toProvision {
		logging.Info("Orchestration", "Provisioning container for %s (priority %d)", d.Service, d.Descriptor.Priority)

		name, err := o.containers.StartContainer(ctx, d.Descriptor, o.sessionID)
		if err != nil {
			return &ProvisionError{Dependency: d.Descriptor.Name, Err: err}
		}
		if err := o.containers.WaitHealthy(ctx, name, d.Descriptor); err != nil {
			return &ProvisionError{Dependency: d.Descriptor.Name, Err: err}
		}
		logging.Info("Orchestration", "Container %s is healthy", name)
	}
	return nil
}
