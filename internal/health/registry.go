// Package health exposes the readiness of all adapters and the
// orchestrator's decisions over HTTP, plus Prometheus metrics.
package health

import (
	"sort"
	"sync"
	"time"

	"depctl/internal/orchestration"
	"depctl/internal/readiness"
)

// AdapterStatus is one adapter's externally visible readiness.
type AdapterStatus struct {
	Name           string    `json:"name"`
	State          string    `json:"state"`
	Ready          bool      `json:"ready"`
	LastTransition time.Time `json:"lastTransition"`
}

// DecisionSummary is the redacted external view of an orchestration
// decision. Connection details never appear here.
type DecisionSummary struct {
	Service     string    `json:"service"`
	Action      string    `json:"action"`
	Reason      string    `json:"reason"`
	EvaluatedAt time.Time `json:"evaluatedAt"`
}

// Registry tracks adapter state managers and the last orchestration
// run for the HTTP surface, feeding metrics as states change.
type Registry struct {
	mu        sync.RWMutex
	managers  map[string]*readiness.StateManager
	decisions []DecisionSummary
	metrics   *Metrics
}

// NewRegistry builds a registry feeding the given metrics. Metrics may
// be nil.
func NewRegistry(metrics *Metrics) *Registry {
	return &Registry{
		managers: make(map[string]*readiness.StateManager),
		metrics:  metrics,
	}
}

// Register tracks an adapter's state manager and subscribes to its
// transitions for metrics. The returned function unsubscribes.
func (r *Registry) Register(name string, manager *readiness.StateManager) func() {
	r.mu.Lock()
	r.managers[name] = manager
	r.mu.Unlock()

	if r.metrics != nil {
		r.metrics.setReady(name, manager.IsReady())
		return manager.Subscribe(func(prev, curr readiness.State) {
			r.metrics.countTransition(name)
			r.metrics.setReady(name, curr.Operational())
		})
	}
	return func() {}
}

// SetDecisions records the latest orchestration outcome.
func (r *Registry) SetDecisions(decisions []orchestration.Decision) {
	summaries := make([]DecisionSummary, 0, len(decisions))
	for _, d := range decisions {
		summaries = append(summaries, DecisionSummary{
			Service:     d.Service,
			Action:      string(d.Action),
			Reason:      d.Reason,
			EvaluatedAt: d.EvaluatedAt,
		})
		if r.metrics != nil {
			r.metrics.countDecision(d.Service, string(d.Action))
		}
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Service < summaries[j].Service })

	r.mu.Lock()
	r.decisions = summaries
	r.mu.Unlock()
}

// Decisions returns the recorded decision summaries.
func (r *Registry) Decisions() []DecisionSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DecisionSummary, len(r.decisions))
	copy(out, r.decisions)
	return out
}

// Statuses returns every adapter's status, sorted by name.
func (r *Registry) Statuses() []AdapterStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]AdapterStatus, 0, len(r.managers))
	for name, mgr := range r.managers {
		snap := mgr.Snapshot()
		out = append(out, AdapterStatus{
			Name:           name,
			State:          string(snap.State),
			Ready:          snap.State.Operational(),
			LastTransition: snap.LastTransition,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// AllReady reports whether every registered adapter is operational.
func (r *Registry) AllReady() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, mgr := range r.managers {
		if !mgr.IsReady() {
			return false
		}
	}
	return true
}
