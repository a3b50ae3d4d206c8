package bootstrap

import (
	"sort"

	"depctl/internal/adapter"
)

// OrderingPolicy claims initializers into a startup wave. Waves run in
// ascending Priority order; members inside a wave run concurrently.
type OrderingPolicy interface {
	// Name identifies the policy in logs.
	Name() string

	// Priority orders waves; lower runs first.
	Priority() int

	// Claim selects the initializers this wave owns from the remaining
	// unclaimed set. Claimed initializers are removed from the set before
	// the next policy runs.
	Claim(remaining []adapter.Initializer) []adapter.Initializer
}

// NameWave claims adapters by name. It is the standard way to express
// dependency layers: put connection providers in an early wave and the
// consumers that share their clients in a later one.
type NameWave struct {
	name     string
	priority int
	members  map[string]struct{}
}

// NewNameWave builds a wave claiming the named adapters at the given
// priority.
func NewNameWave(name string, priority int, adapters ...string) *NameWave {
	members := make(map[string]struct{}, len(adapters))
	for _, a := range adapters {
		members[a] = struct{}{}
	}
	return &NameWave{name: name, priority: priority, members: members}
}

func (w *NameWave) Name() string  { return w.name }
func (w *NameWave) Priority() int { return w.priority }

func (w *NameWave) Claim(remaining []adapter.Initializer) []adapter.Initializer {
	var claimed []adapter.Initializer
	for _, init := range remaining {
		if _, ok := w.members[init.AdapterName()]; ok {
			claimed = append(claimed, init)
		}
	}
	return claimed
}

// wave is a resolved execution unit: a policy's claim plus the leftovers
// wave appended at the end.
type wave struct {
	name    string
	members []adapter.Initializer
}

// planWaves partitions the registered initializers using the configured
// policies. Initializers no policy claims form a final implicit wave so
// registration alone is enough to get an adapter started.
func planWaves(policies []OrderingPolicy, initializers []adapter.Initializer) []wave {
	sorted := make([]OrderingPolicy, len(policies))
	copy(sorted, policies)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})

	remaining := make([]adapter.Initializer, len(initializers))
	copy(remaining, initializers)

	var waves []wave
	for _, policy := range sorted {
		claimed := policy.Claim(remaining)
		if len(claimed) == 0 {
			continue
		}
		waves = append(waves, wave{name: policy.Name(), members: claimed})

		claimedSet := make(map[adapter.Initializer]struct{}, len(claimed))
		for _, c := range claimed {
			claimedSet[c] = struct{}{}
		}
		var rest []adapter.Initializer
		for _, init := range remaining {
			if _, ok := claimedSet[init]; !ok {
				rest = append(rest, init)
			}
		}
		remaining = rest
	}

	if len(remaining) > 0 {
		waves = append(waves, wave{name: "unclaimed", members: remaining})
	}
	return waves
}
