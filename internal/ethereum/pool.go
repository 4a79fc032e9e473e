package ethereum

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/samber/lo"
)

// NetworkAdapter pairs one capability set with one endpoint.
type NetworkAdapter struct {
	Capabilities NodeCapabilities
	Adapter      Adapter
}

// NetworkAdapters is the ordered endpoint pool for one network. Entries are
// appended only during registry construction; after NetworksBuilder.Build
// the pool is read-only and safe for arbitrary concurrent use.
type NetworkAdapters struct {
	adapters []NetworkAdapter

	// attemptTimeout bounds each executor attempt. Zero means the default.
	attemptTimeout time.Duration

	// rng, when set, replaces the process-wide source for CheapestWith.
	// Tests inject a seeded source here.
	rng *rand.Rand
}

func (a *NetworkAdapters) Len() int { return len(a.adapters) }

// Entries returns a copy of the pool's entries.
func (a *NetworkAdapters) Entries() []NetworkAdapter {
	return append([]NetworkAdapter(nil), a.adapters...)
}

// Sufficient returns the sub-pool of entries whose capabilities dominate
// required. A synchronous configuration check: it fails immediately with
// ErrNoEligibleEndpoint when nothing qualifies, and never retries.
func (a *NetworkAdapters) Sufficient(required NodeCapabilities) (*NetworkAdapters, error) {
	eligible := lo.Filter(a.adapters, func(entry NetworkAdapter, _ int) bool {
		return entry.Capabilities.Dominates(required)
	})
	if len(eligible) == 0 {
		return nil, fmt.Errorf("%w: no endpoint provides %q", ErrNoEligibleEndpoint, required)
	}
	return &NetworkAdapters{adapters: eligible, attemptTimeout: a.attemptTimeout, rng: a.rng}, nil
}

// Sort arranges the pool best-effort ascending so minimal-capability
// entries come first. Must run once after all insertions, before Cheapest
// is trusted. The underlying order is not transitive across incomparable
// entries, so this is not a unique minimum; callers only need some cheap
// entry first.
func (a *NetworkAdapters) Sort() {
	sort.SliceStable(a.adapters, func(i, j int) bool {
		return a.adapters[i].Capabilities.Less(a.adapters[j].Capabilities)
	})
}

// Cheapest returns the first entry's adapter post-sort, or nil for an
// empty pool.
func (a *NetworkAdapters) Cheapest() Adapter {
	if len(a.adapters) == 0 {
		return nil
	}
	return a.adapters[0].Adapter
}

// CheapestWith picks uniformly at random among the entries dominating
// required. Randomization spreads load across redundant equally-qualified
// endpoints instead of hammering one.
func (a *NetworkAdapters) CheapestWith(required NodeCapabilities) (Adapter, error) {
	eligible, err := a.Sufficient(required)
	if err != nil {
		return nil, err
	}
	return eligible.adapters[a.intn(eligible.Len())].Adapter, nil
}

func (a *NetworkAdapters) intn(n int) int {
	if a.rng != nil {
		return a.rng.Intn(n)
	}
	return rand.Intn(n)
}
