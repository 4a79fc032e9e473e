package ethereum

import (
	"fmt"
	"math/rand"
	"sort"
	"time"
)

// NetworkEntry is one (network, capability, endpoint) triple, produced by
// Flatten for bulk diagnostics.
type NetworkEntry struct {
	Network      string
	Capabilities NodeCapabilities
	Adapter      Adapter
}

// NetworksBuilder accumulates endpoint registrations during the
// single-threaded startup phase. It is not safe for concurrent use; call
// Build once to obtain the immutable Networks that is.
type NetworksBuilder struct {
	networks       map[string]*NetworkAdapters
	attemptTimeout time.Duration
	rng            *rand.Rand
}

type BuilderOption func(*NetworksBuilder)

// WithAttemptTimeout overrides the per-attempt timeout applied to every
// forwarded operation. One bound per operation, not per endpoint.
func WithAttemptTimeout(d time.Duration) BuilderOption {
	return func(b *NetworksBuilder) { b.attemptTimeout = d }
}

// WithRandSource makes CheapestWith draws deterministic for tests. The
// source is not synchronized; production code should rely on the default
// process-wide source.
func WithRandSource(src rand.Source) BuilderOption {
	return func(b *NetworksBuilder) { b.rng = rand.New(src) }
}

func NewNetworksBuilder(opts ...BuilderOption) *NetworksBuilder {
	b := &NetworksBuilder{networks: make(map[string]*NetworkAdapters)}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Insert appends one endpoint under name, creating the pool if the name is
// new. Existing entries are never invalidated.
func (b *NetworksBuilder) Insert(name string, caps NodeCapabilities, adapter Adapter) {
	pool, ok := b.networks[name]
	if !ok {
		pool = &NetworkAdapters{attemptTimeout: b.attemptTimeout, rng: b.rng}
		b.networks[name] = pool
	}
	pool.adapters = append(pool.adapters, NetworkAdapter{Capabilities: caps, Adapter: adapter})
}

// SetAttemptTimeout overrides the per-attempt timeout for one network's
// pool, creating the pool if the name is new. Zero restores the default.
func (b *NetworksBuilder) SetAttemptTimeout(name string, d time.Duration) {
	pool, ok := b.networks[name]
	if !ok {
		pool = &NetworkAdapters{attemptTimeout: b.attemptTimeout, rng: b.rng}
		b.networks[name] = pool
	}
	pool.attemptTimeout = d
}

// Extend merges another builder into this one. For any network name
// present in both, the incoming pool REPLACES the existing one; it does
// not append. Callers wanting a union must Insert entry by entry.
func (b *NetworksBuilder) Extend(other *NetworksBuilder) {
	for name, pool := range other.networks {
		b.networks[name] = pool
	}
}

// Flatten returns every registration across all networks, network names
// in sorted order.
func (b *NetworksBuilder) Flatten() []NetworkEntry {
	return flatten(b.networks)
}

// Build sorts every pool cheapest-first and freezes the registry. The
// builder must not be used afterwards.
func (b *NetworksBuilder) Build() *Networks {
	for _, pool := range b.networks {
		pool.Sort()
	}
	n := &Networks{networks: b.networks}
	b.networks = nil
	return n
}

// Networks maps network names to their endpoint pools. Built once at
// startup, then shared read-only for the process lifetime; no locking is
// needed because nothing mutates post-build.
type Networks struct {
	networks map[string]*NetworkAdapters
}

// Network returns the full pool registered under name.
func (n *Networks) Network(name string) (*NetworkAdapters, error) {
	pool, ok := n.networks[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNetworkNotSupported, name)
	}
	return pool, nil
}

// AdaptersWithCapabilities returns the eligible sub-pool for name.
func (n *Networks) AdaptersWithCapabilities(name string, required NodeCapabilities) (*NetworkAdapters, error) {
	pool, err := n.Network(name)
	if err != nil {
		return nil, err
	}
	return pool.Sufficient(required)
}

// AdapterWithCapabilities returns one randomly-chosen eligible endpoint
// for name.
func (n *Networks) AdapterWithCapabilities(name string, required NodeCapabilities) (Adapter, error) {
	pool, err := n.Network(name)
	if err != nil {
		return nil, err
	}
	return pool.CheapestWith(required)
}

// Flatten returns every registration across all networks, for bulk
// diagnostics such as verifying each endpoint's identity at startup.
func (n *Networks) Flatten() []NetworkEntry {
	return flatten(n.networks)
}

func flatten(networks map[string]*NetworkAdapters) []NetworkEntry {
	names := make([]string, 0, len(networks))
	for name := range networks {
		names = append(names, name)
	}
	sort.Strings(names)

	var entries []NetworkEntry
	for _, name := range names {
		for _, entry := range networks[name].adapters {
			entries = append(entries, NetworkEntry{
				Network:      name,
				Capabilities: entry.Capabilities,
				Adapter:      entry.Adapter,
			})
		}
	}
	return entries
}
