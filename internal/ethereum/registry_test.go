package ethereum

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInsertSortLookup(t *testing.T) {
	h1 := &stubAdapter{host: "archive.example"}
	h2 := &stubAdapter{host: "traces.example"}

	builder := NewNetworksBuilder()
	builder.Insert("mainnet", archiveOnly, h1)
	builder.Insert("mainnet", tracesOnly, h2)
	networks := builder.Build()

	pool, err := networks.AdaptersWithCapabilities("mainnet", full)
	require.NoError(t, err)
	assert.Equal(t, 2, pool.Len())

	// Post-sort the first entry is a minimal-capability one; for this
	// incomparable pair either order is a valid best-effort arrangement.
	first := pool.Entries()[0].Capabilities
	assert.Contains(t, []NodeCapabilities{archiveOnly, tracesOnly}, first)

	_, err = networks.AdaptersWithCapabilities("rinkeby", full)
	assert.ErrorIs(t, err, ErrNetworkNotSupported)

	_, err = networks.AdapterWithCapabilities("mainnet", archiveTraces)
	assert.ErrorIs(t, err, ErrNoEligibleEndpoint)
}

func TestRegistryAdapterWithCapabilities(t *testing.T) {
	h1 := &stubAdapter{host: "a"}
	h2 := &stubAdapter{host: "b"}

	builder := NewNetworksBuilder(WithRandSource(rand.NewSource(7)))
	builder.Insert("mainnet", archiveOnly, h1)
	builder.Insert("mainnet", archiveTraces, h2)
	networks := builder.Build()

	adapter, err := networks.AdapterWithCapabilities("mainnet", archiveOnly)
	require.NoError(t, err)
	assert.Contains(t, []Adapter{h1, h2}, adapter)

	adapter, err = networks.AdapterWithCapabilities("mainnet", archiveTraces)
	require.NoError(t, err)
	assert.Equal(t, h2, adapter)
}

func TestRegistryExtendReplacesWholePool(t *testing.T) {
	h1 := &stubAdapter{host: "a1"}
	h2 := &stubAdapter{host: "a2"}
	h3 := &stubAdapter{host: "b1"}

	a := NewNetworksBuilder()
	a.Insert("mainnet", full, h1)
	a.Insert("mainnet", archiveOnly, h2)

	b := NewNetworksBuilder()
	b.Insert("mainnet", tracesOnly, h3)
	b.Insert("sepolia", full, h3)

	// Replacement, not union: B's mainnet pool wins outright.
	a.Extend(b)
	networks := a.Build()

	pool, err := networks.Network("mainnet")
	require.NoError(t, err)
	require.Equal(t, 1, pool.Len())
	assert.Equal(t, h3, pool.Entries()[0].Adapter)

	_, err = networks.Network("sepolia")
	assert.NoError(t, err)
}

func TestRegistrySetAttemptTimeoutReachesExecutor(t *testing.T) {
	builder := NewNetworksBuilder()
	builder.Insert("mainnet", full, hangingAdapter("slow"))
	builder.SetAttemptTimeout("mainnet", 10*time.Millisecond)
	networks := builder.Build()

	pool, err := networks.Network("mainnet")
	require.NoError(t, err)

	start := time.Now()
	_, err = pool.NetIdentifiers(context.Background())
	require.Error(t, err)

	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Less(t, time.Since(start), 5*time.Second,
		"pool timeout must override the 20s default")
}

func TestRegistryFlatten(t *testing.T) {
	builder := NewNetworksBuilder()
	builder.Insert("mainnet", archiveOnly, &stubAdapter{host: "m1"})
	builder.Insert("mainnet", tracesOnly, &stubAdapter{host: "m2"})
	builder.Insert("goerli", full, &stubAdapter{host: "g1"})

	entries := builder.Flatten()
	require.Len(t, entries, 3)
	// Network names come out sorted.
	assert.Equal(t, "goerli", entries[0].Network)
	assert.Equal(t, "mainnet", entries[1].Network)

	networks := builder.Build()
	assert.Len(t, networks.Flatten(), 3)
}
