package ethereum

import "context"

// Forwarded operations. Each runs through the failover executor against
// whatever pool it is called on; callers obtain a capability-filtered pool
// from Networks first, so the attempt budget covers exactly the eligible
// endpoints. Labels are diagnostics only.

func (a *NetworkAdapters) NetIdentifiers(ctx context.Context) (NetworkIdentifier, error) {
	return runWithFailover(ctx, "net_version RPC call", a,
		func(ctx context.Context, adapter Adapter) (NetworkIdentifier, error) {
			return adapter.NetIdentifiers(ctx)
		})
}

func (a *NetworkAdapters) LatestBlockHeader(ctx context.Context) (*BlockHeader, error) {
	return runWithFailover(ctx, "eth_getBlockByNumber(latest) no txs RPC call", a,
		func(ctx context.Context, adapter Adapter) (*BlockHeader, error) {
			return adapter.LatestBlockHeader(ctx)
		})
}

func (a *NetworkAdapters) LatestBlock(ctx context.Context) (*LightBlock, error) {
	return runWithFailover(ctx, "eth_getBlockByNumber(latest) with txs RPC call", a,
		func(ctx context.Context, adapter Adapter) (*LightBlock, error) {
			return adapter.LatestBlock(ctx)
		})
}

func (a *NetworkAdapters) LoadBlock(ctx context.Context, hash Hash) (*LightBlock, error) {
	return runWithFailover(ctx, "eth_getBlockByHash RPC call", a,
		func(ctx context.Context, adapter Adapter) (*LightBlock, error) {
			return adapter.LoadBlock(ctx, hash)
		})
}

func (a *NetworkAdapters) BlockByHash(ctx context.Context, hash Hash) (*LightBlock, error) {
	return runWithFailover(ctx, "eth_getBlockByHash RPC call", a,
		func(ctx context.Context, adapter Adapter) (*LightBlock, error) {
			return adapter.BlockByHash(ctx, hash)
		})
}

func (a *NetworkAdapters) BlockByNumber(ctx context.Context, number uint64) (*LightBlock, error) {
	return runWithFailover(ctx, "eth_getBlockByNumber RPC call", a,
		func(ctx context.Context, adapter Adapter) (*LightBlock, error) {
			return adapter.BlockByNumber(ctx, number)
		})
}

func (a *NetworkAdapters) LoadFullBlock(ctx context.Context, block *LightBlock) (*FullBlock, error) {
	return runWithFailover(ctx, "batch eth_getTransactionReceipt RPC call", a,
		func(ctx context.Context, adapter Adapter) (*FullBlock, error) {
			return adapter.LoadFullBlock(ctx, block)
		})
}

func (a *NetworkAdapters) BlockPointerFromNumber(ctx context.Context, chainStore ChainStore, number uint64) (BlockPtr, error) {
	return runWithFailover(ctx, "block pointer from number", a,
		func(ctx context.Context, adapter Adapter) (BlockPtr, error) {
			return adapter.BlockPointerFromNumber(ctx, chainStore, number)
		})
}

func (a *NetworkAdapters) BlockHashByBlockNumber(ctx context.Context, chainStore ChainStore, number uint64, final bool) (Hash, error) {
	return runWithFailover(ctx, "block hash by block number", a,
		func(ctx context.Context, adapter Adapter) (Hash, error) {
			return adapter.BlockHashByBlockNumber(ctx, chainStore, number, final)
		})
}

func (a *NetworkAdapters) Uncles(ctx context.Context, block *LightBlock) ([]*BlockHeader, error) {
	return runWithFailover(ctx, "eth_getUncleByBlockHashAndIndex RPC call", a,
		func(ctx context.Context, adapter Adapter) ([]*BlockHeader, error) {
			return adapter.Uncles(ctx, block)
		})
}

func (a *NetworkAdapters) IsOnMainChain(ctx context.Context, metrics CallMetrics, chainStore ChainStore, ptr BlockPtr) (bool, error) {
	return runWithFailover(ctx, "is on main chain", a,
		func(ctx context.Context, adapter Adapter) (bool, error) {
			return adapter.IsOnMainChain(ctx, metrics, chainStore, ptr)
		})
}

func (a *NetworkAdapters) CallsInBlock(ctx context.Context, metrics CallMetrics, number uint64, hash Hash) ([]*Call, error) {
	return runWithFailover(ctx, "calls in block", a,
		func(ctx context.Context, adapter Adapter) ([]*Call, error) {
			return adapter.CallsInBlock(ctx, metrics, number, hash)
		})
}

func (a *NetworkAdapters) LogsInBlockRange(ctx context.Context, metrics CallMetrics, from, to uint64, filter LogFilter) ([]*Log, error) {
	return runWithFailover(ctx, "logs in block range", a,
		func(ctx context.Context, adapter Adapter) ([]*Log, error) {
			return adapter.LogsInBlockRange(ctx, metrics, from, to, filter)
		})
}

func (a *NetworkAdapters) CallsInBlockRange(ctx context.Context, metrics CallMetrics, from, to uint64, filter CallFilter) ([]*Call, error) {
	return runWithFailover(ctx, "calls in block range", a,
		func(ctx context.Context, adapter Adapter) ([]*Call, error) {
			return adapter.CallsInBlockRange(ctx, metrics, from, to, filter)
		})
}

func (a *NetworkAdapters) ContractCall(ctx context.Context, call *ContractCall, cache CallCache) ([]byte, error) {
	return runWithFailover(ctx, "contract call", a,
		func(ctx context.Context, adapter Adapter) ([]byte, error) {
			return adapter.ContractCall(ctx, call, cache)
		})
}

func (a *NetworkAdapters) LoadBlocks(ctx context.Context, chainStore ChainStore, hashes []Hash) (<-chan BlockResult, error) {
	// The result stream outlives the attempt, so it runs under the
	// caller's context; the per-attempt timeout bounds stream setup only.
	return runWithFailover(ctx, "load blocks", a,
		func(_ context.Context, adapter Adapter) (<-chan BlockResult, error) {
			return adapter.LoadBlocks(ctx, chainStore, hashes)
		})
}

// BlockRangeToPtrs resolves [from, to] to pointers. Reorg safety: callers
// must guarantee `to` is a final block.
func (a *NetworkAdapters) BlockRangeToPtrs(ctx context.Context, from, to uint64) ([]BlockPtr, error) {
	return runWithFailover(ctx, "block range to ptrs", a,
		func(ctx context.Context, adapter Adapter) ([]BlockPtr, error) {
			return adapter.BlockRangeToPtrs(ctx, from, to)
		})
}
