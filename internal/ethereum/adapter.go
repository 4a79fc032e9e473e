package ethereum

import (
	"context"
	"time"
)

// Adapter is one configured RPC endpoint. The routing layer never inspects
// an adapter beyond this interface; the same adapter value may serve many
// concurrent callers, so implementations must be safe for concurrent use.
//
// Every method must honor context cancellation on a best-effort basis: if
// the transport cannot abort an in-flight request, the caller abandons the
// attempt and discards its eventual result.
type Adapter interface {
	// URLHostname identifies the endpoint in diagnostics.
	URLHostname() string

	NetIdentifiers(ctx context.Context) (NetworkIdentifier, error)

	LatestBlockHeader(ctx context.Context) (*BlockHeader, error)
	LatestBlock(ctx context.Context) (*LightBlock, error)

	// LoadBlock fetches a block that is known to exist; a missing block is
	// an error. BlockByHash and BlockByNumber return nil without error when
	// the block is absent.
	LoadBlock(ctx context.Context, hash Hash) (*LightBlock, error)
	BlockByHash(ctx context.Context, hash Hash) (*LightBlock, error)
	BlockByNumber(ctx context.Context, number uint64) (*LightBlock, error)

	LoadFullBlock(ctx context.Context, block *LightBlock) (*FullBlock, error)

	// BlockPointerFromNumber resolves a height to a pointer, consulting the
	// chain store for reorg-aware resolution before asking the endpoint.
	BlockPointerFromNumber(ctx context.Context, chainStore ChainStore, number uint64) (BlockPtr, error)

	// BlockHashByBlockNumber resolves a hash for a height. When final is
	// true the resolution is recorded in the chain store as canonical.
	BlockHashByBlockNumber(ctx context.Context, chainStore ChainStore, number uint64, final bool) (Hash, error)

	Uncles(ctx context.Context, block *LightBlock) ([]*BlockHeader, error)

	IsOnMainChain(ctx context.Context, metrics CallMetrics, chainStore ChainStore, ptr BlockPtr) (bool, error)

	CallsInBlock(ctx context.Context, metrics CallMetrics, number uint64, hash Hash) ([]*Call, error)
	LogsInBlockRange(ctx context.Context, metrics CallMetrics, from, to uint64, filter LogFilter) ([]*Log, error)
	CallsInBlockRange(ctx context.Context, metrics CallMetrics, from, to uint64, filter CallFilter) ([]*Call, error)

	// ContractCall performs a read call, consulting cache before touching
	// the network and recording fresh results in it.
	ContractCall(ctx context.Context, call *ContractCall, cache CallCache) ([]byte, error)

	// LoadBlocks bulk-loads blocks by hash, delivering results lazily as
	// they come back. Blocks the chain store already holds are served from
	// it; only misses go to the endpoint. The channel closes once all
	// hashes are resolved or the context is done.
	LoadBlocks(ctx context.Context, chainStore ChainStore, hashes []Hash) (<-chan BlockResult, error)

	// BlockRangeToPtrs resolves a contiguous number range to pointers.
	// Callers must guarantee `to` is final; no reorg protection is applied.
	BlockRangeToPtrs(ctx context.Context, from, to uint64) ([]BlockPtr, error)
}

// ChainStore is the persistent chain-head collaborator. Owned by the
// caller, shared by reference.
type ChainStore interface {
	// BlockHashesByNumber returns every hash the store has seen at a
	// height; more than one means an unresolved reorg.
	BlockHashesByNumber(ctx context.Context, number uint64) ([]Hash, error)

	// ConfirmBlockHash marks one hash canonical at its height, dropping
	// the others.
	ConfirmBlockHash(ctx context.Context, number uint64, hash Hash) error

	InsertLightBlocks(ctx context.Context, blocks []*LightBlock) error

	// LightBlockByHash returns a previously inserted block, or nil when
	// the store has never seen it.
	LightBlockByHash(ctx context.Context, hash Hash) (*LightBlock, error)

	ChainHead(ctx context.Context) (BlockPtr, bool, error)
	SetChainHead(ctx context.Context, ptr BlockPtr) error
}

// CallCache stores contract call results keyed by call+block so repeated
// reads skip the RPC round trip.
type CallCache interface {
	GetCall(ctx context.Context, contract Address, data []byte, block BlockPtr) ([]byte, bool, error)
	SetCall(ctx context.Context, contract Address, data []byte, block BlockPtr, result []byte) error
}

// CallMetrics observes forwarded RPC operations.
type CallMetrics interface {
	ObserveRequest(operation, endpoint string, elapsed time.Duration, err error)
}
