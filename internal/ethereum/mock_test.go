package ethereum

import (
	"context"
	"errors"
)

// stubAdapter satisfies Adapter for registry and executor tests. Behavior
// is injected per test through identify; everything else returns zero
// values.
type stubAdapter struct {
	host     string
	identify func(ctx context.Context) (NetworkIdentifier, error)
}

var errStubUnused = errors.New("stub: operation not wired in this test")

func (s *stubAdapter) URLHostname() string { return s.host }

func (s *stubAdapter) NetIdentifiers(ctx context.Context) (NetworkIdentifier, error) {
	if s.identify == nil {
		return NetworkIdentifier{}, errStubUnused
	}
	return s.identify(ctx)
}

func (s *stubAdapter) LatestBlockHeader(ctx context.Context) (*BlockHeader, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) LatestBlock(ctx context.Context) (*LightBlock, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) LoadBlock(ctx context.Context, hash Hash) (*LightBlock, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) BlockByHash(ctx context.Context, hash Hash) (*LightBlock, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) BlockByNumber(ctx context.Context, number uint64) (*LightBlock, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) LoadFullBlock(ctx context.Context, block *LightBlock) (*FullBlock, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) BlockPointerFromNumber(ctx context.Context, chainStore ChainStore, number uint64) (BlockPtr, error) {
	return BlockPtr{}, errStubUnused
}

func (s *stubAdapter) BlockHashByBlockNumber(ctx context.Context, chainStore ChainStore, number uint64, final bool) (Hash, error) {
	return "", errStubUnused
}

func (s *stubAdapter) Uncles(ctx context.Context, block *LightBlock) ([]*BlockHeader, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) IsOnMainChain(ctx context.Context, metrics CallMetrics, chainStore ChainStore, ptr BlockPtr) (bool, error) {
	return false, errStubUnused
}

func (s *stubAdapter) CallsInBlock(ctx context.Context, metrics CallMetrics, number uint64, hash Hash) ([]*Call, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) LogsInBlockRange(ctx context.Context, metrics CallMetrics, from, to uint64, filter LogFilter) ([]*Log, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) CallsInBlockRange(ctx context.Context, metrics CallMetrics, from, to uint64, filter CallFilter) ([]*Call, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) ContractCall(ctx context.Context, call *ContractCall, cache CallCache) ([]byte, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) LoadBlocks(ctx context.Context, chainStore ChainStore, hashes []Hash) (<-chan BlockResult, error) {
	return nil, errStubUnused
}

func (s *stubAdapter) BlockRangeToPtrs(ctx context.Context, from, to uint64) ([]BlockPtr, error) {
	return nil, errStubUnused
}

var _ Adapter = (*stubAdapter)(nil)
