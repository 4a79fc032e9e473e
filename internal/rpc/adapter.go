package rpc

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/akegaviar/graph-node/internal/ethereum"
	"github.com/akegaviar/graph-node/pkg/common/logger"
)

// Adapter implements ethereum.Adapter on top of a JSON-RPC client for one
// configured endpoint.
type Adapter struct {
	client *Client
}

func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

var _ ethereum.Adapter = (*Adapter)(nil)

func (a *Adapter) URLHostname() string { return a.client.Hostname() }

func (a *Adapter) NetIdentifiers(ctx context.Context) (ethereum.NetworkIdentifier, error) {
	resp, err := a.client.Call(ctx, "net_version", nil)
	if err != nil {
		return ethereum.NetworkIdentifier{}, err
	}
	var netVersion string
	if err := json.Unmarshal(resp.Result, &netVersion); err != nil {
		return ethereum.NetworkIdentifier{}, fmt.Errorf("decoding net_version: %w", err)
	}

	genesis, err := a.headerByTag(ctx, "0x0")
	if err != nil {
		return ethereum.NetworkIdentifier{}, err
	}
	if genesis == nil {
		return ethereum.NetworkIdentifier{}, fmt.Errorf("endpoint %s has no genesis block", a.URLHostname())
	}
	return ethereum.NetworkIdentifier{
		NetVersion:       netVersion,
		GenesisBlockHash: genesis.Hash,
	}, nil
}

func (a *Adapter) LatestBlockHeader(ctx context.Context) (*ethereum.BlockHeader, error) {
	header, err := a.headerByTag(ctx, "latest")
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, fmt.Errorf("endpoint %s returned no latest block", a.URLHostname())
	}
	return header, nil
}

func (a *Adapter) LatestBlock(ctx context.Context) (*ethereum.LightBlock, error) {
	block, err := a.blockByTag(ctx, "latest")
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, fmt.Errorf("endpoint %s returned no latest block", a.URLHostname())
	}
	return block, nil
}

func (a *Adapter) LoadBlock(ctx context.Context, hash ethereum.Hash) (*ethereum.LightBlock, error) {
	block, err := a.BlockByHash(ctx, hash)
	if err != nil {
		return nil, err
	}
	if block == nil {
		return nil, fmt.Errorf("block %s not found on %s", hash, a.URLHostname())
	}
	return block, nil
}

func (a *Adapter) BlockByHash(ctx context.Context, hash ethereum.Hash) (*ethereum.LightBlock, error) {
	resp, err := a.client.Call(ctx, "eth_getBlockByHash", []any{hash, true})
	if err != nil {
		return nil, err
	}
	return decodeBlock(resp.Result)
}

func (a *Adapter) BlockByNumber(ctx context.Context, number uint64) (*ethereum.LightBlock, error) {
	return a.blockByTag(ctx, formatQuantity(number))
}

func (a *Adapter) LoadFullBlock(ctx context.Context, block *ethereum.LightBlock) (*ethereum.FullBlock, error) {
	full := &ethereum.FullBlock{Block: block}
	if len(block.Transactions) == 0 {
		return full, nil
	}

	ids := a.client.NextRequestIDs(len(block.Transactions))
	reqs := make([]*Request, 0, len(block.Transactions))
	idToHash := make(map[int64]ethereum.Hash, len(block.Transactions))
	for i, tx := range block.Transactions {
		reqs = append(reqs, &Request{
			ID:      ids[i],
			JSONRPC: "2.0",
			Method:  "eth_getTransactionReceipt",
			Params:  []any{tx.Hash},
		})
		idToHash[ids[i]] = tx.Hash
	}

	resps, err := a.client.CallBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}

	receipts := make([]*ethereum.TransactionReceipt, 0, len(block.Transactions))
	for _, id := range ids {
		resp, ok := resps[id]
		if !ok || resp.Error != nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
			return nil, fmt.Errorf("missing receipt for tx %s in block %s", idToHash[id], block.Hash)
		}
		var wire wireReceipt
		if err := json.Unmarshal(resp.Result, &wire); err != nil {
			return nil, fmt.Errorf("decoding receipt for tx %s: %w", idToHash[id], err)
		}
		receipt, err := wire.toReceipt()
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, receipt)
	}
	full.Receipts = receipts
	return full, nil
}

// BlockPointerFromNumber prefers the chain store's view of a height; only
// an unknown or ambiguous (reorged) height goes to the endpoint.
func (a *Adapter) BlockPointerFromNumber(ctx context.Context, chainStore ethereum.ChainStore, number uint64) (ethereum.BlockPtr, error) {
	hashes, err := chainStore.BlockHashesByNumber(ctx, number)
	if err != nil {
		return ethereum.BlockPtr{}, fmt.Errorf("chain store lookup for block %d: %w", number, err)
	}
	if len(hashes) == 1 {
		return ethereum.BlockPtr{Hash: hashes[0], Number: number}, nil
	}

	block, err := a.BlockByNumber(ctx, number)
	if err != nil {
		return ethereum.BlockPtr{}, err
	}
	if block == nil {
		return ethereum.BlockPtr{}, fmt.Errorf("block %d not found on %s", number, a.URLHostname())
	}
	return block.Ptr(), nil
}

func (a *Adapter) BlockHashByBlockNumber(ctx context.Context, chainStore ethereum.ChainStore, number uint64, final bool) (ethereum.Hash, error) {
	hashes, err := chainStore.BlockHashesByNumber(ctx, number)
	if err != nil {
		return "", fmt.Errorf("chain store lookup for block %d: %w", number, err)
	}
	if len(hashes) == 1 {
		return hashes[0], nil
	}

	block, err := a.BlockByNumber(ctx, number)
	if err != nil {
		return "", err
	}
	if block == nil {
		return "", fmt.Errorf("block %d not found on %s", number, a.URLHostname())
	}

	if final {
		if err := chainStore.ConfirmBlockHash(ctx, number, block.Hash); err != nil {
			return "", fmt.Errorf("confirming block %d: %w", number, err)
		}
	}
	return block.Hash, nil
}

func (a *Adapter) Uncles(ctx context.Context, block *ethereum.LightBlock) ([]*ethereum.BlockHeader, error) {
	uncles := make([]*ethereum.BlockHeader, 0, len(block.UncleHashes))
	for i := range block.UncleHashes {
		resp, err := a.client.Call(ctx, "eth_getUncleByBlockHashAndIndex",
			[]any{block.Hash, formatQuantity(uint64(i))})
		if err != nil {
			return nil, err
		}
		if len(resp.Result) == 0 || string(resp.Result) == "null" {
			uncles = append(uncles, nil)
			continue
		}
		var wire wireBlock
		if err := json.Unmarshal(resp.Result, &wire); err != nil {
			return nil, fmt.Errorf("decoding uncle %d of %s: %w", i, block.Hash, err)
		}
		header, err := wire.toHeader()
		if err != nil {
			return nil, err
		}
		uncles = append(uncles, header)
	}
	return uncles, nil
}

func (a *Adapter) IsOnMainChain(ctx context.Context, metrics ethereum.CallMetrics, chainStore ethereum.ChainStore, ptr ethereum.BlockPtr) (bool, error) {
	start := time.Now()
	hash, err := a.BlockHashByBlockNumber(ctx, chainStore, ptr.Number, false)
	if metrics != nil {
		metrics.ObserveRequest("is_on_main_chain", a.URLHostname(), time.Since(start), err)
	}
	if err != nil {
		return false, err
	}
	return hash == ptr.Hash, nil
}

func (a *Adapter) CallsInBlock(ctx context.Context, metrics ethereum.CallMetrics, number uint64, hash ethereum.Hash) ([]*ethereum.Call, error) {
	start := time.Now()
	calls, err := a.traceBlock(ctx, number, func(t *wireTrace) bool {
		return t.BlockHash == hash
	})
	if metrics != nil {
		metrics.ObserveRequest("calls_in_block", a.URLHostname(), time.Since(start), err)
	}
	return calls, err
}

func (a *Adapter) LogsInBlockRange(ctx context.Context, metrics ethereum.CallMetrics, from, to uint64, filter ethereum.LogFilter) ([]*ethereum.Log, error) {
	params := map[string]any{
		"fromBlock": formatQuantity(from),
		"toBlock":   formatQuantity(to),
	}
	if len(filter.Addresses) > 0 {
		params["address"] = filter.Addresses
	}
	if len(filter.Topics) > 0 {
		params["topics"] = filter.Topics
	}

	start := time.Now()
	resp, err := a.client.Call(ctx, "eth_getLogs", []any{params})
	if metrics != nil {
		metrics.ObserveRequest("logs_in_block_range", a.URLHostname(), time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}

	var wires []wireLog
	if err := json.Unmarshal(resp.Result, &wires); err != nil {
		return nil, fmt.Errorf("decoding eth_getLogs result: %w", err)
	}
	logs := make([]*ethereum.Log, 0, len(wires))
	for _, w := range wires {
		log, err := w.toLog()
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, nil
}

func (a *Adapter) CallsInBlockRange(ctx context.Context, metrics ethereum.CallMetrics, from, to uint64, filter ethereum.CallFilter) ([]*ethereum.Call, error) {
	callees := make(map[ethereum.Address]bool, len(filter.Addresses))
	for _, addr := range filter.Addresses {
		callees[addr] = true
	}

	start := time.Now()
	var all []*ethereum.Call
	var err error
	for number := from; number <= to; number++ {
		var calls []*ethereum.Call
		calls, err = a.traceBlock(ctx, number, func(t *wireTrace) bool {
			return len(callees) == 0 || callees[t.Action.To]
		})
		if err != nil {
			break
		}
		all = append(all, calls...)
	}
	if metrics != nil {
		metrics.ObserveRequest("calls_in_block_range", a.URLHostname(), time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	return all, nil
}

func (a *Adapter) ContractCall(ctx context.Context, call *ethereum.ContractCall, cache ethereum.CallCache) ([]byte, error) {
	if cache != nil {
		result, found, err := cache.GetCall(ctx, call.Address, call.Data, call.Block)
		if err != nil {
			logger.Warn("call cache read failed", "contract", call.Address, "error", err)
		} else if found {
			return result, nil
		}
	}

	params := []any{
		map[string]any{
			"to":   call.Address,
			"data": fmt.Sprintf("0x%x", call.Data),
		},
		call.Block.Hash,
	}
	resp, err := a.client.Call(ctx, "eth_call", params)
	if err != nil {
		return nil, err
	}

	var output string
	if err := json.Unmarshal(resp.Result, &output); err != nil {
		return nil, fmt.Errorf("decoding eth_call result: %w", err)
	}
	result, err := decodeHexBytes(output)
	if err != nil {
		return nil, fmt.Errorf("bad eth_call result %q: %w", output, err)
	}

	if cache != nil {
		if err := cache.SetCall(ctx, call.Address, call.Data, call.Block, result); err != nil {
			logger.Warn("call cache write failed", "contract", call.Address, "error", err)
		}
	}
	return result, nil
}

func (a *Adapter) LoadBlocks(ctx context.Context, chainStore ethereum.ChainStore, hashes []ethereum.Hash) (<-chan ethereum.BlockResult, error) {
	out := make(chan ethereum.BlockResult)
	go func() {
		defer close(out)
		var fetched []*ethereum.LightBlock
		for _, hash := range hashes {
			var block *ethereum.LightBlock
			var err error

			if chainStore != nil {
				block, err = chainStore.LightBlockByHash(ctx, hash)
				if err != nil {
					logger.Warn("block cache read failed", "hash", hash, "error", err)
					block = nil
				}
			}
			if block == nil {
				block, err = a.BlockByHash(ctx, hash)
				if err == nil && block == nil {
					err = fmt.Errorf("block %s not found on %s", hash, a.URLHostname())
				}
				if err == nil {
					fetched = append(fetched, block)
				}
			}
			select {
			case out <- ethereum.BlockResult{Block: block, Err: err}:
			case <-ctx.Done():
				return
			}
		}
		if len(fetched) > 0 && chainStore != nil {
			if err := chainStore.InsertLightBlocks(ctx, fetched); err != nil {
				logger.Warn("caching loaded blocks failed", "count", len(fetched), "error", err)
			}
		}
	}()
	return out, nil
}

func (a *Adapter) BlockRangeToPtrs(ctx context.Context, from, to uint64) ([]ethereum.BlockPtr, error) {
	if from > to {
		return nil, fmt.Errorf("invalid block range [%d, %d]", from, to)
	}

	n := int(to - from + 1)
	ids := a.client.NextRequestIDs(n)
	reqs := make([]*Request, 0, n)
	idToNumber := make(map[int64]uint64, n)
	for i := 0; i < n; i++ {
		number := from + uint64(i)
		reqs = append(reqs, &Request{
			ID:      ids[i],
			JSONRPC: "2.0",
			Method:  "eth_getBlockByNumber",
			Params:  []any{formatQuantity(number), false},
		})
		idToNumber[ids[i]] = number
	}

	resps, err := a.client.CallBatch(ctx, reqs)
	if err != nil {
		return nil, err
	}

	ptrs := make([]ethereum.BlockPtr, 0, n)
	for _, id := range ids {
		resp, ok := resps[id]
		if !ok || resp.Error != nil || len(resp.Result) == 0 || string(resp.Result) == "null" {
			return nil, fmt.Errorf("block %d missing from range response", idToNumber[id])
		}
		var wire wireBlock
		if err := json.Unmarshal(resp.Result, &wire); err != nil {
			return nil, fmt.Errorf("decoding block %d: %w", idToNumber[id], err)
		}
		header, err := wire.toHeader()
		if err != nil {
			return nil, err
		}
		ptrs = append(ptrs, header.Ptr())
	}
	return ptrs, nil
}

func (a *Adapter) headerByTag(ctx context.Context, tag string) (*ethereum.BlockHeader, error) {
	resp, err := a.client.Call(ctx, "eth_getBlockByNumber", []any{tag, false})
	if err != nil {
		return nil, err
	}
	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil, nil
	}
	var wire wireBlock
	if err := json.Unmarshal(resp.Result, &wire); err != nil {
		return nil, fmt.Errorf("decoding block %s: %w", tag, err)
	}
	return wire.toHeader()
}

func (a *Adapter) blockByTag(ctx context.Context, tag string) (*ethereum.LightBlock, error) {
	resp, err := a.client.Call(ctx, "eth_getBlockByNumber", []any{tag, true})
	if err != nil {
		return nil, err
	}
	return decodeBlock(resp.Result)
}

func (a *Adapter) traceBlock(ctx context.Context, number uint64, keep func(*wireTrace) bool) ([]*ethereum.Call, error) {
	resp, err := a.client.Call(ctx, "trace_block", []any{formatQuantity(number)})
	if err != nil {
		return nil, err
	}

	var traces []wireTrace
	if err := json.Unmarshal(resp.Result, &traces); err != nil {
		return nil, fmt.Errorf("decoding trace_block result: %w", err)
	}

	var calls []*ethereum.Call
	for i := range traces {
		t := &traces[i]
		if t.Type != "call" || !keep(t) {
			continue
		}
		call, err := t.toCall()
		if err != nil {
			return nil, err
		}
		calls = append(calls, call)
	}
	return calls, nil
}

func decodeBlock(raw json.RawMessage) (*ethereum.LightBlock, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var wire wireBlock
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decoding block: %w", err)
	}
	return wire.toLightBlock()
}

func decodeHexBytes(s string) ([]byte, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if len(trimmed)%2 != 0 {
		trimmed = "0" + trimmed
	}
	return hex.DecodeString(trimmed)
}
