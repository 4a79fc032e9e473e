package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akegaviar/graph-node/internal/ethereum"
)

// fakeNode answers JSON-RPC requests from a method table. Batch requests
// are answered entry by entry.
type fakeNode struct {
	t       *testing.T
	results map[string]any // method -> result value
}

func (f *fakeNode) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		require.NoError(f.t, json.NewDecoder(r.Body).Decode(&raw))

		if raw[0] == '[' {
			var reqs []Request
			require.NoError(f.t, json.Unmarshal(raw, &reqs))
			resps := make([]*Response, 0, len(reqs))
			for _, req := range reqs {
				resps = append(resps, f.respond(&req))
			}
			require.NoError(f.t, json.NewEncoder(w).Encode(resps))
			return
		}

		var req Request
		require.NoError(f.t, json.Unmarshal(raw, &req))
		require.NoError(f.t, json.NewEncoder(w).Encode(f.respond(&req)))
	}
}

func (f *fakeNode) respond(req *Request) *Response {
	result, ok := f.results[req.Method]
	if !ok {
		return &Response{ID: req.ID, JSONRPC: "2.0", Error: &Error{Code: -32601, Message: "method not found"}}
	}
	data, err := json.Marshal(result)
	require.NoError(f.t, err)
	return &Response{ID: req.ID, JSONRPC: "2.0", Result: data}
}

func blockJSON(number string, hash string) map[string]any {
	return map[string]any{
		"hash":       hash,
		"parentHash": "0x00",
		"number":     number,
		"timestamp":  "0x5f5e100",
		"uncles":     []string{},
		"transactions": []map[string]any{
			{
				"hash":             "0xt1",
				"from":             "0xf1",
				"to":               "0xe1",
				"input":            "0x",
				"value":            "0x0",
				"transactionIndex": "0x0",
			},
		},
	}
}

func newTestAdapter(t *testing.T, results map[string]any) *Adapter {
	node := &fakeNode{t: t, results: results}
	server := httptest.NewServer(node.handler())
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, nil, 5*time.Second, nil)
	require.NoError(t, err)
	return NewAdapter(client)
}

func TestNetIdentifiers(t *testing.T) {
	adapter := newTestAdapter(t, map[string]any{
		"net_version":          "1",
		"eth_getBlockByNumber": blockJSON("0x0", "0xgenesis"),
	})

	id, err := adapter.NetIdentifiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1", id.NetVersion)
	assert.Equal(t, ethereum.Hash("0xgenesis"), id.GenesisBlockHash)
}

func TestBlockByNumberDecodesWireBlock(t *testing.T) {
	adapter := newTestAdapter(t, map[string]any{
		"eth_getBlockByNumber": blockJSON("0x10", "0xabc"),
	})

	block, err := adapter.BlockByNumber(context.Background(), 16)
	require.NoError(t, err)
	require.NotNil(t, block)
	assert.Equal(t, uint64(16), block.Number)
	assert.Equal(t, ethereum.Hash("0xabc"), block.Hash)
	require.Len(t, block.Transactions, 1)
	assert.Equal(t, ethereum.Hash("0xt1"), block.Transactions[0].Hash)
}

func TestBlockByHashAbsentIsNilNotError(t *testing.T) {
	adapter := newTestAdapter(t, map[string]any{
		"eth_getBlockByHash": nil,
	})

	block, err := adapter.BlockByHash(context.Background(), "0xmissing")
	require.NoError(t, err)
	assert.Nil(t, block)

	_, err = adapter.LoadBlock(context.Background(), "0xmissing")
	assert.Error(t, err, "LoadBlock requires the block to exist")
}

func TestRemoteErrorSurfacesAsError(t *testing.T) {
	adapter := newTestAdapter(t, map[string]any{})

	_, err := adapter.LatestBlock(context.Background())
	require.Error(t, err)

	var rpcErr *Error
	require.ErrorAs(t, err, &rpcErr)
	assert.Equal(t, -32601, rpcErr.Code)
}

func TestBlockRangeToPtrs(t *testing.T) {
	adapter := newTestAdapter(t, map[string]any{
		"eth_getBlockByNumber": blockJSON("0x5", "0xsame"),
	})

	ptrs, err := adapter.BlockRangeToPtrs(context.Background(), 5, 7)
	require.NoError(t, err)
	require.Len(t, ptrs, 3)
	assert.Equal(t, uint64(5), ptrs[0].Number)
}

type memCallCache struct {
	data map[string][]byte
	sets int
}

func (m *memCallCache) key(contract ethereum.Address, data []byte, block ethereum.BlockPtr) string {
	return string(contract) + string(block.Hash) + string(data)
}

func (m *memCallCache) GetCall(_ context.Context, contract ethereum.Address, data []byte, block ethereum.BlockPtr) ([]byte, bool, error) {
	v, ok := m.data[m.key(contract, data, block)]
	return v, ok, nil
}

func (m *memCallCache) SetCall(_ context.Context, contract ethereum.Address, data []byte, block ethereum.BlockPtr, result []byte) error {
	if m.data == nil {
		m.data = map[string][]byte{}
	}
	m.data[m.key(contract, data, block)] = result
	m.sets++
	return nil
}

func TestContractCallUsesCache(t *testing.T) {
	adapter := newTestAdapter(t, map[string]any{
		"eth_call": "0x2a",
	})
	cache := &memCallCache{}
	call := &ethereum.ContractCall{
		Address: "0xcontract",
		Block:   ethereum.BlockPtr{Hash: "0xabc", Number: 1},
		Data:    []byte{0x01, 0x02},
	}

	result, err := adapter.ContractCall(context.Background(), call, cache)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2a}, result)
	assert.Equal(t, 1, cache.sets)

	// Second call is served from cache; no further writes.
	result, err = adapter.ContractCall(context.Background(), call, cache)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x2a}, result)
	assert.Equal(t, 1, cache.sets)
}

type memChainStore struct {
	blocks map[ethereum.Hash]*ethereum.LightBlock
}

func (m *memChainStore) BlockHashesByNumber(context.Context, uint64) ([]ethereum.Hash, error) {
	return nil, nil
}

func (m *memChainStore) ConfirmBlockHash(context.Context, uint64, ethereum.Hash) error {
	return nil
}

func (m *memChainStore) InsertLightBlocks(_ context.Context, blocks []*ethereum.LightBlock) error {
	if m.blocks == nil {
		m.blocks = map[ethereum.Hash]*ethereum.LightBlock{}
	}
	for _, b := range blocks {
		m.blocks[b.Hash] = b
	}
	return nil
}

func (m *memChainStore) LightBlockByHash(_ context.Context, hash ethereum.Hash) (*ethereum.LightBlock, error) {
	return m.blocks[hash], nil
}

func (m *memChainStore) ChainHead(context.Context) (ethereum.BlockPtr, bool, error) {
	return ethereum.BlockPtr{}, false, nil
}

func (m *memChainStore) SetChainHead(context.Context, ethereum.BlockPtr) error {
	return nil
}

func TestLoadBlocksServesCachedBlocksFirst(t *testing.T) {
	// No eth_getBlockByHash handler: any fetch attempt fails, so a clean
	// result can only have come from the store.
	adapter := newTestAdapter(t, map[string]any{})

	cached := &ethereum.LightBlock{
		BlockHeader: ethereum.BlockHeader{Hash: "0xa", Number: 1},
	}
	chainStore := &memChainStore{
		blocks: map[ethereum.Hash]*ethereum.LightBlock{"0xa": cached},
	}

	ch, err := adapter.LoadBlocks(context.Background(), chainStore, []ethereum.Hash{"0xa", "0xb"})
	require.NoError(t, err)

	var results []ethereum.BlockResult
	for res := range ch {
		results = append(results, res)
	}
	require.Len(t, results, 2)
	require.NoError(t, results[0].Err)
	assert.Equal(t, cached, results[0].Block)
	assert.Error(t, results[1].Err, "uncached block must still go to the endpoint")
}

func TestLoadBlocksStreamsResults(t *testing.T) {
	adapter := newTestAdapter(t, map[string]any{
		"eth_getBlockByHash": blockJSON("0x1", "0xh"),
	})

	ch, err := adapter.LoadBlocks(context.Background(), nil, []ethereum.Hash{"0xa", "0xb"})
	require.NoError(t, err)

	var results []ethereum.BlockResult
	for res := range ch {
		results = append(results, res)
	}
	require.Len(t, results, 2)
	for _, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, ethereum.Hash("0xh"), res.Block.Hash)
	}
}
