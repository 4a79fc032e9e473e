package rpc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/akegaviar/graph-node/internal/ethereum"
)

// Request represents a JSON-RPC request.
type Request struct {
	ID      int64  `json:"id"`
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

// Response represents a JSON-RPC response.
type Response struct {
	ID      int64           `json:"id"`
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error represents a JSON-RPC error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// --- wire structs, hex-quantity fields as the node returns them --- //

type wireBlock struct {
	Hash         ethereum.Hash     `json:"hash"`
	ParentHash   ethereum.Hash     `json:"parentHash"`
	Number       string            `json:"number"`
	Timestamp    string            `json:"timestamp"`
	Uncles       []ethereum.Hash   `json:"uncles"`
	Transactions []wireTransaction `json:"transactions"`
}

type wireTransaction struct {
	Hash             ethereum.Hash    `json:"hash"`
	From             ethereum.Address `json:"from"`
	To               ethereum.Address `json:"to"`
	Input            string           `json:"input"`
	Value            string           `json:"value"`
	TransactionIndex string           `json:"transactionIndex"`
}

type wireReceipt struct {
	TransactionHash ethereum.Hash `json:"transactionHash"`
	GasUsed         string        `json:"gasUsed"`
	Status          string        `json:"status"`
	Logs            []wireLog     `json:"logs"`
}

type wireLog struct {
	Address         ethereum.Address `json:"address"`
	Topics          []ethereum.Hash  `json:"topics"`
	Data            string           `json:"data"`
	BlockNumber     string           `json:"blockNumber"`
	BlockHash       ethereum.Hash    `json:"blockHash"`
	TransactionHash ethereum.Hash    `json:"transactionHash"`
	LogIndex        string           `json:"logIndex"`
}

// wireTrace is one entry of a trace_block response.
type wireTrace struct {
	Type   string `json:"type"`
	Action struct {
		From  ethereum.Address `json:"from"`
		To    ethereum.Address `json:"to"`
		Value string           `json:"value"`
		Input string           `json:"input"`
	} `json:"action"`
	Result *struct {
		GasUsed string `json:"gasUsed"`
		Output  string `json:"output"`
	} `json:"result"`
	BlockNumber uint64        `json:"blockNumber"`
	BlockHash   ethereum.Hash `json:"blockHash"`
}

func (b *wireBlock) toHeader() (*ethereum.BlockHeader, error) {
	number, err := parseQuantity(b.Number)
	if err != nil {
		return nil, fmt.Errorf("bad block number %q: %w", b.Number, err)
	}
	timestamp, err := parseQuantity(b.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("bad block timestamp %q: %w", b.Timestamp, err)
	}
	return &ethereum.BlockHeader{
		Hash:       b.Hash,
		ParentHash: b.ParentHash,
		Number:     number,
		Timestamp:  timestamp,
	}, nil
}

func (b *wireBlock) toLightBlock() (*ethereum.LightBlock, error) {
	header, err := b.toHeader()
	if err != nil {
		return nil, err
	}

	block := &ethereum.LightBlock{
		BlockHeader: *header,
		UncleHashes: b.Uncles,
	}
	for _, tx := range b.Transactions {
		index, err := parseQuantity(tx.TransactionIndex)
		if err != nil {
			return nil, fmt.Errorf("tx %s: bad index %q: %w", tx.Hash, tx.TransactionIndex, err)
		}
		block.Transactions = append(block.Transactions, ethereum.Transaction{
			Hash:  tx.Hash,
			From:  tx.From,
			To:    tx.To,
			Input: tx.Input,
			Value: tx.Value,
			Index: index,
		})
	}
	return block, nil
}

func (r *wireReceipt) toReceipt() (*ethereum.TransactionReceipt, error) {
	gasUsed, err := parseQuantity(r.GasUsed)
	if err != nil {
		return nil, fmt.Errorf("receipt %s: bad gasUsed %q: %w", r.TransactionHash, r.GasUsed, err)
	}
	receipt := &ethereum.TransactionReceipt{
		TransactionHash: r.TransactionHash,
		GasUsed:         gasUsed,
		Status:          r.Status == "0x1",
	}
	for _, l := range r.Logs {
		log, err := l.toLog()
		if err != nil {
			return nil, err
		}
		receipt.Logs = append(receipt.Logs, *log)
	}
	return receipt, nil
}

func (l *wireLog) toLog() (*ethereum.Log, error) {
	blockNumber, err := parseQuantity(l.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("log in %s: bad blockNumber %q: %w", l.TransactionHash, l.BlockNumber, err)
	}
	logIndex, err := parseQuantity(l.LogIndex)
	if err != nil {
		return nil, fmt.Errorf("log in %s: bad logIndex %q: %w", l.TransactionHash, l.LogIndex, err)
	}
	return &ethereum.Log{
		Address:     l.Address,
		Topics:      l.Topics,
		Data:        l.Data,
		BlockNumber: blockNumber,
		BlockHash:   l.BlockHash,
		TxHash:      l.TransactionHash,
		LogIndex:    logIndex,
	}, nil
}

func (t *wireTrace) toCall() (*ethereum.Call, error) {
	call := &ethereum.Call{
		From:        t.Action.From,
		To:          t.Action.To,
		Value:       t.Action.Value,
		Input:       t.Action.Input,
		BlockNumber: t.BlockNumber,
		BlockHash:   t.BlockHash,
	}
	if t.Result != nil {
		gasUsed, err := parseQuantity(t.Result.GasUsed)
		if err != nil {
			return nil, fmt.Errorf("trace in block %s: bad gasUsed %q: %w", t.BlockHash, t.Result.GasUsed, err)
		}
		call.GasUsed = gasUsed
		call.Output = t.Result.Output
	}
	return call, nil
}

// parseQuantity decodes a 0x-prefixed hex quantity.
func parseQuantity(s string) (uint64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 64)
}

// formatQuantity encodes a block number the way eth_* methods expect it.
func formatQuantity(n uint64) string {
	return fmt.Sprintf("0x%x", n)
}
