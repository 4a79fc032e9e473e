package ethereum

// Hash is a 0x-prefixed 32-byte hex string.
type Hash string

// Address is a 0x-prefixed 20-byte hex string.
type Address string

// BlockPtr identifies one block by hash and height.
type BlockPtr struct {
	Hash   Hash   `json:"hash"`
	Number uint64 `json:"number"`
}

// NetworkIdentifier is what an endpoint reports about the chain it serves.
// Two endpoints for the same logical network must agree on both fields.
type NetworkIdentifier struct {
	NetVersion       string `json:"net_version"`
	GenesisBlockHash Hash   `json:"genesis_block_hash"`
}

type BlockHeader struct {
	Hash       Hash   `json:"hash"`
	ParentHash Hash   `json:"parent_hash"`
	Number     uint64 `json:"number"`
	Timestamp  uint64 `json:"timestamp"`
}

func (h *BlockHeader) Ptr() BlockPtr {
	return BlockPtr{Hash: h.Hash, Number: h.Number}
}

type Transaction struct {
	Hash  Hash    `json:"hash"`
	From  Address `json:"from"`
	To    Address `json:"to"` // empty for contract creation
	Input string  `json:"input"`
	Value string  `json:"value"` // hex quantity, opaque at this layer
	Index uint64  `json:"index"`
}

// LightBlock is a block with transactions but without receipts.
type LightBlock struct {
	BlockHeader
	UncleHashes  []Hash        `json:"uncle_hashes"`
	Transactions []Transaction `json:"transactions"`
}

type Log struct {
	Address     Address `json:"address"`
	Topics      []Hash  `json:"topics"`
	Data        string  `json:"data"`
	BlockNumber uint64  `json:"block_number"`
	BlockHash   Hash    `json:"block_hash"`
	TxHash      Hash    `json:"tx_hash"`
	LogIndex    uint64  `json:"log_index"`
}

type TransactionReceipt struct {
	TransactionHash Hash   `json:"transaction_hash"`
	GasUsed         uint64 `json:"gas_used"`
	Status          bool   `json:"status"`
	Logs            []Log  `json:"logs"`
}

// FullBlock pairs a light block with the receipts of all its transactions.
type FullBlock struct {
	Block    *LightBlock           `json:"block"`
	Receipts []*TransactionReceipt `json:"receipts"`
}

// Call is one call executed within a block, as reported by call tracing.
type Call struct {
	From        Address `json:"from"`
	To          Address `json:"to"`
	Value       string  `json:"value"`
	GasUsed     uint64  `json:"gas_used"`
	Input       string  `json:"input"`
	Output      string  `json:"output"`
	BlockNumber uint64  `json:"block_number"`
	BlockHash   Hash    `json:"block_hash"`
}

// ContractCall is a contract read call pinned to a block. Data carries the
// already-encoded call; ABI handling happens outside this layer.
type ContractCall struct {
	Address Address
	Block   BlockPtr
	Data    []byte
}

// LogFilter narrows ranged log retrieval. It is passed through to the
// transport verbatim; this layer attaches no semantics to it.
type LogFilter struct {
	Addresses []Address
	Topics    [][]Hash
}

// CallFilter narrows ranged call retrieval by callee address.
type CallFilter struct {
	Addresses []Address
}

// BlockResult is one element of a lazy bulk-load sequence.
type BlockResult struct {
	Block *LightBlock
	Err   error
}
