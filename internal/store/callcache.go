package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/akegaviar/graph-node/internal/ethereum"
)

const prefixCall = "call/"

// CallCache stores contract call results in badger, keyed by
// (contract, call data, block hash) so a result is only reused for the
// exact block it was produced at.
type CallCache struct {
	db *badger.DB
}

func NewCallCache(db *badger.DB) *CallCache {
	return &CallCache{db: db}
}

func OpenCallCache(path string) (*CallCache, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening call cache at %s: %w", path, err)
	}
	return NewCallCache(db), nil
}

func (c *CallCache) Close() error { return c.db.Close() }

var _ ethereum.CallCache = (*CallCache)(nil)

func callKey(contract ethereum.Address, data []byte, block ethereum.BlockPtr) []byte {
	h := sha256.New()
	h.Write([]byte(contract))
	h.Write([]byte(block.Hash))
	h.Write(data)
	return fmt.Appendf(nil, "%s%x", prefixCall, h.Sum(nil))
}

func (c *CallCache) GetCall(_ context.Context, contract ethereum.Address, data []byte, block ethereum.BlockPtr) ([]byte, bool, error) {
	var result []byte
	found := false
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(callKey(contract, data, block))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		result, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, false, fmt.Errorf("reading cached call for %s: %w", contract, err)
	}
	return result, found, nil
}

func (c *CallCache) SetCall(_ context.Context, contract ethereum.Address, data []byte, block ethereum.BlockPtr, result []byte) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(callKey(contract, data, block), result)
	})
	if err != nil {
		return fmt.Errorf("caching call for %s: %w", contract, err)
	}
	return nil
}
