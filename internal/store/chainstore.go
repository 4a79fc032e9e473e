package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/akegaviar/graph-node/internal/ethereum"
)

const (
	keyChainHead       = "chain/head"
	prefixBlockHashes  = "chain/hashes/"
	prefixBlockByHash  = "chain/block/"
	blockNumberPadding = "%020d"
)

// ChainStore persists chain-head state and the hashes seen per height in
// badger. It backs the reorg-aware block pointer resolution of the
// routing layer.
type ChainStore struct {
	db *badger.DB
}

func NewChainStore(db *badger.DB) *ChainStore {
	return &ChainStore{db: db}
}

// OpenChainStore opens a badger database at path for exclusive use by a
// chain store.
func OpenChainStore(path string) (*ChainStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("opening chain store at %s: %w", path, err)
	}
	return NewChainStore(db), nil
}

func (s *ChainStore) Close() error { return s.db.Close() }

var _ ethereum.ChainStore = (*ChainStore)(nil)

func hashesKey(number uint64) []byte {
	return fmt.Appendf(nil, prefixBlockHashes+blockNumberPadding, number)
}

func (s *ChainStore) BlockHashesByNumber(_ context.Context, number uint64) ([]ethereum.Hash, error) {
	var hashes []ethereum.Hash
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(hashesKey(number))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &hashes)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading hashes for block %d: %w", number, err)
	}
	return hashes, nil
}

// ConfirmBlockHash pins hash as the only known hash at its height.
func (s *ChainStore) ConfirmBlockHash(_ context.Context, number uint64, hash ethereum.Hash) error {
	data, err := json.Marshal([]ethereum.Hash{hash})
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(hashesKey(number), data)
	})
	if err != nil {
		return fmt.Errorf("confirming block %d: %w", number, err)
	}
	return nil
}

func (s *ChainStore) InsertLightBlocks(_ context.Context, blocks []*ethereum.LightBlock) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, block := range blocks {
			data, err := json.Marshal(block)
			if err != nil {
				return err
			}
			if err := txn.Set([]byte(prefixBlockByHash+string(block.Hash)), data); err != nil {
				return err
			}

			// Merge the hash into the per-height set.
			key := hashesKey(block.Number)
			var hashes []ethereum.Hash
			item, err := txn.Get(key)
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				if err := item.Value(func(val []byte) error {
					return json.Unmarshal(val, &hashes)
				}); err != nil {
					return err
				}
			}
			known := false
			for _, h := range hashes {
				if h == block.Hash {
					known = true
					break
				}
			}
			if !known {
				hashes = append(hashes, block.Hash)
				merged, err := json.Marshal(hashes)
				if err != nil {
					return err
				}
				if err := txn.Set(key, merged); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("inserting %d blocks: %w", len(blocks), err)
	}
	return nil
}

// LightBlockByHash returns a previously inserted block, or nil when the
// store has never seen it.
func (s *ChainStore) LightBlockByHash(_ context.Context, hash ethereum.Hash) (*ethereum.LightBlock, error) {
	var block *ethereum.LightBlock
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefixBlockByHash + string(hash)))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			block = &ethereum.LightBlock{}
			return json.Unmarshal(val, block)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("reading block %s: %w", hash, err)
	}
	return block, nil
}

func (s *ChainStore) ChainHead(_ context.Context) (ethereum.BlockPtr, bool, error) {
	var ptr ethereum.BlockPtr
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyChainHead))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &ptr)
		})
	})
	if err != nil {
		return ethereum.BlockPtr{}, false, fmt.Errorf("reading chain head: %w", err)
	}
	return ptr, found, nil
}

func (s *ChainStore) SetChainHead(_ context.Context, ptr ethereum.BlockPtr) error {
	data, err := json.Marshal(ptr)
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyChainHead), data)
	})
	if err != nil {
		return fmt.Errorf("writing chain head: %w", err)
	}
	return nil
}
