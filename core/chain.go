// Copyright 2022 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package core

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"engineapi/common"
	"engineapi/core/types"
	"engineapi/log"
	"engineapi/params"
)

// ErrUnknownAncestor is returned when a header or block references a parent
// the chain has never seen, neither as a canonical block nor a buffered side
// block.
var ErrUnknownAncestor = errors.New("unknown ancestor")

// ErrStateMismatch is returned when a block's declared state root does not
// match the root produced by replaying its transactions against the
// parent's post-state.
var ErrStateMismatch = errors.New("state root mismatch")

// ChainReader exposes the read-only view of the chain that the Engine API
// driver needs: header/block lookup by hash or number, the three fork-choice
// markers, and total difficulty for the terminal-total-difficulty check.
type ChainReader interface {
	Config() *params.ChainConfig
	Genesis() *types.Block

	GetHeaderByHash(hash common.Hash) *types.Header
	GetHeaderByNumber(number uint64) *types.Header
	GetBlockByHash(hash common.Hash) *types.Block
	GetTd(hash common.Hash) *big.Int
	HasBlock(hash common.Hash) bool

	CurrentHeader() *types.Header
	CurrentBlock() *types.Header
	CurrentFinalBlock() *types.Header
	CurrentSafeBlock() *types.Header
}

// ChainWriter exposes the mutating operations the driver performs: buffering
// a side header/block without disturbing the canonical chain, and atomically
// repointing the canonical chain at a new head.
type ChainWriter interface {
	InsertHeader(header *types.Header) error
	InsertBlockWithoutSetHead(block *types.Block) error
	SetCanonical(hash common.Hash) (common.Hash, error)
	SetFinalized(hash common.Hash)
	SetSafe(hash common.Hash)
}

// BlockChain is an in-memory chain database standing in for the real
// database-backed blockchain; it keeps every header/block it has ever seen
// (canonical or not) and a single canonical number->hash index that
// SetCanonical rewrites during a reorg.
type BlockChain struct {
	config *params.ChainConfig

	mu sync.RWMutex

	headers map[common.Hash]*types.Header
	blocks  map[common.Hash]*types.Block
	tds     map[common.Hash]*big.Int

	canonical map[uint64]common.Hash // number -> canonical hash

	genesis         common.Hash
	headHash        common.Hash
	finalizedHash   common.Hash
	safeHash        common.Hash
}

// NewBlockChain creates a BlockChain seeded with the given genesis block.
func NewBlockChain(config *params.ChainConfig, genesis *types.Block) *BlockChain {
	bc := &BlockChain{
		config:    config,
		headers:   make(map[common.Hash]*types.Header),
		blocks:    make(map[common.Hash]*types.Block),
		tds:       make(map[common.Hash]*big.Int),
		canonical: make(map[uint64]common.Hash),
	}
	h := genesis.Hash()
	bc.headers[h] = genesis.Header()
	bc.blocks[h] = genesis
	bc.tds[h] = new(big.Int).Set(genesis.Difficulty())
	bc.canonical[genesis.NumberU64()] = h
	bc.genesis = h
	bc.headHash = h
	bc.finalizedHash = h
	bc.safeHash = h
	return bc
}

func (bc *BlockChain) Config() *params.ChainConfig { return bc.config }

func (bc *BlockChain) Genesis() *types.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.blocks[bc.genesis]
}

func (bc *BlockChain) GetHeaderByHash(hash common.Hash) *types.Header {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.headers[hash]
}

func (bc *BlockChain) GetHeaderByNumber(number uint64) *types.Header {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	hash, ok := bc.canonical[number]
	if !ok {
		return nil
	}
	return bc.headers[hash]
}

func (bc *BlockChain) GetBlockByHash(hash common.Hash) *types.Block {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.blocks[hash]
}

func (bc *BlockChain) GetTd(hash common.Hash) *big.Int {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if td, ok := bc.tds[hash]; ok {
		return new(big.Int).Set(td)
	}
	return nil
}

func (bc *BlockChain) HasBlock(hash common.Hash) bool {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	_, ok := bc.blocks[hash]
	return ok
}

func (bc *BlockChain) CurrentHeader() *types.Header {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.headers[bc.headHash]
}

func (bc *BlockChain) CurrentBlock() *types.Header {
	return bc.CurrentHeader()
}

func (bc *BlockChain) CurrentFinalBlock() *types.Header {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.headers[bc.finalizedHash]
}

func (bc *BlockChain) CurrentSafeBlock() *types.Header {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	return bc.headers[bc.safeHash]
}

// InsertHeader buffers header as a known side header, computing its total
// difficulty from its parent. The parent must already be known. It does not
// affect the canonical chain.
func (bc *BlockChain) InsertHeader(header *types.Header) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.insertHeaderLocked(header)
}

func (bc *BlockChain) insertHeaderLocked(header *types.Header) error {
	hash := header.Hash()
	if _, ok := bc.headers[hash]; ok {
		return nil // already known
	}
	parentTd, ok := bc.tds[header.ParentHash]
	if !ok {
		return ErrUnknownAncestor
	}
	bc.headers[hash] = header
	bc.tds[hash] = new(big.Int).Add(parentTd, header.Difficulty)
	return nil
}

// InsertBlockWithoutSetHead buffers a full block (header + body) as a known
// side block without touching the canonical index.
func (bc *BlockChain) InsertBlockWithoutSetHead(block *types.Block) error {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if err := bc.insertHeaderLocked(block.Header()); err != nil {
		return err
	}
	bc.blocks[block.Hash()] = block
	return nil
}

// LatestValidAncestor walks back from hash, following parent pointers,
// until it reaches a block whose total difficulty is at or beyond ttd,
// returning that block's hash. If the whole chain back to genesis is
// pre-Merge (or hash is unknown), it returns the zero hash.
func (bc *BlockChain) LatestValidAncestor(hash common.Hash, ttd *big.Int) common.Hash {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	if ttd == nil {
		return common.Hash{}
	}
	for {
		header, ok := bc.headers[hash]
		if !ok {
			return common.Hash{}
		}
		if td, ok := bc.tds[hash]; ok && td.Cmp(ttd) >= 0 {
			return hash
		}
		if header.Number.Sign() == 0 {
			return common.Hash{}
		}
		hash = header.ParentHash
	}
}

// InsertSideBlock replays block's transactions against its parent's
// post-state through executor, then checks the resulting state root against
// the root the block itself declares. On a match it buffers the block as a
// known side block exactly like InsertBlockWithoutSetHead; on a mismatch it
// returns ErrStateMismatch and the block is not persisted.
func (bc *BlockChain) InsertSideBlock(executor StateExecutor, block *types.Block) error {
	header := block.Header()
	gp := new(GasPool).AddGas(header.GasLimit)
	receipts := make(types.Receipts, 0, len(block.Transactions()))
	for i, tx := range block.Transactions() {
		snap := executor.Snapshot()
		receipt, err := executor.ApplyTransaction(header, tx, gp)
		if err != nil {
			executor.RevertToSnapshot(snap)
			return fmt.Errorf("transaction %d: %w", i, err)
		}
		receipts = append(receipts, receipt)
	}
	stateRoot, err := executor.Finalize(header, block.Transactions(), receipts, block.Withdrawals())
	if err != nil {
		return err
	}
	if stateRoot != block.Root() {
		return fmt.Errorf("%w: have %x, want %x", ErrStateMismatch, stateRoot, block.Root())
	}
	return bc.InsertBlockWithoutSetHead(block)
}

// SetCanonical repoints the canonical chain at hash, which must already be a
// known block. It walks back from hash to the first block that is already
// canonical at its number (the common ancestor), overwrites the canonical
// number index for every block between the ancestor and the new head, and
// drops the old chain's index entries above the new head's number. It
// returns the previous canonical head.
func (bc *BlockChain) SetCanonical(hash common.Hash) (common.Hash, error) {
	bc.mu.Lock()
	defer bc.mu.Unlock()

	block, ok := bc.blocks[hash]
	if !ok {
		return common.Hash{}, fmt.Errorf("non-canonical ancestor (%x) unknown", hash)
	}
	oldHead := bc.headHash
	if hash == oldHead {
		return oldHead, nil
	}

	// Collect the new chain's hashes from `hash` back to the block whose
	// number is already canonical and whose hash matches (the common
	// ancestor), rewriting the index for every block strictly above it.
	var newChain []common.Hash
	cur := block
	for {
		curHash := cur.Hash()
		if canon, ok := bc.canonical[cur.NumberU64()]; ok && canon == curHash {
			break
		}
		newChain = append(newChain, curHash)
		if cur.NumberU64() == 0 {
			break
		}
		parent, ok := bc.blocks[cur.ParentHash()]
		if !ok {
			return common.Hash{}, fmt.Errorf("missing parent %x while rewriting canonical chain", cur.ParentHash())
		}
		cur = parent
	}
	for _, h := range newChain {
		b := bc.blocks[h]
		bc.canonical[b.NumberU64()] = h
	}
	// Drop now-stale canonical entries above the new head's number that
	// belonged to the old chain only.
	for n := block.NumberU64() + 1; ; n++ {
		old, ok := bc.canonical[n]
		if !ok {
			break
		}
		if old == oldHead {
			delete(bc.canonical, n)
			break
		}
		delete(bc.canonical, n)
	}
	bc.headHash = hash
	log.Info("Chain head set", "number", block.NumberU64(), "hash", hash)
	return oldHead, nil
}

func (bc *BlockChain) SetFinalized(hash common.Hash) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.finalizedHash = hash
}

func (bc *BlockChain) SetSafe(hash common.Hash) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.safeHash = hash
}
