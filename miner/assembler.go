// Copyright 2015 The go-ethereum Authors
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

// Package miner implements the payload assembler that fills a block from
// the transaction pool, and the pre-Merge sealing loop that races to
// produce blocks until the terminal total difficulty latches.
package miner

import (
	"math/big"
	"sync"
	"time"

	"engineapi/beacon/engine"
	"engineapi/common"
	"engineapi/consensus"
	"engineapi/consensus/misc"
	"engineapi/core"
	"engineapi/core/txpool"
	"engineapi/core/types"
	"engineapi/log"
	"engineapi/trie"
)

// Assembler builds candidate blocks on top of a given parent, either for
// local sealing (pre-Merge) or in response to a forkchoiceUpdated payload
// request (post-Merge).
type Assembler struct {
	chain    *core.BlockChain
	pool     txpool.Pool
	executor core.StateExecutor
	engine   consensus.Engine

	headMu sync.Mutex
	head   *types.Header // parent the pool was last rebased onto
}

// NewAssembler creates an Assembler wired to the given chain, pool, state
// executor and consensus engine.
func NewAssembler(chain *core.BlockChain, pool txpool.Pool, executor core.StateExecutor, engine consensus.Engine) *Assembler {
	return &Assembler{chain: chain, pool: pool, executor: executor, engine: engine}
}

// Executor returns the state executor the assembler replays transactions
// against, so other components (the Engine API driver's chain inserter) can
// share the same executor instead of standing up a second one.
func (a *Assembler) Executor() core.StateExecutor { return a.executor }

// env bundles the state accumulated while filling a single block, mirroring
// the scratch "Work"/"environment" struct that commitTransaction(s) mutates
// in place as it walks the transaction pool.
type env struct {
	header   *types.Header
	gasPool  *core.GasPool
	txs      types.Transactions
	receipts types.Receipts
	tcount   int
	fees     *big.Int
}

// BuildEmpty assembles a block with no transactions, used as the immediate
// fallback result for a payload build job before the full assembly
// completes or if it times out.
func (a *Assembler) BuildEmpty(parent *types.Header, attrs *engine.PayloadAttributes) (*types.Block, *big.Int, error) {
	header := a.prepareHeader(parent, attrs)
	block, err := a.engine.FinalizeAndAssemble(a.chain, header, nil, nil, attrs.Withdrawals)
	if err != nil {
		return nil, nil, err
	}
	return block, new(big.Int), nil
}

func (a *Assembler) prepareHeader(parent *types.Header, attrs *engine.PayloadAttributes) *types.Header {
	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(parent.Number, big.NewInt(1)),
		GasLimit:   parent.GasLimit,
		Time:       attrs.Timestamp,
		Extra:      make([]byte, 0),
		Difficulty: new(big.Int),
		Coinbase:   attrs.SuggestedFeeRecipient,
		MixDigest:  attrs.Random,
	}
	header.BaseFee = misc.CalcBaseFee(a.chain.Config(), parent)
	_ = a.engine.Prepare(a.chain, header)
	return header
}

// BuildPayload fills a block on top of parent using attrs and the
// transaction pool's current pending set, applying transactions in
// descending effective-tip order until the gas pool or the pool itself runs
// dry.
func (a *Assembler) BuildPayload(parent *types.Header, attrs *engine.PayloadAttributes) (*types.Block, *big.Int, error) {
	a.rebaseIfNeeded(parent)
	header := a.prepareHeader(parent, attrs)
	return a.fillAndAssemble(header, attrs.Withdrawals)
}

// BuildBlock fills a block on top of parent for local pre-Merge sealing: no
// consensus-layer payload attributes exist yet, so the coinbase, timestamp
// and difficulty all come from this node's own miner configuration and the
// wrapped consensus engine instead.
func (a *Assembler) BuildBlock(parent *types.Header, etherbase common.Address, extra []byte) (*types.Block, *big.Int, error) {
	a.rebaseIfNeeded(parent)
	header := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(parent.Number, big.NewInt(1)),
		GasLimit:   parent.GasLimit,
		Time:       uint64(time.Now().Unix()),
		Extra:      extra,
		Coinbase:   etherbase,
	}
	header.BaseFee = misc.CalcBaseFee(a.chain.Config(), parent)
	header.Difficulty = a.engine.CalcDifficulty(a.chain, header.Time, parent)
	if err := a.engine.Prepare(a.chain, header); err != nil {
		return nil, nil, err
	}
	return a.fillAndAssemble(header, nil)
}

// rebaseIfNeeded nudges the transaction pool to rebase onto parent if it is
// not the head the pool last tracked, so the pending set fillAndAssemble
// reads reflects the chain it is about to build on rather than a stale or
// since-orphaned head.
func (a *Assembler) rebaseIfNeeded(parent *types.Header) {
	a.headMu.Lock()
	old := a.head
	a.head = parent
	a.headMu.Unlock()
	if old != nil && old.Hash() == parent.Hash() {
		return
	}
	a.pool.Reset(old, parent)
}

func (a *Assembler) fillAndAssemble(header *types.Header, withdrawals types.Withdrawals) (*types.Block, *big.Int, error) {
	e := &env{
		header:  header,
		gasPool: new(core.GasPool).AddGas(header.GasLimit),
		fees:    new(big.Int),
	}

	pending := a.pool.Pending(txpool.PendingFilter{BaseFee: header.BaseFee})
	txs := types.NewTransactionsByPriceAndNonce(pending, header.BaseFee)

	for {
		if e.gasPool.Gas() < 21000 {
			break
		}
		tx := txs.Peek()
		if tx == nil {
			break
		}
		if err := a.commitTransaction(e, tx); err != nil {
			switch err {
			case core.ErrGasLimitReached:
				txs.Pop()
			case core.ErrNonceTooLow:
				txs.Shift()
			case core.ErrNonceTooHigh:
				txs.Pop()
			default:
				log.Trace("Skipping transaction while building block", "hash", tx.Hash(), "err", err)
				txs.Shift()
			}
			continue
		}
		txs.Shift()
	}

	header.GasUsed = header.GasLimit - uint64(*e.gasPool)
	header.TxHash = trie.DeriveSha(e.txs)
	header.ReceiptHash = trie.DeriveSha(e.receipts)
	header.Bloom = types.CreateBloom(e.receipts)

	stateRoot, err := a.executor.Finalize(header, e.txs, e.receipts, withdrawals)
	if err != nil {
		return nil, nil, err
	}
	header.Root = stateRoot

	block, err := a.engine.FinalizeAndAssemble(a.chain, header, e.txs, e.receipts, withdrawals)
	if err != nil {
		return nil, nil, err
	}
	return block, e.fees, nil
}

func (a *Assembler) commitTransaction(e *env, tx *types.Transaction) error {
	snap := a.executor.Snapshot()
	receipt, err := a.executor.ApplyTransaction(e.header, tx, e.gasPool)
	if err != nil {
		a.executor.RevertToSnapshot(snap)
		return err
	}
	e.txs = append(e.txs, tx)
	e.receipts = append(e.receipts, receipt)
	e.tcount++
	tip, _ := tx.EffectiveGasTip(e.header.BaseFee)
	if tip != nil {
		e.fees.Add(e.fees, new(big.Int).Mul(tip, new(big.Int).SetUint64(receipt.GasUsed)))
	}
	return nil
}

