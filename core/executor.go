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

	"engineapi/common"
	"engineapi/core/types"
)

// ErrNonceTooLow and ErrNonceTooHigh mirror the state transition errors a
// real EVM/state executor would return while the assembler walks the
// transaction pool's priced-and-nonced heap; they let the assembler decide
// whether to skip or pop a sender's next transaction.
var (
	ErrNonceTooLow  = errors.New("nonce too low")
	ErrNonceTooHigh = errors.New("nonce too high")
)

// StateExecutor is the contract the payload assembler and chain inserter use
// to run transactions against world state and finalize a block's state root.
// This system treats the EVM and state database as an external collaborator
// reachable only through this interface; no implementation of it lives here.
type StateExecutor interface {
	// HasState reports whether the state trie rooted at root is available.
	HasState(root common.Hash) bool

	// Snapshot and RevertToSnapshot bracket a speculative transaction
	// application so a failed commit can be rolled back without discarding
	// the rest of the block under construction.
	Snapshot() int
	RevertToSnapshot(id int)

	// ApplyTransaction executes tx against the state rooted at the block
	// being built, deducting its gas from gp and returning the receipt it
	// produced.
	ApplyTransaction(header *types.Header, tx *types.Transaction, gp *GasPool) (*types.Receipt, error)

	// Finalize applies any end-of-block state changes (e.g. withdrawals)
	// and returns the resulting state root.
	Finalize(header *types.Header, txs types.Transactions, receipts types.Receipts, withdrawals types.Withdrawals) (common.Hash, error)
}

// ExecutionResult summarizes the outcome of running a batch of transactions
// against a StateExecutor while assembling a block.
type ExecutionResult struct {
	Transactions types.Transactions
	Receipts     types.Receipts
	GasUsed      uint64
	StateRoot    common.Hash
}
