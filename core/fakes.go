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
	"engineapi/common"
	"engineapi/core/types"
	"engineapi/crypto"
	"engineapi/trie"
)

// FakeExecutor is a minimal StateExecutor used in tests of the driver and
// sealing subsystem. It never touches real state: every transaction whose
// own gas limit covers the fixed gas cost succeeds while the gas pool still
// holds that cost, and the state root is a deterministic digest of the
// block's parent hash and transaction root, so multiple runs over the same
// inputs are reproducible without a real trie.
type FakeExecutor struct {
	// GasPerTx is charged for every transaction regardless of its own Gas
	// field, keeping test fixtures simple to reason about.
	GasPerTx uint64
	snapshot int
}

// NewFakeExecutor returns a FakeExecutor charging gasPerTx for every applied
// transaction.
func NewFakeExecutor(gasPerTx uint64) *FakeExecutor {
	return &FakeExecutor{GasPerTx: gasPerTx}
}

func (e *FakeExecutor) HasState(common.Hash) bool { return true }

func (e *FakeExecutor) Snapshot() int {
	e.snapshot++
	return e.snapshot
}

func (e *FakeExecutor) RevertToSnapshot(int) {}

func (e *FakeExecutor) ApplyTransaction(header *types.Header, tx *types.Transaction, gp *GasPool) (*types.Receipt, error) {
	cost := e.GasPerTx
	if cost == 0 {
		cost = 21000
	}
	if tx.Gas() < cost {
		return nil, ErrGasLimitReached
	}
	if err := gp.SubGas(cost); err != nil {
		return nil, err
	}
	receipt := &types.Receipt{
		Type:              tx.Type(),
		Status:            types.ReceiptStatusSuccessful,
		CumulativeGasUsed: header.GasUsed,
		TxHash:            tx.Hash(),
		GasUsed:           cost,
	}
	if tx.To() == nil {
		receipt.ContractAddress = common.BytesToAddress(crypto.Keccak256(tx.Hash().Bytes())[:20])
	}
	return receipt, nil
}

func (e *FakeExecutor) Finalize(header *types.Header, txs types.Transactions, receipts types.Receipts, withdrawals types.Withdrawals) (common.Hash, error) {
	digest := crypto.Keccak256(
		header.ParentHash.Bytes(),
		trie.DeriveSha(txs).Bytes(),
	)
	return common.BytesToHash(digest), nil
}
