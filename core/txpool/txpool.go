// Copyright 2014 The go-ethereum Authors
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

// Package txpool defines the contract the payload assembler uses to pull
// pending transactions when building a block. The pool itself — mempool
// admission, replacement, eviction and propagation — is an external
// collaborator; this package only carries the shape of its read surface.
package txpool

import (
	"math/big"

	"engineapi/common"
	"engineapi/core/types"
)

// PendingFilter narrows down the Pending call: BaseFee excludes
// transactions that can no longer pay the block's base fee, and OnlyPlainTxs
// excludes any transaction type the assembler isn't prepared to include.
type PendingFilter struct {
	MinTip       *big.Int
	BaseFee      *big.Int
	OnlyPlainTxs bool
}

// Pool is the read surface of a transaction pool that the payload assembler
// depends on.
type Pool interface {
	// Pending returns the currently processable transactions, grouped by
	// sender address and ordered by nonce within each group.
	Pending(filter PendingFilter) map[common.Address][]*types.Transaction

	// Get returns a transaction by hash if the pool is tracking it.
	Get(hash common.Hash) *types.Transaction

	// Reset notifies the pool that the chain head it should track has moved
	// from oldHead to newHead, so it can drop transactions the new head's
	// ancestry already includes and re-admit ones that a reorg orphaned.
	Reset(oldHead, newHead *types.Header)
}
