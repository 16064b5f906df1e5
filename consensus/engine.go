// Copyright 2017 The go-ethereum Authors
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

// Package consensus defines the pluggable block-sealing contract shared by
// the pre-Merge proof-of-authority engine and the post-Merge beacon wrapper.
package consensus

import (
	"math/big"

	"engineapi/common"
	"engineapi/core/types"
)

// ChainHeaderReader is the minimal header-lookup surface an Engine needs to
// prepare and seal a block.
type ChainHeaderReader interface {
	GetHeaderByHash(hash common.Hash) *types.Header
	GetHeaderByNumber(number uint64) *types.Header
}

// Engine is a pluggable block-sealing algorithm. Clique implements it for
// pre-Merge proof-of-authority sealing; Beacon implements it by delegating
// everything to the consensus layer once the network has transitioned.
type Engine interface {
	// Author returns the address of the account that produced the block.
	Author(header *types.Header) (common.Address, error)

	// Prepare initializes the consensus fields of a header for sealing.
	Prepare(chain ChainHeaderReader, header *types.Header) error

	// Finalize applies any consensus rules, such as block rewards, without
	// assembling the final block.
	Finalize(chain ChainHeaderReader, header *types.Header, txs types.Transactions, withdrawals types.Withdrawals)

	// FinalizeAndAssemble runs Finalize and assembles the final block.
	FinalizeAndAssemble(chain ChainHeaderReader, header *types.Header, txs types.Transactions, receipts types.Receipts, withdrawals types.Withdrawals) (*types.Block, error)

	// Seal generates a sealing request for the given block and pushes the
	// result into the given channel once done, or returns an error if the
	// sealing job could not be submitted.
	Seal(chain ChainHeaderReader, block *types.Block, results chan<- *types.Block, stop <-chan struct{}) error

	// CalcDifficulty returns the difficulty for a new block at the given
	// time, relative to the parent block.
	CalcDifficulty(chain ChainHeaderReader, time uint64, parent *types.Header) *big.Int

	// Close terminates any background threads maintained by the consensus
	// engine.
	Close() error
}
