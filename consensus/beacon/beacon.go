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

// Package beacon wraps a pre-Merge consensus engine so that, once the
// network has transitioned, sealing becomes the no-op it is under
// proof-of-stake: the consensus layer dictates blocks via the Engine API
// rather than this process racing to produce one.
package beacon

import (
	"errors"
	"math/big"

	"engineapi/common"
	"engineapi/consensus"
	"engineapi/core/types"
)

var errPoSSeal = errors.New("post-merge blocks are not locally sealed")

// Beacon wraps an inner PoW/PoA engine, delegating pre-Merge blocks to it and
// handling post-Merge blocks (zero difficulty) itself.
type Beacon struct {
	inner consensus.Engine
}

// New wraps inner as a post-Merge-aware consensus engine.
func New(inner consensus.Engine) *Beacon {
	return &Beacon{inner: inner}
}

// IsPoSHeader reports whether a header was produced under proof-of-stake,
// i.e. it carries zero difficulty.
func IsPoSHeader(header *types.Header) bool {
	return header.Difficulty != nil && header.Difficulty.Sign() == 0
}

func (b *Beacon) Author(header *types.Header) (common.Address, error) {
	if IsPoSHeader(header) {
		return header.Coinbase, nil
	}
	return b.inner.Author(header)
}

func (b *Beacon) Prepare(chain consensus.ChainHeaderReader, header *types.Header) error {
	if IsPoSHeader(header) {
		header.Difficulty = common.Big0
		return nil
	}
	return b.inner.Prepare(chain, header)
}

func (b *Beacon) Finalize(chain consensus.ChainHeaderReader, header *types.Header, txs types.Transactions, withdrawals types.Withdrawals) {
	if IsPoSHeader(header) {
		return
	}
	b.inner.Finalize(chain, header, txs, withdrawals)
}

func (b *Beacon) FinalizeAndAssemble(chain consensus.ChainHeaderReader, header *types.Header, txs types.Transactions, receipts types.Receipts, withdrawals types.Withdrawals) (*types.Block, error) {
	if IsPoSHeader(header) {
		return types.NewBlockWithHeader(header).WithBody(txs, withdrawals), nil
	}
	return b.inner.FinalizeAndAssemble(chain, header, txs, receipts, withdrawals)
}

// Seal refuses to locally seal a post-Merge block: production is driven by
// getPayload, never by a background miner loop racing for a nonce.
func (b *Beacon) Seal(chain consensus.ChainHeaderReader, block *types.Block, results chan<- *types.Block, stop <-chan struct{}) error {
	if IsPoSHeader(block.Header()) {
		return errPoSSeal
	}
	return b.inner.Seal(chain, block, results, stop)
}

func (b *Beacon) CalcDifficulty(chain consensus.ChainHeaderReader, time uint64, parent *types.Header) *big.Int {
	if IsPoSHeader(parent) {
		return common.Big0
	}
	return b.inner.CalcDifficulty(chain, time, parent)
}

func (b *Beacon) Close() error {
	return b.inner.Close()
}
