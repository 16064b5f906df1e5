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

// Package clique implements the pre-Merge proof-of-authority engine the
// sealing loop drives until the terminal total difficulty latches.
package clique

import (
	"errors"
	"math/big"
	"time"

	"engineapi/common"
	"engineapi/consensus"
	"engineapi/core/types"
	"engineapi/log"
)

// diffInTurn and diffNoTurn are the block difficulties for in-turn and
// out-of-turn signers, matching the real clique engine's constants.
var (
	diffInTurn = big.NewInt(2)
	diffNoTurn = big.NewInt(1)
)

var (
	errUnauthorizedSigner = errors.New("unauthorized signer")
	errUnknownBlock       = errors.New("unknown block")
)

// Config is the static proof-of-authority configuration: the fixed set of
// authorized signers and the target seconds between blocks.
type Config struct {
	Period  uint64
	Signers []common.Address
}

// Clique is a trivial, fixed-signer-set proof-of-authority engine. Real
// clique supports voting to add/remove signers via checkpoint headers and
// ECDSA-recoverable seals; this implementation keeps the round-robin
// in-turn/no-turn difficulty rule and the single-signer-per-slot invariant
// that the sealing loop and header validation actually depend on, and
// stands in for signature recovery with a plain address stamped in Extra.
type Clique struct {
	config *Config
	signer common.Address // this node's identity, if it is one of the authorized signers
}

// New creates a Clique engine for the given configuration.
func New(config *Config, signer common.Address) *Clique {
	return &Clique{config: config, signer: signer}
}

func (c *Clique) Author(header *types.Header) (common.Address, error) {
	return ecrecover(header)
}

func (c *Clique) signerIndex(addr common.Address) int {
	for i, s := range c.config.Signers {
		if s == addr {
			return i
		}
	}
	return -1
}

func (c *Clique) inTurn(number uint64, signer common.Address) bool {
	idx := c.signerIndex(signer)
	if idx < 0 || len(c.config.Signers) == 0 {
		return false
	}
	return number%uint64(len(c.config.Signers)) == uint64(idx)
}

func (c *Clique) Prepare(chain consensus.ChainHeaderReader, header *types.Header) error {
	header.Nonce = types.BlockNonce{}
	number := header.Number.Uint64()
	if c.inTurn(number, c.signer) {
		header.Difficulty = new(big.Int).Set(diffInTurn)
	} else {
		header.Difficulty = new(big.Int).Set(diffNoTurn)
	}
	parent := chain.GetHeaderByHash(header.ParentHash)
	if parent == nil {
		return errUnknownBlock
	}
	header.Time = parent.Time + c.config.Period
	if header.Time < uint64(time.Now().Unix()) {
		header.Time = uint64(time.Now().Unix())
	}
	header.Extra = append([]byte{}, c.signer[:]...)
	return nil
}

func (c *Clique) Finalize(chain consensus.ChainHeaderReader, header *types.Header, txs types.Transactions, withdrawals types.Withdrawals) {
	header.UncleHash = types.EmptyUncleHash
}

func (c *Clique) FinalizeAndAssemble(chain consensus.ChainHeaderReader, header *types.Header, txs types.Transactions, receipts types.Receipts, withdrawals types.Withdrawals) (*types.Block, error) {
	c.Finalize(chain, header, txs, withdrawals)
	return types.NewBlockWithHeader(header).WithBody(txs, withdrawals), nil
}

// Seal waits until it's this signer's turn, then delivers the sealed block
// on results, or returns early if stop is closed.
func (c *Clique) Seal(chain consensus.ChainHeaderReader, block *types.Block, results chan<- *types.Block, stop <-chan struct{}) error {
	header := block.Header()
	number := header.Number.Uint64()
	if c.signerIndex(c.signer) < 0 {
		return errUnauthorizedSigner
	}
	delay := time.Until(time.Unix(int64(header.Time), 0))
	if !c.inTurn(number, c.signer) {
		// Out-of-turn signers hang back to give the in-turn signer a head
		// start, matching real clique's wiggle delay.
		delay += time.Duration(len(c.config.Signers)/2+1) * 500 * time.Millisecond
	}
	log.Trace("Waiting for slot to sign and propagate", "delay", delay)
	select {
	case <-stop:
		return nil
	case <-time.After(delay):
	}
	select {
	case results <- block:
	default:
		log.Warn("Sealing result is not read by miner", "sealhash", header.Hash())
	}
	return nil
}

func (c *Clique) CalcDifficulty(chain consensus.ChainHeaderReader, time uint64, parent *types.Header) *big.Int {
	if c.inTurn(parent.Number.Uint64()+1, c.signer) {
		return new(big.Int).Set(diffInTurn)
	}
	return new(big.Int).Set(diffNoTurn)
}

func (c *Clique) Close() error { return nil }

// ecrecover extracts the signer address stamped into the header's Extra
// field by Prepare.
func ecrecover(header *types.Header) (common.Address, error) {
	if len(header.Extra) < common.AddressLength {
		return common.Address{}, errors.New("extra-data too short for signer")
	}
	return common.BytesToAddress(header.Extra[:common.AddressLength]), nil
}
