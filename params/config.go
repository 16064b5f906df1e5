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

package params

import (
	"math/big"

	"engineapi/common"
)

// ChainConfig describes the fork configuration a block chain is running
// against. Only the fields the Engine API driver and sealing subsystem care
// about are represented here; fork numbers that gate EVM semantics are an
// external collaborator's concern.
type ChainConfig struct {
	ChainID *big.Int `json:"chainId"`

	LondonBlock *big.Int `json:"londonBlock,omitempty"` // EIP-1559 base fee activation

	// TerminalTotalDifficulty is the total difficulty at which the network
	// transitions from proof-of-work to proof-of-stake. A nil value means
	// the chain never merges.
	TerminalTotalDifficulty *big.Int `json:"terminalTotalDifficulty,omitempty"`

	// TerminalBlockHash and TerminalBlockNumber, if set, record the exact PoW
	// block the merge occurred at. No code in this module reads them:
	// exchangeTransitionConfiguration checks a terminal block supplied by the
	// consensus client against the local canonical chain instead.
	TerminalBlockHash   common.Hash `json:"terminalBlockHash,omitempty"`
	TerminalBlockNumber *big.Int    `json:"terminalBlockNumberOrHash,omitempty"`

	ShanghaiTime *uint64 `json:"shanghaiTime,omitempty"` // withdrawals activation
}

// IsLondon reports whether num is either equal to the London fork block or
// greater.
func (c *ChainConfig) IsLondon(num *big.Int) bool {
	return isBlockForked(c.LondonBlock, num)
}

// IsShanghai reports whether time is either equal to the Shanghai fork time
// or greater.
func (c *ChainConfig) IsShanghai(time uint64) bool {
	return c.ShanghaiTime != nil && time >= *c.ShanghaiTime
}

// TerminalTotalDifficultyPassed reports whether td is at or beyond the
// configured terminal total difficulty. A chain with no configured TTD never
// reports passed.
func (c *ChainConfig) TerminalTotalDifficultyPassed(td *big.Int) bool {
	if c.TerminalTotalDifficulty == nil || td == nil {
		return false
	}
	return td.Cmp(c.TerminalTotalDifficulty) >= 0
}

func isBlockForked(s, head *big.Int) bool {
	if s == nil || head == nil {
		return false
	}
	return s.Cmp(head) <= 0
}
