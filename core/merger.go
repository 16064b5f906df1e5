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
	"sync/atomic"

	"engineapi/log"
)

// Merger tracks the one-way PoW-to-PoS transition of a chain. It has two
// latches:
//
//   - td: flips once when total difficulty has passed the configured
//     terminal total difficulty, permanently disabling the sealing loop.
//   - finalized: flips once a post-TTD block has been finalized by the
//     consensus layer, after which the chain can no longer be treated as
//     "freshly transitioned" for any special-casing.
//
// Both latches are one-way: once set they never reset, matching the
// irreversibility of the real network's merge.
type Merger struct {
	td        uint32
	finalized uint32
}

// NewMerger creates a Merger in its pre-merge state.
func NewMerger() *Merger {
	return &Merger{}
}

// ReachTTD sets the total-difficulty latch. It is a no-op if already set.
func (m *Merger) ReachTTD() {
	if atomic.CompareAndSwapUint32(&m.td, 0, 1) {
		log.Info("Network total difficulty reached terminal total difficulty")
	}
}

// TDDReached reports whether the total-difficulty latch has been set.
//
// The name mirrors the historical call sites this behavior is grounded on;
// it means "terminal total difficulty reached".
func (m *Merger) TDDReached() bool {
	return atomic.LoadUint32(&m.td) != 0
}

// FinalizePoS sets the finalization latch. It is a no-op if already set, and
// implies the TTD latch is also set.
func (m *Merger) FinalizePoS() {
	if atomic.CompareAndSwapUint32(&m.finalized, 0, 1) {
		log.Info("Network finalized proof-of-stake transition")
	}
	atomic.StoreUint32(&m.td, 1)
}

// PoSFinalized reports whether the finalization latch has been set.
func (m *Merger) PoSFinalized() bool {
	return atomic.LoadUint32(&m.finalized) != 0
}
