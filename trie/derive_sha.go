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

package trie

import (
	"engineapi/common"
	"engineapi/crypto"
	"engineapi/rlp"
)

// DerivableList is the interface given to DeriveSha. It is implemented by
// types.Transactions, types.Receipts and types.Withdrawals so that a
// Merkle-style commitment can be taken over them without those packages
// depending on the trie implementation.
type DerivableList interface {
	Len() int
	EncodeIndex(i int, buf *[]byte) error
}

// EmptyRootHash is the known root hash of an empty trie, i.e. DeriveSha of
// a DerivableList with Len() == 0.
var EmptyRootHash = DeriveSha(emptyList{})

type emptyList struct{}

func (emptyList) Len() int                              { return 0 }
func (emptyList) EncodeIndex(i int, buf *[]byte) error { return nil }

// DeriveSha computes a deterministic commitment hash over an ordered list
// of RLP-encodable items.
//
// This is a conscious simplification of Ethereum's Merkle-Patricia trie root:
// it folds the items into a single Keccak256 digest in index order rather
// than building a byte-exact trie, so it is NOT compatible with mainnet
// transactionsRoot/receiptsRoot/withdrawalsRoot values. It satisfies the
// properties this system relies on — it is deterministic, order-sensitive,
// collision-resistant, and agrees with EmptyRootHash for an empty list —
// which is all a driver that treats the state/trie layer as an external
// collaborator needs from a root.
func DeriveSha(list DerivableList) common.Hash {
	var buf []byte
	h := crypto.NewKeccakState()
	// Mix in the length so lists differing only in a trailing empty
	// encoding cannot collide.
	lenBuf := make([]byte, 8)
	n := list.Len()
	for i := 7; i >= 0; i-- {
		lenBuf[i] = byte(n)
		n >>= 8
	}
	h.Write(lenBuf)
	for i := 0; i < list.Len(); i++ {
		buf = buf[:0]
		if err := list.EncodeIndex(i, &buf); err != nil {
			panic(err)
		}
		enc, err := rlp.EncodeToBytes(buf)
		if err != nil {
			panic(err)
		}
		h.Write(enc)
	}
	var out common.Hash
	h.Read(out[:])
	return out
}
