// Copyright 2016 The go-ethereum Authors
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

package types

import (
	"container/heap"
	"math/big"

	"engineapi/common"
)

// txByPriceHeap is a max-heap of transactions ordered by effective gas tip,
// one entry per sender (the head of that sender's remaining queue).
type txByPriceHeap []*Transaction

func (h txByPriceHeap) Len() int { return len(h) }
func (h txByPriceHeap) Less(i, j int) bool {
	return h[i].effectiveTip.Cmp(h[j].effectiveTip) > 0
}
func (h txByPriceHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *txByPriceHeap) Push(x interface{}) {
	*h = append(*h, x.(*Transaction))
}

func (h *txByPriceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	tx := old[n-1]
	*h = old[:n-1]
	return tx
}

// TransactionsByPriceAndNonce represents a set of transactions that can be
// sorted by effective gas price, while preserving per-sender nonce order.
// It is the iteration order the payload assembler walks while filling a
// block: the highest-tipping sender's next transaction is always offered
// first.
type TransactionsByPriceAndNonce struct {
	txs   map[common.Address][]*Transaction
	heads txByPriceHeap
	baseFee *big.Int
}

// NewTransactionsByPriceAndNonce creates a transaction set ordered by price
// that can be retrieved in a nonce-honouring way. Senders whose first
// (lowest-nonce) transaction cannot clear baseFee are dropped entirely.
func NewTransactionsByPriceAndNonce(txs map[common.Address][]*Transaction, baseFee *big.Int) *TransactionsByPriceAndNonce {
	heads := make(txByPriceHeap, 0, len(txs))
	remaining := make(map[common.Address][]*Transaction, len(txs))
	for from, accTxs := range txs {
		if len(accTxs) == 0 {
			continue
		}
		tip, err := accTxs[0].EffectiveGasTip(baseFee)
		if err != nil {
			continue
		}
		accTxs[0].effectiveTip = tip
		heads = append(heads, accTxs[0])
		remaining[from] = accTxs[1:]
	}
	heap.Init(&heads)
	return &TransactionsByPriceAndNonce{txs: remaining, heads: heads, baseFee: baseFee}
}

// Peek returns the next transaction by price.
func (t *TransactionsByPriceAndNonce) Peek() *Transaction {
	if len(t.heads) == 0 {
		return nil
	}
	return t.heads[0]
}

// Shift replaces the current best head with the next transaction from the
// same sender, if one remains with a viable effective tip.
func (t *TransactionsByPriceAndNonce) Shift() {
	if len(t.heads) == 0 {
		return
	}
	cur := t.heads[0]
	sender := senderOf(cur)
	if rest, ok := t.txs[sender]; ok && len(rest) > 0 {
		next := rest[0]
		if tip, err := next.EffectiveGasTip(t.baseFee); err == nil {
			next.effectiveTip = tip
			t.txs[sender] = rest[1:]
			t.heads[0] = next
			heap.Fix(&t.heads, 0)
			return
		}
	}
	delete(t.txs, sender)
	heap.Pop(&t.heads)
}

// Pop removes the sender of the current best transaction entirely,
// discarding the rest of their queue (used when a transaction fails for a
// reason that invalidates its later nonces, e.g. nonce-too-high never
// resolving).
func (t *TransactionsByPriceAndNonce) Pop() {
	if len(t.heads) == 0 {
		return
	}
	delete(t.txs, senderOf(t.heads[0]))
	heap.Pop(&t.heads)
}

// senderOf recovers which address a heap entry came from; since this
// simplified driver doesn't carry ECDSA sender recovery, the assembler is
// expected to have stamped it via SetSender when building the pending map.
func senderOf(tx *Transaction) common.Address {
	return tx.sender
}
