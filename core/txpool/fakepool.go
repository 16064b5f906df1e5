package txpool

import (
	"engineapi/common"
	"engineapi/core/types"
)

// FakePool is a trivial Pool used by driver and assembler tests. It holds a
// fixed set of transactions grouped by sender and ignores the filter's base
// fee (tests construct transactions with a fee cap they know will clear it).
type FakePool struct {
	bySender map[common.Address][]*types.Transaction
	byHash   map[common.Hash]*types.Transaction

	resets []ResetCall
}

// ResetCall records one invocation of Reset, so tests can assert the
// assembler nudged the pool when it rebased onto a new parent.
type ResetCall struct {
	OldHead, NewHead *types.Header
}

// NewFakePool builds a FakePool from the given sender->transactions map.
func NewFakePool(bySender map[common.Address][]*types.Transaction) *FakePool {
	p := &FakePool{bySender: bySender, byHash: make(map[common.Hash]*types.Transaction)}
	for _, txs := range bySender {
		for _, tx := range txs {
			p.byHash[tx.Hash()] = tx
		}
	}
	return p
}

func (p *FakePool) Pending(PendingFilter) map[common.Address][]*types.Transaction {
	return p.bySender
}

func (p *FakePool) Get(hash common.Hash) *types.Transaction {
	return p.byHash[hash]
}

func (p *FakePool) Reset(oldHead, newHead *types.Header) {
	p.resets = append(p.resets, ResetCall{OldHead: oldHead, NewHead: newHead})
}

// Resets returns every Reset call the pool has recorded so far.
func (p *FakePool) Resets() []ResetCall {
	return p.resets
}
