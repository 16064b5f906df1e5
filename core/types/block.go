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

package types

import (
	"math/big"
	"sync/atomic"

	"engineapi/common"
)

// Body holds the non-header content of a block: transactions and, from
// EIP-4895 onward, withdrawals. Uncles are always empty post-London for this
// driver's purposes and are not represented.
type Body struct {
	Transactions []*Transaction
	Withdrawals  []*Withdrawal
}

// Block represents a block in the canonical or a side chain. Blocks are
// immutable once constructed; a reorg replaces the canonical pointer rather
// than mutating a Block in place.
type Block struct {
	header       *Header
	transactions Transactions
	withdrawals  Withdrawals

	hash atomic.Value
	size atomic.Value
}

// NewBlockWithHeader creates a block with the given header, deep-copied, and
// no body. Use WithBody to attach transactions and withdrawals.
func NewBlockWithHeader(header *Header) *Block {
	return &Block{header: CopyHeader(header)}
}

// WithBody returns a copy of the block with the given transactions and
// withdrawals attached.
func (b *Block) WithBody(transactions []*Transaction, withdrawals []*Withdrawal) *Block {
	block := &Block{
		header:       CopyHeader(b.header),
		transactions: make(Transactions, len(transactions)),
		withdrawals:  make(Withdrawals, len(withdrawals)),
	}
	copy(block.transactions, transactions)
	copy(block.withdrawals, withdrawals)
	return block
}

func (b *Block) Header() *Header { return CopyHeader(b.header) }

func (b *Block) Hash() common.Hash {
	if hash := b.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	h := b.header.Hash()
	b.hash.Store(h)
	return h
}

func (b *Block) ParentHash() common.Hash  { return b.header.ParentHash }
func (b *Block) Coinbase() common.Address { return b.header.Coinbase }
func (b *Block) Root() common.Hash        { return b.header.Root }
func (b *Block) TxHash() common.Hash      { return b.header.TxHash }
func (b *Block) ReceiptHash() common.Hash { return b.header.ReceiptHash }
func (b *Block) Bloom() Bloom             { return b.header.Bloom }
func (b *Block) MixDigest() common.Hash   { return b.header.MixDigest }
func (b *Block) Nonce() uint64            { return b.header.Nonce.Uint64() }
func (b *Block) Extra() []byte            { return common.CopyBytes(b.header.Extra) }
func (b *Block) GasLimit() uint64         { return b.header.GasLimit }
func (b *Block) GasUsed() uint64          { return b.header.GasUsed }
func (b *Block) Time() uint64             { return b.header.Time }

func (b *Block) Number() *big.Int     { return new(big.Int).Set(b.header.Number) }
func (b *Block) NumberU64() uint64    { return b.header.Number.Uint64() }
func (b *Block) Difficulty() *big.Int { return new(big.Int).Set(b.header.Difficulty) }

func (b *Block) BaseFee() *big.Int {
	if b.header.BaseFee == nil {
		return nil
	}
	return new(big.Int).Set(b.header.BaseFee)
}

func (b *Block) WithdrawalsHash() *common.Hash { return b.header.WithdrawalsHash }

func (b *Block) Transactions() Transactions { return b.transactions }
func (b *Block) Withdrawals() Withdrawals   { return b.withdrawals }

// Size returns the block's cached encoded size. It does not encode the block
// itself, and nothing in this package stores a size, so it returns 0 unless
// a value has been cached.
func (b *Block) Size() uint64 {
	if size := b.size.Load(); size != nil {
		return size.(uint64)
	}
	return 0
}
