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
	"engineapi/rlp"
)

func rlpDecodeInto(b []byte, val interface{}) error {
	return rlp.DecodeBytes(b, val)
}

// Transaction types, per EIP-2718.
const (
	LegacyTxType = iota
	AccessListTxType
	DynamicFeeTxType
)

// Transaction is the envelope holding either a legacy or an EIP-1559
// dynamic-fee transaction. The sealing subsystem and payload assembler only
// need enough of a transaction's shape to account gas and place it in a
// block; signature verification and state transition are an external
// collaborator's job.
type Transaction struct {
	inner TxData
	hash  atomic.Value

	// sender and effectiveTip are set by the payload assembler when it
	// pulls a transaction out of the pool; they are not part of the
	// transaction's canonical data and are never encoded or hashed.
	sender       common.Address
	effectiveTip *big.Int
}

// SetSender records the address that submitted tx to the pool. Since this
// driver treats signature recovery as an external collaborator's concern,
// the caller (the pool, or a test fixture) is the source of truth for it.
func (tx *Transaction) SetSender(addr common.Address) {
	tx.sender = addr
}

// Sender returns the address previously recorded by SetSender.
func (tx *Transaction) Sender() common.Address {
	return tx.sender
}

// TxData is implemented by LegacyTx and DynamicFeeTx. It is the
// construction-time shape a caller (the pool, or a test fixture) hands to
// NewTx; the Transaction envelope around it is what the rest of this system
// actually works with.
type TxData interface {
	txType() byte
	chainID() *big.Int
	nonce() uint64
	gas() uint64
	gasPrice() *big.Int
	gasTipCap() *big.Int
	gasFeeCap() *big.Int
	to() *common.Address
	value() *big.Int
	data() []byte
	rawSignatureValues() (v, r, s *big.Int)
}

// LegacyTx is a pre-EIP-1559 transaction: a single gas price rather than a
// tip/fee-cap pair.
type LegacyTx struct {
	Nonce    uint64
	GasPrice *big.Int
	Gas      uint64
	To       *common.Address
	Value    *big.Int
	Data     []byte
	V, R, S  *big.Int
}

func (tx *LegacyTx) txType() byte             { return LegacyTxType }
func (tx *LegacyTx) chainID() *big.Int        { return nil }
func (tx *LegacyTx) nonce() uint64            { return tx.Nonce }
func (tx *LegacyTx) gas() uint64              { return tx.Gas }
func (tx *LegacyTx) gasPrice() *big.Int       { return tx.GasPrice }
func (tx *LegacyTx) gasTipCap() *big.Int      { return tx.GasPrice }
func (tx *LegacyTx) gasFeeCap() *big.Int      { return tx.GasPrice }
func (tx *LegacyTx) to() *common.Address      { return tx.To }
func (tx *LegacyTx) value() *big.Int          { return tx.Value }
func (tx *LegacyTx) data() []byte             { return tx.Data }
func (tx *LegacyTx) rawSignatureValues() (v, r, s *big.Int) { return tx.V, tx.R, tx.S }

// DynamicFeeTx is an EIP-1559 transaction, specifying a tip and a fee cap
// instead of a single gas price.
type DynamicFeeTx struct {
	ChainID    *big.Int
	Nonce      uint64
	GasTipCap  *big.Int
	GasFeeCap  *big.Int
	Gas        uint64
	To         *common.Address
	Value      *big.Int
	Data       []byte
	V, R, S    *big.Int
}

func (tx *DynamicFeeTx) txType() byte        { return DynamicFeeTxType }
func (tx *DynamicFeeTx) chainID() *big.Int   { return tx.ChainID }
func (tx *DynamicFeeTx) nonce() uint64       { return tx.Nonce }
func (tx *DynamicFeeTx) gas() uint64         { return tx.Gas }
func (tx *DynamicFeeTx) gasPrice() *big.Int  { return tx.GasFeeCap }
func (tx *DynamicFeeTx) gasTipCap() *big.Int { return tx.GasTipCap }
func (tx *DynamicFeeTx) gasFeeCap() *big.Int { return tx.GasFeeCap }
func (tx *DynamicFeeTx) to() *common.Address { return tx.To }
func (tx *DynamicFeeTx) value() *big.Int     { return tx.Value }
func (tx *DynamicFeeTx) data() []byte        { return tx.Data }
func (tx *DynamicFeeTx) rawSignatureValues() (v, r, s *big.Int) { return tx.V, tx.R, tx.S }

// NewTx creates a new transaction from an inner transaction body.
func NewTx(inner TxData) *Transaction {
	return &Transaction{inner: inner}
}

func (tx *Transaction) Type() byte          { return tx.inner.txType() }
func (tx *Transaction) ChainId() *big.Int   { return tx.inner.chainID() }
func (tx *Transaction) Nonce() uint64       { return tx.inner.nonce() }
func (tx *Transaction) Gas() uint64         { return tx.inner.gas() }
func (tx *Transaction) GasPrice() *big.Int  { return tx.inner.gasPrice() }
func (tx *Transaction) GasTipCap() *big.Int { return tx.inner.gasTipCap() }
func (tx *Transaction) GasFeeCap() *big.Int { return tx.inner.gasFeeCap() }
func (tx *Transaction) To() *common.Address { return tx.inner.to() }
func (tx *Transaction) Value() *big.Int     { return tx.inner.value() }
func (tx *Transaction) Data() []byte        { return tx.inner.data() }

// GasTipCapIntCmp compares the transaction's GasTipCap to other.
func (tx *Transaction) GasTipCapIntCmp(other *big.Int) int {
	return tx.GasTipCap().Cmp(other)
}

// EffectiveGasTip returns the effective miner gasTipCap for the given base
// fee: min(gasTipCap, gasFeeCap-baseFee). For legacy transactions this
// collapses to gasPrice-baseFee.
func (tx *Transaction) EffectiveGasTip(baseFee *big.Int) (*big.Int, error) {
	if baseFee == nil {
		return tx.GasTipCap(), nil
	}
	gasFeeCap := tx.GasFeeCap()
	if gasFeeCap.Cmp(baseFee) < 0 {
		return nil, ErrGasFeeCapTooLow
	}
	gasTipCap := tx.GasTipCap()
	possibleTip := new(big.Int).Sub(gasFeeCap, baseFee)
	if possibleTip.Cmp(gasTipCap) > 0 {
		possibleTip = gasTipCap
	}
	return possibleTip, nil
}

// Hash returns the transaction hash, computed lazily once and cached.
func (tx *Transaction) Hash() common.Hash {
	if hash := tx.hash.Load(); hash != nil {
		return hash.(common.Hash)
	}
	var h common.Hash
	if tx.Type() == LegacyTxType {
		h = rlpHash(tx.inner)
	} else {
		h = prefixedRlpHash(tx.Type(), tx.inner)
	}
	tx.hash.Store(h)
	return h
}

func prefixedRlpHash(prefix byte, x interface{}) common.Hash {
	enc, err := rlp.EncodeToBytes(x)
	if err != nil {
		panic(err)
	}
	return hashWithPrefix(prefix, enc)
}

// MarshalBinary returns the canonical envelope encoding of tx: a single type
// byte followed by the RLP encoding of the typed body, or the bare legacy RLP
// encoding for a legacy transaction.
func (tx *Transaction) MarshalBinary() ([]byte, error) {
	body, err := rlp.EncodeToBytes(tx.inner)
	if err != nil {
		return nil, err
	}
	if tx.Type() == LegacyTxType {
		return body, nil
	}
	return append([]byte{tx.Type()}, body...), nil
}

// UnmarshalBinary decodes the canonical envelope encoding into tx.
func (tx *Transaction) UnmarshalBinary(b []byte) error {
	if len(b) == 0 {
		return ErrTxTypeNotSupported
	}
	// A legacy transaction's RLP always opens with a list header (>= 0xc0);
	// anything below that byte range is a typed-envelope type marker.
	if b[0] >= 0xc0 {
		var inner LegacyTx
		if err := rlpDecodeInto(b, &inner); err != nil {
			return err
		}
		tx.inner = &inner
		return nil
	}
	switch b[0] {
	case DynamicFeeTxType:
		var inner DynamicFeeTx
		if err := rlpDecodeInto(b[1:], &inner); err != nil {
			return err
		}
		tx.inner = &inner
		return nil
	default:
		return ErrTxTypeNotSupported
	}
}

// Transactions implements trie.DerivableList for a slice of transactions.
type Transactions []*Transaction

func (s Transactions) Len() int { return len(s) }

// EncodeIndex encodes the i'th transaction to buf using its canonical
// envelope encoding.
func (s Transactions) EncodeIndex(i int, buf *[]byte) error {
	enc, err := s[i].MarshalBinary()
	if err != nil {
		return err
	}
	*buf = enc
	return nil
}

// TxDifference returns a new set of transactions that are present in a but
// not in b.
func TxDifference(a, b Transactions) Transactions {
	keep := make(Transactions, 0, len(a))
	remove := make(map[common.Hash]struct{}, len(b))
	for _, tx := range b {
		remove[tx.Hash()] = struct{}{}
	}
	for _, tx := range a {
		if _, ok := remove[tx.Hash()]; !ok {
			keep = append(keep, tx)
		}
	}
	return keep
}
