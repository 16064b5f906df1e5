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
	"engineapi/common"
	"engineapi/rlp"
)

const (
	ReceiptStatusFailed     = uint64(0)
	ReceiptStatusSuccessful = uint64(1)
)

// Receipt represents the results of a transaction, as produced by the state
// executor. The driver never computes these fields itself; it only carries
// them through from the executor to the assembled block and receipt root.
type Receipt struct {
	Type              uint8  `json:"type,omitempty"`
	PostState         []byte `json:"root"`
	Status            uint64 `json:"status"`
	CumulativeGasUsed uint64 `json:"cumulativeGasUsed"`
	Bloom             Bloom  `json:"logsBloom"`
	Logs              []*Log `json:"logs"`

	TxHash          common.Hash    `json:"transactionHash"`
	ContractAddress common.Address `json:"contractAddress"`
	GasUsed         uint64         `json:"gasUsed"`
}

// Receipts implements trie.DerivableList for a slice of receipts.
type Receipts []*Receipt

func (r Receipts) Len() int { return len(r) }

// EncodeIndex encodes the i'th receipt to buf.
func (r Receipts) EncodeIndex(i int, buf *[]byte) error {
	enc, err := rlp.EncodeToBytes(r[i])
	if err != nil {
		return err
	}
	*buf = enc
	return nil
}

// CreateBloom computes the bloom filter covering the receipt's own logs.
// The real bloom construction (one that a light client can later query
// against) is part of the state executor's contract; this is a deterministic
// stand-in used only so the header's logs bloom round-trips.
func CreateBloom(receipts Receipts) Bloom {
	var bloom Bloom
	for _, receipt := range receipts {
		bloom = orBloom(bloom, receipt.Bloom)
	}
	return bloom
}

func orBloom(a, b Bloom) Bloom {
	var out Bloom
	for i := range out {
		out[i] = a[i] | b[i]
	}
	return out
}
