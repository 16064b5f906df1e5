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

package types

import (
	"engineapi/common"
	"engineapi/rlp"
)

// Withdrawal represents a validator withdrawal from the consensus layer,
// carried alongside a payload from EIP-4895 onward.
type Withdrawal struct {
	Index     uint64         `json:"index"`
	Validator uint64         `json:"validatorIndex"`
	Address   common.Address `json:"address"`
	Amount    uint64         `json:"amount"` // in Gwei
}

// Withdrawals implements trie.DerivableList for withdrawals.
type Withdrawals []*Withdrawal

// Len returns the length of s.
func (s Withdrawals) Len() int { return len(s) }

// EncodeIndex encodes the i'th withdrawal to buf.
func (s Withdrawals) EncodeIndex(i int, buf *[]byte) error {
	enc, err := rlp.EncodeToBytes(s[i])
	if err != nil {
		return err
	}
	*buf = enc
	return nil
}
