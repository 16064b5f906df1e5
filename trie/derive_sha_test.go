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
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeList [][]byte

func (l fakeList) Len() int { return len(l) }
func (l fakeList) EncodeIndex(i int, buf *[]byte) error {
	*buf = l[i]
	return nil
}

func TestDeriveShaEmptyMatchesEmptyRootHash(t *testing.T) {
	assert.Equal(t, EmptyRootHash, DeriveSha(fakeList{}))
}

func TestDeriveShaDeterministic(t *testing.T) {
	list := fakeList{[]byte("a"), []byte("b")}
	assert.Equal(t, DeriveSha(list), DeriveSha(list))
}

func TestDeriveShaOrderSensitive(t *testing.T) {
	a := fakeList{[]byte("a"), []byte("b")}
	b := fakeList{[]byte("b"), []byte("a")}
	assert.NotEqual(t, DeriveSha(a), DeriveSha(b))
}

func TestDeriveShaLengthSensitive(t *testing.T) {
	// Two lists that differ only in a trailing empty encoding must not
	// collide; DeriveSha mixes in the list length to guard against this.
	a := fakeList{[]byte("a")}
	b := fakeList{[]byte("a"), []byte("")}
	assert.NotEqual(t, DeriveSha(a), DeriveSha(b))
}

func TestDeriveShaContentSensitive(t *testing.T) {
	a := fakeList{[]byte("a")}
	b := fakeList{[]byte("z")}
	assert.NotEqual(t, DeriveSha(a), DeriveSha(b))
}
