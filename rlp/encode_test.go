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

package rlp

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeUint64(t *testing.T) {
	enc, err := EncodeToBytes(uint64(0))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80}, enc)

	enc, err = EncodeToBytes(uint64(1))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, enc)

	enc, err = EncodeToBytes(uint64(1024))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x82, 0x04, 0x00}, enc)
}

func TestEncodeString(t *testing.T) {
	enc, err := EncodeToBytes("dog")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x83, 'd', 'o', 'g'}, enc)
}

func TestEncodeEmptyList(t *testing.T) {
	enc, err := EncodeToBytes([]uint64{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0xc0}, enc)
}

func TestEncodeBigIntNonZero(t *testing.T) {
	enc, err := EncodeToBytes(big.NewInt(1024))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x82, 0x04, 0x00}, enc)
}

func TestEncodeBigIntZero(t *testing.T) {
	// A zero big.Int must encode the same as an empty string, not an empty
	// list: it is a scalar, and must round-trip through DecodeBytes back
	// to a zero value rather than something struct-shaped.
	enc, err := EncodeToBytes(big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80}, enc)
}

func TestEncodeBigIntNil(t *testing.T) {
	var bi *big.Int
	enc, err := EncodeToBytes(bi)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x80}, enc)
}

func TestEncodeBigIntInStruct(t *testing.T) {
	type withBig struct {
		N *big.Int
	}
	enc, err := EncodeToBytes(&withBig{N: big.NewInt(300)})
	require.NoError(t, err)

	var out withBig
	require.NoError(t, DecodeBytes(enc, &out))
	assert.Equal(t, int64(300), out.N.Int64())
}

func TestEncodeNegativeBigIntErrors(t *testing.T) {
	_, err := EncodeToBytes(big.NewInt(-1))
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTripStruct(t *testing.T) {
	type inner struct {
		A uint64
		B []byte
	}
	type outer struct {
		Name  string
		Value *big.Int
		Items []inner
	}

	in := outer{
		Name:  "payload",
		Value: big.NewInt(123456789),
		Items: []inner{
			{A: 1, B: []byte("x")},
			{A: 2, B: []byte("yy")},
		},
	}
	enc, err := EncodeToBytes(&in)
	require.NoError(t, err)

	var out outer
	require.NoError(t, DecodeBytes(enc, &out))

	assert.Equal(t, in.Name, out.Name)
	assert.Equal(t, in.Value.Int64(), out.Value.Int64())
	require.Len(t, out.Items, 2)
	assert.Equal(t, in.Items[0].A, out.Items[0].A)
	assert.Equal(t, in.Items[1].B, out.Items[1].B)
}

func TestEncodeFixedByteArray(t *testing.T) {
	var addr [20]byte
	addr[0] = 0xaa
	addr[19] = 0xbb

	enc, err := EncodeToBytes(addr)
	require.NoError(t, err)

	var out [20]byte
	require.NoError(t, DecodeBytes(enc, &out))
	assert.Equal(t, addr, out)
}
