// Copyright 2015 The go-ethereum Authors
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

package params

const (
	TxGas                     uint64 = 21000 // per transaction, minus data
	MaximumExtraDataSize      uint64 = 32     // maximum size extra data may be after Genesis
	ElasticityMultiplier      uint64 = 2      // EIP-1559: bounds the gas target to 1/elasticity of the gas limit
	BaseFeeChangeDenominator  uint64 = 8      // EIP-1559: bounds the maximal base fee change per block
	InitialBaseFee            uint64 = 1_000_000_000
)
