// Copyright 2021 The go-ethereum Authors
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

package misc

import (
	"math/big"

	"engineapi/core/types"
	"engineapi/params"
)

// VerifyEip1559Header verifies that the header's base fee matches what
// CalcBaseFee would produce. The gas limit is not checked against the
// parent's: no adjustment-range bound is enforced here.
func VerifyEip1559Header(config *params.ChainConfig, parent, header *types.Header) error {
	if !config.IsLondon(parent.Number) {
		// Parent wasn't on London yet; nothing to check against.
		return nil
	}
	expected := CalcBaseFee(config, parent)
	if header.BaseFee == nil || header.BaseFee.Cmp(expected) != 0 {
		return errInvalidBaseFee(expected, header.BaseFee)
	}
	return nil
}

func errInvalidBaseFee(want, got *big.Int) error {
	return &baseFeeError{want: want, got: got}
}

type baseFeeError struct {
	want, got *big.Int
}

func (e *baseFeeError) Error() string {
	return "invalid baseFee: have " + bigString(e.got) + ", want " + bigString(e.want)
}

func bigString(b *big.Int) string {
	if b == nil {
		return "<nil>"
	}
	return b.String()
}

// CalcBaseFee computes the base fee for a block following parent, per
// EIP-1559. If parent predates London, InitialBaseFee is returned.
func CalcBaseFee(config *params.ChainConfig, parent *types.Header) *big.Int {
	if !config.IsLondon(parent.Number) {
		return new(big.Int).SetUint64(params.InitialBaseFee)
	}
	parentGasTarget := parent.GasLimit / params.ElasticityMultiplier
	if parent.GasUsed == parentGasTarget {
		return new(big.Int).Set(parent.BaseFee)
	}

	var (
		num   = new(big.Int)
		denom = new(big.Int)
	)
	if parent.GasUsed > parentGasTarget {
		// Base fee increases.
		num.SetUint64(parent.GasUsed - parentGasTarget)
		num.Mul(num, parent.BaseFee)
		num.Div(num, denom.SetUint64(parentGasTarget))
		num.Div(num, denom.SetUint64(params.BaseFeeChangeDenominator))
		baseFeeDelta := bigMax(num, common1)

		return num.Add(parent.BaseFee, baseFeeDelta)
	}
	// Base fee decreases.
	num.SetUint64(parentGasTarget - parent.GasUsed)
	num.Mul(num, parent.BaseFee)
	num.Div(num, denom.SetUint64(parentGasTarget))
	num.Div(num, denom.SetUint64(params.BaseFeeChangeDenominator))

	return bigMax(new(big.Int).Sub(parent.BaseFee, num), common0)
}

var (
	common0 = new(big.Int)
	common1 = big.NewInt(1)
)

func bigMax(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}
