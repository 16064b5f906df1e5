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

package miner

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engineapi/beacon/engine"
	"engineapi/common"
	"engineapi/consensus/clique"
	"engineapi/core"
	"engineapi/core/txpool"
	"engineapi/core/types"
	"engineapi/params"
)

func testChainConfig() *params.ChainConfig {
	return &params.ChainConfig{LondonBlock: big.NewInt(0)}
}

func newTestGenesis() *types.Block {
	return types.NewBlockWithHeader(&types.Header{
		Number:     big.NewInt(0),
		Difficulty: big.NewInt(0),
		GasLimit:   30_000_000,
		BaseFee:    big.NewInt(int64(params.InitialBaseFee)),
	})
}

func newTestAssembler(t *testing.T, pool txpool.Pool) (*Assembler, *core.BlockChain, common.Address) {
	genesis := newTestGenesis()
	chain := core.NewBlockChain(testChainConfig(), genesis)

	signer := common.HexToAddress("0x1111111111111111111111111111111111111111")
	eng := clique.New(&clique.Config{Period: 1, Signers: []common.Address{signer}}, signer)
	executor := core.NewFakeExecutor(21000)
	return NewAssembler(chain, pool, executor, eng), chain, signer
}

func newDynamicFeeTx(nonce uint64, tip int64, sender common.Address) *types.Transaction {
	inner := &types.DynamicFeeTx{
		ChainID:   big.NewInt(1),
		Nonce:     nonce,
		GasTipCap: big.NewInt(tip),
		GasFeeCap: big.NewInt(int64(params.InitialBaseFee) + tip + 1000),
		Gas:       21000,
		Value:     big.NewInt(0),
	}
	tx := types.NewTx(inner)
	tx.SetSender(sender)
	return tx
}

func TestAssemblerBuildEmptyProducesNoTransactions(t *testing.T) {
	pool := txpool.NewFakePool(nil)
	a, chain, _ := newTestAssembler(t, pool)

	attrs := &engine.PayloadAttributes{
		Timestamp:             uint64(chain.Genesis().Time()) + 12,
		SuggestedFeeRecipient: common.HexToAddress("0x2222222222222222222222222222222222222222"),
	}
	block, fees, err := a.BuildEmpty(chain.CurrentHeader(), attrs)
	require.NoError(t, err)
	assert.Empty(t, block.Transactions())
	assert.Equal(t, int64(0), fees.Int64())
	assert.Equal(t, attrs.SuggestedFeeRecipient, block.Coinbase())
}

func TestAssemblerBuildPayloadFillsFromPool(t *testing.T) {
	sender := common.HexToAddress("0x3333333333333333333333333333333333333333")
	tx1 := newDynamicFeeTx(0, 5, sender)
	tx2 := newDynamicFeeTx(1, 3, sender)
	pool := txpool.NewFakePool(map[common.Address][]*types.Transaction{
		sender: {tx1, tx2},
	})
	a, chain, _ := newTestAssembler(t, pool)

	attrs := &engine.PayloadAttributes{
		Timestamp:             chain.Genesis().Time() + 12,
		SuggestedFeeRecipient: common.HexToAddress("0x4444444444444444444444444444444444444444"),
	}
	block, fees, err := a.BuildPayload(chain.CurrentHeader(), attrs)
	require.NoError(t, err)
	require.Len(t, block.Transactions(), 2)
	assert.Equal(t, tx1.Hash(), block.Transactions()[0].Hash())
	assert.Equal(t, tx2.Hash(), block.Transactions()[1].Hash())
	assert.True(t, fees.Sign() > 0)
}

func TestAssemblerBuildPayloadRespectsGasLimit(t *testing.T) {
	sender := common.HexToAddress("0x5555555555555555555555555555555555555555")
	// Three transactions, each costing 21000 gas per FakeExecutor; cap the
	// block's gas limit so only two can fit.
	txs := []*types.Transaction{
		newDynamicFeeTx(0, 5, sender),
		newDynamicFeeTx(1, 5, sender),
		newDynamicFeeTx(2, 5, sender),
	}
	pool := txpool.NewFakePool(map[common.Address][]*types.Transaction{sender: txs})

	genesis := types.NewBlockWithHeader(&types.Header{
		Number:     big.NewInt(0),
		Difficulty: big.NewInt(0),
		GasLimit:   42000,
		BaseFee:    big.NewInt(int64(params.InitialBaseFee)),
	})
	chain := core.NewBlockChain(testChainConfig(), genesis)
	signer := common.HexToAddress("0x1111111111111111111111111111111111111111")
	eng := clique.New(&clique.Config{Period: 1, Signers: []common.Address{signer}}, signer)
	a := NewAssembler(chain, pool, core.NewFakeExecutor(21000), eng)

	attrs := &engine.PayloadAttributes{
		Timestamp:             genesis.Time() + 12,
		SuggestedFeeRecipient: signer,
	}
	block, _, err := a.BuildPayload(chain.CurrentHeader(), attrs)
	require.NoError(t, err)
	assert.Len(t, block.Transactions(), 2)
}

func TestAssemblerRebasesPoolOnlyWhenParentChanges(t *testing.T) {
	pool := txpool.NewFakePool(nil)
	a, chain, _ := newTestAssembler(t, pool)

	attrs := &engine.PayloadAttributes{
		Timestamp:             chain.Genesis().Time() + 12,
		SuggestedFeeRecipient: common.HexToAddress("0x2222222222222222222222222222222222222222"),
	}
	_, _, err := a.BuildPayload(chain.CurrentHeader(), attrs)
	require.NoError(t, err)
	require.Len(t, pool.Resets(), 1)
	assert.Nil(t, pool.Resets()[0].OldHead)
	assert.Equal(t, chain.CurrentHeader().Hash(), pool.Resets()[0].NewHead.Hash())

	// Same parent again: no further rebase.
	_, _, err = a.BuildPayload(chain.CurrentHeader(), attrs)
	require.NoError(t, err)
	assert.Len(t, pool.Resets(), 1)
}

func TestAssemblerBuildBlockUsesLocalConfig(t *testing.T) {
	pool := txpool.NewFakePool(nil)
	a, chain, signer := newTestAssembler(t, pool)

	block, fees, err := a.BuildBlock(chain.CurrentHeader(), signer, []byte("test-extra"))
	require.NoError(t, err)
	assert.Equal(t, signer, block.Coinbase())
	assert.Equal(t, int64(0), fees.Int64())
	assert.Equal(t, chain.CurrentHeader().Number.Int64()+1, block.Number().Int64())
}
