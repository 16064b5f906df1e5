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

package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"engineapi/common"
	"engineapi/core/types"
	"engineapi/crypto"
	"engineapi/params"
	"engineapi/trie"
)

func newGenesis() *types.Block {
	return types.NewBlockWithHeader(&types.Header{
		Number:     big.NewInt(0),
		Difficulty: big.NewInt(0),
		GasLimit:   30_000_000,
	})
}

// child builds a new block on top of parent, using salt to make otherwise
// identical blocks at the same height hash differently (simulating two
// competing branches).
func child(parent *types.Block, salt byte) *types.Block {
	h := &types.Header{
		ParentHash: parent.Hash(),
		Number:     new(big.Int).Add(parent.Number(), big.NewInt(1)),
		Difficulty: big.NewInt(1),
		GasLimit:   parent.GasLimit(),
		Extra:      []byte{salt},
	}
	return types.NewBlockWithHeader(h)
}

func newTestChain(t *testing.T) (*BlockChain, *types.Block) {
	genesis := newGenesis()
	bc := NewBlockChain(&params.ChainConfig{}, genesis)
	return bc, genesis
}

func TestBlockChainGenesisIsHeadAndFinalized(t *testing.T) {
	bc, genesis := newTestChain(t)
	assert.Equal(t, genesis.Hash(), bc.CurrentHeader().Hash())
	assert.Equal(t, genesis.Hash(), bc.CurrentFinalBlock().Hash())
	assert.Equal(t, genesis.Hash(), bc.CurrentSafeBlock().Hash())
}

func TestInsertHeaderUnknownAncestor(t *testing.T) {
	bc, _ := newTestChain(t)
	orphan := &types.Header{
		ParentHash: types.NewBlockWithHeader(&types.Header{Number: big.NewInt(99), Difficulty: new(big.Int)}).Hash(),
		Number:     big.NewInt(100),
		Difficulty: big.NewInt(1),
	}
	err := bc.InsertHeader(orphan)
	assert.ErrorIs(t, err, ErrUnknownAncestor)
}

func TestSetCanonicalUnknownBlock(t *testing.T) {
	bc, _ := newTestChain(t)
	var bogus types.Header
	bogus.Number = big.NewInt(1)
	bogus.Difficulty = big.NewInt(1)
	_, err := bc.SetCanonical(bogus.Hash())
	assert.Error(t, err)
}

func TestSetCanonicalExtendsChain(t *testing.T) {
	bc, genesis := newTestChain(t)
	a1 := child(genesis, 1)
	require.NoError(t, bc.InsertBlockWithoutSetHead(a1))

	old, err := bc.SetCanonical(a1.Hash())
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash(), old)
	assert.Equal(t, a1.Hash(), bc.CurrentHeader().Hash())
	assert.Equal(t, a1.Hash(), bc.GetHeaderByNumber(1).Hash())
}

func TestSetCanonicalReorgsToLongerSideChain(t *testing.T) {
	bc, genesis := newTestChain(t)

	a1 := child(genesis, 1)
	a2 := child(a1, 1)
	a3 := child(a2, 1)
	for _, b := range []*types.Block{a1, a2, a3} {
		require.NoError(t, bc.InsertBlockWithoutSetHead(b))
	}
	_, err := bc.SetCanonical(a3.Hash())
	require.NoError(t, err)

	b1 := child(genesis, 2)
	b2 := child(b1, 2)
	b3 := child(b2, 2)
	b4 := child(b3, 2)
	for _, b := range []*types.Block{b1, b2, b3, b4} {
		require.NoError(t, bc.InsertBlockWithoutSetHead(b))
	}

	old, err := bc.SetCanonical(b4.Hash())
	require.NoError(t, err)
	assert.Equal(t, a3.Hash(), old)
	assert.Equal(t, b4.Hash(), bc.CurrentHeader().Hash())

	// Every number along the new branch must point at the b-chain, not
	// the abandoned a-chain.
	assert.Equal(t, b1.Hash(), bc.GetHeaderByNumber(1).Hash())
	assert.Equal(t, b2.Hash(), bc.GetHeaderByNumber(2).Hash())
	assert.Equal(t, b3.Hash(), bc.GetHeaderByNumber(3).Hash())
	assert.Equal(t, b4.Hash(), bc.GetHeaderByNumber(4).Hash())
}

func TestSetCanonicalReorgToShorterSideChainDropsStaleEntries(t *testing.T) {
	bc, genesis := newTestChain(t)

	a1 := child(genesis, 1)
	a2 := child(a1, 1)
	a3 := child(a2, 1)
	for _, b := range []*types.Block{a1, a2, a3} {
		require.NoError(t, bc.InsertBlockWithoutSetHead(b))
	}
	_, err := bc.SetCanonical(a3.Hash())
	require.NoError(t, err)

	// A shorter fork diverging right after genesis.
	b1 := child(genesis, 2)
	require.NoError(t, bc.InsertBlockWithoutSetHead(b1))

	_, err = bc.SetCanonical(b1.Hash())
	require.NoError(t, err)

	assert.Equal(t, b1.Hash(), bc.CurrentHeader().Hash())
	// Numbers 2 and 3, which only the abandoned a-chain occupied, must no
	// longer resolve to anything canonical.
	assert.Nil(t, bc.GetHeaderByNumber(2))
	assert.Nil(t, bc.GetHeaderByNumber(3))
}

func TestSetCanonicalNoOpWhenAlreadyHead(t *testing.T) {
	bc, genesis := newTestChain(t)
	old, err := bc.SetCanonical(genesis.Hash())
	require.NoError(t, err)
	assert.Equal(t, genesis.Hash(), old)
}

func TestSetFinalizedAndSafe(t *testing.T) {
	bc, genesis := newTestChain(t)
	a1 := child(genesis, 1)
	require.NoError(t, bc.InsertBlockWithoutSetHead(a1))
	_, err := bc.SetCanonical(a1.Hash())
	require.NoError(t, err)

	bc.SetSafe(a1.Hash())
	bc.SetFinalized(a1.Hash())
	assert.Equal(t, a1.Hash(), bc.CurrentSafeBlock().Hash())
	assert.Equal(t, a1.Hash(), bc.CurrentFinalBlock().Hash())
}

func TestInsertSideBlockPersistsOnMatchingStateRoot(t *testing.T) {
	bc, genesis := newTestChain(t)
	executor := NewFakeExecutor(21000)
	root := common.BytesToHash(crypto.Keccak256(genesis.Hash().Bytes(), trie.DeriveSha(types.Transactions{}).Bytes()))
	block := types.NewBlockWithHeader(&types.Header{
		ParentHash: genesis.Hash(),
		Number:     big.NewInt(1),
		Difficulty: big.NewInt(1),
		GasLimit:   genesis.GasLimit(),
		Root:       root,
	})

	require.NoError(t, bc.InsertSideBlock(executor, block))
	assert.True(t, bc.HasBlock(block.Hash()))
}

func TestInsertSideBlockRejectsStateMismatch(t *testing.T) {
	bc, genesis := newTestChain(t)
	executor := NewFakeExecutor(21000)
	block := types.NewBlockWithHeader(&types.Header{
		ParentHash: genesis.Hash(),
		Number:     big.NewInt(1),
		Difficulty: big.NewInt(1),
		GasLimit:   genesis.GasLimit(),
		Root:       common.Hash{0x77},
	})

	err := bc.InsertSideBlock(executor, block)
	assert.ErrorIs(t, err, ErrStateMismatch)
	assert.False(t, bc.HasBlock(block.Hash()))
}

func TestLatestValidAncestorWalksToTTD(t *testing.T) {
	bc, genesis := newTestChain(t)
	a1 := child(genesis, 1)
	a2 := child(a1, 1)
	require.NoError(t, bc.InsertBlockWithoutSetHead(a1))
	require.NoError(t, bc.InsertBlockWithoutSetHead(a2))

	// genesis td=0, a1 td=1, a2 td=2.
	assert.Equal(t, a2.Hash(), bc.LatestValidAncestor(a2.Hash(), big.NewInt(2)))
	assert.Equal(t, common.Hash{}, bc.LatestValidAncestor(a2.Hash(), big.NewInt(10)))
}

func TestGetTdAccumulates(t *testing.T) {
	bc, genesis := newTestChain(t)
	a1 := child(genesis, 1)
	require.NoError(t, bc.InsertBlockWithoutSetHead(a1))

	genesisTd := bc.GetTd(genesis.Hash())
	a1Td := bc.GetTd(a1.Hash())
	require.NotNil(t, genesisTd)
	require.NotNil(t, a1Td)
	assert.Equal(t, new(big.Int).Add(genesisTd, a1.Difficulty()).Int64(), a1Td.Int64())
}
