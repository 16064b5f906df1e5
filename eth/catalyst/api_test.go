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

package catalyst

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	beaconengine "engineapi/beacon/engine"
	"engineapi/common"
	"engineapi/common/hexutil"
	"engineapi/consensus/clique"
	"engineapi/core"
	"engineapi/core/txpool"
	"engineapi/core/types"
	"engineapi/crypto"
	"engineapi/miner"
	"engineapi/params"
	"engineapi/trie"
)

func testGenesis() *types.Block {
	return types.NewBlockWithHeader(&types.Header{
		Number:     big.NewInt(0),
		Difficulty: big.NewInt(0),
		GasLimit:   30_000_000,
		BaseFee:    big.NewInt(int64(params.InitialBaseFee)),
	})
}

func newTestAPI(t *testing.T, ttd *big.Int) (*ConsensusAPI, *core.BlockChain, *core.Merger, common.Address) {
	return newTestAPIWithExecutor(t, ttd, core.NewFakeExecutor(21000))
}

func newTestAPIWithExecutor(t *testing.T, ttd *big.Int, executor core.StateExecutor) (*ConsensusAPI, *core.BlockChain, *core.Merger, common.Address) {
	genesis := testGenesis()
	config := &params.ChainConfig{LondonBlock: big.NewInt(0), TerminalTotalDifficulty: ttd}
	chain := core.NewBlockChain(config, genesis)
	merger := core.NewMerger()

	signer := common.HexToAddress("0x7777777777777777777777777777777777777777")
	eng := clique.New(&clique.Config{Period: 1, Signers: []common.Address{signer}}, signer)
	pool := txpool.NewFakePool(nil)
	assembler := miner.NewAssembler(chain, pool, executor, eng)

	api := NewConsensusAPI(chain, merger, assembler)
	return api, chain, merger, signer
}

// stateGateExecutor wraps a FakeExecutor but reports one configured state
// root as unavailable, for exercising the "parent known, state missing"
// branch of NewPayloadV1.
type stateGateExecutor struct {
	*core.FakeExecutor
	missing common.Hash
}

func (e *stateGateExecutor) HasState(root common.Hash) bool {
	if root == e.missing {
		return false
	}
	return e.FakeExecutor.HasState(root)
}

// rawExecutableData builds a self-consistent, already-hashed ExecutableData
// for a block with no transactions on top of parentHash, independent of
// whether that parent is actually known to any chain. Its state root is
// computed the same way FakeExecutor.Finalize would for an empty
// transaction set, so a payload built by this helper replays cleanly
// through the chain inserter's execution check.
func rawExecutableData(parentHash common.Hash, number, timestamp uint64, feeRecipient common.Address) *beaconengine.ExecutableData {
	stateRoot := common.BytesToHash(crypto.Keccak256(parentHash.Bytes(), trie.DeriveSha(types.Transactions{}).Bytes()))
	header := &types.Header{
		ParentHash:  parentHash,
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    feeRecipient,
		Root:        stateRoot,
		TxHash:      trie.DeriveSha(types.Transactions{}),
		ReceiptHash: trie.DeriveSha(types.Receipts{}),
		Difficulty:  common.Big0,
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    30_000_000,
		Time:        timestamp,
		BaseFee:     big.NewInt(int64(params.InitialBaseFee)),
		Extra:       []byte{},
	}
	block := types.NewBlockWithHeader(header)
	return &beaconengine.ExecutableData{
		ParentHash:    header.ParentHash,
		FeeRecipient:  header.Coinbase,
		StateRoot:     header.Root,
		ReceiptsRoot:  header.ReceiptHash,
		LogsBloom:     header.Bloom.Bytes(),
		Random:        header.MixDigest,
		Number:        hexutil.Uint64(header.Number.Uint64()),
		GasLimit:      hexutil.Uint64(header.GasLimit),
		GasUsed:       hexutil.Uint64(header.GasUsed),
		Timestamp:     hexutil.Uint64(header.Time),
		ExtraData:     header.Extra,
		BaseFeePerGas: (*hexutil.Big)(header.BaseFee),
		BlockHash:     block.Hash(),
	}
}

// forgedStateRootExecutableData builds a payload whose declared state root
// does not match what replaying its (empty) transaction set would actually
// produce, while keeping its block hash self-consistent with that forged
// root -- exercising the chain inserter's post-execution state-root check
// rather than the decode-time block-hash check.
func forgedStateRootExecutableData(parentHash common.Hash, number, timestamp uint64, feeRecipient common.Address) *beaconengine.ExecutableData {
	data := rawExecutableData(parentHash, number, timestamp, feeRecipient)
	data.StateRoot = common.Hash{0x77}
	header := &types.Header{
		ParentHash:  data.ParentHash,
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    data.FeeRecipient,
		Root:        data.StateRoot,
		TxHash:      trie.DeriveSha(types.Transactions{}),
		ReceiptHash: data.ReceiptsRoot,
		Difficulty:  common.Big0,
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    uint64(data.GasLimit),
		Time:        uint64(data.Timestamp),
		BaseFee:     data.BaseFeePerGas.ToInt(),
		Extra:       data.ExtraData,
	}
	data.BlockHash = types.NewBlockWithHeader(header).Hash()
	return data
}

func TestForkchoiceUpdatedZeroHash(t *testing.T) {
	api, _, _, _ := newTestAPI(t, nil)
	resp, err := api.ForkchoiceUpdatedV1(beaconengine.ForkchoiceStateV1{}, nil)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.VALID, resp.PayloadStatus.Status)
	assert.Nil(t, resp.PayloadID)
}

func TestForkchoiceUpdatedUnknownHead(t *testing.T) {
	api, _, _, _ := newTestAPI(t, nil)
	bogus := common.Hash{0xaa}
	resp, err := api.ForkchoiceUpdatedV1(beaconengine.ForkchoiceStateV1{HeadBlockHash: bogus}, nil)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.SYNCING, resp.PayloadStatus.Status)
}

func TestForkchoiceUpdatedAlreadyCanonicalNoAttrs(t *testing.T) {
	api, chain, _, _ := newTestAPI(t, nil)
	resp, err := api.ForkchoiceUpdatedV1(beaconengine.ForkchoiceStateV1{HeadBlockHash: chain.Genesis().Hash()}, nil)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.VALID, resp.PayloadStatus.Status)
	assert.Nil(t, resp.PayloadID)
}

func TestForkchoiceUpdatedReorgsToKnownBlock(t *testing.T) {
	api, chain, _, signer := newTestAPI(t, nil)
	attrs := &beaconengine.PayloadAttributes{
		Timestamp:             chain.Genesis().Time() + 12,
		SuggestedFeeRecipient: signer,
	}
	block, _, err := api.assembler.BuildPayload(chain.CurrentHeader(), attrs)
	require.NoError(t, err)
	require.NoError(t, chain.InsertBlockWithoutSetHead(block))

	resp, err := api.ForkchoiceUpdatedV1(beaconengine.ForkchoiceStateV1{HeadBlockHash: block.Hash()}, nil)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.VALID, resp.PayloadStatus.Status)
	assert.Equal(t, block.Hash(), chain.CurrentHeader().Hash())
}

func TestForkchoiceUpdatedStartsBuildJobAndGetPayload(t *testing.T) {
	api, chain, _, signer := newTestAPI(t, nil)
	attrs := &beaconengine.PayloadAttributes{
		Timestamp:             chain.Genesis().Time() + 12,
		SuggestedFeeRecipient: signer,
	}
	resp, err := api.ForkchoiceUpdatedV1(beaconengine.ForkchoiceStateV1{HeadBlockHash: chain.Genesis().Hash()}, attrs)
	require.NoError(t, err)
	require.NotNil(t, resp.PayloadID)

	envelope, err := api.GetPayloadV1(*resp.PayloadID)
	require.NoError(t, err)
	assert.Equal(t, chain.Genesis().Hash(), envelope.ExecutionPayload.ParentHash)
	assert.Equal(t, signer, envelope.ExecutionPayload.FeeRecipient)
}

func TestGetPayloadV1UnknownIDErrors(t *testing.T) {
	api, _, _, _ := newTestAPI(t, nil)
	_, err := api.GetPayloadV1(beaconengine.PayloadID{0xff})
	assert.Equal(t, beaconengine.ErrUnknownPayload, err)
}

func TestForkchoiceUpdatedRejectsStalePayloadAttributesTimestamp(t *testing.T) {
	api, chain, _, signer := newTestAPI(t, nil)
	attrs := &beaconengine.PayloadAttributes{
		Timestamp:             chain.Genesis().Time(),
		SuggestedFeeRecipient: signer,
	}
	_, err := api.ForkchoiceUpdatedV1(beaconengine.ForkchoiceStateV1{HeadBlockHash: chain.Genesis().Hash()}, attrs)
	assert.Equal(t, beaconengine.InvalidPayloadAttributesErr, err)
}

func TestForkchoiceUpdatedFinalizedUnknownHashErrors(t *testing.T) {
	api, chain, _, _ := newTestAPI(t, nil)
	bogus := common.Hash{0xbb}
	_, err := api.ForkchoiceUpdatedV1(beaconengine.ForkchoiceStateV1{
		HeadBlockHash:      chain.Genesis().Hash(),
		FinalizedBlockHash: bogus,
	}, nil)
	assert.Equal(t, beaconengine.InvalidForkChoiceStateErr, err)
}

func TestForkchoiceUpdatedFinalizedAndSafeMarkChain(t *testing.T) {
	api, chain, merger, signer := newTestAPI(t, nil)
	attrs := &beaconengine.PayloadAttributes{
		Timestamp:             chain.Genesis().Time() + 12,
		SuggestedFeeRecipient: signer,
	}
	block, _, err := api.assembler.BuildPayload(chain.CurrentHeader(), attrs)
	require.NoError(t, err)
	require.NoError(t, chain.InsertBlockWithoutSetHead(block))
	_, err = chain.SetCanonical(block.Hash())
	require.NoError(t, err)

	resp, err := api.ForkchoiceUpdatedV1(beaconengine.ForkchoiceStateV1{
		HeadBlockHash:      block.Hash(),
		SafeBlockHash:      block.Hash(),
		FinalizedBlockHash: block.Hash(),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.VALID, resp.PayloadStatus.Status)
	assert.True(t, merger.PoSFinalized())
	assert.Equal(t, block.Hash(), chain.CurrentFinalBlock().Hash())
	assert.Equal(t, block.Hash(), chain.CurrentSafeBlock().Hash())
}

func TestNewPayloadV1UnknownParentIsSyncing(t *testing.T) {
	api, _, _, signer := newTestAPI(t, nil)
	orphanParent := common.Hash{0x42}
	data := rawExecutableData(orphanParent, 5, 100, signer)

	status, err := api.NewPayloadV1(*data)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.SYNCING, status.Status)
}

func TestNewPayloadV1MissingParentStateIsAccepted(t *testing.T) {
	genesis := testGenesis()
	executor := &stateGateExecutor{FakeExecutor: core.NewFakeExecutor(21000), missing: genesis.Root()}
	api, chain, _, signer := newTestAPIWithExecutor(t, nil, executor)
	data := rawExecutableData(chain.Genesis().Hash(), 1, chain.Genesis().Time()+12, signer)

	status, err := api.NewPayloadV1(*data)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.ACCEPTED, status.Status)
	require.NotNil(t, status.LatestValidHash)
	assert.Equal(t, common.Hash{}, *status.LatestValidHash)
}

func TestNewPayloadV1InvalidBlockHash(t *testing.T) {
	api, chain, _, signer := newTestAPI(t, nil)
	data := rawExecutableData(chain.Genesis().Hash(), 1, chain.Genesis().Time()+12, signer)
	data.BlockHash = common.Hash{0x99}

	status, err := api.NewPayloadV1(*data)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.INVALID, status.Status)
	require.NotNil(t, status.LatestValidHash)
	assert.Equal(t, common.Hash{}, *status.LatestValidHash)
	require.NotNil(t, status.ValidationError)
}

func TestNewPayloadV1ForgedStateRootIsInvalid(t *testing.T) {
	api, chain, _, signer := newTestAPI(t, nil)
	data := forgedStateRootExecutableData(chain.Genesis().Hash(), 1, chain.Genesis().Time()+12, signer)

	status, err := api.NewPayloadV1(*data)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.INVALID, status.Status)
	require.NotNil(t, status.ValidationError)
	assert.False(t, chain.HasBlock(data.BlockHash))
}

func TestNewPayloadV1RejectsStaleTimestamp(t *testing.T) {
	api, chain, _, signer := newTestAPI(t, nil)
	data := rawExecutableData(chain.Genesis().Hash(), 1, chain.Genesis().Time(), signer)

	status, err := api.NewPayloadV1(*data)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.INVALID, status.Status)
}

func TestNewPayloadV1InsertsValidBlockAndReachesTTD(t *testing.T) {
	api, chain, merger, signer := newTestAPI(t, nil)
	data := rawExecutableData(chain.Genesis().Hash(), 1, chain.Genesis().Time()+12, signer)

	status, err := api.NewPayloadV1(*data)
	require.NoError(t, err)
	require.Equal(t, beaconengine.VALID, status.Status)
	require.NotNil(t, status.LatestValidHash)
	assert.Equal(t, data.BlockHash, *status.LatestValidHash)
	assert.NotNil(t, chain.GetHeaderByHash(data.BlockHash))
	assert.True(t, merger.TDDReached())
}

func TestNewPayloadV1IsIdempotentForKnownBlock(t *testing.T) {
	api, chain, _, signer := newTestAPI(t, nil)
	data := rawExecutableData(chain.Genesis().Hash(), 1, chain.Genesis().Time()+12, signer)
	_, err := api.NewPayloadV1(*data)
	require.NoError(t, err)

	status, err := api.NewPayloadV1(*data)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.VALID, status.Status)
}

func TestNewPayloadV1RejectsPreMergeParent(t *testing.T) {
	ttd := big.NewInt(1000)
	api, chain, _, signer := newTestAPI(t, ttd)
	// Genesis has zero difficulty and zero total difficulty, well below ttd.
	data := rawExecutableData(chain.Genesis().Hash(), 1, chain.Genesis().Time()+12, signer)

	status, err := api.NewPayloadV1(*data)
	require.NoError(t, err)
	assert.Equal(t, beaconengine.INVALIDTERMINALBLOCK, status.Status)
}

func TestExchangeTransitionConfigurationMismatch(t *testing.T) {
	api, _, _, _ := newTestAPI(t, big.NewInt(1000))
	remote := beaconengine.TransitionConfigurationV1{TerminalTotalDifficulty: (*hexutil.Big)(big.NewInt(2000))}
	_, err := api.ExchangeTransitionConfigurationV1(remote)
	assert.Error(t, err)
}

func TestExchangeTransitionConfigurationMissingTTDErrors(t *testing.T) {
	api, _, _, _ := newTestAPI(t, big.NewInt(1000))
	_, err := api.ExchangeTransitionConfigurationV1(beaconengine.TransitionConfigurationV1{})
	assert.Error(t, err)
}

func TestExchangeTransitionConfigurationTerminalHashMismatch(t *testing.T) {
	ttd := big.NewInt(1000)
	api, chain, _, _ := newTestAPI(t, ttd)
	remote := beaconengine.TransitionConfigurationV1{
		TerminalTotalDifficulty: (*hexutil.Big)(ttd),
		TerminalBlockHash:       common.Hash{0x11},
		TerminalBlockNumber:     hexutil.Uint64(chain.Genesis().NumberU64()),
	}
	_, err := api.ExchangeTransitionConfigurationV1(remote)
	assert.Error(t, err)
}

func TestExchangeTransitionConfigurationSucceeds(t *testing.T) {
	ttd := big.NewInt(1000)
	api, _, _, _ := newTestAPI(t, ttd)
	remote := beaconengine.TransitionConfigurationV1{TerminalTotalDifficulty: (*hexutil.Big)(ttd)}

	out, err := api.ExchangeTransitionConfigurationV1(remote)
	require.NoError(t, err)
	assert.Equal(t, ttd.Int64(), out.TerminalTotalDifficulty.ToInt().Int64())
}
