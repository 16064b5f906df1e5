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

// Package engine defines the wire types of the Engine API: the payload
// attributes a consensus client supplies, the executable data an execution
// client hands back, and the fork-choice and status envelopes exchanged
// between them.
package engine

import (
	"fmt"
	"math/big"

	"engineapi/common"
	"engineapi/common/hexutil"
	"engineapi/core/types"
	"engineapi/trie"
)

// PayloadAttributes describes the environment a requested payload should be
// built in.
type PayloadAttributes struct {
	Timestamp             uint64              `json:"timestamp"`
	Random                common.Hash         `json:"prevRandao"`
	SuggestedFeeRecipient common.Address      `json:"suggestedFeeRecipient"`
	Withdrawals           []*types.Withdrawal `json:"withdrawals"`
}

// ExecutableData is the data necessary to execute an EL payload, passed back
// from getPayload and into newPayload.
type ExecutableData struct {
	ParentHash    common.Hash         `json:"parentHash"`
	FeeRecipient  common.Address      `json:"feeRecipient"`
	StateRoot     common.Hash         `json:"stateRoot"`
	ReceiptsRoot  common.Hash         `json:"receiptsRoot"`
	LogsBloom     hexutil.Bytes       `json:"logsBloom"`
	Random        common.Hash         `json:"prevRandao"`
	Number        hexutil.Uint64      `json:"blockNumber"`
	GasLimit      hexutil.Uint64      `json:"gasLimit"`
	GasUsed       hexutil.Uint64      `json:"gasUsed"`
	Timestamp     hexutil.Uint64      `json:"timestamp"`
	ExtraData     hexutil.Bytes       `json:"extraData"`
	BaseFeePerGas *hexutil.Big        `json:"baseFeePerGas"`
	BlockHash     common.Hash         `json:"blockHash"`
	Transactions  []hexutil.Bytes     `json:"transactions"`
	Withdrawals   []*types.Withdrawal `json:"withdrawals"`
}

// ExecutionPayloadEnvelope bundles a requested payload with the total fees
// it collects, as returned by getPayload.
type ExecutionPayloadEnvelope struct {
	ExecutionPayload *ExecutableData `json:"executionPayload"`
	BlockValue       *hexutil.Big    `json:"blockValue"`
}

// PayloadStatusV1 is the response to newPayload and forkchoiceUpdated.
type PayloadStatusV1 struct {
	Status          string       `json:"status"`
	LatestValidHash *common.Hash `json:"latestValidHash"`
	ValidationError *string      `json:"validationError"`
}

// TransitionConfigurationV1 carries the terminal-PoW parameters exchanged by
// exchangeTransitionConfiguration so the execution and consensus clients can
// confirm they agree on where the merge happens.
type TransitionConfigurationV1 struct {
	TerminalTotalDifficulty *hexutil.Big   `json:"terminalTotalDifficulty"`
	TerminalBlockHash       common.Hash    `json:"terminalBlockHash"`
	TerminalBlockNumber     hexutil.Uint64 `json:"terminalBlockNumber"`
}

// PayloadID identifies an in-progress or completed payload build job.
type PayloadID [8]byte

func (b PayloadID) String() string {
	return hexutil.Encode(b[:])
}

func (b PayloadID) MarshalText() ([]byte, error) {
	return hexutil.Bytes(b[:]).MarshalText()
}

func (b *PayloadID) UnmarshalText(input []byte) error {
	raw, err := hexutil.Decode(string(input))
	if err != nil {
		return fmt.Errorf("invalid payload id %q: %w", input, err)
	}
	if len(raw) != len(b) {
		return fmt.Errorf("invalid payload id %q: wrong length", input)
	}
	copy(b[:], raw)
	return nil
}

// ForkChoiceResponse is the response to forkchoiceUpdated.
type ForkChoiceResponse struct {
	PayloadStatus PayloadStatusV1 `json:"payloadStatus"`
	PayloadID     *PayloadID      `json:"payloadId"`
}

// ForkchoiceStateV1 is the fork-choice state supplied to forkchoiceUpdated:
// the consensus layer's view of the head, safe and finalized blocks.
type ForkchoiceStateV1 struct {
	HeadBlockHash      common.Hash `json:"headBlockHash"`
	SafeBlockHash       common.Hash `json:"safeBlockHash"`
	FinalizedBlockHash common.Hash `json:"finalizedBlockHash"`
}

func encodeTransactions(txs types.Transactions) []hexutil.Bytes {
	enc := make([]hexutil.Bytes, len(txs))
	for i, tx := range txs {
		enc[i], _ = tx.MarshalBinary()
	}
	return enc
}

func decodeTransactions(enc []hexutil.Bytes) (types.Transactions, error) {
	txs := make(types.Transactions, len(enc))
	for i, encTx := range enc {
		var tx types.Transaction
		if err := tx.UnmarshalBinary(encTx); err != nil {
			return nil, fmt.Errorf("invalid transaction %d: %v", i, err)
		}
		txs[i] = &tx
	}
	return txs, nil
}

// ExecutableDataToBlock constructs a block from executable data, checking
// that its derived fields (uncle hash, difficulty, computed roots) and final
// hash match what the consensus layer supplied.
func ExecutableDataToBlock(params ExecutableData) (*types.Block, error) {
	txs, err := decodeTransactions(params.Transactions)
	if err != nil {
		return nil, err
	}
	if len(params.ExtraData) > 32 {
		return nil, fmt.Errorf("invalid extradata length: %v", len(params.ExtraData))
	}
	if len(params.LogsBloom) != types.BloomByteLength {
		return nil, fmt.Errorf("invalid logsBloom length: %v", len(params.LogsBloom))
	}
	if params.BaseFeePerGas != nil && params.BaseFeePerGas.ToInt().Sign() < 0 {
		return nil, fmt.Errorf("invalid baseFeePerGas: %v", params.BaseFeePerGas)
	}
	var withdrawalsRoot *common.Hash
	if params.Withdrawals != nil {
		h := trie.DeriveSha(types.Withdrawals(params.Withdrawals))
		withdrawalsRoot = &h
	}
	header := &types.Header{
		ParentHash:      params.ParentHash,
		UncleHash:       types.EmptyUncleHash,
		Coinbase:        params.FeeRecipient,
		Root:            params.StateRoot,
		TxHash:          trie.DeriveSha(txs),
		ReceiptHash:     params.ReceiptsRoot,
		Bloom:           types.BytesToBloom(params.LogsBloom),
		Difficulty:      common.Big0,
		Number:          new(big.Int).SetUint64(uint64(params.Number)),
		GasLimit:        uint64(params.GasLimit),
		GasUsed:         uint64(params.GasUsed),
		Time:            uint64(params.Timestamp),
		BaseFee:         params.BaseFeePerGas.ToInt(),
		Extra:           params.ExtraData,
		MixDigest:       params.Random,
		WithdrawalsHash: withdrawalsRoot,
	}
	block := types.NewBlockWithHeader(header).WithBody(txs, params.Withdrawals)
	if block.Hash() != params.BlockHash {
		return nil, fmt.Errorf("blockhash mismatch, want %x, got %x", params.BlockHash, block.Hash())
	}
	return block, nil
}

// BlockToExecutableData constructs an ExecutionPayloadEnvelope from a block
// the assembler has just produced, attaching the fees it collected.
func BlockToExecutableData(block *types.Block, fees *big.Int) *ExecutionPayloadEnvelope {
	return &ExecutionPayloadEnvelope{
		ExecutionPayload: &ExecutableData{
			BlockHash:     block.Hash(),
			ParentHash:    block.ParentHash(),
			FeeRecipient:  block.Coinbase(),
			StateRoot:     block.Root(),
			Number:        hexutil.Uint64(block.NumberU64()),
			GasLimit:      hexutil.Uint64(block.GasLimit()),
			GasUsed:       hexutil.Uint64(block.GasUsed()),
			BaseFeePerGas: (*hexutil.Big)(block.BaseFee()),
			Timestamp:     hexutil.Uint64(block.Time()),
			ReceiptsRoot:  block.ReceiptHash(),
			LogsBloom:     block.Bloom().Bytes(),
			Transactions:  encodeTransactions(block.Transactions()),
			Random:        block.MixDigest(),
			ExtraData:     block.Extra(),
			Withdrawals:   block.Withdrawals(),
		},
		BlockValue: (*hexutil.Big)(fees),
	}
}
