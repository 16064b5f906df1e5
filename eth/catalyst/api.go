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

// Package catalyst implements the Engine API: the small set of JSON-RPC
// methods a consensus client uses to drive block production and fork choice
// on this execution client, once the network has transitioned to
// proof-of-stake.
package catalyst

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	beaconengine "engineapi/beacon/engine"
	"engineapi/common"
	"engineapi/common/hexutil"
	"engineapi/core"
	"engineapi/core/types"
	"engineapi/crypto"
	"engineapi/log"
	"engineapi/miner"
	"engineapi/rlp"
	"engineapi/rpc"
)

// Register returns the Engine API's registration entry for an RPC server:
// the ConsensusAPI service on the authenticated "engine" namespace.
func Register(chain *core.BlockChain, merger *core.Merger, assembler *miner.Assembler) []rpc.API {
	return []rpc.API{
		{
			Namespace:     "engine",
			Service:       NewConsensusAPI(chain, merger, assembler),
			Authenticated: true,
		},
	}
}

// ConsensusAPI exposes the Engine API methods a consensus client calls to
// drive this execution client: submitting new payloads for validation,
// updating the fork choice, and requesting a payload be built. Payload
// construction runs in the background once forkchoiceUpdated supplies
// payload attributes; getPayload retrieves whatever the assembler has
// produced by the time it is called.
type ConsensusAPI struct {
	chain     *core.BlockChain
	merger    *core.Merger
	assembler *miner.Assembler
	executor  core.StateExecutor

	remoteHeaders *beaconengine.HeaderQueue
	localPayloads *beaconengine.PayloadQueue

	feesMu sync.Mutex
	fees   map[beaconengine.PayloadID]*big.Int

	// forkChoiceLock serializes forkchoiceUpdated calls, since a build job
	// kicked off by one call must not race a reorg requested by the next.
	forkChoiceLock sync.Mutex
}

// NewConsensusAPI creates a ConsensusAPI driving chain with the given
// merger latch and payload assembler. The chain's configuration must carry
// a terminal total difficulty for the Engine API to do anything useful.
func NewConsensusAPI(chain *core.BlockChain, merger *core.Merger, assembler *miner.Assembler) *ConsensusAPI {
	if chain.Config().TerminalTotalDifficulty == nil {
		log.Warn("Engine API started but chain not configured for merge yet")
	}
	return &ConsensusAPI{
		chain:         chain,
		merger:        merger,
		assembler:     assembler,
		executor:      assembler.Executor(),
		remoteHeaders: beaconengine.NewHeaderQueue(),
		localPayloads: beaconengine.NewPayloadQueue(),
		fees:          make(map[beaconengine.PayloadID]*big.Int),
	}
}

// ForkchoiceUpdatedV1 has several responsibilities:
//
//   - if update.HeadBlockHash is the zero hash, it returns VALID with a nil
//     payload ID, a no-op used by consensus clients to probe that the
//     Engine API is alive;
//   - it rejects a pre-Merge (non-zero difficulty) head whose own total
//     difficulty is below the terminal total difficulty, or whose parent's
//     already reached it, with INVALID_TERMINAL_BLOCK;
//   - if the head is not yet canonical, it reorgs the chain onto it;
//   - if a finalized or safe hash is supplied, it validates that hash is
//     canonical and records it;
//   - if payloadAttributes is non-nil, it starts an asynchronous build job
//     and returns its ID so a later getPayload call can retrieve the
//     result.
func (api *ConsensusAPI) ForkchoiceUpdatedV1(update beaconengine.ForkchoiceStateV1, payloadAttributes *beaconengine.PayloadAttributes) (beaconengine.ForkChoiceResponse, error) {
	api.forkChoiceLock.Lock()
	defer api.forkChoiceLock.Unlock()

	log.Trace("Engine API request received", "method", "ForkchoiceUpdated", "head", update.HeadBlockHash, "finalized", update.FinalizedBlockHash, "safe", update.SafeBlockHash)
	if update.HeadBlockHash == (common.Hash{}) {
		log.Warn("Forkchoice requested update to zero hash")
		return valid(nil, common.Hash{}), nil
	}

	header := api.chain.GetHeaderByHash(update.HeadBlockHash)
	if header == nil {
		header = api.remoteHeaders.Get(update.HeadBlockHash)
		if header == nil {
			log.Warn("Forkchoice requested unknown head", "hash", update.HeadBlockHash)
			return beaconengine.ForkChoiceResponse{PayloadStatus: beaconengine.PayloadStatusV1{Status: beaconengine.SYNCING}}, nil
		}
	}
	if invalid := api.invalidTerminalBlock(header); invalid {
		log.Warn("Refusing forkchoice update across an invalid terminal block", "number", header.Number, "hash", update.HeadBlockHash)
		return beaconengine.ForkChoiceResponse{PayloadStatus: beaconengine.PayloadStatusV1{Status: beaconengine.INVALIDTERMINALBLOCK}}, nil
	}

	current := api.chain.CurrentHeader()
	if header.Hash() != current.Hash() {
		canon := api.chain.GetHeaderByNumber(header.Number.Uint64())
		if canon == nil || canon.Hash() != header.Hash() {
			if _, err := api.chain.SetCanonical(header.Hash()); err != nil {
				return beaconengine.ForkChoiceResponse{PayloadStatus: beaconengine.PayloadStatusV1{Status: beaconengine.INVALID}}, err
			}
		}
		// Otherwise the requested head is already canonical but behind our
		// current head: a few slots were missed and the consensus layer is
		// asking us to build on its (stale but valid) view. Fall through to
		// the finalized/safe checks and payload building below without
		// reorging away from our own, further-advanced head.
	}

	if update.FinalizedBlockHash != (common.Hash{}) {
		if !api.merger.PoSFinalized() {
			api.merger.FinalizePoS()
		}
		finalHeader := api.chain.GetHeaderByHash(update.FinalizedBlockHash)
		if finalHeader == nil {
			return invalidForkChoice(), beaconengine.InvalidForkChoiceStateErr
		}
		if canon := api.chain.GetHeaderByNumber(finalHeader.Number.Uint64()); canon == nil || canon.Hash() != update.FinalizedBlockHash {
			return invalidForkChoice(), beaconengine.InvalidForkChoiceStateErr
		}
		api.chain.SetFinalized(update.FinalizedBlockHash)
	}
	if update.SafeBlockHash != (common.Hash{}) {
		safeHeader := api.chain.GetHeaderByHash(update.SafeBlockHash)
		if safeHeader == nil {
			return invalidForkChoice(), beaconengine.InvalidForkChoiceStateErr
		}
		if canon := api.chain.GetHeaderByNumber(safeHeader.Number.Uint64()); canon == nil || canon.Hash() != update.SafeBlockHash {
			return invalidForkChoice(), beaconengine.InvalidForkChoiceStateErr
		}
		api.chain.SetSafe(update.SafeBlockHash)
	}

	if payloadAttributes == nil {
		return valid(nil, update.HeadBlockHash), nil
	}
	if payloadAttributes.Timestamp <= header.Time {
		return beaconengine.ForkChoiceResponse{}, beaconengine.InvalidPayloadAttributesErr
	}
	id := computePayloadID(update.HeadBlockHash, payloadAttributes)
	api.startBuildJob(id, header, payloadAttributes)
	return valid(&id, update.HeadBlockHash), nil
}

// invalidTerminalBlock reports whether header fails the
// terminal-total-difficulty sanity check the Engine API requires before
// accepting it as a head. Only pre-Merge headers (non-zero difficulty) are
// checked: such a header's own total difficulty must be at or beyond the
// chain's configured TTD, and its parent's must not already be (the merge
// transition block is the one and only pre-Merge block allowed to straddle
// the boundary).
func (api *ConsensusAPI) invalidTerminalBlock(header *types.Header) bool {
	ttd := api.chain.Config().TerminalTotalDifficulty
	if ttd == nil {
		return false
	}
	if header.Number.Sign() == 0 {
		return false // genesis is exempt
	}
	if header.Difficulty.Sign() == 0 {
		return false // post-Merge blocks carry no difficulty
	}
	td := api.chain.GetTd(header.Hash())
	ptd := api.chain.GetTd(header.ParentHash)
	if td == nil || ptd == nil {
		// Unknown total difficulty (a buffered remote header, or one whose
		// parent is not stored): the check cannot be made, so the header is
		// not rejected here.
		return false
	}
	if td.Cmp(ttd) < 0 {
		return true
	}
	if ptd.Cmp(ttd) >= 0 && header.ParentHash != api.chain.Genesis().Hash() {
		return true
	}
	return false
}

func valid(id *beaconengine.PayloadID, headHash common.Hash) beaconengine.ForkChoiceResponse {
	return beaconengine.ForkChoiceResponse{
		PayloadStatus: beaconengine.PayloadStatusV1{Status: beaconengine.VALID, LatestValidHash: &headHash},
		PayloadID:     id,
	}
}

func invalidForkChoice() beaconengine.ForkChoiceResponse {
	return beaconengine.ForkChoiceResponse{PayloadStatus: beaconengine.PayloadStatusV1{Status: beaconengine.INVALID}}
}

// startBuildJob seeds the payload queue with an immediately-available empty
// block, then fills the real one in the background and delivers it through
// the queue once ready. getPayload can be called at any point afterwards
// and will either get the finished block or fall back to the empty one.
func (api *ConsensusAPI) startBuildJob(id beaconengine.PayloadID, parent *types.Header, attrs *beaconengine.PayloadAttributes) {
	empty, _, err := api.assembler.BuildEmpty(parent, attrs)
	if err != nil {
		log.Error("Failed to build empty fallback payload", "id", id, "err", err)
		return
	}
	api.localPayloads.Put(id, empty)

	go func() {
		block, fees, err := api.assembler.BuildPayload(parent, attrs)
		if err != nil {
			log.Warn("Failed to build requested payload", "id", id, "err", err)
			return
		}
		api.feesMu.Lock()
		api.fees[id] = fees
		api.feesMu.Unlock()
		api.localPayloads.Complete(id, block)
	}()
}

// GetPayloadV1 returns the best block built so far for a payload job
// started by a prior forkchoiceUpdated call.
func (api *ConsensusAPI) GetPayloadV1(payloadID beaconengine.PayloadID) (*beaconengine.ExecutionPayloadEnvelope, error) {
	log.Trace("Engine API request received", "method", "GetPayload", "id", payloadID)
	block := api.localPayloads.Get(payloadID, true)
	if block == nil {
		return nil, beaconengine.ErrUnknownPayload
	}
	api.feesMu.Lock()
	fees := api.fees[payloadID]
	api.feesMu.Unlock()
	if fees == nil {
		fees = new(big.Int)
	}
	return beaconengine.BlockToExecutableData(block, fees), nil
}

// NewPayloadV1 validates and, if possible, imports an externally built
// block, then returns the resulting status. A block is only VALID once its
// transactions have been replayed against its parent's post-state and the
// resulting state root matches the one the payload declares; a forged
// state root with an otherwise correct header is rejected as INVALID.
func (api *ConsensusAPI) NewPayloadV1(params beaconengine.ExecutableData) (beaconengine.PayloadStatusV1, error) {
	log.Trace("Engine API request received", "method", "NewPayload", "number", params.Number, "hash", params.BlockHash)
	block, err := beaconengine.ExecutableDataToBlock(params)
	if err != nil {
		log.Debug("Invalid NewPayload params", "error", err)
		return api.invalid(err, common.Hash{}), nil
	}

	if known := api.chain.GetBlockByHash(params.BlockHash); known != nil {
		log.Warn("Ignoring already known beacon payload", "number", params.Number, "hash", params.BlockHash)
		hash := known.Hash()
		return beaconengine.PayloadStatusV1{Status: beaconengine.VALID, LatestValidHash: &hash}, nil
	}

	parent := api.chain.GetHeaderByHash(block.ParentHash())
	if parent == nil {
		api.remoteHeaders.Put(block.Hash(), block.Header())
		log.Warn("Ignoring payload with unknown parent", "number", params.Number, "hash", params.BlockHash, "parent", params.ParentHash)
		return beaconengine.PayloadStatusV1{Status: beaconengine.SYNCING}, nil
	}

	ttd := api.chain.Config().TerminalTotalDifficulty
	if ttd != nil {
		ptd := api.chain.GetTd(parent.Hash())
		if ptd == nil || ptd.Cmp(ttd) < 0 {
			log.Warn("Ignoring pre-merge payload", "number", params.Number, "hash", params.BlockHash, "ptd", ptd, "ttd", ttd)
			return beaconengine.PayloadStatusV1{Status: beaconengine.INVALIDTERMINALBLOCK}, nil
		}
		if parent.Number.Sign() > 0 {
			gptd := api.chain.GetTd(parent.ParentHash)
			if parent.Difficulty.Sign() > 0 && gptd != nil && gptd.Cmp(ttd) >= 0 {
				log.Error("Ignoring payload whose parent is already post-TTD", "number", params.Number, "hash", params.BlockHash)
				return beaconengine.PayloadStatusV1{Status: beaconengine.INVALIDTERMINALBLOCK}, nil
			}
		}
	}
	if block.Time() <= parent.Time {
		return api.invalid(errors.New("invalid timestamp"), api.chain.CurrentHeader().Hash()), nil
	}

	if !api.executor.HasState(parent.Root) {
		api.remoteHeaders.Put(block.Hash(), block.Header())
		log.Warn("Ignoring payload whose parent state is not yet available", "number", params.Number, "hash", params.BlockHash, "parent", params.ParentHash)
		ancestor := api.chain.LatestValidAncestor(parent.Hash(), ttd)
		return beaconengine.PayloadStatusV1{Status: beaconengine.ACCEPTED, LatestValidHash: &ancestor}, nil
	}

	if err := api.chain.InsertHeader(block.Header()); err != nil {
		log.Warn("NewPayloadV1: inserting header failed", "error", err)
		return api.invalid(err, api.chain.LatestValidAncestor(parent.Hash(), ttd)), nil
	}
	if err := api.chain.InsertSideBlock(api.executor, block); err != nil {
		log.Warn("NewPayloadV1: executing payload failed", "error", err)
		return api.invalid(err, api.chain.LatestValidAncestor(parent.Hash(), ttd)), nil
	}

	if !api.merger.TDDReached() {
		api.merger.ReachTTD()
	}

	hash := block.Hash()
	return beaconengine.PayloadStatusV1{Status: beaconengine.VALID, LatestValidHash: &hash}, nil
}

// invalid returns an INVALID response carrying err and the given hash as
// the latest known-good ancestor (the zero hash if none is known yet).
func (api *ConsensusAPI) invalid(err error, latestValidHash common.Hash) beaconengine.PayloadStatusV1 {
	msg := err.Error()
	return beaconengine.PayloadStatusV1{Status: beaconengine.INVALID, LatestValidHash: &latestValidHash, ValidationError: &msg}
}

// ExchangeTransitionConfigurationV1 checks the given configuration against
// this node's own, confirming both sides agree on the terminal total
// difficulty and, if pinned, the terminal block itself.
func (api *ConsensusAPI) ExchangeTransitionConfigurationV1(config beaconengine.TransitionConfigurationV1) (*beaconengine.TransitionConfigurationV1, error) {
	log.Trace("Engine API request received", "method", "ExchangeTransitionConfiguration", "ttd", config.TerminalTotalDifficulty)
	if config.TerminalTotalDifficulty == nil {
		return nil, errors.New("invalid terminal total difficulty")
	}
	ttd := api.chain.Config().TerminalTotalDifficulty
	if ttd == nil || ttd.Cmp(config.TerminalTotalDifficulty.ToInt()) != 0 {
		log.Warn("Invalid TTD configured", "local", ttd, "remote", config.TerminalTotalDifficulty)
		return nil, fmt.Errorf("invalid ttd: execution %v consensus %v", ttd, config.TerminalTotalDifficulty)
	}
	if config.TerminalBlockHash != (common.Hash{}) {
		canon := api.chain.GetHeaderByNumber(uint64(config.TerminalBlockNumber))
		if canon == nil || canon.Hash() != config.TerminalBlockHash {
			return nil, errors.New("invalid terminal block hash")
		}
		return &beaconengine.TransitionConfigurationV1{
			TerminalTotalDifficulty: (*hexutil.Big)(ttd),
			TerminalBlockHash:       config.TerminalBlockHash,
			TerminalBlockNumber:     config.TerminalBlockNumber,
		}, nil
	}
	return &beaconengine.TransitionConfigurationV1{TerminalTotalDifficulty: (*hexutil.Big)(ttd)}, nil
}

// computePayloadID derives a deterministic payload ID from the head block
// hash a payload is built on top of and the attributes it was requested
// with, so identical forkchoiceUpdated calls always address the same build
// job.
func computePayloadID(headBlockHash common.Hash, params *beaconengine.PayloadAttributes) beaconengine.PayloadID {
	enc, _ := rlp.EncodeToBytes([]interface{}{
		headBlockHash,
		params.Timestamp,
		params.Random,
		params.SuggestedFeeRecipient,
	})
	hash := crypto.Keccak256(enc)
	var id beaconengine.PayloadID
	copy(id[:], hash[:8])
	return id
}
