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
	"sync"
	"time"

	"engineapi/common"
	"engineapi/consensus"
	"engineapi/core"
	"engineapi/core/types"
	"engineapi/log"
)

// Config holds the local sealing loop's tunables: the account to credit
// block rewards to, extra data to stamp into sealed headers, and how often
// to attempt a new block while sealing is active.
type Config struct {
	Etherbase common.Address
	ExtraData []byte
	Recommit  time.Duration
}

// Miner drives the pre-Merge proof-of-authority sealing loop: on every
// recommit tick it fills a block on top of the current head, submits it to
// the consensus engine to wait for this node's slot, and on success extends
// the local chain. Once the merger's total-difficulty latch flips, Miner
// permanently stops attempting new blocks — from that point on, block
// production is driven exclusively by the Engine API.
type Miner struct {
	config    Config
	chain     *core.BlockChain
	merger    *core.Merger
	engine    consensus.Engine
	assembler *Assembler

	mu      sync.Mutex
	running bool
	exitCh  chan struct{}
}

// New creates a Miner wired to the given chain, merger latch, consensus
// engine and payload assembler.
func New(config Config, chain *core.BlockChain, merger *core.Merger, engine consensus.Engine, assembler *Assembler) *Miner {
	return &Miner{
		config:    config,
		chain:     chain,
		merger:    merger,
		engine:    engine,
		assembler: assembler,
	}
}

// Start begins the sealing loop in the background. Calling Start on an
// already-running Miner is a no-op.
func (m *Miner) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	if m.merger.TDDReached() {
		log.Info("Not starting sealing loop, already past the merge")
		return
	}
	m.running = true
	m.exitCh = make(chan struct{})
	go m.loop(m.exitCh)
}

// Stop halts the sealing loop. Calling Stop on a non-running Miner is a
// no-op.
func (m *Miner) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running {
		return
	}
	close(m.exitCh)
	m.running = false
}

func (m *Miner) loop(exitCh chan struct{}) {
	recommit := m.config.Recommit
	if recommit <= 0 {
		recommit = 3 * time.Second
	}
	ticker := time.NewTicker(recommit)
	defer ticker.Stop()

	for {
		select {
		case <-exitCh:
			return
		case <-ticker.C:
			if m.merger.TDDReached() {
				log.Info("Terminal total difficulty reached, stopping sealing loop")
				m.mu.Lock()
				m.running = false
				m.mu.Unlock()
				return
			}
			m.commit(exitCh)
		}
	}
}

// commit builds and seals a single block on top of the current head.
func (m *Miner) commit(exitCh chan struct{}) {
	parent := m.chain.CurrentHeader()
	block, _, err := m.assembler.BuildBlock(parent, m.config.Etherbase, m.config.ExtraData)
	if err != nil {
		log.Error("Failed to build block for sealing", "err", err)
		return
	}

	results := make(chan *types.Block, 1)
	if err := m.engine.Seal(m.chain, block, results, exitCh); err != nil {
		log.Warn("Block sealing failed", "err", err)
		return
	}

	select {
	case sealed := <-results:
		if sealed == nil {
			return
		}
		if err := m.chain.InsertBlockWithoutSetHead(sealed); err != nil {
			log.Error("Failed to insert sealed block", "err", err)
			return
		}
		if _, err := m.chain.SetCanonical(sealed.Hash()); err != nil {
			log.Error("Failed to extend canonical chain with sealed block", "err", err)
			return
		}
		log.Info("Sealed new block", "number", sealed.NumberU64(), "hash", sealed.Hash())
	case <-exitCh:
	}
}
