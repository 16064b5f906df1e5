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

package engine

import (
	"sync"
	"time"

	"engineapi/common"
	"engineapi/core/types"
)

const (
	maxTrackedPayloads = 10 // maximum number of build jobs tracked at once
	maxTrackedHeaders  = 10 // maximum number of unresolved headers tracked at once
)

// payload wraps an in-progress or completed block-building job. The
// assembler runs in the background and sends its result on result; resolve
// either takes that result or, past a short deadline, falls back to
// whatever block was last assembled (possibly empty), matching the Engine
// API's requirement that getPayload never block indefinitely.
type payload struct {
	lock   sync.Mutex
	done   bool
	empty  *types.Block
	block  *types.Block
	result chan *types.Block
}

func newPayload(empty *types.Block) *payload {
	return &payload{
		empty:  empty,
		result: make(chan *types.Block, 1),
	}
}

// resolve returns the best block available for this payload ID, waiting up
// to the given timeout for the assembler to finish, and falling back to the
// last complete result (or the pre-seeded empty block) if it times out.
func (p *payload) resolve(timeout time.Duration) *types.Block {
	p.lock.Lock()
	defer p.lock.Unlock()

	if p.done {
		return p.block
	}
	select {
	case block := <-p.result:
		p.block = block
		p.done = true
		return block
	case <-time.After(timeout):
		if p.block != nil {
			return p.block
		}
		return p.empty
	}
}

// resolveEmpty returns the empty-block fallback without waiting on the
// assembler, for a getPayload call made suspiciously soon after the build
// job started.
func (p *payload) resolveEmpty() *types.Block {
	p.lock.Lock()
	defer p.lock.Unlock()
	if p.block != nil {
		return p.block
	}
	return p.empty
}

type payloadQueueItem struct {
	id      PayloadID
	payload *payload
}

// PayloadQueue tracks the fixed-size, most-recently-requested window of
// block-building jobs started by forkchoiceUpdated, so a subsequent
// getPayload for the same ID can retrieve the result.
type PayloadQueue struct {
	payloads []*payloadQueueItem
	lock     sync.RWMutex
}

// NewPayloadQueue creates an empty PayloadQueue.
func NewPayloadQueue() *PayloadQueue {
	return &PayloadQueue{payloads: make([]*payloadQueueItem, maxTrackedPayloads)}
}

// Put inserts payload at the front of the queue, evicting the oldest entry
// if the queue is already at capacity.
func (q *PayloadQueue) Put(id PayloadID, empty *types.Block) *payload {
	q.lock.Lock()
	defer q.lock.Unlock()

	p := newPayload(empty)
	copy(q.payloads[1:], q.payloads)
	q.payloads[0] = &payloadQueueItem{id: id, payload: p}
	return p
}

// Get retrieves a tracked build job by ID. If full is true, it blocks for up
// to half a second for the assembler to finish before falling back.
func (q *PayloadQueue) Get(id PayloadID, full bool) *types.Block {
	q.lock.RLock()
	defer q.lock.RUnlock()

	for _, item := range q.payloads {
		if item != nil && item.id == id {
			if full {
				return item.payload.resolve(500 * time.Millisecond)
			}
			return item.payload.resolveEmpty()
		}
	}
	return nil
}

// Complete delivers the finished build result for id, unblocking any
// in-flight Get(id, true) call and fixing the value future calls resolve to.
// It is a no-op if id is no longer tracked (it fell out of the fixed-size
// window) or already has a result.
func (q *PayloadQueue) Complete(id PayloadID, block *types.Block) {
	q.lock.RLock()
	defer q.lock.RUnlock()

	for _, item := range q.payloads {
		if item != nil && item.id == id {
			select {
			case item.payload.result <- block:
			default:
			}
			return
		}
	}
}

type headerQueueItem struct {
	hash   common.Hash
	header *types.Header
}

// HeaderQueue buffers headers for blocks whose parent newPayload has not yet
// seen, so that when the parent later arrives the buffered child can be
// connected without the consensus layer having to resend it.
type HeaderQueue struct {
	headers []*headerQueueItem
	lock    sync.RWMutex
}

// NewHeaderQueue creates an empty HeaderQueue.
func NewHeaderQueue() *HeaderQueue {
	return &HeaderQueue{headers: make([]*headerQueueItem, maxTrackedHeaders)}
}

// Put inserts header at the front of the queue, evicting the oldest entry if
// the queue is already at capacity.
func (q *HeaderQueue) Put(hash common.Hash, header *types.Header) {
	q.lock.Lock()
	defer q.lock.Unlock()

	copy(q.headers[1:], q.headers)
	q.headers[0] = &headerQueueItem{hash: hash, header: header}
}

// Get retrieves a buffered header by hash.
func (q *HeaderQueue) Get(hash common.Hash) *types.Header {
	q.lock.RLock()
	defer q.lock.RUnlock()

	for _, item := range q.headers {
		if item != nil && item.hash == hash {
			return item.header
		}
	}
	return nil
}
