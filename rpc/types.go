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

// Package rpc describes the registration contract a JSON-RPC transport
// uses to expose a Go service's methods. The actual HTTP/WebSocket
// transport, request dispatch and JWT authentication are external
// collaborators; this package only carries the shape of that boundary.
package rpc

// API describes the set of methods offered over the RPC interface.
type API struct {
	Namespace     string      // namespace under which the rpc methods of Service are exposed
	Version       string      // deprecated - this field is no longer used, but retained for compatibility
	Service       interface{} // receiver instance which holds the methods
	Authenticated bool        // whether the api should only be available behind authentication
}

// Error wraps RPC errors, which contain an error code in addition to the
// error message.
type Error interface {
	error
	ErrorCode() int // returns the JSON-RPC error code
}

// Engine API methods are only ever exposed on an authenticated endpoint and
// reserve the -38000 to -38999 error code range; below is the -32000 range
// used for general JSON-RPC errors shared with the rest of the surface.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)
