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

// PayloadStatus values, as defined by the Engine API.
const (
	VALID               = "VALID"
	INVALID             = "INVALID"
	SYNCING             = "SYNCING"
	ACCEPTED            = "ACCEPTED"
	INVALIDBLOCKHASH    = "INVALID_BLOCK_HASH"
	INVALIDTERMINALBLOCK = "INVALID_TERMINAL_BLOCK"
)

// Engine API JSON-RPC error codes. The Engine-specific codes use the -38xxx
// range; InvalidParams is the standard JSON-RPC invalid-params code.
const (
	UnknownPayload       = -38001
	InvalidForkChoiceState = -38002
	InvalidPayloadAttributes = -38003
	TooLargeRequest       = -38004
	InvalidParams         = -32602
)

// EngineError implements the rpc.Error interface the server transport uses
// to place an error code on a JSON-RPC response.
type EngineError struct {
	Code    int
	Message string
}

func (e *EngineError) ErrorCode() int { return e.Code }
func (e *EngineError) Error() string  { return e.Message }

// Predefined Engine API error responses for conditions that don't carry
// dynamic detail.
var (
	ErrUnknownPayload = &EngineError{Code: UnknownPayload, Message: "unknown payload"}

	InvalidForkChoiceStateErr = &EngineError{Code: InvalidForkChoiceState, Message: "invalid forkchoice state"}

	InvalidPayloadAttributesErr = &EngineError{Code: InvalidPayloadAttributes, Message: "invalid payload attributes"}

	TooLargeRequestErr = &EngineError{Code: TooLargeRequest, Message: "too large request"}
)

// InvalidParamsErr wraps a detail message with the generic JSON-RPC invalid
// params code.
func InvalidParamsErr(msg string) *EngineError {
	return &EngineError{Code: InvalidParams, Message: msg}
}
