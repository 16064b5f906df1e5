// Copyright 2014 The go-ethereum Authors
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

// Package rlp implements the RLP serialization format used elsewhere in the
// stack to derive deterministic byte representations of headers, bodies and
// transactions for hashing and trie-commitment purposes.
package rlp

import (
	"bytes"
	"fmt"
	"math/big"
	"reflect"
)

// Encoder is implemented by types that want to control their own RLP
// encoding.
type Encoder interface {
	EncodeRLP(w *bytes.Buffer) error
}

// EncodeToBytes returns the RLP encoding of val.
func EncodeToBytes(val interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := encode(buf, reflect.ValueOf(val)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(buf *bytes.Buffer, v reflect.Value) error {
	if !v.IsValid() {
		writeString(buf, nil)
		return nil
	}
	if enc, ok := v.Interface().(Encoder); ok {
		return enc.EncodeRLP(buf)
	}
	// big.Int must be special-cased ahead of the Kind-based switch below:
	// its Kind is Struct (Ptr for *big.Int), which would otherwise fall
	// into the generic struct/pointer cases and encode its unexported
	// internal fields as an empty list instead of its numeric value.
	if bi, ok := v.Interface().(big.Int); ok {
		return encodeBigInt(buf, &bi)
	}
	if v.Kind() == reflect.Ptr && v.Type() == bigIntPtrType {
		if v.IsNil() {
			return encodeBigInt(buf, nil)
		}
		return encodeBigInt(buf, v.Interface().(*big.Int))
	}

	switch v.Kind() {
	case reflect.Ptr:
		if v.IsNil() {
			writeString(buf, nil)
			return nil
		}
		return encode(buf, v.Elem())
	case reflect.Bool:
		if v.Bool() {
			writeString(buf, []byte{1})
		} else {
			writeString(buf, nil)
		}
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		writeString(buf, uintBytes(v.Uint()))
		return nil
	case reflect.String:
		writeString(buf, []byte(v.String()))
		return nil
	case reflect.Slice, reflect.Array:
		if isByteSlice(v) {
			writeString(buf, byteSliceOf(v))
			return nil
		}
		return encodeList(buf, v)
	case reflect.Struct:
		return encodeStruct(buf, v)
	case reflect.Interface:
		if v.IsNil() {
			writeString(buf, nil)
			return nil
		}
		return encode(buf, v.Elem())
	default:
		return fmt.Errorf("rlp: unsupported type %v", v.Type())
	}
}

var bigIntPtrType = reflect.TypeOf(&big.Int{})

func encodeBigInt(buf *bytes.Buffer, bi *big.Int) error {
	if bi == nil {
		writeString(buf, nil)
		return nil
	}
	if bi.Sign() == -1 {
		return fmt.Errorf("rlp: cannot encode negative *big.Int")
	}
	if bi.Sign() == 0 {
		writeString(buf, nil)
		return nil
	}
	writeString(buf, bi.Bytes())
	return nil
}

func encodeList(buf *bytes.Buffer, v reflect.Value) error {
	inner := new(bytes.Buffer)
	for i := 0; i < v.Len(); i++ {
		if err := encode(inner, v.Index(i)); err != nil {
			return err
		}
	}
	writeListHeader(buf, inner.Len())
	buf.Write(inner.Bytes())
	return nil
}

func encodeStruct(buf *bytes.Buffer, v reflect.Value) error {
	inner := new(bytes.Buffer)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.PkgPath != "" {
			continue // unexported
		}
		if err := encode(inner, v.Field(i)); err != nil {
			return err
		}
	}
	writeListHeader(buf, inner.Len())
	buf.Write(inner.Bytes())
	return nil
}

func isByteSlice(v reflect.Value) bool {
	return v.Type().Elem().Kind() == reflect.Uint8
}

func byteSliceOf(v reflect.Value) []byte {
	if v.Kind() == reflect.Slice {
		return v.Bytes()
	}
	b := make([]byte, v.Len())
	for i := range b {
		b[i] = byte(v.Index(i).Uint())
	}
	return b
}

func uintBytes(i uint64) []byte {
	if i == 0 {
		return nil
	}
	var b [8]byte
	n := 8
	for n > 0 {
		n--
		b[n] = byte(i)
		i >>= 8
		if i == 0 {
			break
		}
	}
	return b[n:]
}

// writeString writes an RLP string header (for byte arrays, not RLP lists)
// followed by the payload, per the encoding rules:
//   - a single byte below 0x80 encodes as itself;
//   - a string 0-55 bytes long encodes as 0x80+len followed by the string;
//   - longer strings encode as 0xb7+len(len) followed by the length and the string.
func writeString(buf *bytes.Buffer, s []byte) {
	if len(s) == 1 && s[0] < 0x80 {
		buf.WriteByte(s[0])
		return
	}
	writeHeader(buf, 0x80, 0xb7, len(s))
	buf.Write(s)
}

// writeListHeader writes an RLP list header for a payload of length n:
//   - 0-55 bytes: 0xc0+len;
//   - longer: 0xf7+len(len) followed by the length.
func writeListHeader(buf *bytes.Buffer, n int) {
	writeHeader(buf, 0xc0, 0xf7, n)
}

func writeHeader(buf *bytes.Buffer, short, longBase byte, n int) {
	if n < 56 {
		buf.WriteByte(short + byte(n))
		return
	}
	lenBytes := uintBytes(uint64(n))
	buf.WriteByte(longBase + byte(len(lenBytes)))
	buf.Write(lenBytes)
}
