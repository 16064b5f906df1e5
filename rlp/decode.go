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

package rlp

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
)

var (
	ErrExpectedString = errors.New("rlp: expected string or byte")
	ErrExpectedList   = errors.New("rlp: expected list")
	ErrCanonInt       = errors.New("rlp: non-canonical integer format")
	ErrValueTooLarge  = errors.New("rlp: value size exceeds available input")
)

// DecodeBytes parses RLP data from b into val, which must be a non-nil
// pointer.
func DecodeBytes(b []byte, val interface{}) error {
	rv := reflect.ValueOf(val)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("rlp: DecodeBytes requires a non-nil pointer")
	}
	d := &decoder{buf: b}
	if err := d.decode(rv.Elem()); err != nil {
		return err
	}
	return nil
}

type decoder struct {
	buf []byte
	pos int
}

// readKind reads the header byte and returns the content bounds and whether
// it's a list.
func (d *decoder) readKind() (content []byte, isList bool, err error) {
	if d.pos >= len(d.buf) {
		return nil, false, fmt.Errorf("rlp: input too short")
	}
	b := d.buf[d.pos]
	switch {
	case b < 0x80:
		content = d.buf[d.pos : d.pos+1]
		d.pos++
		return content, false, nil
	case b < 0xb8:
		n := int(b - 0x80)
		d.pos++
		if d.pos+n > len(d.buf) {
			return nil, false, ErrValueTooLarge
		}
		content = d.buf[d.pos : d.pos+n]
		d.pos += n
		return content, false, nil
	case b < 0xc0:
		lenLen := int(b - 0xb7)
		d.pos++
		n, err := d.readSize(lenLen)
		if err != nil {
			return nil, false, err
		}
		if d.pos+n > len(d.buf) {
			return nil, false, ErrValueTooLarge
		}
		content = d.buf[d.pos : d.pos+n]
		d.pos += n
		return content, false, nil
	case b < 0xf8:
		n := int(b - 0xc0)
		d.pos++
		if d.pos+n > len(d.buf) {
			return nil, false, ErrValueTooLarge
		}
		content = d.buf[d.pos : d.pos+n]
		d.pos += n
		return content, true, nil
	default:
		lenLen := int(b - 0xf7)
		d.pos++
		n, err := d.readSize(lenLen)
		if err != nil {
			return nil, false, err
		}
		if d.pos+n > len(d.buf) {
			return nil, false, ErrValueTooLarge
		}
		content = d.buf[d.pos : d.pos+n]
		d.pos += n
		return content, true, nil
	}
}

func (d *decoder) readSize(n int) (int, error) {
	if d.pos+n > len(d.buf) {
		return 0, ErrValueTooLarge
	}
	var size uint64
	for i := 0; i < n; i++ {
		size = size<<8 | uint64(d.buf[d.pos+i])
	}
	d.pos += n
	return int(size), nil
}

func (d *decoder) decode(v reflect.Value) error {
	// big.Int's Kind is Struct, which would otherwise be caught by the
	// generic struct case below and decoded field-by-field against its
	// unexported internals instead of as a single integer value.
	if v.Type() == bigIntType {
		content, isList, err := d.readKind()
		if err != nil || isList {
			return ErrExpectedString
		}
		v.Set(reflect.ValueOf(*new(big.Int).SetBytes(content)))
		return nil
	}
	switch v.Kind() {
	case reflect.Ptr:
		elem := reflect.New(v.Type().Elem())
		if err := d.decode(elem.Elem()); err != nil {
			return err
		}
		v.Set(elem)
		return nil
	case reflect.Bool:
		content, isList, err := d.readKind()
		if err != nil || isList {
			return ErrExpectedString
		}
		v.SetBool(len(content) != 0 && content[0] != 0)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		content, isList, err := d.readKind()
		if err != nil {
			return err
		}
		if isList {
			return ErrExpectedString
		}
		v.SetUint(bytesToUint64(content))
		return nil
	case reflect.String:
		content, isList, err := d.readKind()
		if err != nil || isList {
			return ErrExpectedString
		}
		v.SetString(string(content))
		return nil
	case reflect.Slice, reflect.Array:
		return d.decodeSliceOrArray(v)
	case reflect.Struct:
		return d.decodeStruct(v)
	default:
		return fmt.Errorf("rlp: unsupported decode type %v", v.Type())
	}
}

var bigIntType = reflect.TypeOf(big.Int{})

func (d *decoder) decodeSliceOrArray(v reflect.Value) error {
	if v.Type().Elem().Kind() == reflect.Uint8 {
		content, isList, err := d.readKind()
		if err != nil || isList {
			return ErrExpectedString
		}
		if v.Kind() == reflect.Slice {
			v.SetBytes(append([]byte{}, content...))
		} else {
			reflect.Copy(v, reflect.ValueOf(content))
		}
		return nil
	}
	content, isList, err := d.readKind()
	if err != nil {
		return err
	}
	if !isList {
		return ErrExpectedList
	}
	sub := &decoder{buf: content}
	var items []reflect.Value
	elemType := v.Type().Elem()
	for sub.pos < len(sub.buf) {
		elem := reflect.New(elemType).Elem()
		if err := sub.decode(elem); err != nil {
			return err
		}
		items = append(items, elem)
	}
	if v.Kind() == reflect.Slice {
		out := reflect.MakeSlice(v.Type(), len(items), len(items))
		for i, it := range items {
			out.Index(i).Set(it)
		}
		v.Set(out)
	} else {
		for i, it := range items {
			if i < v.Len() {
				v.Index(i).Set(it)
			}
		}
	}
	return nil
}

func (d *decoder) decodeStruct(v reflect.Value) error {
	content, isList, err := d.readKind()
	if err != nil {
		return err
	}
	if !isList {
		return ErrExpectedList
	}
	sub := &decoder{buf: content}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if t.Field(i).PkgPath != "" {
			continue
		}
		if sub.pos >= len(sub.buf) {
			break
		}
		if err := sub.decode(v.Field(i)); err != nil {
			return err
		}
	}
	return nil
}

func bytesToUint64(b []byte) uint64 {
	var x uint64
	for _, bb := range b {
		x = x<<8 | uint64(bb)
	}
	return x
}
