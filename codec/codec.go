// Copyright 2023 The CubeFS Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package codec implements the little-endian, field-ordered wire layout
// shared by every replicated metadata entity. Encoding only appends,
// decoding only advances a cursor. A short buffer is a protocol violation
// and panics with *DecodeError; use Safe or Unmarshal at trust boundaries.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cubefs/cubefs/blobstore/util/errors"
	apierrors "github.com/cubefs/mdscore/errors"
	"github.com/cubefs/mdscore/util"
)

const defaultEncoderSize = 256

type (
	Encodable interface {
		Encode(e *Encoder)
	}
	Decodable interface {
		Decode(d *Decoder)
	}

	Encoder struct {
		buf    []byte
		pooled bool
	}

	Decoder struct {
		buf []byte
		off int
	}

	// DecodeError is the panic value raised by a Decoder running out of bytes.
	DecodeError struct {
		What   string
		Offset int
		Need   int
		Have   int
	}
)

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s at offset %d: need %d bytes, have %d", e.What, e.Offset, e.Need, e.Have)
}

func (e *DecodeError) Unwrap() error {
	return apierrors.ErrTruncated
}

// NewEncoder returns an encoder backed by a pooled buffer, call Release
// once the bytes are no longer referenced.
func NewEncoder(size int) *Encoder {
	if size <= 0 {
		size = defaultEncoderSize
	}
	return &Encoder{buf: util.GetBuffer(size), pooled: true}
}

// NewEncoderTo appends to b, which stays owned by the caller.
func NewEncoderTo(b []byte) *Encoder {
	return &Encoder{buf: b}
}

func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Len() int { return len(e.buf) }

func (e *Encoder) Release() {
	if e.pooled {
		util.PutBuffer(e.buf)
	}
	e.buf = nil
	e.pooled = false
}

func (e *Encoder) PutU8(v uint8) {
	e.buf = append(e.buf, v)
}

func (e *Encoder) PutBool(v bool) {
	if v {
		e.PutU8(1)
		return
	}
	e.PutU8(0)
}

func (e *Encoder) PutU32(v uint32) {
	e.buf = binary.LittleEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) PutI32(v int32) {
	e.PutU32(uint32(v))
}

func (e *Encoder) PutU64(v uint64) {
	e.buf = binary.LittleEndian.AppendUint64(e.buf, v)
}

func (e *Encoder) PutI64(v int64) {
	e.PutU64(uint64(v))
}

func (e *Encoder) PutF64(v float64) {
	e.PutU64(math.Float64bits(v))
}

func (e *Encoder) PutBytes(b []byte) {
	e.PutU32(uint32(len(b)))
	e.buf = append(e.buf, b...)
}

func (e *Encoder) PutString(s string) {
	e.PutU32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

func (e *Encoder) Put(v Encodable) {
	v.Encode(e)
}

func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

func (d *Decoder) Offset() int { return d.off }

func (d *Decoder) Remaining() int { return len(d.buf) - d.off }

func (d *Decoder) next(n int, what string) []byte {
	if n < 0 || d.Remaining() < n {
		panic(&DecodeError{What: what, Offset: d.off, Need: n, Have: d.Remaining()})
	}
	b := d.buf[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) U8() uint8 {
	return d.next(1, "u8")[0]
}

func (d *Decoder) Bool() bool {
	return d.next(1, "bool")[0] != 0
}

func (d *Decoder) U32() uint32 {
	return binary.LittleEndian.Uint32(d.next(4, "u32"))
}

func (d *Decoder) I32() int32 {
	return int32(d.U32())
}

func (d *Decoder) U64() uint64 {
	return binary.LittleEndian.Uint64(d.next(8, "u64"))
}

func (d *Decoder) I64() int64 {
	return int64(d.U64())
}

func (d *Decoder) F64() float64 {
	return math.Float64frombits(d.U64())
}

// Bytes returns a copy, the decoder buffer may be reused by the caller.
func (d *Decoder) Bytes() []byte {
	n := int(d.U32())
	b := d.next(n, "bytes")
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (d *Decoder) String() string {
	n := int(d.U32())
	return string(d.next(n, "string"))
}

func (d *Decoder) Get(v Decodable) {
	v.Decode(d)
}

// Safe runs fn and turns a decode panic into an error. Other panics pass through.
func Safe(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			de, ok := r.(*DecodeError)
			if !ok {
				panic(r)
			}
			err = de
		}
	}()
	fn()
	return nil
}

// Marshal encodes v into a fresh slice not owned by any pool.
func Marshal(v Encodable) []byte {
	e := NewEncoder(0)
	defer e.Release()
	v.Encode(e)
	out := make([]byte, e.Len())
	copy(out, e.Bytes())
	return out
}

// Unmarshal decodes exactly one v from data.
func Unmarshal(data []byte, v Decodable) error {
	d := NewDecoder(data)
	if err := Safe(func() { v.Decode(d) }); err != nil {
		return err
	}
	if d.Remaining() != 0 {
		return errors.Info(apierrors.ErrTrailingBytes, fmt.Sprintf("%d bytes left", d.Remaining()))
	}
	return nil
}
