// Copyright 2026 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package format

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Decoder decodes values from an in-memory section. The first error is
// sticky: once decoding fails every subsequent call returns a zero value and
// Err returns the error.
type Decoder struct {
	b   []byte
	off int
	err error
}

// NewDecoder returns a decoder over b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{b: b}
}

// Err returns the first error encountered.
func (d *Decoder) Err() error {
	return d.err
}

// Offset returns the number of bytes consumed.
func (d *Decoder) Offset() int {
	return d.off
}

// Remaining returns the number of bytes left.
func (d *Decoder) Remaining() int {
	return len(d.b) - d.off
}

func (d *Decoder) fail(format string, args ...any) {
	if d.err == nil {
		d.err = fmt.Errorf("%w: offset %d: %s", ErrFormat, d.off, fmt.Sprintf(format, args...))
	}
}

// Byte decodes a single byte.
func (d *Decoder) Byte() byte {
	b := d.Bytes(1)
	if b == nil {
		return 0
	}
	return b[0]
}

// Uint32 decodes a big-endian uint32.
func (d *Decoder) Uint32() uint32 {
	b := d.Bytes(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

// Uint64 decodes a big-endian uint64.
func (d *Decoder) Uint64() uint64 {
	b := d.Bytes(8)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}

// Uvarint decodes an unsigned varint.
func (d *Decoder) Uvarint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := binary.Uvarint(d.b[d.off:])
	if n <= 0 {
		d.fail("bad uvarint")
		return 0
	}
	d.off += n
	return v
}

// Count decodes a uvarint element count. Each element must occupy at least
// minSize bytes, which bounds the count by the remaining data so that a
// corrupt count cannot cause a huge allocation.
func (d *Decoder) Count(minSize int) int {
	v := d.Uvarint()
	if d.err != nil {
		return 0
	}
	if v > math.MaxInt32 || (minSize > 0 && v > uint64(d.Remaining()/minSize)) {
		d.fail("count %d exceeds remaining data", v)
		return 0
	}
	return int(v)
}

// Int decodes a uvarint that must fit in [0, limit).
func (d *Decoder) Int(limit int) int {
	v := d.Uvarint()
	if d.err != nil {
		return 0
	}
	if v >= uint64(limit) {
		d.fail("value %d out of range [0, %d)", v, limit)
		return 0
	}
	return int(v)
}

// Bytes returns the next n bytes. The returned slice aliases the section.
func (d *Decoder) Bytes(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || n > d.Remaining() {
		d.fail("need %d bytes, have %d", n, d.Remaining())
		return nil
	}
	b := d.b[d.off : d.off+n]
	d.off += n
	return b
}

// Text decodes a length prefixed utf-8 string.
func (d *Decoder) Text() string {
	n := d.Uvarint()
	if d.err != nil {
		return ""
	}
	if n > uint64(d.Remaining()) {
		d.fail("string length %d exceeds remaining data", n)
		return ""
	}
	b := d.Bytes(int(n))
	if !utf8.Valid(b) {
		d.fail("invalid utf-8 string")
		return ""
	}
	return string(b)
}

// Encoder appends encoded values to a buffer.
type Encoder struct {
	b []byte
}

// Bytes returns the encoded data.
func (e *Encoder) Bytes() []byte {
	return e.b
}

// Len returns the number of bytes encoded.
func (e *Encoder) Len() int {
	return len(e.b)
}

// Byte encodes a single byte.
func (e *Encoder) Byte(v byte) {
	e.b = append(e.b, v)
}

// Uint32 encodes a big-endian uint32.
func (e *Encoder) Uint32(v uint32) {
	e.b = binary.BigEndian.AppendUint32(e.b, v)
}

// Uint64 encodes a big-endian uint64.
func (e *Encoder) Uint64(v uint64) {
	e.b = binary.BigEndian.AppendUint64(e.b, v)
}

// Uvarint encodes an unsigned varint.
func (e *Encoder) Uvarint(v uint64) {
	e.b = binary.AppendUvarint(e.b, v)
}

// Int encodes a non-negative int as a uvarint.
func (e *Encoder) Int(v int) {
	//nolint:gosec // callers only encode non-negative values.
	e.Uvarint(uint64(v))
}

// Text encodes a length prefixed string.
func (e *Encoder) Text(s string) {
	e.Int(len(s))
	e.b = append(e.b, s...)
}

// Raw appends b unchanged.
func (e *Encoder) Raw(b []byte) {
	e.b = append(e.b, b...)
}
