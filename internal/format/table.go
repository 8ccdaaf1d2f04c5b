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
	"io"
	"math"
)

// TableLayout is the decoded offset table of an entry table section. Blob i
// occupies the absolute file range [Offsets[i], Offsets[i+1]).
type TableLayout struct {
	Offsets []int64
}

// Len returns the number of blobs in the table.
func (t *TableLayout) Len() int {
	if len(t.Offsets) == 0 {
		return 0
	}
	return len(t.Offsets) - 1
}

// Bounds returns the absolute offset and length of blob i.
func (t *TableLayout) Bounds(i int) (int64, int) {
	return t.Offsets[i], int(t.Offsets[i+1] - t.Offsets[i])
}

// EncodeTable encodes blobs as an entry table section.
func EncodeTable(blobs [][]byte) ([]byte, error) {
	if len(blobs) > math.MaxUint32-1 {
		return nil, fmt.Errorf("%w: too many entries: %d", ErrFormat, len(blobs))
	}

	headerLen := 4 + 8*(len(blobs)+1)
	e := &Encoder{}
	//nolint:gosec // bounds checked above.
	e.Uint32(uint32(len(blobs)))
	off := uint64(headerLen)
	e.Uint64(off)
	for _, b := range blobs {
		off += uint64(len(b))
		e.Uint64(off)
	}
	for _, b := range blobs {
		e.Raw(b)
	}
	return e.Bytes(), nil
}

// ReadTableLayout reads the offset table of the entry table section s
// without reading any blobs. Offsets must be non-decreasing and lie within
// the section.
func ReadTableLayout(r io.ReaderAt, s Section) (*TableLayout, error) {
	if s.Length == 0 {
		return &TableLayout{}, nil
	}
	b, err := ReadAt(r, s.Offset, 4)
	if err != nil {
		return nil, err
	}
	count := int64(binary.BigEndian.Uint32(b))
	headerLen := 4 + 8*(count+1)
	if headerLen > s.Length {
		return nil, fmt.Errorf("%w: %v: %d entries do not fit in %d bytes",
			ErrFormat, s.Kind, count, s.Length)
	}

	b, err = ReadAt(r, s.Offset+4, int(8*(count+1)))
	if err != nil {
		return nil, err
	}
	offsets := make([]int64, count+1)
	prev := uint64(headerLen)
	for i := range offsets {
		off := binary.BigEndian.Uint64(b[8*i:])
		if off < prev || off > uint64(s.Length) {
			return nil, fmt.Errorf("%w: %v: blob %d offset %d out of order or out of bounds",
				ErrFormat, s.Kind, i, off)
		}
		prev = off
		offsets[i] = s.Offset + int64(off)
	}
	return &TableLayout{Offsets: offsets}, nil
}
