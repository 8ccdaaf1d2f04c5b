// Copyright 2026 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"bytes"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/ianlewis/go-quickdic/internal/format"
)

// Decode decodes an index section.
func Decode(b []byte, options *Options) (*Index, error) {
	d := format.NewDecoder(b)

	var h Header
	h.ShortName = d.Text()
	h.LongName = d.Text()
	h.SortLanguage = d.Text()
	switch d.Byte() {
	case 0:
	case 1:
		h.SwapPairEntries = true
	default:
		return nil, fmt.Errorf("%w: index %q: bad swap flag", format.ErrFormat, h.ShortName)
	}

	// Each entry has at least a token length, start row and two bitmap
	// lengths.
	entries := make([]*Entry, d.Count(4))
	for i := range entries {
		e := &Entry{
			Token:    d.Text(),
			StartRow: d.Int(math.MaxInt32),
		}
		var err error
		if e.EntryIDs, err = decodeBitmap(d); err != nil {
			return nil, fmt.Errorf("index %q: entry %d: %w", h.ShortName, i, err)
		}
		if e.HTMLEntryIDs, err = decodeBitmap(d); err != nil {
			return nil, fmt.Errorf("index %q: entry %d: %w", h.ShortName, i, err)
		}
		entries[i] = e
	}

	rows := make([]RowRef, d.Count(2))
	for i := range rows {
		rows[i].Kind = RowKind(d.Byte())
		rows[i].Ref = d.Int(math.MaxInt32)
	}

	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("index %q: %w", h.ShortName, err)
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("%w: index %q: %d trailing bytes", format.ErrFormat, h.ShortName, d.Remaining())
	}

	idx, err := New(h, entries, rows, options)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", format.ErrFormat, err)
	}
	return idx, nil
}

func decodeBitmap(d *format.Decoder) (*roaring.Bitmap, error) {
	n := d.Count(1)
	b := d.Bytes(n)
	if err := d.Err(); err != nil {
		return nil, err
	}
	bm := roaring.New()
	if n == 0 {
		return bm, nil
	}
	if _, err := bm.ReadFrom(bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("%w: bitmap: %w", format.ErrFormat, err)
	}
	return bm, nil
}

// AppendBinary appends the encoded index section to b.
func (idx *Index) AppendBinary(b []byte) ([]byte, error) {
	e := &format.Encoder{}
	e.Raw(b)

	e.Text(idx.header.ShortName)
	e.Text(idx.header.LongName)
	e.Text(idx.header.SortLanguage)
	var swap byte
	if idx.header.SwapPairEntries {
		swap = 1
	}
	e.Byte(swap)

	e.Int(len(idx.entries))
	for _, entry := range idx.entries {
		e.Text(entry.Token)
		e.Int(entry.StartRow)
		for _, bm := range []*roaring.Bitmap{entry.EntryIDs, entry.HTMLEntryIDs} {
			if bm.IsEmpty() {
				e.Int(0)
				continue
			}
			bmb, err := bm.ToBytes()
			if err != nil {
				return nil, fmt.Errorf("encoding bitmap for %q: %w", entry.Token, err)
			}
			e.Int(len(bmb))
			e.Raw(bmb)
		}
	}

	e.Int(len(idx.rows))
	for _, r := range idx.rows {
		e.Byte(byte(r.Kind))
		e.Int(r.Ref)
	}

	return e.Bytes(), nil
}
