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

// Package entry implements the dictionary's shared content records and lazy
// random access to them.
package entry

import (
	"errors"
	"fmt"

	"github.com/ianlewis/go-quickdic/internal/format"
)

// ErrOutOfRange indicates that a position is outside of a table or row
// sequence.
var ErrOutOfRange = errors.New("position out of range")

// Pair is a single bilingual text pair.
type Pair struct {
	// TextA is the text in the dictionary's first language unless Swap is
	// set.
	TextA string

	// TextB is the text in the dictionary's second language unless Swap is
	// set.
	TextB string

	// Swap indicates that the texts are stored in reverse: TextB is in the
	// first language and TextA in the second.
	Swap bool
}

// Side returns the text in the first language for side 0 and the second
// language for side 1, taking Swap into account.
func (p Pair) Side(i int) string {
	if (i == 0) != p.Swap {
		return p.TextA
	}
	return p.TextB
}

// PairEntry is a shared content record holding one or more pairs.
type PairEntry struct {
	Pairs []Pair
}

// AppendBinary appends the encoded entry payload to b.
func (e *PairEntry) AppendBinary(b []byte) ([]byte, error) {
	enc := &format.Encoder{}
	enc.Raw(b)
	enc.Int(len(e.Pairs))
	for _, p := range e.Pairs {
		enc.Text(p.TextA)
		enc.Text(p.TextB)
		var swap byte
		if p.Swap {
			swap = 1
		}
		enc.Byte(swap)
	}
	return enc.Bytes(), nil
}

// DecodePairEntry decodes a pair entry payload.
func DecodePairEntry(b []byte) (*PairEntry, error) {
	d := format.NewDecoder(b)
	// Each pair has two length prefixes and a swap byte.
	n := d.Count(3)
	e := &PairEntry{Pairs: make([]Pair, 0, n)}
	for range n {
		var p Pair
		p.TextA = d.Text()
		p.TextB = d.Text()
		switch d.Byte() {
		case 0:
		case 1:
			p.Swap = true
		default:
			return nil, fmt.Errorf("%w: bad swap flag", format.ErrFormat)
		}
		e.Pairs = append(e.Pairs, p)
	}
	if err := finish(d); err != nil {
		return nil, err
	}
	return e, nil
}

// HTMLEntry is a shared HTML article.
type HTMLEntry struct {
	Title string
	HTML  string
}

// AppendBinary appends the encoded entry payload to b.
func (e *HTMLEntry) AppendBinary(b []byte) ([]byte, error) {
	enc := &format.Encoder{}
	enc.Raw(b)
	enc.Text(e.Title)
	enc.Text(e.HTML)
	return enc.Bytes(), nil
}

// DecodeHTMLEntry decodes an HTML entry payload.
func DecodeHTMLEntry(b []byte) (*HTMLEntry, error) {
	d := format.NewDecoder(b)
	e := &HTMLEntry{
		Title: d.Text(),
		HTML:  d.Text(),
	}
	if err := finish(d); err != nil {
		return nil, err
	}
	return e, nil
}

func finish(d *format.Decoder) error {
	if err := d.Err(); err != nil {
		return err
	}
	if d.Remaining() != 0 {
		return fmt.Errorf("%w: %d trailing bytes in entry", format.ErrFormat, d.Remaining())
	}
	return nil
}
