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
	"fmt"

	"github.com/ianlewis/go-quickdic/entry"
)

// RowKind is the kind of a row.
type RowKind uint8

const (
	// TokenRowKind is a token marker row.
	TokenRowKind RowKind = iota

	// PairEntryRowKind is a row displaying a pair entry.
	PairEntryRowKind

	// HTMLEntryRowKind is a row displaying an HTML entry.
	HTMLEntryRowKind
)

// String implements [fmt.Stringer].
func (k RowKind) String() string {
	switch k {
	case TokenRowKind:
		return "token"
	case PairEntryRowKind:
		return "pair"
	case HTMLEntryRowKind:
		return "html"
	default:
		return fmt.Sprintf("row(%d)", uint8(k))
	}
}

// RowRef is the stored form of a row. Ref is the position of an Entry for
// token rows and the position of a pair or HTML entry in the dictionary's
// shared tables otherwise.
type RowRef struct {
	Kind RowKind
	Ref  int
}

// Row is a positional unit of an index. Rows are one of TokenRow,
// PairEntryRow or HTMLEntryRow.
type Row interface {
	// Position returns the position of the row in the index.
	Position() int

	// Kind returns the kind of the row.
	Kind() RowKind
}

// TokenRow is a row that marks the start of a token's rows. TokenRow values
// are comparable; two TokenRows for the same position are equal.
type TokenRow struct {
	pos   int
	entry *Entry
}

// Position implements [Row.Position].
func (r TokenRow) Position() int {
	return r.pos
}

// Kind implements [Row.Kind].
func (TokenRow) Kind() RowKind {
	return TokenRowKind
}

// Entry returns the index entry for the token.
func (r TokenRow) Entry() *Entry {
	return r.entry
}

// IsZero reports whether r is the zero TokenRow.
func (r TokenRow) IsZero() bool {
	return r.entry == nil
}

// PairEntryRow is a row displaying a pair entry from the dictionary's shared
// pair entry table.
type PairEntryRow struct {
	pos     int
	entryID int
	side    int
}

// Position implements [Row.Position].
func (r PairEntryRow) Position() int {
	return r.pos
}

// Kind implements [Row.Kind].
func (PairEntryRow) Kind() RowKind {
	return PairEntryRowKind
}

// EntryID returns the position of the pair entry in the dictionary.
func (r PairEntryRow) EntryID() int {
	return r.entryID
}

// Side returns which side of the entry's pairs is in the index's language.
// Side 0 is the first language, see [entry.Pair.Side].
func (r PairEntryRow) Side() int {
	return r.side
}

// Text returns the text of p in the index's language followed by the
// translation.
func (r PairEntryRow) Text(p entry.Pair) (string, string) {
	return p.Side(r.side), p.Side(1 - r.side)
}

// HTMLEntryRow is a row displaying an HTML entry from the dictionary's shared
// HTML entry table.
type HTMLEntryRow struct {
	pos     int
	entryID int
}

// Position implements [Row.Position].
func (r HTMLEntryRow) Position() int {
	return r.pos
}

// Kind implements [Row.Kind].
func (HTMLEntryRow) Kind() RowKind {
	return HTMLEntryRowKind
}

// EntryID returns the position of the HTML entry in the dictionary.
func (r HTMLEntryRow) EntryID() int {
	return r.entryID
}
