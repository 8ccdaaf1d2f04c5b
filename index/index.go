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

// Package index implements a dictionary index: a sorted token table and the
// row sequence displayed for it.
//
// Every Entry has a token marker row at Entry.StartRow. The rows following a
// marker up to the next marker belong to that token. TokenRowFor resolves the
// owning token of any row and caches the result in a bounded cache.
package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/time/rate"

	"github.com/ianlewis/go-quickdic/entry"
	sortidx "github.com/ianlewis/go-quickdic/internal/index"
	"github.com/ianlewis/go-quickdic/internal/rowcache"
	"github.com/ianlewis/go-quickdic/normalize"
)

var (
	// ErrOutOfRange indicates that a row or entry position is outside of the
	// index.
	ErrOutOfRange = entry.ErrOutOfRange

	// ErrCacheMiss indicates that the token row for a position is not cached
	// and a slow search was not allowed.
	ErrCacheMiss = errors.New("token row not cached")

	// ErrEmptyIndex indicates a search of an index with no entries.
	ErrEmptyIndex = errors.New("empty index")

	// ErrInvalidIndex indicates that entries and rows are inconsistent.
	ErrInvalidIndex = errors.New("invalid index")
)

// Entry is a token in the index's sorted token table.
type Entry struct {
	// Token is the raw display form of the token.
	Token string

	// NormalizedToken is the folded form of Token used for ordering and
	// search.
	NormalizedToken string

	// StartRow is the position of the token's marker row.
	StartRow int

	// EntryIDs are the positions of the pair entries filed under the token.
	EntryIDs *roaring.Bitmap

	// HTMLEntryIDs are the positions of the HTML entries filed under the
	// token.
	HTMLEntryIDs *roaring.Bitmap
}

// Header holds the names and settings of an index.
type Header struct {
	// ShortName is a short display name, usually a language code.
	ShortName string

	// LongName is the full display name such as "de->en".
	LongName string

	// SortLanguage selects the normalization used to sort tokens.
	SortLanguage string

	// SwapPairEntries indicates that the index's language is the second
	// side of pairs.
	SwapPairEntries bool
}

// Options are options for an Index.
type Options struct {
	// Folder returns the Folder for a sort language. A nil Folder uses
	// [normalize.ForLanguage].
	Folder func(lang string) normalize.Folder

	// RowCacheSize is the number of resolved token rows to cache. Zero caches
	// every row of the index and a negative value disables caching.
	RowCacheSize int

	// Logger receives debug logs. A nil Logger discards them.
	Logger *slog.Logger
}

// DefaultOptions is the default options for an Index.
var DefaultOptions = &Options{}

// Index is one searchable language direction of a dictionary. An Index is
// immutable except for its row cache and is safe for concurrent use.
type Index struct {
	header  Header
	folder  normalize.Folder
	entries []*Entry
	sorted  *sortidx.Index[*Entry]
	rows    []RowRef
	cache   *rowcache.LRU[int, TokenRow]
	logger  *slog.Logger

	maxPairRef int
	maxHTMLRef int
}

// New creates an index from entries sorted by normalized token and rows.
// Entry.NormalizedToken is computed with the index's folder. The
// correspondence between entries and token rows is verified but the sort order
// is not.
func New(h Header, entries []*Entry, rows []RowRef, options *Options) (*Index, error) {
	if options == nil {
		options = DefaultOptions
	}
	folderFor := options.Folder
	if folderFor == nil {
		folderFor = normalize.ForLanguage
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	idx := &Index{
		header:     h,
		folder:     folderFor(h.SortLanguage),
		entries:    entries,
		rows:       rows,
		cache:      rowcache.New[int, TokenRow](rowCacheSize(options.RowCacheSize, len(rows))),
		logger:     logger,
		maxPairRef: -1,
		maxHTMLRef: -1,
	}

	for _, e := range entries {
		e.NormalizedToken = normalize.String(idx.folder, e.Token)
		if e.EntryIDs == nil {
			e.EntryIDs = roaring.New()
		}
		if e.HTMLEntryIDs == nil {
			e.HTMLEntryIDs = roaring.New()
		}
	}
	if err := idx.validate(); err != nil {
		return nil, err
	}
	idx.sorted = sortidx.New(entries, func(e *Entry) string {
		return e.NormalizedToken
	})

	logger.Debug("loaded index",
		"index", h.ShortName,
		"entries", len(entries),
		"rows", len(rows),
	)

	return idx, nil
}

func (idx *Index) validate() error {
	if len(idx.rows) > 0 && idx.rows[0].Kind != TokenRowKind {
		return fmt.Errorf("%w: %s: first row is not a token row", ErrInvalidIndex, idx.header.ShortName)
	}
	for i, e := range idx.entries {
		if e.StartRow < 0 || e.StartRow >= len(idx.rows) {
			return fmt.Errorf("%w: %s: entry %d start row %d out of range",
				ErrInvalidIndex, idx.header.ShortName, i, e.StartRow)
		}
		r := idx.rows[e.StartRow]
		if r.Kind != TokenRowKind || r.Ref != i {
			return fmt.Errorf("%w: %s: entry %d start row %d is not its token row",
				ErrInvalidIndex, idx.header.ShortName, i, e.StartRow)
		}
		if !e.EntryIDs.IsEmpty() {
			idx.maxPairRef = max(idx.maxPairRef, int(e.EntryIDs.Maximum()))
		}
		if !e.HTMLEntryIDs.IsEmpty() {
			idx.maxHTMLRef = max(idx.maxHTMLRef, int(e.HTMLEntryIDs.Maximum()))
		}
	}
	for pos, r := range idx.rows {
		switch r.Kind {
		case TokenRowKind:
			if r.Ref < 0 || r.Ref >= len(idx.entries) || idx.entries[r.Ref].StartRow != pos {
				return fmt.Errorf("%w: %s: token row %d has no entry",
					ErrInvalidIndex, idx.header.ShortName, pos)
			}
		case PairEntryRowKind:
			idx.maxPairRef = max(idx.maxPairRef, r.Ref)
		case HTMLEntryRowKind:
			idx.maxHTMLRef = max(idx.maxHTMLRef, r.Ref)
		default:
			return fmt.Errorf("%w: %s: row %d has unknown kind %v",
				ErrInvalidIndex, idx.header.ShortName, pos, r.Kind)
		}
		if r.Ref < 0 {
			return fmt.Errorf("%w: %s: row %d has negative reference",
				ErrInvalidIndex, idx.header.ShortName, pos)
		}
	}
	return nil
}

func rowCacheSize(size, rows int) int {
	switch {
	case size == 0:
		return rows
	case size < 0:
		return 0
	default:
		return size
	}
}

// Header returns the index's names and settings.
func (idx *Index) Header() Header {
	return idx.header
}

// ShortName returns the index's short name.
func (idx *Index) ShortName() string {
	return idx.header.ShortName
}

// LongName returns the index's long name.
func (idx *Index) LongName() string {
	return idx.header.LongName
}

// SortLanguage returns the language used to normalize the index's tokens.
func (idx *Index) SortLanguage() string {
	return idx.header.SortLanguage
}

// Folder returns the Folder used to normalize the index's tokens.
func (idx *Index) Folder() normalize.Folder {
	return idx.folder
}

// EntryCount returns the number of entries in the index.
func (idx *Index) EntryCount() int {
	return len(idx.entries)
}

// RowCount returns the number of rows in the index.
func (idx *Index) RowCount() int {
	return len(idx.rows)
}

// Entry returns the i-th entry in sorted order.
func (idx *Index) Entry(i int) (*Entry, error) {
	if i < 0 || i >= len(idx.entries) {
		return nil, fmt.Errorf("%w: entry %d not in [0, %d)", ErrOutOfRange, i, len(idx.entries))
	}
	return idx.entries[i], nil
}

// Entries returns the index's entries in sorted order. The returned slice
// must not be modified.
func (idx *Index) Entries() []*Entry {
	return idx.entries
}

// Lookup returns the entries whose normalized token equals the normalized
// form of token.
func (idx *Index) Lookup(token string) []*Entry {
	return idx.sorted.Search(normalize.String(idx.folder, token))
}

// MaxRefs returns the largest pair entry and HTML entry positions referenced
// by the index, or -1 if none are referenced.
func (idx *Index) MaxRefs() (int, int) {
	return idx.maxPairRef, idx.maxHTMLRef
}

// RowAt returns the row at pos.
func (idx *Index) RowAt(pos int) (Row, error) {
	if pos < 0 || pos >= len(idx.rows) {
		return nil, fmt.Errorf("%w: row %d not in [0, %d)", ErrOutOfRange, pos, len(idx.rows))
	}
	return idx.row(pos), nil
}

func (idx *Index) row(pos int) Row {
	r := idx.rows[pos]
	switch r.Kind {
	case TokenRowKind:
		return idx.tokenRow(pos)
	case PairEntryRowKind:
		side := 0
		if idx.header.SwapPairEntries {
			side = 1
		}
		return PairEntryRow{pos: pos, entryID: r.Ref, side: side}
	default:
		return HTMLEntryRow{pos: pos, entryID: r.Ref}
	}
}

func (idx *Index) tokenRow(pos int) TokenRow {
	return TokenRow{pos: pos, entry: idx.entries[idx.rows[pos].Ref]}
}

// TokenRowFor returns the token row that owns the row at pos. Token rows own
// themselves. Results for other rows are cached. If the result is not cached
// and allowSlowSearch is false ErrCacheMiss is returned; otherwise the rows
// preceding pos are scanned.
func (idx *Index) TokenRowFor(pos int, allowSlowSearch bool) (TokenRow, error) {
	if pos < 0 || pos >= len(idx.rows) {
		return TokenRow{}, fmt.Errorf("%w: row %d not in [0, %d)", ErrOutOfRange, pos, len(idx.rows))
	}
	if idx.rows[pos].Kind == TokenRowKind {
		return idx.tokenRow(pos), nil
	}
	if tr, ok := idx.cache.Get(pos); ok {
		return tr, nil
	}
	if !allowSlowSearch {
		return TokenRow{}, fmt.Errorf("%w: row %d", ErrCacheMiss, pos)
	}

	// NOTE: validate guarantees that row 0 is a token row.
	i := pos - 1
	for idx.rows[i].Kind != TokenRowKind {
		i--
	}
	tr := idx.tokenRow(i)
	idx.cache.Put(pos, tr)
	return tr, nil
}

// CacheStats returns the hit and miss counts of the row cache.
func (idx *Index) CacheStats() rowcache.Stats {
	return idx.cache.Stats()
}

const prewarmBatch = 256

// Prewarm populates the row cache for every row. See PrewarmRange.
func (idx *Index) Prewarm(ctx context.Context, limiter *rate.Limiter) error {
	return idx.PrewarmRange(ctx, limiter, 0, len(idx.rows))
}

// PrewarmRange populates the row cache for rows in [start, end) in a single
// forward pass. It is intended to run in a background goroutine while
// another goroutine reads the index. If limiter is not nil one token is taken
// from it for each batch of rows. It returns early with the context's error
// when ctx is done.
func (idx *Index) PrewarmRange(ctx context.Context, limiter *rate.Limiter, start, end int) error {
	start = max(start, 0)
	end = min(end, len(idx.rows))
	if start >= end {
		return nil
	}
	if c := idx.cache.Capacity(); end-start > c {
		idx.logger.Warn("row cache smaller than prewarm range, rows will be evicted",
			"index", idx.header.ShortName,
			"rows", end-start,
			"capacity", c,
		)
	}

	tr, err := idx.TokenRowFor(start, true)
	if err != nil {
		return err
	}
	for pos := start; pos < end; pos++ {
		if (pos-start)%prewarmBatch == 0 {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return fmt.Errorf("prewarming %s: %w", idx.header.ShortName, err)
				}
			} else if err := ctx.Err(); err != nil {
				return fmt.Errorf("prewarming %s: %w", idx.header.ShortName, err)
			}
		}
		if idx.rows[pos].Kind == TokenRowKind {
			tr = idx.tokenRow(pos)
			continue
		}
		idx.cache.Put(pos, tr)
	}

	idx.logger.Debug("prewarmed row cache",
		"index", idx.header.ShortName,
		"start", start,
		"end", end,
	)
	return nil
}
