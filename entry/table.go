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

package entry

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"

	"golang.org/x/sync/singleflight"

	"github.com/ianlewis/go-quickdic/internal/format"
	"github.com/ianlewis/go-quickdic/internal/rowcache"
)

// TableOptions are options for a Table.
type TableOptions struct {
	// CacheSize is the maximum number of decoded entries kept in memory.
	// Zero disables caching.
	CacheSize int

	// Logger receives read failures. A nil Logger discards them.
	Logger *slog.Logger
}

// DefaultTableOptions is the default options for a Table.
var DefaultTableOptions = &TableOptions{
	CacheSize: 1024,
}

// Table provides lazy random access to an entry table section. Only the
// offset table is read up front. Entries are read and decoded on first access
// and kept in a bounded cache. Entries are immutable so an entry read again
// after eviction is identical to the evicted one.
type Table[T any] struct {
	r      io.ReaderAt
	layout *format.TableLayout
	codec  format.Codec
	decode func([]byte) (T, error)
	cache  *rowcache.LRU[int, T]
	group  singleflight.Group
	logger *slog.Logger
}

// NewTable reads the offset table of section s and returns a table that
// decodes entries with decode.
func NewTable[T any](
	r io.ReaderAt,
	s format.Section,
	codec format.Codec,
	decode func([]byte) (T, error),
	options *TableOptions,
) (*Table[T], error) {
	if options == nil {
		options = DefaultTableOptions
	}

	layout, err := format.ReadTableLayout(r, s)
	if err != nil {
		return nil, err
	}

	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Table[T]{
		r:      r,
		layout: layout,
		codec:  codec,
		decode: decode,
		cache:  rowcache.New[int, T](options.CacheSize),
		logger: logger,
	}, nil
}

// NewPairTable returns a table of pair entries.
func NewPairTable(r io.ReaderAt, s format.Section, codec format.Codec, options *TableOptions) (*Table[*PairEntry], error) {
	return NewTable(r, s, codec, DecodePairEntry, options)
}

// NewHTMLTable returns a table of HTML entries.
func NewHTMLTable(r io.ReaderAt, s format.Section, codec format.Codec, options *TableOptions) (*Table[*HTMLEntry], error) {
	return NewTable(r, s, codec, DecodeHTMLEntry, options)
}

// Len returns the number of entries in the table.
func (t *Table[T]) Len() int {
	return t.layout.Len()
}

// Get returns entry i. Concurrent first reads of the same entry share a
// single read.
func (t *Table[T]) Get(i int) (T, error) {
	var zero T
	if i < 0 || i >= t.Len() {
		return zero, fmt.Errorf("%w: entry %d not in [0, %d)", ErrOutOfRange, i, t.Len())
	}

	if v, ok := t.cache.Get(i); ok {
		return v, nil
	}

	v, err, _ := t.group.Do(strconv.Itoa(i), func() (any, error) {
		v, err := t.read(i)
		if err != nil {
			return nil, err
		}
		t.cache.Put(i, v)
		return v, nil
	})
	if err != nil {
		t.logger.Warn("reading entry", "entry", i, "error", err)
		return zero, err
	}

	//nolint:forcetypeassert // the group only returns T values.
	return v.(T), nil
}

// CacheStats returns the hit and miss counts of the entry cache.
func (t *Table[T]) CacheStats() rowcache.Stats {
	return t.cache.Stats()
}

func (t *Table[T]) read(i int) (T, error) {
	var zero T
	off, n := t.layout.Bounds(i)
	blob, err := format.ReadAt(t.r, off, n)
	if err != nil {
		return zero, fmt.Errorf("reading entry %d: %w", i, err)
	}
	payload, err := format.DecodeBlob(t.codec, blob)
	if err != nil {
		return zero, fmt.Errorf("entry %d: %w", i, err)
	}
	v, err := t.decode(payload)
	if err != nil {
		return zero, fmt.Errorf("entry %d: %w", i, err)
	}
	return v, nil
}
