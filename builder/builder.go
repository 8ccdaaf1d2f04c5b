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

// Package builder implements writing dictionary files.
//
// Tokens are sorted with the same normalization that readers use to search
// them, so a Builder and the reader must be given the same Folder.
package builder

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/ianlewis/go-quickdic"
	"github.com/ianlewis/go-quickdic/entry"
	"github.com/ianlewis/go-quickdic/index"
	"github.com/ianlewis/go-quickdic/internal/format"
	sortidx "github.com/ianlewis/go-quickdic/internal/index"
	"github.com/ianlewis/go-quickdic/normalize"
)

// ErrInvalidEntryID indicates that a token was filed under an entry that
// does not exist.
var ErrInvalidEntryID = errors.New("invalid entry id")

// Options are options for a Builder.
type Options struct {
	// Codec is the compression used for entries: "none", "lz4" or "zstd".
	Codec string

	// Folder returns the Folder for an index's sort language. A nil Folder
	// uses [normalize.ForLanguage].
	Folder func(lang string) normalize.Folder

	// Created is the creation time written to the file. The zero value
	// uses the current time.
	Created time.Time

	// Logger receives debug logs. A nil Logger discards them.
	Logger *slog.Logger
}

// DefaultOptions is the default options for a Builder.
var DefaultOptions = &Options{
	Codec: "zstd",
}

// Builder accumulates the contents of a dictionary and writes it.
type Builder struct {
	info    string
	codec   format.Codec
	folder  func(lang string) normalize.Folder
	created time.Time
	logger  *slog.Logger

	sources     []quickdic.Source
	pairEntries []*entry.PairEntry
	htmlEntries []*entry.HTMLEntry
	indices     []*IndexBuilder
}

// New returns a new Builder for a dictionary with the given info text.
func New(info string, options *Options) (*Builder, error) {
	if options == nil {
		options = DefaultOptions
	}

	codec, err := format.ParseCodec(options.Codec)
	if err != nil {
		return nil, err
	}
	folder := options.Folder
	if folder == nil {
		folder = normalize.ForLanguage
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Builder{
		info:    info,
		codec:   codec,
		folder:  folder,
		created: options.Created,
		logger:  logger,
	}, nil
}

// AddSource starts a new source. Pair entries added after it belong to it.
func (b *Builder) AddSource(name string) {
	b.sources = append(b.sources, quickdic.Source{
		Name:           name,
		PairEntryStart: len(b.pairEntries),
	})
}

// AddPairEntry adds a pair entry and returns its id.
func (b *Builder) AddPairEntry(e *entry.PairEntry) int {
	b.pairEntries = append(b.pairEntries, e)
	return len(b.pairEntries) - 1
}

// AddHTMLEntry adds an HTML entry and returns its id.
func (b *Builder) AddHTMLEntry(e *entry.HTMLEntry) int {
	b.htmlEntries = append(b.htmlEntries, e)
	return len(b.htmlEntries) - 1
}

// AddIndex adds an index and returns a builder for its tokens.
func (b *Builder) AddIndex(h index.Header) *IndexBuilder {
	ib := &IndexBuilder{
		header: h,
		tokens: make(map[string]*tokenEntries),
	}
	b.indices = append(b.indices, ib)
	return ib
}

// IndexBuilder accumulates the tokens of an index.
type IndexBuilder struct {
	header index.Header
	tokens map[string]*tokenEntries
}

type tokenEntries struct {
	pairs *roaring.Bitmap
	html  *roaring.Bitmap
}

func (ib *IndexBuilder) token(token string) *tokenEntries {
	t, ok := ib.tokens[token]
	if !ok {
		t = &tokenEntries{
			pairs: roaring.New(),
			html:  roaring.New(),
		}
		ib.tokens[token] = t
	}
	return t
}

// AddToken files pair entry entryID under token. Empty tokens are ignored.
func (ib *IndexBuilder) AddToken(token string, entryID int) {
	if strings.TrimSpace(token) == "" {
		return
	}
	//nolint:gosec // ids are validated when writing.
	ib.token(token).pairs.Add(uint32(entryID))
}

// AddHTMLToken files HTML entry htmlID under token. Empty tokens are
// ignored.
func (ib *IndexBuilder) AddHTMLToken(token string, htmlID int) {
	if strings.TrimSpace(token) == "" {
		return
	}
	//nolint:gosec // ids are validated when writing.
	ib.token(token).html.Add(uint32(htmlID))
}

// AddText files pair entry entryID under every token of text.
func (ib *IndexBuilder) AddText(text string, entryID int) {
	for _, tok := range Tokenize(text) {
		ib.AddToken(tok, entryID)
	}
}

// build sorts the index's tokens and lays out its rows. Each token's marker
// row is followed by a row for each of its HTML entries and then its pair
// entries, in id order.
func (ib *IndexBuilder) build(folder normalize.Folder, pairCount, htmlCount int) ([]*index.Entry, []index.RowRef, error) {
	entries := make([]*index.Entry, 0, len(ib.tokens))
	for tok, t := range ib.tokens {
		if !t.pairs.IsEmpty() && int(t.pairs.Maximum()) >= pairCount {
			return nil, nil, fmt.Errorf("%w: token %q: pair entry %d of %d",
				ErrInvalidEntryID, tok, t.pairs.Maximum(), pairCount)
		}
		if !t.html.IsEmpty() && int(t.html.Maximum()) >= htmlCount {
			return nil, nil, fmt.Errorf("%w: token %q: html entry %d of %d",
				ErrInvalidEntryID, tok, t.html.Maximum(), htmlCount)
		}
		entries = append(entries, &index.Entry{
			Token:           tok,
			NormalizedToken: normalize.String(folder, tok),
			EntryIDs:        t.pairs,
			HTMLEntryIDs:    t.html,
		})
	}
	sortidx.Sort(entries, func(e *index.Entry) string {
		return e.NormalizedToken
	}, func(a, b *index.Entry) int {
		return strings.Compare(a.Token, b.Token)
	})

	var rows []index.RowRef
	for i, e := range entries {
		e.StartRow = len(rows)
		rows = append(rows, index.RowRef{Kind: index.TokenRowKind, Ref: i})
		for _, id := range e.HTMLEntryIDs.ToArray() {
			rows = append(rows, index.RowRef{Kind: index.HTMLEntryRowKind, Ref: int(id)})
		}
		for _, id := range e.EntryIDs.ToArray() {
			rows = append(rows, index.RowRef{Kind: index.PairEntryRowKind, Ref: int(id)})
		}
	}
	return entries, rows, nil
}

// Write writes the dictionary to w.
func (b *Builder) Write(w io.Writer) error {
	var bodies [][]byte
	var kinds []format.SectionKind

	enc := &format.Encoder{}
	enc.Int(len(b.sources))
	for _, s := range b.sources {
		enc.Text(s.Name)
		enc.Int(s.PairEntryStart)
	}
	kinds = append(kinds, format.SourcesSection)
	bodies = append(bodies, enc.Bytes())

	pairs, err := encodeEntries(b.codec, b.pairEntries)
	if err != nil {
		return err
	}
	kinds = append(kinds, format.PairEntriesSection)
	bodies = append(bodies, pairs)

	html, err := encodeEntries(b.codec, b.htmlEntries)
	if err != nil {
		return err
	}
	kinds = append(kinds, format.HTMLEntriesSection)
	bodies = append(bodies, html)

	for _, ib := range b.indices {
		folder := b.folder(ib.header.SortLanguage)
		entries, rows, err := ib.build(folder, len(b.pairEntries), len(b.htmlEntries))
		if err != nil {
			return fmt.Errorf("index %q: %w", ib.header.ShortName, err)
		}
		idx, err := index.New(ib.header, entries, rows, &index.Options{
			Folder: func(string) normalize.Folder { return folder },
		})
		if err != nil {
			return fmt.Errorf("index %q: %w", ib.header.ShortName, err)
		}
		body, err := idx.AppendBinary(nil)
		if err != nil {
			return fmt.Errorf("index %q: %w", ib.header.ShortName, err)
		}
		kinds = append(kinds, format.IndexSection)
		bodies = append(bodies, body)
	}

	created := b.created
	if created.IsZero() {
		created = time.Now()
	}
	h := &format.Header{
		Version: format.Version,
		Created: created,
		Codec:   b.codec,
		Info:    b.info,
	}
	for _, k := range kinds {
		h.Sections = append(h.Sections, format.Section{Kind: k})
	}
	off := h.Len()
	for i, body := range bodies {
		h.Sections[i].Offset = off
		h.Sections[i].Length = int64(len(body))
		off += int64(len(body))
	}
	h.Size = off

	hb, err := h.AppendBinary(nil)
	if err != nil {
		return err
	}
	if _, err := w.Write(hb); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, body := range bodies {
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("writing %v section: %w", kinds[i], err)
		}
	}

	b.logger.Debug("wrote dictionary",
		"info", b.info,
		"codec", b.codec,
		"size", h.Size,
		"pair_entries", len(b.pairEntries),
		"html_entries", len(b.htmlEntries),
		"indices", len(b.indices),
	)
	return nil
}

type binaryAppender interface {
	AppendBinary(b []byte) ([]byte, error)
}

func encodeEntries[T binaryAppender](codec format.Codec, entries []T) ([]byte, error) {
	blobs := make([][]byte, 0, len(entries))
	for i, e := range entries {
		payload, err := e.AppendBinary(nil)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		blob, err := format.EncodeBlob(codec, payload)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		blobs = append(blobs, blob)
	}
	return format.EncodeTable(blobs)
}
