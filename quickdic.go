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

package quickdic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/ianlewis/go-dictzip"
	"golang.org/x/sync/errgroup"

	"github.com/ianlewis/go-quickdic/entry"
	"github.com/ianlewis/go-quickdic/index"
	"github.com/ianlewis/go-quickdic/internal/format"
	"github.com/ianlewis/go-quickdic/internal/mmap"
)

const (
	// Ext is the extension of dictionary files.
	Ext = ".quickdic"

	// DictZipExt is the extension of dictzip compressed dictionary files.
	DictZipExt = ".quickdic.dz"
)

// Source is the provenance of a run of pair entries. Entries from
// PairEntryStart up to the next source's PairEntryStart came from the source.
type Source struct {
	Name           string
	PairEntryStart int
}

// Dictionary is an opened dictionary. A Dictionary is safe for concurrent
// use.
type Dictionary struct {
	path    string
	header  *format.Header
	sources []Source
	pairs   *entry.Table[*entry.PairEntry]
	html    *entry.Table[*entry.HTMLEntry]
	indices []*index.Index

	closer    io.Closer
	closeOnce sync.Once
	closeErr  error
}

// IsDictionary reports whether name has a dictionary file extension.
func IsDictionary(name string) bool {
	name = strings.ToLower(name)
	return strings.HasSuffix(name, Ext) || strings.HasSuffix(name, DictZipExt)
}

// OpenAll opens all dictionaries under a directory. This function will return
// all successfully opened dictionaries along with any errors that occurred.
// Files and directories whose names begin with "." are skipped.
func OpenAll(root string, options *Options) ([]*Dictionary, []error) {
	var dicts []*Dictionary
	var errs []error
	if err := filepath.WalkDir(root, func(path string, info fs.DirEntry, err error) error {
		// Walking the file path will ignore errors.
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		// Hidden files include downloads that are still in progress.
		if path != root && strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !info.IsDir() && IsDictionary(info.Name()) {
			d, err := Open(path, options)
			if err != nil {
				errs = append(errs, err)
				return nil
			}
			dicts = append(dicts, d)
		}
		return nil
	}); err != nil {
		errs = append(errs, err)
		for _, d := range dicts {
			_ = d.Close()
		}
		return nil, errs
	}
	return dicts, errs
}

// Open opens the dictionary file at path. Files with the .quickdic.dz
// extension are read as dictzip files. The file is held open until Close is
// called. No file handle is leaked if opening fails.
func Open(path string, options *Options) (*Dictionary, error) {
	if options == nil {
		options = DefaultOptions
	}
	logger := options.logger()

	if !IsDictionary(path) {
		return nil, fmt.Errorf("%w: bad extension: %q", ErrFormat, filepath.Base(path))
	}

	if options.MMap && !strings.HasSuffix(strings.ToLower(path), DictZipExt) {
		m, err := mmap.Open(path)
		switch {
		case err == nil:
			d, err := newDictionary(m, m.Len(), options)
			if err != nil {
				_ = m.Close()
				return nil, fmt.Errorf("reading %q: %w", path, err)
			}
			d.path = path
			d.closer = m
			return d, nil
		case errors.Is(err, mmap.ErrUnsupported):
			logger.Debug("mmap unsupported, using file reads", "path", path)
		default:
			return nil, fmt.Errorf("%w: %w", ErrIO, err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %q: %w", ErrIO, path, err)
	}

	var r io.ReaderAt
	var size int64
	if strings.HasSuffix(strings.ToLower(path), DictZipExt) {
		z, err := dictzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: reading dictzip %q: %w", ErrFormat, path, err)
		}
		// The uncompressed size is unknown.
		r, size = z, -1
	} else {
		fi, err := f.Stat()
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: stat %q: %w", ErrIO, path, err)
		}
		r, size = f, fi.Size()
	}

	d, err := newDictionary(r, size, options)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	d.path = path
	d.closer = f
	return d, nil
}

// New reads a dictionary from r. size is the size of the data in r or a
// negative number if it is unknown. The Dictionary does not take ownership
// of r; Close is a no-op for dictionaries created with New.
func New(r io.ReaderAt, size int64, options *Options) (*Dictionary, error) {
	if options == nil {
		options = DefaultOptions
	}
	return newDictionary(r, size, options)
}

func newDictionary(r io.ReaderAt, size int64, options *Options) (*Dictionary, error) {
	logger := options.logger()

	h, err := format.ReadHeader(r, size)
	if err != nil {
		return nil, err
	}

	var sourcesSection *format.Section
	pairsSection := format.Section{Kind: format.PairEntriesSection}
	htmlSection := format.Section{Kind: format.HTMLEntriesSection}
	var indexSections []format.Section
	var seenPairs, seenHTML bool
	for _, s := range h.Sections {
		switch s.Kind {
		case format.SourcesSection:
			if sourcesSection != nil {
				return nil, fmt.Errorf("%w: duplicate %v section", ErrFormat, s.Kind)
			}
			sourcesSection = &s
		case format.PairEntriesSection:
			if seenPairs {
				return nil, fmt.Errorf("%w: duplicate %v section", ErrFormat, s.Kind)
			}
			seenPairs = true
			pairsSection = s
		case format.HTMLEntriesSection:
			if seenHTML {
				return nil, fmt.Errorf("%w: duplicate %v section", ErrFormat, s.Kind)
			}
			seenHTML = true
			htmlSection = s
		case format.IndexSection:
			indexSections = append(indexSections, s)
		default:
			return nil, fmt.Errorf("%w: unknown section kind %v", ErrFormat, s.Kind)
		}
	}
	if sourcesSection == nil {
		return nil, fmt.Errorf("%w: missing sources section", ErrFormat)
	}

	tableOptions := &entry.TableOptions{
		CacheSize: options.EntryCacheSize,
		Logger:    logger,
	}
	pairs, err := entry.NewPairTable(r, pairsSection, h.Codec, tableOptions)
	if err != nil {
		return nil, err
	}
	html, err := entry.NewHTMLTable(r, htmlSection, h.Codec, tableOptions)
	if err != nil {
		return nil, err
	}

	sources, err := readSources(r, *sourcesSection, pairs.Len())
	if err != nil {
		return nil, err
	}

	indices, err := readIndices(r, indexSections, options)
	if err != nil {
		return nil, err
	}
	for _, idx := range indices {
		maxPair, maxHTML := idx.MaxRefs()
		if maxPair >= pairs.Len() {
			return nil, fmt.Errorf("%w: index %q references pair entry %d of %d",
				ErrFormat, idx.ShortName(), maxPair, pairs.Len())
		}
		if maxHTML >= html.Len() {
			return nil, fmt.Errorf("%w: index %q references html entry %d of %d",
				ErrFormat, idx.ShortName(), maxHTML, html.Len())
		}
	}

	logger.Debug("opened dictionary",
		"info", h.Info,
		"codec", h.Codec,
		"sources", len(sources),
		"pair_entries", pairs.Len(),
		"html_entries", html.Len(),
		"indices", len(indices),
	)

	return &Dictionary{
		header:  h,
		sources: sources,
		pairs:   pairs,
		html:    html,
		indices: indices,
	}, nil
}

func readSources(r io.ReaderAt, s format.Section, pairCount int) ([]Source, error) {
	b, err := format.ReadSection(r, s)
	if err != nil {
		return nil, err
	}
	d := format.NewDecoder(b)
	// Each source has at least a name length and a start.
	sources := make([]Source, d.Count(2))
	prev := 0
	for i := range sources {
		sources[i].Name = d.Text()
		sources[i].PairEntryStart = d.Int(math.MaxInt32)
		if d.Err() != nil {
			break
		}
		start := sources[i].PairEntryStart
		if start < prev || start > pairCount {
			return nil, fmt.Errorf("%w: source %q pair entry start %d out of order or range",
				ErrFormat, sources[i].Name, start)
		}
		prev = start
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("sources: %w", err)
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("%w: sources: %d trailing bytes", ErrFormat, d.Remaining())
	}
	return sources, nil
}

// readIndices decodes index sections concurrently.
func readIndices(r io.ReaderAt, sections []format.Section, options *Options) ([]*index.Index, error) {
	indexOptions := &index.Options{
		Folder:       options.Folder,
		RowCacheSize: options.RowCacheSize,
		Logger:       options.logger(),
	}

	indices := make([]*index.Index, len(sections))
	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, s := range sections {
		g.Go(func() error {
			// Stop early if another index failed.
			if err := ctx.Err(); err != nil {
				//nolint:wrapcheck // never returned from Wait.
				return err
			}
			b, err := format.ReadSection(r, s)
			if err != nil {
				return err
			}
			idx, err := index.Decode(b, indexOptions)
			if err != nil {
				return err
			}
			indices[i] = idx
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		//nolint:wrapcheck // errors are wrapped by the loaders.
		return nil, err
	}
	return indices, nil
}

// Close releases the dictionary's file. It is safe to call Close more than
// once.
func (d *Dictionary) Close() error {
	d.closeOnce.Do(func() {
		if d.closer != nil {
			if err := d.closer.Close(); err != nil {
				d.closeErr = fmt.Errorf("%w: closing %q: %w", ErrIO, d.path, err)
			}
		}
	})
	return d.closeErr
}

// Path returns the path the dictionary was opened from, if any.
func (d *Dictionary) Path() string {
	return d.path
}

// Info returns free text information about the dictionary.
func (d *Dictionary) Info() string {
	return d.header.Info
}

// Created returns the time the dictionary was built.
func (d *Dictionary) Created() time.Time {
	return d.header.Created
}

// Codec returns the name of the compression used for the dictionary's
// entries.
func (d *Dictionary) Codec() string {
	return d.header.Codec.String()
}

// Sources returns the dictionary's sources in order. The returned slice must
// not be modified.
func (d *Dictionary) Sources() []Source {
	return d.sources
}

// Indices returns the dictionary's indices in order. The returned slice must
// not be modified.
func (d *Dictionary) Indices() []*index.Index {
	return d.indices
}

// Index returns the index with the given short name.
func (d *Dictionary) Index(shortName string) (*index.Index, bool) {
	for _, idx := range d.indices {
		if idx.ShortName() == shortName {
			return idx, true
		}
	}
	return nil, false
}

// PairEntryCount returns the number of pair entries.
func (d *Dictionary) PairEntryCount() int {
	return d.pairs.Len()
}

// PairEntry returns pair entry i. Entries are read on first access.
func (d *Dictionary) PairEntry(i int) (*entry.PairEntry, error) {
	//nolint:wrapcheck // errors are wrapped by the table.
	return d.pairs.Get(i)
}

// HTMLEntryCount returns the number of HTML entries.
func (d *Dictionary) HTMLEntryCount() int {
	return d.html.Len()
}

// HTMLEntry returns HTML entry i. Entries are read on first access.
func (d *Dictionary) HTMLEntry(i int) (*entry.HTMLEntry, error) {
	//nolint:wrapcheck // errors are wrapped by the table.
	return d.html.Get(i)
}

// Source returns the source of pair entry i.
func (d *Dictionary) Source(i int) (Source, error) {
	if i < 0 || i >= d.pairs.Len() {
		return Source{}, fmt.Errorf("%w: entry %d not in [0, %d)", ErrOutOfRange, i, d.pairs.Len())
	}
	var src Source
	for _, s := range d.sources {
		if s.PairEntryStart > i {
			break
		}
		src = s
	}
	return src, nil
}

// LogValue implements [slog.LogValuer].
func (d *Dictionary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("path", d.path),
		slog.String("info", d.header.Info),
		slog.Int("indices", len(d.indices)),
	)
}
