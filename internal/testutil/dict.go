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

// Package testutil builds dictionaries for tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ianlewis/go-dictzip"

	"github.com/ianlewis/go-quickdic/builder"
	"github.com/ianlewis/go-quickdic/entry"
	"github.com/ianlewis/go-quickdic/index"
)

// Created is the creation time of sample dictionaries.
var Created = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

// SamplePairs are the pair entries of the sample dictionary. The first five
// belong to the "chemnitz" source and the rest to "dictcc".
var SamplePairs = []*entry.PairEntry{
	{Pairs: []entry.Pair{{TextA: "Haus", TextB: "house"}}},
	{Pairs: []entry.Pair{{TextA: "Häuser", TextB: "houses"}}},
	{Pairs: []entry.Pair{
		{TextA: "machen", TextB: "to make"},
		{TextA: "machen", TextB: "to do"},
	}},
	{Pairs: []entry.Pair{{TextA: "grüßen", TextB: "to greet"}}},
	{Pairs: []entry.Pair{{TextA: "überprüfen", TextB: "to check"}}},
	{Pairs: []entry.Pair{{TextA: "Müller", TextB: "miller"}}},
	{Pairs: []entry.Pair{{TextA: "zählen", TextB: "to count"}}},
}

// SampleHTML are the HTML entries of the sample dictionary.
var SampleHTML = []*entry.HTMLEntry{
	{Title: "Haus", HTML: "<p><b>Haus</b> <i>n.</i> a building for living in.</p>"},
}

// SampleBuilder returns a builder for a small German/English dictionary with
// a "DE" and an "EN" index.
func SampleBuilder(t *testing.T, codec string) *builder.Builder {
	t.Helper()

	b, err := builder.New("sample de-en dictionary", &builder.Options{
		Codec:   codec,
		Created: Created,
	})
	if err != nil {
		t.Fatalf("builder.New: %v", err)
	}

	de := b.AddIndex(index.Header{
		ShortName:    "DE",
		LongName:     "Deutsch",
		SortLanguage: "de",
	})
	en := b.AddIndex(index.Header{
		ShortName:       "EN",
		LongName:        "English",
		SortLanguage:    "en",
		SwapPairEntries: true,
	})

	for i, p := range SamplePairs {
		switch i {
		case 0:
			b.AddSource("chemnitz")
		case 5:
			b.AddSource("dictcc")
		}
		id := b.AddPairEntry(p)
		for _, pair := range p.Pairs {
			de.AddText(pair.TextA, id)
			en.AddText(pair.TextB, id)
		}
	}
	for _, h := range SampleHTML {
		id := b.AddHTMLEntry(h)
		de.AddHTMLToken(h.Title, id)
	}

	return b
}

// MakeDictOptions are options for MakeTempDict.
type MakeDictOptions struct {
	// DictZip indicates that the file should be compressed with DictZip.
	DictZip bool
}

// MakeTempDict writes the dictionary built by b to a temporary file and
// returns its path.
func MakeTempDict(t *testing.T, b *builder.Builder, opts *MakeDictOptions) string {
	t.Helper()
	if opts == nil {
		opts = &MakeDictOptions{}
	}

	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	ext := ".quickdic"
	if opts.DictZip {
		ext = ".quickdic.dz"
	}
	path := filepath.Join(t.TempDir(), "sample"+ext)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if opts.DictZip {
		z, err := dictzip.NewWriter(f)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := z.Write(buf.Bytes()); err != nil {
			t.Fatal(err)
		}
		if err := z.Close(); err != nil {
			t.Fatal(err)
		}
	} else if _, err := f.Write(buf.Bytes()); err != nil {
		t.Fatal(err)
	}

	return path
}
