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

package index_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/go-cmp/cmp"
	"golang.org/x/time/rate"

	"github.com/ianlewis/go-quickdic/entry"
	"github.com/ianlewis/go-quickdic/index"
	"github.com/ianlewis/go-quickdic/internal/format"
	"github.com/ianlewis/go-quickdic/normalize"
)

// makeIndex creates an index for tokens. Each token is followed by a number
// of pair rows that grows with its position so that tokens own differently
// sized runs of rows.
func makeIndex(t *testing.T, lang string, tokens []string, options *index.Options) *index.Index {
	t.Helper()

	folder := normalize.ForLanguage(lang)
	sorted := slices.Clone(tokens)
	slices.SortStableFunc(sorted, func(a, b string) int {
		if c := strings.Compare(normalize.String(folder, a), normalize.String(folder, b)); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})

	var entries []*index.Entry
	var rows []index.RowRef
	pairID := 0
	for i, tok := range sorted {
		e := &index.Entry{
			Token:    tok,
			StartRow: len(rows),
			EntryIDs: roaring.New(),
		}
		rows = append(rows, index.RowRef{Kind: index.TokenRowKind, Ref: i})
		for range i % 4 {
			e.EntryIDs.Add(uint32(pairID))
			rows = append(rows, index.RowRef{Kind: index.PairEntryRowKind, Ref: pairID})
			pairID++
		}
		entries = append(entries, e)
	}

	idx, err := index.New(index.Header{
		ShortName:    lang,
		LongName:     lang + "->en",
		SortLanguage: lang,
	}, entries, rows, options)
	if err != nil {
		t.Fatalf("index.New: %v", err)
	}
	return idx
}

var germanTokens = []string{
	"40",
	"aaac",
	"ab",
	"Alibi",
	"Haus",
	"Häuser",
	"Höschen",
	"machen",
	"Müller",
	"grüßen",
	"überprüfe",
	"überprüfen",
	"zählen",
	"Zweck",
}

// TestIndex_accessors tests basic index accessors.
func TestIndex_accessors(t *testing.T) {
	t.Parallel()

	idx := makeIndex(t, "de", []string{"ab", "aaac", "machen"}, nil)

	if diff := cmp.Diff("de", idx.ShortName()); diff != "" {
		t.Errorf("ShortName (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff("de->en", idx.LongName()); diff != "" {
		t.Errorf("LongName (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff("de", idx.SortLanguage()); diff != "" {
		t.Errorf("SortLanguage (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff(3, idx.EntryCount()); diff != "" {
		t.Errorf("EntryCount (-want, +got):\n%s", diff)
	}
	// 1 + 2 + 3 rows.
	if diff := cmp.Diff(6, idx.RowCount()); diff != "" {
		t.Errorf("RowCount (-want, +got):\n%s", diff)
	}

	var tokens []string
	for _, e := range idx.Entries() {
		tokens = append(tokens, e.Token)
	}
	if diff := cmp.Diff([]string{"aaac", "ab", "machen"}, tokens); diff != "" {
		t.Errorf("Entries (-want, +got):\n%s", diff)
	}

	if _, err := idx.Entry(3); !errors.Is(err, index.ErrOutOfRange) {
		t.Errorf("Entry(3): want ErrOutOfRange, got %v", err)
	}

	pair, html := idx.MaxRefs()
	if diff := cmp.Diff([]int{2, -1}, []int{pair, html}); diff != "" {
		t.Errorf("MaxRefs (-want, +got):\n%s", diff)
	}
}

// TestIndex_RowAt tests Index.RowAt.
func TestIndex_RowAt(t *testing.T) {
	t.Parallel()

	idx := makeIndex(t, "de", []string{"aaac", "ab", "machen"}, nil)

	var got []string
	for pos := range idx.RowCount() {
		row, err := idx.RowAt(pos)
		if err != nil {
			t.Fatalf("RowAt(%d): %v", pos, err)
		}
		if row.Position() != pos {
			t.Fatalf("RowAt(%d).Position: got %d", pos, row.Position())
		}
		switch r := row.(type) {
		case index.TokenRow:
			got = append(got, "token:"+r.Entry().Token)
		case index.PairEntryRow:
			got = append(got, fmt.Sprintf("pair:%d:%d", r.EntryID(), r.Side()))
		default:
			t.Fatalf("RowAt(%d): unexpected row %#v", pos, row)
		}
	}

	expected := []string{
		"token:aaac",
		"token:ab",
		"pair:0:0",
		"token:machen",
		"pair:1:0",
		"pair:2:0",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("rows (-want, +got):\n%s", diff)
	}

	for _, pos := range []int{-1, idx.RowCount()} {
		if _, err := idx.RowAt(pos); !errors.Is(err, index.ErrOutOfRange) {
			t.Errorf("RowAt(%d): want ErrOutOfRange, got %v", pos, err)
		}
		if _, err := idx.TokenRowFor(pos, true); !errors.Is(err, index.ErrOutOfRange) {
			t.Errorf("TokenRowFor(%d): want ErrOutOfRange, got %v", pos, err)
		}
	}
}

// TestPairEntryRow_Text tests the side selector of pair rows.
func TestPairEntryRow_Text(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		indexSwap bool
		pairSwap  bool
		expected  []string
	}{
		{name: "none", expected: []string{"Haus", "house"}},
		{name: "index", indexSwap: true, expected: []string{"house", "Haus"}},
		{name: "pair", pairSwap: true, expected: []string{"house", "Haus"}},
		{name: "both", indexSwap: true, pairSwap: true, expected: []string{"Haus", "house"}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			idx, err := index.New(index.Header{
				ShortName:       "en",
				SwapPairEntries: test.indexSwap,
			}, []*index.Entry{
				{Token: "house", StartRow: 0},
			}, []index.RowRef{
				{Kind: index.TokenRowKind, Ref: 0},
				{Kind: index.PairEntryRowKind, Ref: 0},
			}, nil)
			if err != nil {
				t.Fatalf("index.New: %v", err)
			}
			row, err := idx.RowAt(1)
			if err != nil {
				t.Fatalf("RowAt: %v", err)
			}
			pairRow, ok := row.(index.PairEntryRow)
			if !ok {
				t.Fatalf("RowAt: got %T", row)
			}

			src, dst := pairRow.Text(entry.Pair{TextA: "Haus", TextB: "house", Swap: test.pairSwap})
			if diff := cmp.Diff(test.expected, []string{src, dst}); diff != "" {
				t.Fatalf("Text (-want, +got):\n%s", diff)
			}
		})
	}
}

// TestIndex_TokenRowFor tests that cold and warm token row lookups agree.
func TestIndex_TokenRowFor(t *testing.T) {
	t.Parallel()

	idx := makeIndex(t, "de", germanTokens, nil)

	// Pre-cache a few rows.
	for pos := 0; pos < idx.RowCount(); pos += 7 {
		if _, err := idx.TokenRowFor(pos, true); err != nil {
			t.Fatalf("TokenRowFor(%d): %v", pos, err)
		}
	}

	var last index.TokenRow
	for pos := range idx.RowCount() {
		row, err := idx.RowAt(pos)
		if err != nil {
			t.Fatalf("RowAt(%d): %v", pos, err)
		}
		if tr, ok := row.(index.TokenRow); ok {
			last = tr
		}
		got, err := idx.TokenRowFor(pos, true)
		if err != nil {
			t.Fatalf("TokenRowFor(%d, true): %v", pos, err)
		}
		if got != last {
			t.Fatalf("TokenRowFor(%d, true): got %q, want %q", pos, got.Entry().Token, last.Entry().Token)
		}
	}

	// Every row is now cached.
	for pos := range idx.RowCount() {
		row, err := idx.RowAt(pos)
		if err != nil {
			t.Fatalf("RowAt(%d): %v", pos, err)
		}
		if tr, ok := row.(index.TokenRow); ok {
			last = tr
		}
		got, err := idx.TokenRowFor(pos, false)
		if err != nil {
			t.Fatalf("TokenRowFor(%d, false): %v", pos, err)
		}
		if got != last {
			t.Fatalf("TokenRowFor(%d, false): got %q, want %q", pos, got.Entry().Token, last.Entry().Token)
		}
	}
}

// TestIndex_TokenRowFor_cacheMiss tests the fast path without a cache entry.
func TestIndex_TokenRowFor_cacheMiss(t *testing.T) {
	t.Parallel()

	idx := makeIndex(t, "de", []string{"aaac", "ab", "machen"}, nil)

	// Token rows resolve without the cache.
	tr, err := idx.TokenRowFor(1, false)
	if err != nil {
		t.Fatalf("TokenRowFor(1, false): %v", err)
	}
	if diff := cmp.Diff("ab", tr.Entry().Token); diff != "" {
		t.Fatalf("TokenRowFor(1, false) (-want, +got):\n%s", diff)
	}

	if _, err := idx.TokenRowFor(5, false); !errors.Is(err, index.ErrCacheMiss) {
		t.Fatalf("TokenRowFor(5, false): want ErrCacheMiss, got %v", err)
	}
	tr, err = idx.TokenRowFor(5, true)
	if err != nil {
		t.Fatalf("TokenRowFor(5, true): %v", err)
	}
	if diff := cmp.Diff("machen", tr.Entry().Token); diff != "" {
		t.Fatalf("TokenRowFor(5, true) (-want, +got):\n%s", diff)
	}
	cached, err := idx.TokenRowFor(5, false)
	if err != nil {
		t.Fatalf("TokenRowFor(5, false): %v", err)
	}
	if cached != tr {
		t.Fatalf("cached token row differs")
	}
}

// TestIndex_TokenRowFor_noCache tests lookups with caching disabled.
func TestIndex_TokenRowFor_noCache(t *testing.T) {
	t.Parallel()

	cached := makeIndex(t, "de", germanTokens, nil)
	uncached := makeIndex(t, "de", germanTokens, &index.Options{RowCacheSize: -1})

	for pos := range cached.RowCount() {
		want, err := cached.TokenRowFor(pos, true)
		if err != nil {
			t.Fatalf("TokenRowFor(%d): %v", pos, err)
		}
		got, err := uncached.TokenRowFor(pos, true)
		if err != nil {
			t.Fatalf("TokenRowFor(%d): %v", pos, err)
		}
		if diff := cmp.Diff(want.Position(), got.Position()); diff != "" {
			t.Fatalf("TokenRowFor(%d) (-want, +got):\n%s", pos, diff)
		}
	}
}

// TestIndex_Prewarm tests Index.Prewarm.
func TestIndex_Prewarm(t *testing.T) {
	t.Parallel()

	idx := makeIndex(t, "de", germanTokens, nil)
	cold := makeIndex(t, "de", germanTokens, nil)

	if err := idx.Prewarm(context.Background(), rate.NewLimiter(rate.Inf, 1)); err != nil {
		t.Fatalf("Prewarm: %v", err)
	}
	for pos := range idx.RowCount() {
		got, err := idx.TokenRowFor(pos, false)
		if err != nil {
			t.Fatalf("TokenRowFor(%d, false): %v", pos, err)
		}
		want, err := cold.TokenRowFor(pos, true)
		if err != nil {
			t.Fatalf("TokenRowFor(%d, true): %v", pos, err)
		}
		if diff := cmp.Diff(want.Position(), got.Position()); diff != "" {
			t.Fatalf("TokenRowFor(%d) (-want, +got):\n%s", pos, diff)
		}
	}
}

// TestIndex_Prewarm_large tests that after a full prewarm of an index with
// more rows than a small fixed cache would hold every row resolves from the
// cache.
func TestIndex_Prewarm_large(t *testing.T) {
	t.Parallel()

	tokens := make([]string, 4000)
	for i := range tokens {
		tokens[i] = fmt.Sprintf("w%05d", i)
	}

	for _, options := range []*index.Options{nil, {}, {RowCacheSize: 20000}} {
		idx := makeIndex(t, "de", tokens, options)
		if idx.RowCount() <= 4096 {
			t.Fatalf("RowCount: got %d, want more than 4096", idx.RowCount())
		}

		if err := idx.Prewarm(context.Background(), nil); err != nil {
			t.Fatalf("Prewarm: %v", err)
		}
		for pos := range idx.RowCount() {
			if _, err := idx.TokenRowFor(pos, false); err != nil {
				t.Fatalf("TokenRowFor(%d, false) after Prewarm: %v", pos, err)
			}
		}
		if got := idx.CacheStats().Misses; got != 0 {
			t.Fatalf("CacheStats().Misses: got %d, want 0", got)
		}
	}
}

// TestIndex_Prewarm_smallCache tests that an explicitly bounded cache keeps
// its bound.
func TestIndex_Prewarm_smallCache(t *testing.T) {
	t.Parallel()

	idx := makeIndex(t, "de", germanTokens, &index.Options{RowCacheSize: 4})
	if err := idx.Prewarm(context.Background(), nil); err != nil {
		t.Fatalf("Prewarm: %v", err)
	}

	var misses int
	for pos := range idx.RowCount() {
		if _, err := idx.TokenRowFor(pos, false); errors.Is(err, index.ErrCacheMiss) {
			misses++
		} else if err != nil {
			t.Fatalf("TokenRowFor(%d, false): %v", pos, err)
		}
	}
	if misses == 0 {
		t.Fatalf("expected cache misses with a bounded cache")
	}
}

// TestIndex_Prewarm_concurrent tests reading while prewarming.
func TestIndex_Prewarm_concurrent(t *testing.T) {
	t.Parallel()

	idx := makeIndex(t, "de", germanTokens, &index.Options{RowCacheSize: 8})
	reference := makeIndex(t, "de", germanTokens, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for range 10 {
			if err := idx.Prewarm(context.Background(), nil); err != nil {
				t.Errorf("Prewarm: %v", err)
				return
			}
		}
	}()

	for range 10 {
		for pos := range idx.RowCount() {
			got, err := idx.TokenRowFor(pos, true)
			if err != nil {
				t.Fatalf("TokenRowFor(%d): %v", pos, err)
			}
			want, err := reference.TokenRowFor(pos, true)
			if err != nil {
				t.Fatalf("TokenRowFor(%d): %v", pos, err)
			}
			if diff := cmp.Diff(want.Entry().Token, got.Entry().Token); diff != "" {
				t.Fatalf("TokenRowFor(%d) (-want, +got):\n%s", pos, diff)
			}
		}
	}
	wg.Wait()
}

// TestIndex_Prewarm_canceled tests that prewarming stops when canceled.
func TestIndex_Prewarm_canceled(t *testing.T) {
	t.Parallel()

	idx := makeIndex(t, "de", germanTokens, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := idx.Prewarm(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("Prewarm: want context.Canceled, got %v", err)
	}
	if err := idx.Prewarm(ctx, rate.NewLimiter(1, 1)); !errors.Is(err, context.Canceled) {
		t.Fatalf("Prewarm: want context.Canceled, got %v", err)
	}
}

// TestNew_invalid tests that inconsistent entries and rows are rejected.
func TestNew_invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []*index.Entry
		rows    []index.RowRef
	}{
		{
			name:    "start row out of range",
			entries: []*index.Entry{{Token: "a", StartRow: 1}},
			rows:    []index.RowRef{{Kind: index.TokenRowKind, Ref: 0}},
		},
		{
			name:    "start row not a token row",
			entries: []*index.Entry{{Token: "a", StartRow: 1}},
			rows: []index.RowRef{
				{Kind: index.TokenRowKind, Ref: 0},
				{Kind: index.PairEntryRowKind, Ref: 0},
			},
		},
		{
			name: "token row for another entry",
			entries: []*index.Entry{
				{Token: "a", StartRow: 0},
				{Token: "b", StartRow: 1},
			},
			rows: []index.RowRef{
				{Kind: index.TokenRowKind, Ref: 1},
				{Kind: index.TokenRowKind, Ref: 0},
			},
		},
		{
			name:    "orphan token row",
			entries: []*index.Entry{{Token: "a", StartRow: 0}},
			rows: []index.RowRef{
				{Kind: index.TokenRowKind, Ref: 0},
				{Kind: index.TokenRowKind, Ref: 0},
			},
		},
		{
			name:    "first row not a token row",
			entries: nil,
			rows:    []index.RowRef{{Kind: index.PairEntryRowKind, Ref: 0}},
		},
		{
			name:    "unknown row kind",
			entries: []*index.Entry{{Token: "a", StartRow: 0}},
			rows: []index.RowRef{
				{Kind: index.TokenRowKind, Ref: 0},
				{Kind: index.RowKind(9), Ref: 0},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			_, err := index.New(index.Header{ShortName: "x"}, test.entries, test.rows, nil)
			if !errors.Is(err, index.ErrInvalidIndex) {
				t.Fatalf("index.New: want ErrInvalidIndex, got %v", err)
			}
		})
	}
}

// describeEntries returns a comparable description of an index's entries.
func describeEntries(idx *index.Index) []string {
	var got []string
	for _, e := range idx.Entries() {
		got = append(got, fmt.Sprintf("%s|%s|%d|%v|%v",
			e.Token, e.NormalizedToken, e.StartRow, e.EntryIDs.ToArray(), e.HTMLEntryIDs.ToArray()))
	}
	return got
}

// describeRows returns a comparable description of an index's rows.
func describeRows(t *testing.T, idx *index.Index) []string {
	t.Helper()

	var got []string
	for pos := range idx.RowCount() {
		row, err := idx.RowAt(pos)
		if err != nil {
			t.Fatalf("RowAt(%d): %v", pos, err)
		}
		switch r := row.(type) {
		case index.TokenRow:
			got = append(got, "token:"+r.Entry().Token)
		case index.PairEntryRow:
			got = append(got, fmt.Sprintf("pair:%d:%d", r.EntryID(), r.Side()))
		case index.HTMLEntryRow:
			got = append(got, fmt.Sprintf("html:%d", r.EntryID()))
		}
	}
	return got
}

// TestDecode tests encoding and decoding an index section.
func TestDecode(t *testing.T) {
	t.Parallel()

	entries := []*index.Entry{
		{
			Token:        "Haus",
			StartRow:     0,
			EntryIDs:     roaring.BitmapOf(0, 1),
			HTMLEntryIDs: roaring.BitmapOf(0),
		},
		{
			Token:    "zählen",
			StartRow: 4,
			EntryIDs: roaring.BitmapOf(2),
		},
	}
	rows := []index.RowRef{
		{Kind: index.TokenRowKind, Ref: 0},
		{Kind: index.HTMLEntryRowKind, Ref: 0},
		{Kind: index.PairEntryRowKind, Ref: 0},
		{Kind: index.PairEntryRowKind, Ref: 1},
		{Kind: index.TokenRowKind, Ref: 1},
		{Kind: index.PairEntryRowKind, Ref: 2},
	}
	want, err := index.New(index.Header{
		ShortName:       "de",
		LongName:        "de->en",
		SortLanguage:    "de",
		SwapPairEntries: true,
	}, entries, rows, nil)
	if err != nil {
		t.Fatalf("index.New: %v", err)
	}

	b, err := want.AppendBinary(nil)
	if err != nil {
		t.Fatalf("AppendBinary: %v", err)
	}
	got, err := index.Decode(b, nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if diff := cmp.Diff(want.Header(), got.Header()); diff != "" {
		t.Errorf("Header (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff(describeEntries(want), describeEntries(got)); diff != "" {
		t.Errorf("entries (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff(describeRows(t, want), describeRows(t, got)); diff != "" {
		t.Errorf("rows (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff("zahlen", got.Entries()[1].NormalizedToken); diff != "" {
		t.Errorf("NormalizedToken (-want, +got):\n%s", diff)
	}
}

// TestDecode_errors tests decoding corrupt index sections.
func TestDecode_errors(t *testing.T) {
	t.Parallel()

	idx := makeIndex(t, "de", []string{"aaac", "ab", "machen"}, nil)
	good, err := idx.AppendBinary(nil)
	if err != nil {
		t.Fatalf("AppendBinary: %v", err)
	}

	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty",
			data: nil,
		},
		{
			name: "truncated",
			data: good[:len(good)-1],
		},
		{
			name: "trailing data",
			data: append(slices.Clone(good), 0),
		},
		{
			name: "bad row",
			// The last row is a pair row referencing entry 2. Make it a
			// token row.
			data: func() []byte {
				b := slices.Clone(good)
				b[len(b)-2] = byte(index.TokenRowKind)
				return b
			}(),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			if _, err := index.Decode(test.data, nil); !errors.Is(err, format.ErrFormat) {
				t.Fatalf("Decode: want ErrFormat, got %v", err)
			}
		})
	}
}

// TestIndex_Lookup tests Index.Lookup.
func TestIndex_Lookup(t *testing.T) {
	t.Parallel()

	idx := makeIndex(t, "de", germanTokens, nil)

	var got []string
	for _, e := range idx.Lookup("MUELLER") {
		got = append(got, e.Token)
	}
	if diff := cmp.Diff([]string{"Müller"}, got); diff != "" {
		t.Fatalf("Lookup (-want, +got):\n%s", diff)
	}
	if got := idx.Lookup("nothing"); got != nil {
		t.Fatalf("Lookup: got %v", got)
	}
}
