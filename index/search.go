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
	"context"
	"strings"
	"unicode/utf8"

	"github.com/ianlewis/go-quickdic/normalize"
)

// SearchResult is the result of FindLongestPrefix.
type SearchResult struct {
	// InsertionPoint is the entry returned by FindInsertionPoint for the
	// query.
	InsertionPoint *Entry

	// LongestPrefix is the first entry whose normalized token starts with
	// LongestPrefixString.
	LongestPrefix *Entry

	// LongestPrefixString is the longest prefix of the normalized query that
	// is a prefix of some normalized token.
	LongestPrefixString string

	// Success reports whether the whole normalized query is a prefix of some
	// normalized token.
	Success bool
}

// FindInsertionPoint returns the first entry whose normalized token sorts at
// or after the normalized query. Queries that sort before every entry,
// including the empty query, return the first entry. Queries that sort after
// every entry return the last entry. Among entries with the same normalized
// token an entry whose raw token equals query is preferred.
//
// If ctx is done during the search the best entry found so far is returned.
// Cancellation is not an error. ErrEmptyIndex is returned if the index has no
// entries.
func (idx *Index) FindInsertionPoint(ctx context.Context, query string) (*Entry, error) {
	if len(idx.entries) == 0 {
		return nil, ErrEmptyIndex
	}
	key := normalize.String(idx.folder, query)
	pos := idx.insertionPoint(ctx, key)
	if ctx.Err() != nil {
		return idx.entries[pos], nil
	}

	for i := pos; i < len(idx.entries) && idx.entries[i].NormalizedToken == key; i++ {
		if idx.entries[i].Token == query {
			return idx.entries[i], nil
		}
	}
	return idx.entries[pos], nil
}

// FindLongestPrefix returns the insertion point for query along with the
// entry found by trimming runes from the end of the normalized query until it
// is a prefix of some entry's normalized token. The empty string is a prefix
// of every token so an index with entries always has a result.
//
// If ctx is done while trimming, LongestPrefix is the insertion point and
// LongestPrefixString is empty.
func (idx *Index) FindLongestPrefix(ctx context.Context, query string) (*SearchResult, error) {
	ins, err := idx.FindInsertionPoint(ctx, query)
	if err != nil {
		return nil, err
	}
	result := &SearchResult{
		InsertionPoint: ins,
		LongestPrefix:  ins,
	}

	key := normalize.String(idx.folder, query)
	for prefix := key; ; {
		if ctx.Err() != nil {
			return result, nil
		}
		pos := idx.insertionPoint(ctx, prefix)
		// A canceled lower bound is only a partial position.
		if ctx.Err() != nil {
			return result, nil
		}
		e := idx.entries[pos]
		if strings.HasPrefix(e.NormalizedToken, prefix) {
			result.LongestPrefix = e
			result.LongestPrefixString = prefix
			result.Success = prefix == key
			return result, nil
		}
		_, size := utf8.DecodeLastRuneInString(prefix)
		prefix = prefix[:len(prefix)-size]
	}
}

// insertionPoint returns the lower bound of key clamped to the last entry.
func (idx *Index) insertionPoint(ctx context.Context, key string) int {
	// NOTE: On cancellation LowerBound returns the best position so far.
	pos, _ := idx.sorted.LowerBound(ctx, key)
	return min(pos, len(idx.entries)-1)
}
