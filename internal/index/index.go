// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package index

import (
	"context"
	"slices"
	"strings"
)

// Index is a generic sorted array index keyed by a string. The index does not
// own the ordering of its values: values must already be sorted by key.
type Index[V any] struct {
	values []V
	key    func(V) string
}

// New creates an index over values which must be sorted by key in
// [strings.Compare] order. The slice is not copied.
func New[V any](values []V, key func(V) string) *Index[V] {
	return &Index[V]{
		values: values,
		key:    key,
	}
}

// Sort sorts values by key, breaking ties with tiebreak, and returns an index
// over them. cmp(a, b) for tiebreak should return a negative number when
// a < b, a positive number when a > b and zero when a == b.
func Sort[V any](values []V, key func(V) string, tiebreak func(a, b V) int) *Index[V] {
	slices.SortStableFunc(values, func(a, b V) int {
		if c := strings.Compare(key(a), key(b)); c != 0 {
			return c
		}
		if tiebreak == nil {
			return 0
		}
		return tiebreak(a, b)
	})
	return New(values, key)
}

// Len returns the number of values in the index.
func (idx *Index[V]) Len() int {
	return len(idx.values)
}

// At returns the i-th value in sorted order.
func (idx *Index[V]) At(i int) V {
	return idx.values[i]
}

// LowerBound returns the position of the first value whose key is greater
// than or equal to key. The result is Len() if every key is smaller.
//
// The context is checked between bisection steps. If it is done the best
// position found so far is returned along with the context's error.
func (idx *Index[V]) LowerBound(ctx context.Context, key string) (int, error) {
	start, end := 0, len(idx.values)
	for start < end {
		if err := ctx.Err(); err != nil {
			return start, err
		}
		//nolint:gosec // start + end cannot overflow for slice lengths.
		mid := int(uint(start+end) >> 1)
		if strings.Compare(idx.key(idx.values[mid]), key) < 0 {
			start = mid + 1
		} else {
			end = mid
		}
	}
	return start, nil
}

// Search returns all values whose key equals key.
func (idx *Index[V]) Search(key string) []V {
	i, _ := idx.LowerBound(context.Background(), key)

	j := i
	//nolint:revive // This block increments j.
	for ; j < len(idx.values) && idx.key(idx.values[j]) == key; j++ {
	}
	if i == j {
		return nil
	}
	return idx.values[i:j]
}
