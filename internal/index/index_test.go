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
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type word struct {
	raw string
}

func lower(w word) string {
	return strings.ToLower(w.raw)
}

func byRaw(a, b word) int {
	return strings.Compare(a.raw, b.raw)
}

func TestIndex_Search(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		index    []word
		query    string
		expected []word
	}{
		{
			name:     "single results",
			index:    []word{{"foo"}, {"bar"}, {"baz"}},
			query:    "foo",
			expected: []word{{"foo"}},
		},
		{
			name:     "multiple results ordered by raw value",
			index:    []word{{"foo"}, {"bar"}, {"baz"}, {"Bar"}},
			query:    "bar",
			expected: []word{{"Bar"}, {"bar"}},
		},
		{
			name:     "no results",
			index:    []word{{"foo"}, {"bar"}, {"baz"}},
			query:    "none",
			expected: nil,
		},
		{
			name:     "empty index",
			index:    nil,
			query:    "foo",
			expected: nil,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			index := Sort(test.index, lower, byRaw)

			if diff := cmp.Diff(test.expected, index.Search(test.query), cmp.AllowUnexported(word{})); diff != "" {
				t.Fatalf("Search (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestIndex_LowerBound(t *testing.T) {
	t.Parallel()

	index := Sort([]word{{"machen"}, {"ab"}, {"zahlen"}, {"aaac"}}, lower, byRaw)

	tests := []struct {
		query    string
		expected int
	}{
		{query: "", expected: 0},
		{query: "aaac", expected: 0},
		{query: "aaaca", expected: 1},
		{query: "m", expected: 2},
		{query: "machen", expected: 2},
		{query: "zzzzz", expected: 4},
	}

	for _, test := range tests {
		t.Run(test.query, func(t *testing.T) {
			t.Parallel()

			got, err := index.LowerBound(context.Background(), test.query)
			if err != nil {
				t.Fatalf("LowerBound: %v", err)
			}
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Fatalf("LowerBound(%q) (-want, +got):\n%s", test.query, diff)
			}
		})
	}
}

func TestIndex_LowerBound_cancelled(t *testing.T) {
	t.Parallel()

	index := Sort([]word{{"a"}, {"b"}, {"c"}}, lower, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := index.LowerBound(ctx, "c")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("LowerBound: unexpected error: %v", err)
	}
	if diff := cmp.Diff(0, got); diff != "" {
		t.Fatalf("LowerBound (-want, +got):\n%s", diff)
	}
}
