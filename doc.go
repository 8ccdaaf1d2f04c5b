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

// Package quickdic implements a library for reading offline bilingual
// dictionaries in pure Go.
//
// A dictionary is a single file containing:
//  1. A header with the format version, creation time and free text info.
//  2. A sources section listing where the dictionary's entries came from.
//  3. Shared pair entry and HTML entry tables. Entries are read lazily and
//     cached in a bounded cache.
//  4. One or more indices. Each index is a table of tokens sorted by their
//     normalized form and a sequence of rows that interleave token markers
//     with the entries filed under each token.
//
// Dictionary files use the .quickdic extension. Files compressed with dictzip
// use the .quickdic.dz extension and are read with random access.
//
// Searching an index is case, diacritic and transliteration insensitive:
//
//	d, err := quickdic.Open("de-en.quickdic", nil)
//	if err != nil {
//		return err
//	}
//	defer d.Close()
//
//	de, _ := d.Index("de")
//	e, err := de.FindInsertionPoint(ctx, "ueberpruefe")
//	// e.Token == "überprüfe"
package quickdic
