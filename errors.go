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
	"github.com/ianlewis/go-quickdic/index"
	"github.com/ianlewis/go-quickdic/internal/format"
)

var (
	// ErrFormat indicates that a file is not a valid dictionary: a bad magic
	// string or version, or inconsistent structure.
	ErrFormat = format.ErrFormat

	// ErrTruncated indicates that a declared section or the declared file
	// length extends past the end of the file.
	ErrTruncated = format.ErrTruncated

	// ErrIO indicates a failure of the underlying storage.
	ErrIO = format.ErrIO

	// ErrOutOfRange indicates a row or entry position outside of its
	// sequence.
	ErrOutOfRange = index.ErrOutOfRange

	// ErrCacheMiss indicates that a token row was not cached and a slow
	// search was not allowed.
	ErrCacheMiss = index.ErrCacheMiss

	// ErrEmptyIndex indicates a search of an index without entries.
	ErrEmptyIndex = index.ErrEmptyIndex
)
