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
	"log/slog"

	"github.com/ianlewis/go-quickdic/normalize"
)

// Options are options for opening dictionaries.
type Options struct {
	// Folder returns the Folder used to normalize tokens for an index's sort
	// language. It must match the Folder used to build the dictionary. A nil
	// Folder uses [normalize.ForLanguage].
	Folder func(lang string) normalize.Folder

	// RowCacheSize is the number of resolved token rows cached per index.
	// Zero caches every row of each index and a negative value disables
	// caching.
	RowCacheSize int

	// EntryCacheSize is the number of decoded pair and HTML entries kept in
	// memory.
	EntryCacheSize int

	// MMap memory maps uncompressed dictionary files where supported instead
	// of reading them with file reads.
	MMap bool

	// Logger receives debug and warning logs. A nil Logger discards them.
	Logger *slog.Logger
}

// DefaultOptions is the default options for opening dictionaries.
var DefaultOptions = &Options{
	EntryCacheSize: 1024,
}

func (o *Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}
