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

// Package fetch downloads dictionary files from object storage into a local
// dictionary directory.
//
// Downloads are written to a temporary file in the destination directory,
// checked by opening them as dictionaries, and then renamed into place so
// that readers never see a partial file.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ianlewis/go-quickdic"
)

var (
	// ErrNotFound indicates that an object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrNotDictionary indicates that an object's name is not a dictionary
	// file name.
	ErrNotDictionary = errors.New("not a dictionary")

	// ErrSizeMismatch indicates that fewer or more bytes were downloaded than
	// the object's size.
	ErrSizeMismatch = errors.New("size mismatch")
)

// Options are options for a Fetcher.
type Options struct {
	// Concurrency is the maximum number of parallel downloads in FetchAll.
	// Values less than 1 mean 1.
	Concurrency int

	// Logger receives progress logs. A nil Logger discards them.
	Logger *slog.Logger
}

// DefaultOptions is the default options for a Fetcher.
var DefaultOptions = &Options{
	Concurrency: 4,
}

// Fetcher downloads dictionaries from a Store into a directory.
type Fetcher struct {
	store       Store
	dir         string
	concurrency int
	logger      *slog.Logger
}

// New returns a Fetcher that downloads from store into dir.
func New(store Store, dir string, options *Options) *Fetcher {
	if options == nil {
		options = DefaultOptions
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{
		store:       store,
		dir:         dir,
		concurrency: max(options.Concurrency, 1),
		logger:      logger,
	}
}

// Fetch downloads the dictionary at key and returns its local path. An
// existing file with the same name is replaced only if the download is a
// readable dictionary.
func (f *Fetcher) Fetch(ctx context.Context, key string) (string, error) {
	name := path.Base(key)
	if !quickdic.IsDictionary(name) {
		return "", fmt.Errorf("%w: %q", ErrNotDictionary, key)
	}

	rc, obj, err := f.store.Get(ctx, key)
	if err != nil {
		//nolint:wrapcheck // errors are wrapped by the store.
		return "", err
	}
	defer rc.Close()

	// The temporary name keeps the extension so it can be opened and is
	// hidden so OpenAll skips it.
	tmp, err := os.CreateTemp(f.dir, ".fetch-*-"+name)
	if err != nil {
		return "", fmt.Errorf("%w: %w", quickdic.ErrIO, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// Cleanup is a no-op after a successful rename.
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	n, err := io.Copy(tmp, rc)
	if err != nil {
		return "", fmt.Errorf("%w: downloading %q: %w", quickdic.ErrIO, key, err)
	}
	if obj.Size >= 0 && n != obj.Size {
		return "", fmt.Errorf("%w: %q: got %d bytes, want %d", ErrSizeMismatch, key, n, obj.Size)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("%w: %w", quickdic.ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", quickdic.ErrIO, err)
	}

	d, err := quickdic.Open(tmpName, &quickdic.Options{Logger: f.logger})
	if err != nil {
		return "", fmt.Errorf("checking %q: %w", key, err)
	}
	_ = d.Close()

	dst := filepath.Join(f.dir, name)
	if err := os.Rename(tmpName, dst); err != nil {
		return "", fmt.Errorf("%w: %w", quickdic.ErrIO, err)
	}

	f.logger.Info("fetched dictionary", "key", key, "path", dst, "size", n, "etag", obj.ETag)
	return dst, nil
}

// FetchAll downloads every dictionary under prefix and returns their local
// paths in key order. Objects that are not dictionaries are skipped.
func (f *Fetcher) FetchAll(ctx context.Context, prefix string) ([]string, error) {
	objs, err := f.store.List(ctx, prefix)
	if err != nil {
		//nolint:wrapcheck // errors are wrapped by the store.
		return nil, err
	}

	var keys []string
	for _, obj := range objs {
		if quickdic.IsDictionary(obj.Key) {
			keys = append(keys, obj.Key)
		} else {
			f.logger.Debug("skipping object", "key", obj.Key)
		}
	}

	paths := make([]string, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, key := range keys {
		g.Go(func() error {
			p, err := f.Fetch(ctx, key)
			if err != nil {
				return err
			}
			paths[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		//nolint:wrapcheck // errors are wrapped by Fetch.
		return nil, err
	}
	return paths, nil
}
