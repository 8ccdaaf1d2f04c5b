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

package quickdic_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/go-quickdic"
	"github.com/ianlewis/go-quickdic/internal/testutil"
)

func sampleBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := testutil.SampleBuilder(t, "zstd").Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

func TestOpen(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		dictzip bool
		mmap    bool
	}{
		{
			name: "file",
		},
		{
			name:    "dictzip",
			dictzip: true,
		},
		{
			name: "mmap",
			mmap: true,
		},
		{
			name:    "dictzip mmap",
			dictzip: true,
			mmap:    true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			path := testutil.MakeTempDict(t, testutil.SampleBuilder(t, "lz4"), &testutil.MakeDictOptions{
				DictZip: test.dictzip,
			})
			d, err := quickdic.Open(path, &quickdic.Options{
				MMap:           test.mmap,
				RowCacheSize:   16,
				EntryCacheSize: 16,
			})
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer d.Close()

			if diff := cmp.Diff(path, d.Path()); diff != "" {
				t.Errorf("Path (-want, +got):\n%s", diff)
			}

			de, ok := d.Index("DE")
			if !ok {
				t.Fatalf("missing DE index")
			}
			e, err := de.FindInsertionPoint(context.Background(), "GRÜSSEN")
			if err != nil {
				t.Fatalf("FindInsertionPoint: %v", err)
			}
			if diff := cmp.Diff("grüßen", e.Token); diff != "" {
				t.Errorf("FindInsertionPoint (-want, +got):\n%s", diff)
			}

			for i, want := range testutil.SamplePairs {
				got, err := d.PairEntry(i)
				if err != nil {
					t.Fatalf("PairEntry(%d): %v", i, err)
				}
				if diff := cmp.Diff(want, got); diff != "" {
					t.Errorf("PairEntry(%d) (-want, +got):\n%s", i, diff)
				}
			}

			if err := d.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if err := d.Close(); err != nil {
				t.Fatalf("second Close: %v", err)
			}
		})
	}
}

func TestOpen_errors(t *testing.T) {
	t.Parallel()

	b := sampleBytes(t)
	dir := t.TempDir()

	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}

	badMagic := bytes.Clone(b)
	copy(badMagic, "NOTADICT")

	tests := []struct {
		name     string
		path     string
		expected error
	}{
		{
			name:     "bad extension",
			path:     write("sample.dict", b),
			expected: quickdic.ErrFormat,
		},
		{
			name:     "missing",
			path:     filepath.Join(dir, "missing.quickdic"),
			expected: quickdic.ErrIO,
		},
		{
			name:     "bad magic",
			path:     write("magic.quickdic", badMagic),
			expected: quickdic.ErrFormat,
		},
		{
			name:     "truncated",
			path:     write("truncated.quickdic", b[:len(b)-10]),
			expected: quickdic.ErrTruncated,
		},
		{
			name:     "not dictzip",
			path:     write("plain.quickdic.dz", b),
			expected: quickdic.ErrFormat,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			for _, mmap := range []bool{false, true} {
				d, err := quickdic.Open(test.path, &quickdic.Options{MMap: mmap})
				if !errors.Is(err, test.expected) {
					t.Errorf("Open(mmap=%v): want %v, got %v", mmap, test.expected, err)
				}
				if d != nil {
					t.Errorf("Open(mmap=%v): got non-nil dictionary", mmap)
				}
			}
		})
	}
}

func TestOpenAll(t *testing.T) {
	t.Parallel()

	b := sampleBytes(t)
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o700); err != nil {
		t.Fatal(err)
	}

	files := map[string][]byte{
		filepath.Join(dir, "a.quickdic"):   b,
		filepath.Join(sub, "b.QUICKDIC"):   b,
		filepath.Join(dir, "bad.quickdic"): b[:20],
		filepath.Join(dir, "README"):       []byte("readme"),
	}
	for path, data := range files {
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	dicts, errs := quickdic.OpenAll(dir, nil)
	defer func() {
		for _, d := range dicts {
			_ = d.Close()
		}
	}()

	var paths []string
	for _, d := range dicts {
		paths = append(paths, d.Path())
	}
	if diff := cmp.Diff([]string{
		filepath.Join(dir, "a.quickdic"),
		filepath.Join(sub, "b.QUICKDIC"),
	}, paths); diff != "" {
		t.Errorf("OpenAll paths (-want, +got):\n%s", diff)
	}
	if len(errs) != 1 || !errors.Is(errs[0], quickdic.ErrTruncated) {
		t.Errorf("OpenAll errors: got %v", errs)
	}
}

func TestOpenAll_hidden(t *testing.T) {
	t.Parallel()

	b := sampleBytes(t)
	dir := t.TempDir()
	hidden := filepath.Join(dir, ".partial")
	if err := os.Mkdir(hidden, 0o700); err != nil {
		t.Fatal(err)
	}

	files := map[string][]byte{
		filepath.Join(dir, "a.quickdic"):               b,
		filepath.Join(dir, ".fetch-123-a.quickdic"):    b[:len(b)/2],
		filepath.Join(hidden, "b.quickdic"):            b[:20],
		filepath.Join(dir, ".fetch-456-c.quickdic.dz"): []byte("partial"),
	}
	for path, data := range files {
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
	}

	dicts, errs := quickdic.OpenAll(dir, nil)
	defer func() {
		for _, d := range dicts {
			_ = d.Close()
		}
	}()

	var paths []string
	for _, d := range dicts {
		paths = append(paths, d.Path())
	}
	if diff := cmp.Diff([]string{filepath.Join(dir, "a.quickdic")}, paths); diff != "" {
		t.Errorf("OpenAll paths (-want, +got):\n%s", diff)
	}
	if len(errs) != 0 {
		t.Errorf("OpenAll errors: got %v", errs)
	}

	// The root itself may be hidden.
	dicts, errs = quickdic.OpenAll(hidden, nil)
	for _, d := range dicts {
		_ = d.Close()
	}
	if len(dicts) != 0 || len(errs) != 1 {
		t.Errorf("OpenAll(%q): got %d dictionaries, errors %v", hidden, len(dicts), errs)
	}
}

func TestDictionary_Source(t *testing.T) {
	t.Parallel()

	b := sampleBytes(t)
	d, err := quickdic.New(bytes.NewReader(b), int64(len(b)), nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i, want := range []string{"chemnitz", "chemnitz", "chemnitz", "chemnitz", "chemnitz", "dictcc", "dictcc"} {
		src, err := d.Source(i)
		if err != nil {
			t.Fatalf("Source(%d): %v", i, err)
		}
		if diff := cmp.Diff(want, src.Name); diff != "" {
			t.Errorf("Source(%d) (-want, +got):\n%s", i, diff)
		}
	}
	for _, i := range []int{-1, d.PairEntryCount()} {
		if _, err := d.Source(i); !errors.Is(err, quickdic.ErrOutOfRange) {
			t.Errorf("Source(%d): want ErrOutOfRange, got %v", i, err)
		}
	}
}

// TestNew_unknownSize tests reading a dictionary whose size is unknown.
func TestNew_unknownSize(t *testing.T) {
	t.Parallel()

	b := sampleBytes(t)
	d, err := quickdic.New(bytes.NewReader(b), -1, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got, want := len(d.Indices()), 2; got != want {
		t.Fatalf("Indices: got %d, want %d", got, want)
	}

	if _, err := quickdic.New(bytes.NewReader(b[:len(b)-1]), -1, nil); !errors.Is(err, quickdic.ErrTruncated) {
		t.Fatalf("New(truncated): want ErrTruncated, got %v", err)
	}
}

// TestDictionary_concurrent tests concurrent searches and entry reads.
func TestDictionary_concurrent(t *testing.T) {
	t.Parallel()

	b := sampleBytes(t)
	d, err := quickdic.New(bytes.NewReader(b), int64(len(b)), &quickdic.Options{
		RowCacheSize:   2,
		EntryCacheSize: 2,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	en, _ := d.Index("EN")

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range en.RowCount() {
				if _, err := en.TokenRowFor(i, true); err != nil {
					errs <- err
					return
				}
				if _, err := en.FindInsertionPoint(context.Background(), "house"); err != nil {
					errs <- err
					return
				}
			}
			for i := range d.PairEntryCount() {
				if _, err := d.PairEntry(i); err != nil {
					errs <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
