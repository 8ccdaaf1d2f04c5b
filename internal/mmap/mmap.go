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

// Package mmap implements read-only memory mapped files.
package mmap

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// ErrUnsupported indicates that memory mapping is not supported on this
// platform.
var ErrUnsupported = errors.New("mmap not supported")

// File is a read-only memory mapped file.
type File struct {
	data []byte
	f    *os.File
}

// Open maps the file at path into memory.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat %q: %w", path, err)
	}

	size := fi.Size()
	if size == 0 {
		return &File{f: f}, nil
	}
	if size > math.MaxInt {
		_ = f.Close()
		return nil, fmt.Errorf("mapping %q: file too large: %d", path, size)
	}

	data, err := mmap(f, int(size))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("mapping %q: %w", path, err)
	}

	return &File{data: data, f: f}, nil
}

// Len returns the size of the mapped file.
func (m *File) Len() int64 {
	return int64(len(m.data))
}

// ReadAt implements [io.ReaderAt].
func (m *File) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, fmt.Errorf("mmap: negative offset: %d", off)
	}
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the memory and closes the underlying file.
func (m *File) Close() error {
	var err error
	if m.data != nil {
		err = munmap(m.data)
		m.data = nil
	}
	if m.f != nil {
		if closeErr := m.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		m.f = nil
	}
	if err != nil {
		return fmt.Errorf("closing mapped file: %w", err)
	}
	return nil
}
