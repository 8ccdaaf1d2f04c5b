// Copyright 2026 Ian Lewis
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

package format

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"time"
)

var (
	// ErrFormat indicates that the data is not a valid quickdic file.
	ErrFormat = errors.New("invalid format")

	// ErrTruncated indicates that a declared section extends past the end of
	// the file.
	ErrTruncated = errors.New("truncated file")

	// ErrIO indicates a failure of the underlying storage.
	ErrIO = errors.New("i/o error")
)

// Magic is the magic string at the start of every file.
const Magic = "QUICKDIC"

// Version is the file format version written by this package.
const Version uint32 = 1

const (
	// fixedHeaderSize is the size of the header up to and including the
	// info length.
	fixedHeaderSize = len(Magic) + 4 + 8 + 8 + 1 + 4

	sectionEntrySize = 1 + 8 + 8

	maxInfoSize     = 1 << 20
	maxSectionCount = 1 << 16
)

// SectionKind identifies the contents of a section.
type SectionKind uint8

const (
	// SourcesSection holds the dictionary's sources.
	SourcesSection SectionKind = iota + 1

	// PairEntriesSection holds the shared pair entry table.
	PairEntriesSection

	// HTMLEntriesSection holds the shared HTML entry table.
	HTMLEntriesSection

	// IndexSection holds a single index. There is one per index.
	IndexSection
)

// String implements [fmt.Stringer].
func (k SectionKind) String() string {
	switch k {
	case SourcesSection:
		return "sources"
	case PairEntriesSection:
		return "pair entries"
	case HTMLEntriesSection:
		return "html entries"
	case IndexSection:
		return "index"
	default:
		return fmt.Sprintf("section(%d)", uint8(k))
	}
}

// Section is a section table entry.
type Section struct {
	Kind   SectionKind
	Offset int64
	Length int64
}

// Header is the file header.
type Header struct {
	// Version is the file format version.
	Version uint32

	// Size is the declared size of the whole file in bytes.
	Size int64

	// Created is the time the dictionary was built.
	Created time.Time

	// Codec is the compression used for entry blobs.
	Codec Codec

	// Info is free text information about the dictionary.
	Info string

	// Sections is the section table in file order.
	Sections []Section
}

// Len returns the encoded length of the header including the section table.
func (h *Header) Len() int64 {
	return int64(fixedHeaderSize + len(h.Info) + 4 + len(h.Sections)*sectionEntrySize)
}

// AppendBinary appends the encoded header to b.
func (h *Header) AppendBinary(b []byte) ([]byte, error) {
	if len(h.Info) > maxInfoSize {
		return nil, fmt.Errorf("%w: info too long: %d", ErrFormat, len(h.Info))
	}
	if len(h.Sections) > maxSectionCount {
		return nil, fmt.Errorf("%w: too many sections: %d", ErrFormat, len(h.Sections))
	}

	b = append(b, Magic...)
	b = binary.BigEndian.AppendUint32(b, h.Version)
	//nolint:gosec // sizes are non-negative.
	b = binary.BigEndian.AppendUint64(b, uint64(h.Size))
	//nolint:gosec // two's complement round trips through uint64.
	b = binary.BigEndian.AppendUint64(b, uint64(h.Created.UnixMilli()))
	b = append(b, byte(h.Codec))
	//nolint:gosec // bounds checked above.
	b = binary.BigEndian.AppendUint32(b, uint32(len(h.Info)))
	b = append(b, h.Info...)
	//nolint:gosec // bounds checked above.
	b = binary.BigEndian.AppendUint32(b, uint32(len(h.Sections)))
	for _, s := range h.Sections {
		b = append(b, byte(s.Kind))
		//nolint:gosec // offsets are non-negative.
		b = binary.BigEndian.AppendUint64(b, uint64(s.Offset))
		//nolint:gosec // lengths are non-negative.
		b = binary.BigEndian.AppendUint64(b, uint64(s.Length))
	}
	return b, nil
}

// ReadHeader reads and validates the header from r. size is the actual size
// of the data in r or a negative number if it is unknown, in which case the
// declared size is verified by probing the last byte.
func ReadHeader(r io.ReaderAt, size int64) (*Header, error) {
	b, err := ReadAt(r, 0, fixedHeaderSize)
	if err != nil {
		return nil, err
	}
	if string(b[:len(Magic)]) != Magic {
		return nil, fmt.Errorf("%w: bad magic data", ErrFormat)
	}
	b = b[len(Magic):]

	h := &Header{}
	h.Version = binary.BigEndian.Uint32(b)
	if h.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version: %d", ErrFormat, h.Version)
	}
	fileSize := binary.BigEndian.Uint64(b[4:])
	if fileSize > math.MaxInt64 {
		return nil, fmt.Errorf("%w: file size too large: %d", ErrFormat, fileSize)
	}
	h.Size = int64(fileSize)
	//nolint:gosec // two's complement round trips through uint64.
	h.Created = time.UnixMilli(int64(binary.BigEndian.Uint64(b[12:])))
	h.Codec = Codec(b[20])
	if !h.Codec.Valid() {
		return nil, fmt.Errorf("%w: unknown codec: %d", ErrFormat, h.Codec)
	}
	infoLen := binary.BigEndian.Uint32(b[21:])
	if infoLen > maxInfoSize {
		return nil, fmt.Errorf("%w: info too long: %d", ErrFormat, infoLen)
	}

	switch {
	case size >= 0 && size < h.Size:
		return nil, fmt.Errorf("%w: declared size %d, actual size %d", ErrTruncated, h.Size, size)
	case size > h.Size:
		return nil, fmt.Errorf("%w: declared size %d, actual size %d", ErrFormat, h.Size, size)
	case size < 0 && h.Size > 0:
		if _, err := ReadAt(r, h.Size-1, 1); err != nil {
			return nil, err
		}
	}

	off := int64(fixedHeaderSize)
	b, err = ReadAt(r, off, int(infoLen)+4)
	if err != nil {
		return nil, err
	}
	h.Info = string(b[:infoLen])
	count := binary.BigEndian.Uint32(b[infoLen:])
	if count > maxSectionCount {
		return nil, fmt.Errorf("%w: too many sections: %d", ErrFormat, count)
	}
	off += int64(infoLen) + 4

	b, err = ReadAt(r, off, int(count)*sectionEntrySize)
	if err != nil {
		return nil, err
	}
	end := off + int64(len(b))
	if end > h.Size {
		return nil, fmt.Errorf("%w: header extends past end of file", ErrTruncated)
	}
	for i := range int(count) {
		e := b[i*sectionEntrySize:]
		s := Section{Kind: SectionKind(e[0])}
		sOff, sLen := binary.BigEndian.Uint64(e[1:]), binary.BigEndian.Uint64(e[9:])
		if sOff > math.MaxInt64 || sLen > math.MaxInt64 || sOff+sLen < sOff {
			return nil, fmt.Errorf("%w: %v section %d: bad bounds", ErrFormat, s.Kind, i)
		}
		s.Offset, s.Length = int64(sOff), int64(sLen)
		if s.Offset < end {
			return nil, fmt.Errorf("%w: %v section %d overlaps header", ErrFormat, s.Kind, i)
		}
		if s.Offset+s.Length > h.Size {
			return nil, fmt.Errorf("%w: %v section %d ends at %d past end of file %d",
				ErrTruncated, s.Kind, i, s.Offset+s.Length, h.Size)
		}
		h.Sections = append(h.Sections, s)
	}

	return h, nil
}

// ReadAt reads exactly n bytes at off from r. Short reads are reported as
// ErrTruncated and other failures as ErrIO.
func ReadAt(r io.ReaderAt, off int64, n int) ([]byte, error) {
	b := make([]byte, n)
	if n == 0 {
		return b, nil
	}
	m, err := r.ReadAt(b, off)
	if m == n {
		// NOTE: ReadAt may return io.EOF along with a full read.
		return b, nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: reading %d bytes at offset %d", ErrTruncated, n, off)
	}
	return nil, fmt.Errorf("%w: reading %d bytes at offset %d: %w", ErrIO, n, off, err)
}

// ReadSection reads the full contents of s.
func ReadSection(r io.ReaderAt, s Section) ([]byte, error) {
	if s.Length > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %v section too large: %d", ErrFormat, s.Kind, s.Length)
	}
	return ReadAt(r, s.Offset, int(s.Length))
}
