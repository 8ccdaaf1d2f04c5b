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
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec is the compression algorithm used for entry blobs.
type Codec uint8

const (
	// CodecNone stores blobs uncompressed.
	CodecNone Codec = iota

	// CodecLZ4 compresses blobs with LZ4 block compression.
	CodecLZ4

	// CodecZstd compresses blobs with zstd.
	CodecZstd
)

// Valid reports whether c is a known codec.
func (c Codec) Valid() bool {
	return c <= CodecZstd
}

// String implements [fmt.Stringer].
func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	default:
		return fmt.Sprintf("codec(%d)", uint8(c))
	}
}

// ParseCodec parses a codec name as returned by Codec.String.
func ParseCodec(name string) (Codec, error) {
	for c := CodecNone; c.Valid(); c++ {
		if c.String() == name {
			return c, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown codec %q", ErrFormat, name)
}

const (
	blobRaw        byte = 0
	blobCompressed byte = 1

	// maxBlobSize bounds the uncompressed size of a single blob.
	maxBlobSize = 64 << 20
)

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		//nolint:forcetypeassert // pool only holds encoders.
		return v.(*zstd.Encoder)
	}
	// NOTE: NewWriter only fails on invalid options.
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		//nolint:forcetypeassert // pool only holds decoders.
		return v.(*zstd.Decoder)
	}
	// NOTE: NewReader only fails on invalid options.
	dec, _ := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	return dec
}

// EncodeBlob encodes payload as a blob using codec. The payload is stored
// uncompressed if compression does not save at least a tenth of its size.
func EncodeBlob(codec Codec, payload []byte) ([]byte, error) {
	var compressed []byte
	switch codec {
	case CodecNone:
	case CodecLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(payload)))
		n, err := lz4.CompressBlock(payload, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("lz4 compression: %w", err)
		}
		// NOTE: n is zero for incompressible data.
		compressed = buf[:n]
	case CodecZstd:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(payload, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("%w: unknown codec: %d", ErrFormat, codec)
	}

	if len(compressed) == 0 || len(compressed)*10 > len(payload)*9 {
		b := make([]byte, 0, 1+len(payload))
		b = append(b, blobRaw)
		return append(b, payload...), nil
	}

	b := make([]byte, 0, 1+binary.MaxVarintLen64+len(compressed))
	b = append(b, blobCompressed)
	b = binary.AppendUvarint(b, uint64(len(payload)))
	return append(b, compressed...), nil
}

// DecodeBlob decodes a blob written by EncodeBlob with the same codec.
func DecodeBlob(codec Codec, blob []byte) ([]byte, error) {
	if len(blob) == 0 {
		return nil, fmt.Errorf("%w: empty blob", ErrFormat)
	}

	switch blob[0] {
	case blobRaw:
		return blob[1:], nil
	case blobCompressed:
	default:
		return nil, fmt.Errorf("%w: bad blob flag: %d", ErrFormat, blob[0])
	}

	size, n := binary.Uvarint(blob[1:])
	if n <= 0 || size > maxBlobSize {
		return nil, fmt.Errorf("%w: bad blob size", ErrFormat)
	}
	data := blob[1+n:]

	switch codec {
	case CodecLZ4:
		out := make([]byte, size)
		m, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrFormat, err)
		}
		if uint64(m) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrFormat)
		}
		return out, nil
	case CodecZstd:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, size))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrFormat, err)
		}
		if uint64(len(out)) != size {
			return nil, fmt.Errorf("%w: decompressed size mismatch", ErrFormat)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: compressed blob with codec %v", ErrFormat, codec)
	}
}
