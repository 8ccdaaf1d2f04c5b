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

package folding

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// IsSeparator reports whether r separates the words of a token. Whitespace,
// dashes and connector punctuation (e.g. '_') are separators.
func IsSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.In(r, unicode.Pd, unicode.Pc)
}

// SeparatorFolder folds separator spans. It removes separators from the
// beginning and end of the input and replaces every internal span of
// separators with a single ASCII space.
//
// A token consisting only of separators folds to the empty string.
type SeparatorFolder struct {
	// notStart is true after encountering the first non-separator rune.
	notStart bool

	// span is true while the transformer is inside a separator span.
	span bool
}

// Transform implements [transform.Transformer.Transform].
func (f *SeparatorFolder) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	var nSrc, nDst int
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		c, size := utf8.DecodeRune(src[nSrc:])

		if IsSeparator(c) {
			nSrc += size
			if f.notStart {
				f.span = true
			}
			continue
		}

		if f.span {
			// Trailing spans are never emitted because nothing follows them.
			if nDst+1 > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = ' '
			nDst++
			f.span = false
		}

		// NOTE: size cannot be used here because c may be utf8.RuneError
		// which is encoded in 3 bytes.
		if nDst+utf8.RuneLen(c) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		f.notStart = true
		nSrc += size
		nDst += utf8.EncodeRune(dst[nDst:], c)
	}

	return nDst, nSrc, nil
}

// Reset implements [transform.Transformer.Reset].
func (f *SeparatorFolder) Reset() {
	*f = SeparatorFolder{}
}
