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

package folding

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// Replacer is a stateless [transform.Transformer] that replaces runs of
// runes with replacement strings. It is used for digraph folding (e.g. German
// "ue" for "ü") and for romanizing non-Latin scripts. The longest matching
// rule always wins.
type Replacer struct {
	transform.NopResetter

	rules map[string]string

	// prefixes holds every proper prefix of every rule key.
	prefixes map[string]struct{}

	// maxLen is the byte length of the longest rule key.
	maxLen int
}

// NewReplacer returns a Replacer from a list of old, new string pairs in the
// same manner as [strings.NewReplacer]. It panics if given an odd number of
// arguments or an empty old string.
func NewReplacer(oldnew ...string) *Replacer {
	if len(oldnew)%2 == 1 {
		panic("folding.NewReplacer: odd argument count")
	}

	r := &Replacer{
		rules:    make(map[string]string, len(oldnew)/2),
		prefixes: map[string]struct{}{},
	}
	for i := 0; i < len(oldnew); i += 2 {
		key := oldnew[i]
		if key == "" {
			panic(fmt.Sprintf("folding.NewReplacer: empty key at %d", i))
		}
		r.rules[key] = oldnew[i+1]
		r.maxLen = max(r.maxLen, len(key))
		for j := 1; j < len(key); j++ {
			r.prefixes[key[:j]] = struct{}{}
		}
	}
	return r
}

// Transform implements [transform.Transformer.Transform].
func (r *Replacer) Transform(dst, src []byte, atEOF bool) (int, int, error) {
	var nSrc, nDst int
	for nSrc < len(src) {
		rest := src[nSrc:]
		if !atEOF && len(rest) < r.maxLen {
			// A longer rule may match once more input arrives.
			if _, ok := r.prefixes[string(rest)]; ok {
				return nDst, nSrc, transform.ErrShortSrc
			}
		}

		matched := false
		for l := min(r.maxLen, len(rest)); l > 0; l-- {
			repl, ok := r.rules[string(rest[:l])]
			if !ok {
				continue
			}
			if nDst+len(repl) > len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			nDst += copy(dst[nDst:], repl)
			nSrc += l
			matched = true
			break
		}
		if matched {
			continue
		}

		if !atEOF && !utf8.FullRune(rest) {
			return nDst, nSrc, transform.ErrShortSrc
		}
		_, size := utf8.DecodeRune(rest)
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], rest[:size])
		nSrc += size
	}
	return nDst, nSrc, nil
}
