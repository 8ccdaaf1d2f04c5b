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

// Package normalize implements the token normalization used to sort index
// entries and to search them.
//
// Normalization is case folding followed by diacritic removal, a
// language-specific replacement step (digraph folding or romanization),
// punctuation removal and separator folding. Dictionary builders and readers
// must use the same [Folder] for an index or the sort order of the index and
// the order used by search will disagree.
package normalize

import (
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/ianlewis/go-quickdic/internal/folding"
)

// Folder returns a new [transform.Transformer] that performs folding on
// tokens. A new transformer is created for each use because transformers may
// carry state.
type Folder func() transform.Transformer

// Nop is a Folder that performs no folding.
func Nop() transform.Transformer {
	return transform.Nop
}

var replacers = map[string]*folding.Replacer{
	// German umlauts are commonly typed as digraphs.
	"de": folding.NewReplacer(
		"ae", "a",
		"oe", "o",
		"ue", "u",
	),
	"ru": folding.NewReplacer(
		"а", "a", "б", "b", "в", "v", "г", "g", "д", "d", "е", "e",
		"ж", "zh", "з", "z", "и", "i", "к", "k", "л", "l", "м", "m",
		"н", "n", "о", "o", "п", "p", "р", "r", "с", "s", "т", "t",
		"у", "u", "ф", "f", "х", "kh", "ц", "ts", "ч", "ch", "ш", "sh",
		"щ", "shch", "ъ", "", "ы", "y", "ь", "", "э", "e", "ю", "yu",
		"я", "ya",
	),
	"uk": folding.NewReplacer(
		"а", "a", "б", "b", "в", "v", "г", "h", "ґ", "g", "д", "d",
		"е", "e", "є", "ye", "ж", "zh", "з", "z", "и", "y", "і", "i",
		"ї", "yi", "к", "k", "л", "l", "м", "m", "н", "n", "о", "o",
		"п", "p", "р", "r", "с", "s", "т", "t", "у", "u", "ф", "f",
		"х", "kh", "ц", "ts", "ч", "ch", "ш", "sh", "щ", "shch", "ь", "",
		"ю", "yu", "я", "ya",
	),
	"el": folding.NewReplacer(
		"α", "a", "β", "v", "γ", "g", "δ", "d", "ε", "e", "ζ", "z",
		"η", "i", "θ", "th", "ι", "i", "κ", "k", "λ", "l", "μ", "m",
		"ν", "n", "ξ", "x", "ο", "o", "π", "p", "ρ", "r", "σ", "s",
		"ς", "s", "τ", "t", "υ", "y", "φ", "f", "χ", "ch", "ψ", "ps",
		"ω", "o",
	),
}

// Languages returns the language codes that have language-specific folding.
func Languages() []string {
	langs := make([]string, 0, len(replacers))
	for lang := range replacers {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// ForLanguage returns the Folder for the given sort language. lang is a
// BCP 47 language tag or a bare language code. Languages without
// specific rules get the default folding.
func ForLanguage(lang string) Folder {
	base, _, _ := strings.Cut(strings.ToLower(lang), "-")
	base, _, _ = strings.Cut(base, "_")
	r := replacers[base]

	return func() transform.Transformer {
		ts := []transform.Transformer{
			cases.Fold(),
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		}
		if r != nil {
			ts = append(ts, r)
		}
		ts = append(ts,
			runes.Remove(runes.Predicate(isIgnorable)),
			&folding.SeparatorFolder{},
		)
		return transform.Chain(ts...)
	}
}

// Default is the Folder used for languages without specific rules.
var Default = ForLanguage("")

// String folds s using folder. Folding never fails for well formed folders;
// if it does, s is returned unchanged so that searching always has a key.
func String(folder Folder, s string) string {
	if folder == nil {
		return s
	}
	folded, _, err := transform.String(folder(), s)
	if err != nil {
		return s
	}
	return folded
}

// isIgnorable reports whether r is ignored when comparing tokens.
func isIgnorable(r rune) bool {
	if folding.IsSeparator(r) {
		return false
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsControl(r)
}
