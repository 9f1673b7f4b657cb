package tokenizer

import (
	"unicode"

	"golang.org/x/text/width"
)

// forms returns the spellings of r to try against the vocabulary, most
// specific first: the rune itself, its half-width form, then the lower-cased
// half-width form. Duplicates are dropped.
func forms(r rune) []string {
	out := []string{string(r)}

	n := narrow(r)
	if n != r {
		out = append(out, string(n))
	}
	if l := unicode.ToLower(n); l != n {
		out = append(out, string(l))
	}
	return out
}

// narrow maps full-width characters to their half-width equivalents.
// Characters without a narrow form are returned unchanged.
func narrow(r rune) rune {
	if n := width.LookupRune(r).Narrow(); n != 0 {
		return n
	}
	return r
}
