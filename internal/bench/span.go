package bench

import "unicode/utf8"

// Span is a half-open [Start, End) interval of rune offsets covering one word.
type Span struct {
	Start int
	End   int
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Spans converts an ordered token sequence into contiguous spans.
// Span i starts where span i-1 ends; the first span starts at 0.
// Lengths are counted in runes, not bytes. A nil or empty input yields nil.
func Spans(tokens []string) []Span {
	if len(tokens) == 0 {
		return nil
	}

	spans := make([]Span, len(tokens))
	offset := 0
	for i, tok := range tokens {
		n := utf8.RuneCountInString(tok)
		spans[i] = Span{Start: offset, End: offset + n}
		offset += n
	}
	return spans
}

// TextLen returns the total rune length of a token sequence.
func TextLen(tokens []string) int {
	n := 0
	for _, tok := range tokens {
		n += utf8.RuneCountInString(tok)
	}
	return n
}
