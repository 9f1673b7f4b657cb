package tool

import (
	"context"
	"unicode"
)

// charTool treats every non-space character as a word. It is the lower bound
// any real segmenter should beat.
type charTool struct{}

func (charTool) Name() string { return Char }
func (charTool) Kind() Kind   { return KindAlgorithmic }
func (charTool) Close() error { return nil }

func (charTool) Segment(_ context.Context, line string) ([]string, error) {
	var words []string
	for _, r := range line {
		if !unicode.IsSpace(r) {
			words = append(words, string(r))
		}
	}
	return words, nil
}
