// Package tokenizer maps text to per-character vocabulary ids for
// BERT-style Chinese token-classification models.
package tokenizer

import (
	"fmt"
	"unicode"

	"github.com/gomlx/go-huggingface/tokenizers/api"
	"github.com/gomlx/go-huggingface/tokenizers/hftokenizer"
)

// Tokenizer assigns one vocabulary id to every non-space character of the
// input. It reads its vocabulary and special tokens from a HuggingFace
// tokenizer.json file.
type Tokenizer struct {
	hf *hftokenizer.Tokenizer

	clsID int32
	sepID int32
	unkID int32
}

// TokenInfo represents a token with its position in the original text.
type TokenInfo struct {
	ID    int32
	Text  string
	Start int // rune offset in original text
	End   int // rune offset in original text
}

// New loads a tokenizer from a tokenizer.json file.
func New(path string) (*Tokenizer, error) {
	hf, err := hftokenizer.NewFromFile(nil, path)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer: %w", err)
	}

	t := &Tokenizer{hf: hf}

	special := []struct {
		token api.SpecialToken
		dst   *int32
	}{
		{api.TokClassification, &t.clsID},
		{api.TokEndOfSentence, &t.sepID},
		{api.TokUnknown, &t.unkID},
	}
	for _, s := range special {
		id, err := hf.SpecialTokenID(s.token)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", s.token, err)
		}
		*s.dst = int32(id)
	}

	return t, nil
}

// Encode returns one token per non-space character of text. Whitespace is
// skipped, so a gap between one token's End and the next token's Start marks
// where whitespace was. Characters outside the vocabulary map to the unknown
// token.
func (t *Tokenizer) Encode(text string) []TokenInfo {
	if text == "" {
		return nil
	}

	var tokens []TokenInfo
	pos := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			tokens = append(tokens, TokenInfo{
				ID:    t.lookup(r),
				Text:  string(r),
				Start: pos,
				End:   pos + 1,
			})
		}
		pos++
	}
	return tokens
}

func (t *Tokenizer) lookup(r rune) int32 {
	for _, form := range forms(r) {
		if id, ok := t.hf.TokenToID(form); ok {
			return int32(id)
		}
	}
	return t.unkID
}

// Close releases tokenizer resources.
func (t *Tokenizer) Close() error {
	return nil
}

// VocabSize returns the vocabulary size including added tokens.
func (t *Tokenizer) VocabSize() int {
	return t.hf.VocabSize()
}

// CLSID returns the classification (sequence start) token ID.
func (t *Tokenizer) CLSID() int32 { return t.clsID }

// SEPID returns the separator (sequence end) token ID.
func (t *Tokenizer) SEPID() int32 { return t.sepID }

// UnkID returns the unknown token ID.
func (t *Tokenizer) UnkID() int32 { return t.unkID }
