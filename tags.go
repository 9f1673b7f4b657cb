package cws

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jamesainslie/go-cws/tokenizer"
)

// Tag is a character's position within its word.
type Tag uint8

const (
	TagB Tag = iota // first character of a multi-character word
	TagM            // inside a word
	TagE            // last character of a multi-character word
	TagS            // single-character word
)

func (t Tag) String() string {
	switch t {
	case TagB:
		return "B"
	case TagM:
		return "M"
	case TagE:
		return "E"
	case TagS:
		return "S"
	default:
		return "Tag(" + strconv.Itoa(int(t)) + ")"
	}
}

// DefaultLabels returns the label order assumed when a model ships no
// id2label mapping.
func DefaultLabels() []string {
	return []string{"B", "M", "E", "S"}
}

// ParseTag maps a model label to a Tag. Labels may carry a suffix after '-'
// or '_' ("B-CWS", "s_seg"); the I of BIES schemes is treated as M.
func ParseTag(label string) (Tag, error) {
	prefix, _, _ := strings.Cut(strings.ToUpper(strings.TrimSpace(label)), "-")
	prefix, _, _ = strings.Cut(prefix, "_")

	switch prefix {
	case "B":
		return TagB, nil
	case "M", "I":
		return TagM, nil
	case "E":
		return TagE, nil
	case "S":
		return TagS, nil
	}
	return 0, fmt.Errorf("%w: unknown label %q", ErrInvalidLabels, label)
}

func parseTags(labels []string) ([]Tag, error) {
	tags := make([]Tag, len(labels))
	for i, l := range labels {
		t, err := ParseTag(l)
		if err != nil {
			return nil, err
		}
		tags[i] = t
	}
	return tags, nil
}

// LoadLabels reads the id2label mapping of a HuggingFace config.json and
// returns the labels in id order.
func LoadLabels(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg struct {
		ID2Label map[string]string `json:"id2label"`
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing %s: %w", ErrInvalidLabels, path, err)
	}
	if len(cfg.ID2Label) == 0 {
		return nil, fmt.Errorf("%w: %s has no id2label", ErrInvalidLabels, path)
	}

	labels := make([]string, len(cfg.ID2Label))
	for k, v := range cfg.ID2Label {
		id, err := strconv.Atoi(k)
		if err != nil || id < 0 || id >= len(labels) {
			return nil, fmt.Errorf("%w: label id %q out of range", ErrInvalidLabels, k)
		}
		labels[id] = v
	}
	return labels, nil
}

// decode groups tagged tokens into words. A word ends after an E or S tag,
// before a B or S tag, and wherever whitespace separated two tokens in the
// original text. Ill-formed sequences (M after S, a trailing B) still yield
// every character exactly once.
func decode(tokens []tokenizer.TokenInfo, tags []Tag) []string {
	var (
		words []string
		cur   strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	for i, tok := range tokens {
		tag := tags[i]
		if tag == TagB || tag == TagS || (i > 0 && tok.Start != tokens[i-1].End) {
			flush()
		}
		cur.WriteString(tok.Text)
		if tag == TagE || tag == TagS {
			flush()
		}
	}
	flush()
	return words
}

// argmax returns the index of the largest value in row.
func argmax(row []float32) int {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	return best
}
