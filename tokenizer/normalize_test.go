package tokenizer

import (
	"strings"
	"testing"
)

func TestForms(t *testing.T) {
	tests := []struct {
		name     string
		input    rune
		expected string
	}{
		{"chinese", '今', "今"},
		{"ascii lower", 'a', "a"},
		{"ascii upper", 'A', "A|a"},
		{"full-width upper", 'Ａ', "Ａ|A|a"},
		{"full-width digit", '１', "１|1"},
		{"full-width comma", '，', "，|,"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := strings.Join(forms(tc.input), "|")
			if got != tc.expected {
				t.Errorf("forms(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestNarrow(t *testing.T) {
	if got := narrow('Ｚ'); got != 'Z' {
		t.Errorf("narrow('Ｚ') = %q, want 'Z'", got)
	}
	if got := narrow('天'); got != '天' {
		t.Errorf("narrow('天') = %q, want '天'", got)
	}
}
