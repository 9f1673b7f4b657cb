package cws

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jamesainslie/go-cws/tokenizer"
)

const testTokenizerJSON = `{
  "added_tokens": [
    {"id": 0, "content": "[PAD]", "special": true},
    {"id": 100, "content": "[UNK]", "special": true},
    {"id": 101, "content": "[CLS]", "special": true},
    {"id": 102, "content": "[SEP]", "special": true}
  ],
  "model": {
    "type": "WordPiece",
    "unk_token": "[UNK]",
    "vocab": {"今": 1, "天": 2, "好": 3, "不": 4, "错": 5, "[UNK]": 100, "[CLS]": 101, "[SEP]": 102}
  }
}`

// tagByID is the tag the fake model predicts for each vocabulary id.
var tagByID = map[int64]Tag{1: TagB, 2: TagE, 3: TagS, 4: TagB, 5: TagE, 100: TagS}

// fakeModel predicts a fixed tag per token id, emitting logits in the order
// given by labels.
type fakeModel struct {
	labels []Tag
	width  int // overrides the row width when non-zero

	mu     sync.Mutex
	calls  int
	maxLen int
	closed bool
}

func (f *fakeModel) Infer(ctx context.Context, inputIDs, _ []int64) ([][]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls++
	f.maxLen = max(f.maxLen, len(inputIDs))
	f.mu.Unlock()

	width := len(f.labels)
	if f.width > 0 {
		width = f.width
	}
	rows := make([][]float32, len(inputIDs))
	for i, id := range inputIDs {
		row := make([]float32, width)
		want := tagByID[id]
		for j, t := range f.labels {
			if t == want && j < width {
				row[j] = 1
			}
		}
		rows[i] = row
	}
	return rows, nil
}

func (f *fakeModel) Close() error {
	f.closed = true
	return nil
}

func testTokenizer(t *testing.T) (*tokenizer.Tokenizer, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	if err := os.WriteFile(path, []byte(testTokenizerJSON), 0644); err != nil {
		t.Fatal(err)
	}
	tok, err := tokenizer.New(path)
	if err != nil {
		t.Fatalf("tokenizer.New failed: %v", err)
	}
	return tok, path
}

func newFakeSegmenter(t *testing.T, model *fakeModel, opts ...Option) *Segmenter {
	t.Helper()
	tok, _ := testTokenizer(t)

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	tags, err := parseTags(cfg.labels)
	if err != nil {
		t.Fatalf("parseTags failed: %v", err)
	}
	if model.labels == nil {
		model.labels = tags
	}
	return newSegmenter(tok, model, tags, cfg)
}

func TestSegmenter_Segment(t *testing.T) {
	seg := newFakeSegmenter(t, &fakeModel{})
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"words", "今天好不错", "今天/好/不错"},
		{"space forces boundary", "今 天", "今/天"},
		{"unknown character is a single word", "今天x", "今天/x"},
		{"trailing B", "好今", "好/今"},
		{"empty", "", ""},
		{"only spaces", "   ", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			words, err := seg.Segment(ctx, tc.input)
			if err != nil {
				t.Fatalf("Segment failed: %v", err)
			}
			if got := strings.Join(words, "/"); got != tc.want {
				t.Errorf("Segment(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestSegmenter_CustomLabelOrder(t *testing.T) {
	seg := newFakeSegmenter(t, &fakeModel{}, WithLabels([]string{"S-CWS", "E-CWS", "M-CWS", "B-CWS"}))

	words, err := seg.Segment(context.Background(), "不错好")
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if got := strings.Join(words, "/"); got != "不错/好" {
		t.Errorf("got %q, want %q", got, "不错/好")
	}
	if labels := seg.Labels(); labels[0] != TagS || labels[3] != TagB {
		t.Errorf("Labels() = %v", labels)
	}
}

func TestSegmenter_Unknown(t *testing.T) {
	seg := newFakeSegmenter(t, &fakeModel{})

	tests := []struct {
		input string
		want  string
	}{
		{"今天好", ""},
		{"今天x好 Y", "x/Y"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := strings.Join(seg.Unknown(tc.input), "/"); got != tc.want {
			t.Errorf("Unknown(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestSegmenter_LongInputIsChunked(t *testing.T) {
	model := &fakeModel{}
	seg := newFakeSegmenter(t, model, WithMaxSeqLen(8))

	text := strings.Repeat("今天好", 10)
	words, err := seg.Segment(context.Background(), text)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}

	if got, want := strings.Join(words, "/"), strings.TrimSuffix(strings.Repeat("今天/好/", 10), "/"); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if strings.Join(words, "") != text {
		t.Error("words do not reconstruct the input")
	}
	if model.calls < 2 {
		t.Errorf("expected several chunks, got %d calls", model.calls)
	}
	if model.maxLen > 8 {
		t.Errorf("chunk of %d positions exceeds max_seq_len 8", model.maxLen)
	}
}

func TestSegmenter_Concurrent(t *testing.T) {
	seg := newFakeSegmenter(t, &fakeModel{})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			words, err := seg.Segment(context.Background(), "今天好不错")
			if err != nil || len(words) != 3 {
				t.Errorf("Segment = %v, %v", words, err)
			}
		}()
	}
	wg.Wait()
}

func TestSegmenter_LabelMismatch(t *testing.T) {
	seg := newFakeSegmenter(t, &fakeModel{width: 3})

	_, err := seg.Segment(context.Background(), "今天")
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("expected ErrInvalidModel, got %v", err)
	}
}

func TestSegmenter_ContextCancelled(t *testing.T) {
	seg := newFakeSegmenter(t, &fakeModel{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := seg.Segment(ctx, "今天")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestSegmenter_Close(t *testing.T) {
	model := &fakeModel{}
	seg := newFakeSegmenter(t, model)

	if err := seg.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !model.closed {
		t.Error("model not closed")
	}
}

func TestNew_ModelNotFound(t *testing.T) {
	_, tokPath := testTokenizer(t)

	_, err := New(filepath.Join(t.TempDir(), "missing.onnx"), tokPath)
	if !errors.Is(err, ErrModelNotFound) {
		t.Errorf("expected ErrModelNotFound, got %v", err)
	}
}

func TestNew_TokenizerNotFound(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "model.onnx")
	if err := os.WriteFile(modelPath, []byte("not a model"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(modelPath, filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrTokenizerFailed) {
		t.Errorf("expected ErrTokenizerFailed, got %v", err)
	}
}

func TestNew_InvalidModel(t *testing.T) {
	_, tokPath := testTokenizer(t)
	modelPath := filepath.Join(t.TempDir(), "model.onnx")
	if err := os.WriteFile(modelPath, []byte("not a model"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := New(modelPath, tokPath, WithPoolSize(1))
	if !errors.Is(err, ErrInvalidModel) {
		t.Errorf("expected ErrInvalidModel, got %v", err)
	}
}

func TestNew_InvalidLabels(t *testing.T) {
	_, err := New("model.onnx", "tokenizer.json", WithLabels([]string{"B", "X"}))
	if !errors.Is(err, ErrInvalidLabels) {
		t.Errorf("expected ErrInvalidLabels, got %v", err)
	}
}

func TestNew_RealModel(t *testing.T) {
	modelPath := "testdata/model.onnx"
	tokPath := "testdata/tokenizer.json"
	for _, p := range []string{modelPath, tokPath} {
		if _, err := os.Stat(p); err != nil {
			t.Skipf("Skipping: %s not available", p)
		}
	}

	var opts []Option
	if labels, err := LoadLabels("testdata/config.json"); err == nil {
		opts = append(opts, WithLabels(labels))
	}

	seg, err := New(modelPath, tokPath, append(opts, WithPoolSize(1))...)
	if err != nil {
		t.Skipf("Skipping: model not loadable: %v", err)
	}
	defer func() { _ = seg.Close() }()

	text := "今天天气不错，适合出去游玩"
	words, err := seg.Segment(context.Background(), text)
	if err != nil {
		t.Fatalf("Segment failed: %v", err)
	}
	if strings.Join(words, "") != text {
		t.Errorf("words %q do not reconstruct %q", words, text)
	}
}
