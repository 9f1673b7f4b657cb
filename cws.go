package cws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/jamesainslie/go-cws/inference"
	"github.com/jamesainslie/go-cws/tokenizer"
)

// chunkOverlap is the number of overlapping characters between chunks of a
// long input, so tags near a chunk edge see context from both sides.
const chunkOverlap = 64

// inferer runs one [CLS] ... [SEP] sequence and returns a logits row per
// position.
type inferer interface {
	Infer(ctx context.Context, inputIDs, attentionMask []int64) ([][]float32, error)
	Close() error
}

// Segmenter splits Chinese text into words with an ONNX token-classification
// model that tags every character B, M, E or S. It is safe for concurrent use.
type Segmenter struct {
	tokenizer *tokenizer.Tokenizer
	model     inferer
	tags      []Tag
	maxSeqLen int
	logger    *slog.Logger
}

// New creates a Segmenter with the specified model and tokenizer.json files.
func New(modelPath, tokenizerPath string, opts ...Option) (*Segmenter, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	tags, err := parseTags(cfg.labels)
	if err != nil {
		return nil, err
	}

	// Check model file exists
	if _, err := os.Stat(modelPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, modelPath)
		}
		return nil, fmt.Errorf("checking model file: %w", err)
	}

	tok, err := tokenizer.New(tokenizerPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTokenizerFailed, tokenizerPath)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenizerFailed, err)
	}

	pool, err := inference.NewPool(modelPath, cfg.poolSize)
	if err != nil {
		_ = tok.Close()
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	cfg.logger.Debug("segmenter ready",
		"model", modelPath,
		"pool_size", pool.Size(),
		"vocab_size", tok.VocabSize(),
		"labels", len(tags),
		"max_seq_len", cfg.maxSeqLen,
	)

	return newSegmenter(tok, pool, tags, cfg), nil
}

func newSegmenter(tok *tokenizer.Tokenizer, model inferer, tags []Tag, cfg config) *Segmenter {
	return &Segmenter{
		tokenizer: tok,
		model:     model,
		tags:      tags,
		maxSeqLen: cfg.maxSeqLen,
		logger:    cfg.logger,
	}
}

// Segment splits text into words. Whitespace is dropped and always separates
// words. Empty or all-space text yields no words.
func (s *Segmenter) Segment(ctx context.Context, text string) ([]string, error) {
	tags, tokens, err := s.Tag(ctx, text)
	if err != nil || len(tokens) == 0 {
		return nil, err
	}
	return decode(tokens, tags), nil
}

// Tag returns the predicted tag of every non-space character of text along
// with the tokens they belong to.
func (s *Segmenter) Tag(ctx context.Context, text string) ([]Tag, []tokenizer.TokenInfo, error) {
	tokens := s.tokenizer.Encode(text)
	if len(tokens) == 0 {
		return nil, nil, nil
	}

	logits, err := s.getLogits(ctx, tokens)
	if err != nil {
		return nil, nil, err
	}

	tags := make([]Tag, len(logits))
	for i, row := range logits {
		tags[i] = s.tags[argmax(row)]
	}
	return tags, tokens, nil
}

// getLogits returns one logits row per token, chunking if necessary.
func (s *Segmenter) getLogits(ctx context.Context, tokens []tokenizer.TokenInfo) ([][]float32, error) {
	body := s.maxSeqLen - 2 // room for [CLS] and [SEP]

	// If sequence fits in one chunk, process directly
	if len(tokens) <= body {
		return s.inferChunk(ctx, tokens)
	}

	overlap := min(chunkOverlap, body/4)
	stride := body - overlap

	logits := make([][]float32, len(tokens))
	counts := make([]int, len(tokens)) // Track how many times each position was processed

	for start := 0; start < len(tokens); start += stride {
		end := min(start+body, len(tokens))

		chunkLogits, err := s.inferChunk(ctx, tokens[start:end])
		if err != nil {
			return nil, err
		}

		// Accumulate logits (for averaging in overlap regions)
		for i, row := range chunkLogits {
			if logits[start+i] == nil {
				logits[start+i] = make([]float32, len(row))
			}
			for j, v := range row {
				logits[start+i][j] += v
			}
			counts[start+i]++
		}

		if end >= len(tokens) {
			break
		}
	}

	for i, row := range logits {
		if counts[i] > 1 {
			for j := range row {
				row[j] /= float32(counts[i])
			}
		}
	}

	return logits, nil
}

// inferChunk runs inference on a single chunk and strips the rows of the
// special tokens.
func (s *Segmenter) inferChunk(ctx context.Context, tokens []tokenizer.TokenInfo) ([][]float32, error) {
	n := len(tokens) + 2
	inputIDs := make([]int64, n)
	attentionMask := make([]int64, n)

	inputIDs[0] = int64(s.tokenizer.CLSID())
	for i, t := range tokens {
		inputIDs[i+1] = int64(t.ID)
	}
	inputIDs[n-1] = int64(s.tokenizer.SEPID())
	for i := range attentionMask {
		attentionMask[i] = 1
	}

	rows, err := s.model.Infer(ctx, inputIDs, attentionMask)
	if err != nil {
		return nil, err
	}
	if len(rows) != n {
		return nil, fmt.Errorf("%w: %d output rows for %d positions", ErrInvalidModel, len(rows), n)
	}
	for _, row := range rows {
		if len(row) != len(s.tags) {
			return nil, fmt.Errorf("%w: %d logits per position, %d labels", ErrInvalidModel, len(row), len(s.tags))
		}
	}
	return rows[1 : n-1], nil
}

// Unknown returns the characters of text that are outside the model's
// vocabulary, in order of appearance. The model sees each of them as the
// unknown token.
func (s *Segmenter) Unknown(text string) []string {
	var out []string
	unk := s.tokenizer.UnkID()
	for _, t := range s.tokenizer.Encode(text) {
		if t.ID == unk {
			out = append(out, t.Text)
		}
	}
	return out
}

// Labels returns the tag assigned to each model output index.
func (s *Segmenter) Labels() []Tag {
	out := make([]Tag, len(s.tags))
	copy(out, s.tags)
	return out
}

// Close releases all resources.
func (s *Segmenter) Close() error {
	var errs []error

	if s.model != nil {
		if err := s.model.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if s.tokenizer != nil {
		if err := s.tokenizer.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
