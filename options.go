package cws

import (
	"log/slog"
	"runtime"
)

const (
	// defaultMaxSeqLen is the longest sequence, special tokens included, fed
	// to the model in one pass. BERT-base models accept 512 positions.
	defaultMaxSeqLen = 512

	// minMaxSeqLen leaves room for [CLS], [SEP] and a few characters.
	minMaxSeqLen = 8
)

// Option configures a Segmenter.
type Option func(*config)

type config struct {
	poolSize  int
	maxSeqLen int
	labels    []string
	logger    *slog.Logger
}

func defaultConfig() config {
	return config{
		poolSize:  runtime.NumCPU(),
		maxSeqLen: defaultMaxSeqLen,
		labels:    DefaultLabels(),
		logger:    slog.Default(),
	}
}

// WithPoolSize sets the ONNX session pool size (default: runtime.NumCPU()).
func WithPoolSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.poolSize = n
		}
	}
}

// WithMaxSeqLen sets the longest sequence passed to the model, including the
// [CLS] and [SEP] tokens (default: 512). Longer inputs are processed in
// overlapping chunks. Values below 8 are ignored.
func WithMaxSeqLen(n int) Option {
	return func(c *config) {
		if n >= minMaxSeqLen {
			c.maxSeqLen = n
		}
	}
}

// WithLabels sets the model's output labels in id order, e.g. the values of
// id2label in the model's config.json (default: B, M, E, S).
func WithLabels(labels []string) Option {
	return func(c *config) {
		if len(labels) > 0 {
			c.labels = labels
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
