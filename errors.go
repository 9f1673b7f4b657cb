package cws

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrModelNotFound indicates the model file does not exist.
	ErrModelNotFound = errors.New("cws: model file not found")

	// ErrInvalidModel indicates the model file exists but is malformed or
	// produces output that does not match the label set.
	ErrInvalidModel = errors.New("cws: invalid model format")

	// ErrTokenizerFailed indicates tokenizer initialization failed.
	ErrTokenizerFailed = errors.New("cws: tokenizer initialization failed")

	// ErrInvalidLabels indicates a label set that cannot be mapped to BMES tags.
	ErrInvalidLabels = errors.New("cws: invalid label set")
)
