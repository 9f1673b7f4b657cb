// Package inference provides ONNX Runtime integration for token-classification
// segmentation models.
package inference

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// Input names recognized in exported token-classification models.
const (
	InputIDs      = "input_ids"
	AttentionMask = "attention_mask"
	TokenTypeIDs  = "token_type_ids"
)

var (
	// ErrSessionClosed is returned by Infer after Close.
	ErrSessionClosed = errors.New("inference: session is closed")

	// ErrPoolClosed is returned by Acquire after the pool is closed.
	ErrPoolClosed = errors.New("inference: pool is closed")

	// ErrUnexpectedOutput indicates the model output is not a [1, seq, labels]
	// float32 tensor.
	ErrUnexpectedOutput = errors.New("inference: unexpected output tensor")
)

var (
	ortEnvOnce sync.Once
	ortEnvErr  error
)

// initORT initializes ONNX Runtime environment once.
func initORT() error {
	ortEnvOnce.Do(func() {
		if lib := os.Getenv("ONNXRUNTIME_LIB"); lib != "" {
			ort.SetSharedLibraryPath(lib)
		}
		ortEnvErr = ort.InitializeEnvironment()
	})
	return ortEnvErr
}

// Session wraps an ONNX Runtime session for token classification.
type Session struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	mu         sync.Mutex
	closed     bool
}

// NewSession creates a new ONNX session from a model file. Input names are
// read from the model; input_ids is required, attention_mask and
// token_type_ids are fed when the model declares them.
func NewSession(modelPath string) (*Session, error) {
	// Check file exists
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	if err := initORT(); err != nil {
		return nil, fmt.Errorf("initializing ONNX runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("reading model inputs: %w", err)
	}
	inputNames, err := selectInputs(inputs)
	if err != nil {
		return nil, err
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("%w: model declares no outputs", ErrUnexpectedOutput)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("creating session options: %w", err)
	}
	defer func() { _ = options.Destroy() }() // Cleanup error doesn't affect success

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		[]string{outputs[0].Name},
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	return &Session{session: session, inputNames: inputNames}, nil
}

// selectInputs returns the model inputs this package knows how to feed, in
// model order.
func selectInputs(infos []ort.InputOutputInfo) ([]string, error) {
	var names []string
	hasIDs := false
	for _, info := range infos {
		switch info.Name {
		case InputIDs:
			hasIDs = true
			names = append(names, info.Name)
		case AttentionMask, TokenTypeIDs:
			names = append(names, info.Name)
		default:
			return nil, fmt.Errorf("unsupported model input %q", info.Name)
		}
	}
	if !hasIDs {
		return nil, fmt.Errorf("model has no %s input", InputIDs)
	}
	return names, nil
}

// Infer runs the model on one tokenized sequence and returns one row of label
// logits per input position.
func (s *Session) Infer(ctx context.Context, inputIDs, attentionMask []int64) ([][]float32, error) {
	// Check context before expensive operation
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	batchSize := int64(1)
	seqLen := int64(len(inputIDs))
	shape := ort.NewShape(batchSize, seqLen)

	inputs := make([]ort.Value, 0, len(s.inputNames))
	defer func() {
		for _, v := range inputs {
			_ = v.Destroy()
		}
	}()
	for _, name := range s.inputNames {
		var data []int64
		switch name {
		case InputIDs:
			data = inputIDs
		case AttentionMask:
			data = attentionMask
		case TokenTypeIDs:
			data = make([]int64, seqLen)
		}
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("creating %s tensor: %w", name, err)
		}
		inputs = append(inputs, tensor)
	}

	// Prepare output slice - nil entries will be allocated by Run
	outputs := []ort.Value{nil}

	if err := s.session.Run(inputs, outputs); err != nil {
		return nil, fmt.Errorf("running inference: %w", err)
	}

	if outputs[0] == nil {
		return nil, fmt.Errorf("%w: no output produced", ErrUnexpectedOutput)
	}
	defer func() { _ = outputs[0].Destroy() }()

	logitsTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("%w: not float32", ErrUnexpectedOutput)
	}

	return splitRows(logitsTensor.GetData(), logitsTensor.GetShape(), int(seqLen))
}

// splitRows copies a [1, seqLen, labels] logits buffer into seqLen rows.
func splitRows(data []float32, shape ort.Shape, seqLen int) ([][]float32, error) {
	if len(shape) != 3 || shape[0] != 1 || int(shape[1]) != seqLen || shape[2] < 1 {
		return nil, fmt.Errorf("%w: shape %v for %d positions", ErrUnexpectedOutput, shape, seqLen)
	}
	labels := int(shape[2])
	if len(data) < seqLen*labels {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrUnexpectedOutput, len(data), shape)
	}

	rows := make([][]float32, seqLen)
	for i := range rows {
		row := make([]float32, labels)
		copy(row, data[i*labels:(i+1)*labels])
		rows[i] = row
	}
	return rows, nil
}

// Close releases ONNX resources.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}
