package tool

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jamesainslie/go-cws"
)

// Files expected in a model tool's directory.
const (
	modelFile     = "model.onnx"
	tokenizerFile = "tokenizer.json"
	configFile    = "config.json"
)

// modelTool is a model-backed segmenter loaded from an ONNX export.
type modelTool struct {
	name string
	seg  *cws.Segmenter
}

func (t *modelTool) Name() string { return t.name }
func (*modelTool) Kind() Kind     { return KindModel }

func (t *modelTool) Segment(ctx context.Context, line string) ([]string, error) {
	return t.seg.Segment(ctx, line)
}

func (t *modelTool) Close() error {
	return t.seg.Close()
}

// modelFiles are the resolved paths of one model tool. Labels is empty when
// no config.json is available.
type modelFiles struct {
	Model     string
	Tokenizer string
	Labels    string
}

// localModelFiles returns the files under dir, or an error naming the first
// missing required file.
func localModelFiles(dir string) (modelFiles, error) {
	files := modelFiles{
		Model:     filepath.Join(dir, modelFile),
		Tokenizer: filepath.Join(dir, tokenizerFile),
	}
	for _, p := range []string{files.Model, files.Tokenizer} {
		if _, err := os.Stat(p); err != nil {
			return modelFiles{}, err
		}
	}
	if p := filepath.Join(dir, configFile); fileExists(p) {
		files.Labels = p
	}
	return files, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (r *Registry) newModel(name string) (Segmenter, error) {
	dir := filepath.Join(r.cfg.modelDir, name)

	files, err := localModelFiles(dir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) || !r.hub.has(name) {
			return nil, err
		}
		r.logger.Info("model files not found locally, fetching", "tool", name, "dir", dir)
		if files, err = r.hub.fetch(name); err != nil {
			return nil, err
		}
	}

	opts := []cws.Option{
		cws.WithPoolSize(r.cfg.poolSize),
		cws.WithMaxSeqLen(r.cfg.maxSeqLen),
		cws.WithLogger(r.logger.With("tool", name)),
	}
	if files.Labels != "" {
		labels, err := cws.LoadLabels(files.Labels)
		if err != nil {
			return nil, fmt.Errorf("reading labels: %w", err)
		}
		opts = append(opts, cws.WithLabels(labels))
	}

	seg, err := cws.New(files.Model, files.Tokenizer, opts...)
	if err != nil {
		return nil, err
	}
	return &modelTool{name: name, seg: seg}, nil
}
