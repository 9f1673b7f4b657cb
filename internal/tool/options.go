package tool

import (
	"log/slog"
	"runtime"
)

// Option configures a Registry.
type Option func(*options)

// HubConfig locates model files on the HuggingFace Hub.
type HubConfig struct {
	Repos    map[string]string // tool name -> repository id
	Token    string
	CacheDir string
}

type options struct {
	modelDir   string
	poolSize   int
	maxSeqLen  int
	jiebaDicts []string
	gseDict    string
	hub        HubConfig
	logger     *slog.Logger
}

func defaultOptions() options {
	return options{
		modelDir:  "models",
		poolSize:  runtime.NumCPU(),
		maxSeqLen: 512,
		logger:    slog.Default(),
	}
}

// WithModelDir sets the directory holding one subdirectory per model tool.
func WithModelDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.modelDir = dir
		}
	}
}

// WithPoolSize sets the ONNX session pool size of each model tool.
func WithPoolSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.poolSize = n
		}
	}
}

// WithMaxSeqLen sets the longest sequence fed to a model in one pass.
func WithMaxSeqLen(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxSeqLen = n
		}
	}
}

// WithJiebaDicts overrides the jieba dictionary, HMM model, user dictionary,
// IDF and stop-word files, in that order.
func WithJiebaDicts(paths ...string) Option {
	return func(o *options) {
		o.jiebaDicts = paths
	}
}

// WithGseDict loads gse from a dictionary file instead of its embedded one.
func WithGseDict(path string) Option {
	return func(o *options) {
		o.gseDict = path
	}
}

// WithHub enables downloading model files missing from the model directory.
func WithHub(cfg HubConfig) Option {
	return func(o *options) {
		o.hub = cfg
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
