// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Run modes.
const (
	ModeEval    = "eva"
	ModeOneTime = "one_time"
)

// DefaultInput is segmented in one-time mode when no text is given.
const DefaultInput = "今天天气不错，适合出去游玩"

// Config holds all benchmark configuration.
type Config struct {
	Mode string `envconfig:"CWS_MODE" yaml:"mode"`

	// Datasets
	DatasetPath string   `envconfig:"CWS_DATASET_PATH" yaml:"dataset_path"`
	DatasetName []string `envconfig:"CWS_DATASET_NAME" yaml:"dataset_name"`

	// Tools and the base directory of model-backed tools
	Tools []string `envconfig:"CWS_TOOLS" yaml:"tools"`
	Path  string   `envconfig:"CWS_PATH" yaml:"path"`

	// One-time input
	Input string `envconfig:"CWS_INPUT" yaml:"input"`

	// Evaluation
	Workers       int    `envconfig:"CWS_WORKERS" yaml:"workers"`
	DedupSpans    bool   `envconfig:"CWS_DEDUP_SPANS" yaml:"dedup_spans"`
	ProgressEvery int    `envconfig:"CWS_PROGRESS_EVERY" yaml:"progress_every"`
	ReportPath    string `envconfig:"CWS_REPORT_PATH" yaml:"report_path"`

	// Model inference
	PoolSize  int `envconfig:"CWS_POOL_SIZE" yaml:"pool_size"`
	MaxSeqLen int `envconfig:"CWS_MAX_SEQ_LEN" yaml:"max_seq_len"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Model download configuration
	Hub HubConfig `yaml:"hub"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"CWS_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"CWS_LOG_FORMAT" yaml:"format"`
}

// HubConfig holds HuggingFace Hub settings for fetching model files that are
// missing under Path.
type HubConfig struct {
	// Repos maps a tool name to a Hub repository id.
	Repos    map[string]string `envconfig:"CWS_HUB_REPOS" yaml:"repos"`
	Token    string            `envconfig:"CWS_HUB_TOKEN" yaml:"token"`
	CacheDir string            `envconfig:"CWS_HUB_CACHE_DIR" yaml:"cache_dir"`
}

// Load builds the configuration from defaults, then each YAML file in order
// (later files override earlier ones), then CWS_* environment variables.
// The result is not validated; callers apply flag overrides and then call
// Validate.
func Load(paths ...string) (*Config, error) {
	cfg := Default()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	return cfg, nil
}

// Default returns the default configuration.
func Default() *Config {
	cfg := &Config{}
	setDefaults(cfg)
	return cfg
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Mode = ModeEval
	cfg.DatasetPath = "./datasets"
	cfg.DatasetName = []string{"pku", "msr"}
	cfg.Tools = []string{"jieba", "gse"}
	cfg.Path = "./models"
	cfg.Input = DefaultInput

	cfg.Workers = 1
	cfg.ProgressEvery = 1000

	cfg.PoolSize = 1
	cfg.MaxSeqLen = 512

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	validModes := map[string]bool{ModeEval: true, ModeOneTime: true}
	if !validModes[c.Mode] {
		errs = append(errs, fmt.Sprintf("invalid mode: %s (must be %s or %s)", c.Mode, ModeEval, ModeOneTime))
	}

	if len(c.Tools) == 0 {
		errs = append(errs, "tools must not be empty")
	}

	if c.Mode == ModeEval {
		if c.DatasetPath == "" {
			errs = append(errs, "dataset_path is required in eva mode")
		}
		if len(c.DatasetName) == 0 {
			errs = append(errs, "dataset_name must not be empty in eva mode")
		}
	}

	if c.Workers < 1 {
		errs = append(errs, "workers must be positive")
	}

	if c.ProgressEvery < 0 {
		errs = append(errs, "progress_every must not be negative")
	}

	if c.PoolSize < 1 {
		errs = append(errs, "pool_size must be positive")
	}

	// Room for [CLS], [SEP] and at least a few characters.
	if c.MaxSeqLen < 8 {
		errs = append(errs, "max_seq_len must be at least 8")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}
