package tool

import (
	"log/slog"

	"github.com/gomlx/go-huggingface/hub"
	"github.com/pkg/errors"
)

// Repository paths tried, in order, for the ONNX export.
var onnxCandidates = []string{modelFile, "onnx/" + modelFile}

// fetcher downloads model files from the HuggingFace Hub into its cache.
type fetcher struct {
	cfg    HubConfig
	logger *slog.Logger
}

func newFetcher(cfg HubConfig, logger *slog.Logger) *fetcher {
	return &fetcher{cfg: cfg, logger: logger}
}

// has reports whether a repository is configured for tool.
func (f *fetcher) has(tool string) bool {
	_, ok := f.cfg.Repos[tool]
	return ok
}

func (f *fetcher) repo(id string) *hub.Repo {
	repo := hub.New(id).WithProgressBar(false)
	if f.cfg.Token != "" {
		repo = repo.WithAuth(f.cfg.Token)
	}
	if f.cfg.CacheDir != "" {
		repo = repo.WithCacheDir(f.cfg.CacheDir)
	}
	return repo
}

// fetch downloads the model, tokenizer and, when present, config.json of the
// repository configured for tool.
func (f *fetcher) fetch(tool string) (modelFiles, error) {
	id, ok := f.cfg.Repos[tool]
	if !ok {
		return modelFiles{}, errors.Errorf("no hub repository configured for %s", tool)
	}
	repo := f.repo(id)

	var files modelFiles
	var err error

	onnx := ""
	for _, name := range onnxCandidates {
		if repo.HasFile(name) {
			onnx = name
			break
		}
	}
	if onnx == "" {
		return modelFiles{}, errors.Errorf("repository %s has no %s", id, modelFile)
	}
	if files.Model, err = repo.DownloadFile(onnx); err != nil {
		return modelFiles{}, errors.Wrapf(err, "downloading %s from %s", onnx, id)
	}
	if files.Tokenizer, err = repo.DownloadFile(tokenizerFile); err != nil {
		return modelFiles{}, errors.Wrapf(err, "downloading %s from %s", tokenizerFile, id)
	}
	if repo.HasFile(configFile) {
		if files.Labels, err = repo.DownloadFile(configFile); err != nil {
			return modelFiles{}, errors.Wrapf(err, "downloading %s from %s", configFile, id)
		}
	}

	f.logger.Info("model files fetched", "tool", tool, "repo", id, "model", files.Model)
	return files, nil
}
