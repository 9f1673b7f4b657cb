// Package tool adapts word segmenters to a common interface and resolves them
// by name.
package tool

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/jamesainslie/go-cws/internal/bench"
)

// Kind distinguishes lexical segmenters from model-backed ones.
type Kind int

const (
	KindAlgorithmic Kind = iota
	KindModel
)

func (k Kind) String() string {
	switch k {
	case KindAlgorithmic:
		return "algorithmic"
	case KindModel:
		return "model"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ErrUnsupportedTool matches every UnsupportedError.
var ErrUnsupportedTool = errors.New("tool: unsupported tool")

// UnsupportedError reports a tool name with no implementation.
type UnsupportedError struct {
	Name string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("target: %s is not supported", e.Name)
}

// Is reports whether target is ErrUnsupportedTool.
func (e *UnsupportedError) Is(target error) bool {
	return target == ErrUnsupportedTool
}

// Segmenter is a named word segmenter.
type Segmenter interface {
	Name() string
	Kind() Kind
	Segment(ctx context.Context, line string) ([]string, error)
	Close() error
}

// Algorithmic tool names.
const (
	Jieba = "jieba"
	Gse   = "gse"
	Char  = "char"
)

var algorithmic = []string{Jieba, Gse, Char}

// Model-backed tool names. Each is loaded from <path>/<name>/.
var models = []string{
	"nlp_structbert_word-segmentation_chinese-base",
	"nlp_structbert_word-segmentation_chinese-base-ecommerce",
	"nlp_structbert_word-segmentation_chinese-lite",
	"nlp_structbert_word-segmentation_chinese-lite-ecommerce",
	"nlp_lstmcrf_word-segmentation_chinese-ecommerce",
	"nlp_lstmcrf_word-segmentation_chinese-news",
}

// Lookup returns the kind of a known tool.
func Lookup(name string) (Kind, bool) {
	switch {
	case slices.Contains(algorithmic, name):
		return KindAlgorithmic, true
	case slices.Contains(models, name):
		return KindModel, true
	}
	return 0, false
}

// Names returns every known tool name, algorithmic tools first.
func Names() []string {
	return slices.Concat(algorithmic, models)
}

// Registry builds tools on first use and keeps them for the rest of the run.
// A tool that fails to load keeps failing with the same error. It is safe
// for concurrent use; different tools load concurrently.
type Registry struct {
	cfg    options
	logger *slog.Logger
	hub    *fetcher
	build  func(name string, kind Kind) (Segmenter, error)

	mu      sync.Mutex
	entries map[string]*entry
	order   []string
}

// entry is one tool's load result. done is closed once seg or err is set.
type entry struct {
	done chan struct{}
	seg  Segmenter
	err  error
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...Option) *Registry {
	cfg := defaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &Registry{
		cfg:     cfg,
		logger:  cfg.logger,
		hub:     newFetcher(cfg.hub, cfg.logger),
		entries: make(map[string]*entry),
	}
	r.build = r.newTool
	return r
}

// Get returns the tool registered under name, building it on first use.
// Callers asking for a tool that is still loading wait for that load.
// Unknown names yield an *UnsupportedError.
func (r *Registry) Get(name string) (Segmenter, error) {
	kind, ok := Lookup(name)
	if !ok {
		return nil, &UnsupportedError{Name: name}
	}

	r.mu.Lock()
	if e, ok := r.entries[name]; ok {
		r.mu.Unlock()
		<-e.done
		return e.seg, e.err
	}
	e := &entry{done: make(chan struct{})}
	r.entries[name] = e
	r.mu.Unlock()

	s, err := r.build(name, kind)
	if err != nil {
		err = fmt.Errorf("target: %s failed to load: %w", name, err)
		r.logger.Error("tool failed to load", "tool", name, "kind", kind, "error", err)
		e.err = err
	} else {
		r.logger.Info("tool loaded", "tool", name, "kind", kind)
		e.seg = s
		r.mu.Lock()
		r.order = append(r.order, name)
		r.mu.Unlock()
	}
	close(e.done)
	return e.seg, e.err
}

// Resolve is Get typed for bench.ResolveFunc.
func (r *Registry) Resolve(name string) (bench.Segmenter, error) {
	s, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *Registry) newTool(name string, kind Kind) (Segmenter, error) {
	if kind == KindModel {
		return r.newModel(name)
	}
	switch name {
	case Jieba:
		return newJieba(r.cfg.jiebaDicts), nil
	case Gse:
		return newGse(r.cfg.gseDict)
	case Char:
		return charTool{}, nil
	}
	return nil, &UnsupportedError{Name: name}
}

// Close closes every loaded tool, most recently loaded first.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.order) - 1; i >= 0; i-- {
		name := r.order[i]
		if err := r.entries[name].seg.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", name, err))
		}
		delete(r.entries, name)
	}
	r.order = nil
	return errors.Join(errs...)
}

// dropSpace removes words that are empty or all whitespace; the gold files
// never contain such words.
func dropSpace(words []string) []string {
	out := words[:0]
	for _, w := range words {
		if strings.TrimFunc(w, unicode.IsSpace) != "" {
			out = append(out, w)
		}
	}
	return out
}
