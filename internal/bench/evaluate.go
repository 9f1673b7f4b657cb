package bench

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Segmenter splits a line of text into words.
type Segmenter interface {
	Segment(ctx context.Context, text string) ([]string, error)
}

// ResolveFunc returns the segmenter registered under a tool name. Its error
// text is reported verbatim for tools that cannot be used.
type ResolveFunc func(tool string) (Segmenter, error)

// Config holds evaluation parameters.
type Config struct {
	Workers       int  // tools evaluated concurrently per dataset
	ProgressEvery int  // log progress every N lines; 0 disables
	Dedup         bool // count each distinct candidate span once
}

// DefaultConfig returns default evaluation configuration.
func DefaultConfig() Config {
	return Config{
		Workers:       1,
		ProgressEvery: 1000,
	}
}

// Evaluator runs every tool over every dataset and accumulates the scores.
type Evaluator struct {
	cfg      Config
	resolve  ResolveFunc
	agg      *Aggregator
	reporter *Reporter
	logger   *slog.Logger
}

// NewEvaluator creates an Evaluator. A nil logger means slog.Default.
func NewEvaluator(resolve ResolveFunc, cfg Config, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Evaluator{
		cfg:      cfg,
		resolve:  resolve,
		agg:      NewAggregator(),
		reporter: NewReporter(logger),
		logger:   logger,
	}
}

// Aggregator exposes the running totals.
func (e *Evaluator) Aggregator() *Aggregator {
	return e.agg
}

// Run evaluates tools on each named dataset under dir.
//
// A dataset that cannot be loaded is skipped and its error is included in the
// returned error; the other datasets are still evaluated. Metrics are logged
// after each dataset and once more at the end. The returned Result is valid
// even when err is non-nil.
func (e *Evaluator) Run(ctx context.Context, dir string, datasets, tools []string) (Result, error) {
	e.logger.Info("starting evaluation", "datasets", len(datasets), "tools", len(tools), "workers", e.cfg.Workers)

	var errs []error
	for _, name := range datasets {
		if err := e.RunDataset(ctx, dir, name, tools); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Report(e.agg), ctxErr
			}
			e.logger.Error("dataset failed", "dataset", name, "error", err)
			errs = append(errs, fmt.Errorf("dataset %s: %w", name, err))
			continue
		}
		e.reporter.Log(Report(e.agg))
	}

	res := Report(e.agg)
	e.logger.Info("evaluation finished", "scored", len(res.Order), "unsupported", len(res.UnsupportedOrder))
	e.reporter.Log(res)
	return res, errors.Join(errs...)
}

// RunDataset evaluates tools on a single dataset. The dataset files are fully
// read and closed before any tool runs.
func (e *Evaluator) RunDataset(ctx context.Context, dir, name string, tools []string) error {
	ds, err := LoadDataset(dir, name)
	if err != nil {
		return err
	}
	e.logger.Info("current dataset", "dataset", name, "lines", len(ds.Pairs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, tool := range tools {
		g.Go(func() error {
			return e.evaluateTool(gctx, ds, tool)
		})
	}
	return g.Wait()
}

func (e *Evaluator) evaluateTool(ctx context.Context, ds *Dataset, tool string) error {
	log := e.logger.With("dataset", ds.Name, "tool", tool)

	seg, err := e.resolve(tool)
	if err != nil {
		log.Warn("tool unavailable", "error", err)
		e.agg.Unsupported(ds.Name, tool, err.Error())
		return nil
	}
	log.Info("target tool")

	var opts []CompareOption
	if e.cfg.Dedup {
		opts = append(opts, WithDedup())
	}

	total := len(ds.Pairs)
	for i, p := range ds.Pairs {
		if err := ctx.Err(); err != nil {
			return err
		}

		can, err := seg.Segment(ctx, p.Raw)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Debug("segment failed", "line", i+1, "error", err)
			e.agg.Fail(ds.Name, tool)
			continue
		}

		r := Compare(p.Ref, can, opts...)
		if !r.Aligned {
			log.Debug("candidate length differs from reference", "line", i+1,
				"ref_len", TextLen(p.Ref), "can_len", TextLen(can))
		}
		e.agg.Add(ds.Name, tool, r)

		if e.cfg.ProgressEvery > 0 && (i+1)%e.cfg.ProgressEvery == 0 {
			log.Info("processing", "line", i+1, "total", total)
		}
	}

	log.Info("tool finished", "lines", total)
	return nil
}

// Output is one tool's segmentation of a single input.
type Output struct {
	Tool    string
	Words   []string
	Message string // set instead of Words when the tool could not run
}

// SegmentOnce runs every tool on one piece of text. A tool that cannot be
// resolved or fails yields a Message rather than aborting the others.
func SegmentOnce(ctx context.Context, resolve ResolveFunc, tools []string, text string) ([]Output, error) {
	outputs := make([]Output, 0, len(tools))
	for _, tool := range tools {
		if err := ctx.Err(); err != nil {
			return outputs, err
		}

		seg, err := resolve(tool)
		if err != nil {
			outputs = append(outputs, Output{Tool: tool, Message: err.Error()})
			continue
		}
		words, err := seg.Segment(ctx, text)
		if err != nil {
			outputs = append(outputs, Output{Tool: tool, Message: fmt.Sprintf("target: %s failed: %v", tool, err)})
			continue
		}
		outputs = append(outputs, Output{Tool: tool, Words: words})
	}
	return outputs, nil
}
