package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-cws/internal/bench"
	"github.com/jamesainslie/go-cws/internal/config"
	"github.com/jamesainslie/go-cws/internal/logger"
	"github.com/jamesainslie/go-cws/internal/tool"
)

func addConfigFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringSliceP("config", "c", nil, "config file path (repeatable; later files override earlier ones)")
	f.BoolP("verbose", "v", false, "verbose logging")
	f.String("log-format", "", "log format: text or json")
	f.String("mode", "", "run mode: eva or one_time")
	f.String("dataset-path", "", "directory holding D.txt and test_D.txt")
	f.StringSlice("datasets", nil, "dataset names")
	f.StringSlice("tools", nil, "tool names")
	f.String("path", "", "directory holding one subdirectory per model tool")
	f.Int("workers", 0, "tools evaluated concurrently per dataset")
	f.Bool("dedup", false, "count each distinct candidate span once")
	f.Int("progress-every", 0, "log progress every N lines (0 disables)")
	f.String("report", "", "write the JSON report to this file")
	f.Int("pool-size", 0, "ONNX sessions per model tool")
	f.Int("max-seq-len", 0, "longest sequence fed to a model in one pass")
}

// setup loads the configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	paths, _ := cmd.Flags().GetStringSlice("config")
	cfg, err := config.Load(paths...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	log.Debug("configuration loaded",
		"version", version,
		"mode", cfg.Mode,
		"datasets", cfg.DatasetName,
		"tools", cfg.Tools,
		"workers", cfg.Workers,
	)
	return cfg, log, nil
}

// applyFlags overrides configuration values with explicitly set flags.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()

	if v, _ := f.GetBool("verbose"); v {
		cfg.Log.Level = "debug"
	}
	if f.Changed("log-format") {
		cfg.Log.Format, _ = f.GetString("log-format")
	}
	if f.Changed("mode") {
		cfg.Mode, _ = f.GetString("mode")
	}
	if f.Changed("dataset-path") {
		cfg.DatasetPath, _ = f.GetString("dataset-path")
	}
	if f.Changed("datasets") {
		cfg.DatasetName, _ = f.GetStringSlice("datasets")
	}
	if f.Changed("tools") {
		cfg.Tools, _ = f.GetStringSlice("tools")
	}
	if f.Changed("path") {
		cfg.Path, _ = f.GetString("path")
	}
	if f.Changed("workers") {
		cfg.Workers, _ = f.GetInt("workers")
	}
	if f.Changed("dedup") {
		cfg.DedupSpans, _ = f.GetBool("dedup")
	}
	if f.Changed("progress-every") {
		cfg.ProgressEvery, _ = f.GetInt("progress-every")
	}
	if f.Changed("report") {
		cfg.ReportPath, _ = f.GetString("report")
	}
	if f.Changed("pool-size") {
		cfg.PoolSize, _ = f.GetInt("pool-size")
	}
	if f.Changed("max-seq-len") {
		cfg.MaxSeqLen, _ = f.GetInt("max-seq-len")
	}
}

func newRegistry(cfg *config.Config, log *logger.Logger) *tool.Registry {
	return tool.NewRegistry(
		tool.WithModelDir(cfg.Path),
		tool.WithPoolSize(cfg.PoolSize),
		tool.WithMaxSeqLen(cfg.MaxSeqLen),
		tool.WithHub(tool.HubConfig{
			Repos:    cfg.Hub.Repos,
			Token:    cfg.Hub.Token,
			CacheDir: cfg.Hub.CacheDir,
		}),
		tool.WithLogger(log.Logger),
	)
}

func runEval(cmd *cobra.Command, cfg *config.Config, log *logger.Logger) error {
	reg := newRegistry(cfg, log)
	defer closeTools(reg, log)

	ev := bench.NewEvaluator(reg.Resolve, bench.Config{
		Workers:       cfg.Workers,
		ProgressEvery: cfg.ProgressEvery,
		Dedup:         cfg.DedupSpans,
	}, log.Logger)

	res, runErr := ev.Run(cmd.Context(), cfg.DatasetPath, cfg.DatasetName, cfg.Tools)
	summarize(log, ev.Aggregator().Datasets(), res)

	if len(res.Order)+len(res.UnsupportedOrder) > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), bench.RenderTable(res))
	}

	if cfg.ReportPath != "" {
		if err := writeReport(cfg.ReportPath, res); err != nil {
			return err
		}
		log.Info("report written", "path", cfg.ReportPath)
	}

	return runErr
}

func closeTools(c io.Closer, log *logger.Logger) {
	if err := c.Close(); err != nil {
		log.WithError(err).Warn("closing tools")
	}
}

// summarize logs the tool with the highest defined F1 on each dataset.
// Ties go to the tool scored first.
func summarize(log *logger.Logger, datasets []string, res bench.Result) {
	for _, ds := range datasets {
		l := log.WithDataset(ds)

		best, bestF1 := "", 0.0
		for _, k := range res.Order {
			if k.Dataset != ds {
				continue
			}
			f1 := res.Scores[ds][k.Tool].F1
			if bench.Defined(f1) && (best == "" || f1 > bestF1) {
				best, bestF1 = k.Tool, f1
			}
		}

		if best == "" {
			l.Warn("no tool has a defined f1", "tools", len(res.Scores[ds]))
			continue
		}
		l.WithTool(best).Info("best tool", "f1", bench.FormatMetric(bestF1), "tools", len(res.Scores[ds]))
	}
}

func writeReport(path string, res bench.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing report: %w", cerr)
		}
	}()
	return bench.WriteJSON(f, res)
}

func runSegment(cmd *cobra.Command, cfg *config.Config, log *logger.Logger, args []string) error {
	text, err := inputText(cmd.InOrStdin(), cfg.Input, args)
	if err != nil {
		return err
	}
	log.Info("input", "text", text)

	reg := newRegistry(cfg, log)
	defer closeTools(reg, log)

	outputs, err := bench.SegmentOnce(cmd.Context(), reg.Resolve, cfg.Tools, text)
	out := cmd.OutOrStdout()
	for _, o := range outputs {
		if o.Message != "" {
			log.WithTool(o.Tool).Warn("result", "message", o.Message)
			fmt.Fprintf(out, "%s: %s\n", o.Tool, o.Message)
			continue
		}
		log.WithTool(o.Tool).Info("result", "words", len(o.Words))
		fmt.Fprintf(out, "%s: %s\n", o.Tool, strings.Join(o.Words, " "))
	}
	return err
}

// inputText returns the text to segment: the joined arguments, one line from
// stdin for "-", or the configured default.
func inputText(stdin io.Reader, fallback string, args []string) (string, error) {
	if len(args) == 1 && args[0] == "-" {
		line, err := bufio.NewReader(stdin).ReadString('\n')
		if err != nil && err != io.EOF {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	return fallback, nil
}

func printTools(w io.Writer) {
	for _, name := range tool.Names() {
		kind, _ := tool.Lookup(name)
		fmt.Fprintf(w, "%-60s %s\n", name, kind)
	}
}
