// Package main provides the cws-bench binary, which scores Chinese word
// segmenters against gold-segmented corpora.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/go-cws/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cws-bench",
		Short: "Benchmark Chinese word segmenters against gold corpora",
		Long: `cws-bench runs each configured segmenter over each dataset and reports
recall, precision and F1 computed from word spans.

A dataset D is read from <dataset-path>/D.txt (gold, space-separated words)
and <dataset-path>/test_D.txt (the same lines without spaces).

Without a subcommand the configured mode is run (eva or one_time).

Examples:
  cws-bench -c props/test.yaml -c props/run.yaml
  cws-bench eval --datasets pku,msr --tools jieba,gse,char
  cws-bench segment --tools jieba,gse 今天天气不错`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.Mode == config.ModeOneTime {
				return runSegment(cmd, cfg, log, args)
			}
			return runEval(cmd, cfg, log)
		},
		SilenceUsage: true,
	}

	addConfigFlags(rootCmd)

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "eval",
			Short: "Score every tool on every dataset",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, log, err := setup(cmd)
				if err != nil {
					return err
				}
				return runEval(cmd, cfg, log)
			},
			SilenceUsage: true,
		},
		&cobra.Command{
			Use:   "segment [text]",
			Short: "Segment one input with every tool",
			Long: `Segment one input with every configured tool and print each result.
The text defaults to the configured input; "-" reads it from stdin.`,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := setup(cmd)
				if err != nil {
					return err
				}
				return runSegment(cmd, cfg, log, args)
			},
			SilenceUsage: true,
		},
		&cobra.Command{
			Use:   "tools",
			Short: "List the known tools",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				printTools(cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, _ []string) {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "cws-bench %s\n", version)
				fmt.Fprintf(out, "  commit: %s\n", commit)
				fmt.Fprintf(out, "  built:  %s\n", date)
			},
		},
	)

	return rootCmd
}
