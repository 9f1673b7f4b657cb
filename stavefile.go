//go:build stave

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/yaklabco/stave/pkg/sh"
	"github.com/yaklabco/stave/pkg/st"
	"github.com/yaklabco/stave/pkg/target"
)

// Default target when running `stave` with no arguments.
var Default = All

// Aliases for common targets.
var Aliases = map[string]interface{}{
	"b": Build,
	"t": Test,
	"l": Lint,
	"c": Clean,
}

// All runs the complete build pipeline: lint, test, and build.
func All() error {
	st.Deps(Init)
	st.Deps(Lint, Test)
	st.Deps(Build)
	return nil
}

// Init ensures the module dependencies are up to date.
func Init() error {
	return sh.Run("go", "mod", "tidy")
}

// binaries lists the commands under ./cmd built into ./bin.
var binaries = []string{"cws-cli", "cws-bench"}

// Build compiles every binary with version information.
func Build() error {
	st.Deps(Init)

	ldflags := buildLdflags()
	for _, name := range binaries {
		out := "bin/" + name
		rebuild, err := target.Glob(out, "**/*.go", "go.mod", "go.sum")
		if err != nil {
			return fmt.Errorf("checking %s: %w", name, err)
		}
		if !rebuild {
			if st.Verbose() {
				fmt.Printf("%s is up to date\n", name)
			}
			continue
		}
		if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, "./cmd/"+name); err != nil {
			return fmt.Errorf("building %s: %w", name, err)
		}
	}
	return nil
}

// buildLdflags returns ldflags for version injection.
func buildLdflags() string {
	version, _ := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	commit, _ := sh.Output("git", "rev-parse", "--short", "HEAD")
	date := time.Now().Format(time.RFC3339)

	return fmt.Sprintf(
		"-X main.version=%s -X main.commit=%s -X main.date=%s",
		strings.TrimSpace(version),
		strings.TrimSpace(commit),
		date,
	)
}

// Test runs all tests with race detection and coverage.
// Model tests skip unless testdata/model.onnx is present.
func Test() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-race", "-cover", "./...")
}

// TestShort runs tests in short mode.
func TestShort() error {
	st.Deps(Init)
	return sh.RunV("go", "test", "-short", "-race", "./...")
}

// Lint runs golangci-lint on the codebase.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Vet runs go vet on all packages.
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build artifacts and the benchmark report.
func Clean() error {
	for _, a := range []string{"bin/", "bench-report.json"} {
		if err := sh.Rm(a); err != nil {
			return fmt.Errorf("removing %s: %w", a, err)
		}
	}
	return nil
}

// Bench namespace for benchmark-related targets.
type Bench st.Namespace

// Run scores the configured tools on the configured datasets.
// Config files are taken from CWS_CONFIG (comma-separated), defaulting to
// props/run.yaml; the JSON report goes to bench-report.json.
func (Bench) Run() error {
	st.Deps(Build)

	args := []string{"eval", "--report", "bench-report.json"}
	for _, c := range configFiles() {
		args = append(args, "-c", c)
	}
	return sh.RunV("./bin/cws-bench", args...)
}

// Sample runs every algorithmic tool on the bundled sample datasets.
func (Bench) Sample() error {
	st.Deps(Build)

	return sh.RunV("./bin/cws-bench", "eval",
		"--dataset-path", "testdata/datasets",
		"--datasets", "sample",
		"--tools", "jieba,gse,char",
	)
}

// Segment runs every configured tool on the default input.
func (Bench) Segment() error {
	st.Deps(Build)

	args := []string{"segment"}
	for _, c := range configFiles() {
		args = append(args, "-c", c)
	}
	return sh.RunV("./bin/cws-bench", args...)
}

// Prepare derives test_<name>.txt from the gold files under CWS_DATASET_PATH.
func (Bench) Prepare() error {
	dir := os.Getenv("CWS_DATASET_PATH")
	if dir == "" {
		dir = "datasets"
	}
	return sh.RunV("go", "run", "./scripts/prepare-dataset.go", "-dir", dir)
}

func configFiles() []string {
	env := os.Getenv("CWS_CONFIG")
	if env == "" {
		return []string{"props/run.yaml"}
	}
	return strings.Split(env, ",")
}

// CI runs the full CI pipeline (lint, test, build).
func CI() error {
	st.Deps(Init)
	st.SerialDeps(Lint, Test, Build)
	return nil
}

// Check runs quick validation (vet, lint, short tests).
func Check() error {
	st.Deps(Vet, Lint, TestShort)
	return nil
}
