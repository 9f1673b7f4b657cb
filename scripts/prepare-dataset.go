//go:build ignore

// Derive raw test files from gold-segmented corpora.
// For every gold file D.txt in the dataset directory, writes test_D.txt with
// the same lines and all whitespace between words removed.
// Usage: go run ./scripts/prepare-dataset.go -dir datasets [-name pku]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func main() {
	dir := flag.String("dir", "datasets", "Directory holding gold D.txt files")
	name := flag.String("name", "", "Only prepare this dataset")
	flag.Parse()

	names, err := goldNames(*dir, *name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(names) == 0 {
		fmt.Fprintf(os.Stderr, "No gold files found in %s\n", *dir)
		os.Exit(1)
	}

	for _, n := range names {
		in := filepath.Join(*dir, n+".txt")
		out := filepath.Join(*dir, "test_"+n+".txt")

		fmt.Printf("Processing %s...\n", n)
		lines, err := stripSpaces(in, out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", in, err)
			continue
		}
		fmt.Printf("  -> %s (%d lines)\n", out, lines)
	}
}

func goldNames(dir, only string) ([]string, error) {
	if only != "" {
		return []string{only}, nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, err
	}

	var names []string
	for _, m := range matches {
		base := strings.TrimSuffix(filepath.Base(m), ".txt")
		if strings.HasPrefix(base, "test_") {
			continue
		}
		names = append(names, base)
	}
	return names, nil
}

func stripSpaces(inPath, outPath string) (int, error) {
	in, err := os.Open(inPath)
	if err != nil {
		return 0, fmt.Errorf("opening file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return 0, fmt.Errorf("creating file: %w", err)
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	count := 0
	for scanner.Scan() {
		if _, err := fmt.Fprintln(w, strings.Join(strings.Fields(scanner.Text()), "")); err != nil {
			return count, fmt.Errorf("writing: %w", err)
		}
		count++
	}
	if err := scanner.Err(); err != nil {
		return count, fmt.Errorf("reading: %w", err)
	}
	return count, w.Flush()
}
