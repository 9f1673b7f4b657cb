// Package bench scores word segmentations against gold references.
package bench

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrDatasetNotFound indicates a dataset file is missing.
var ErrDatasetNotFound = errors.New("bench: dataset file not found")

// maxLineBytes bounds a single corpus line.
const maxLineBytes = 4 << 20

// Pair is one line of a dataset: the gold words and the raw text given to tools.
type Pair struct {
	Ref []string
	Raw string
}

// Dataset is a loaded pair of gold and raw files.
type Dataset struct {
	Name  string
	Pairs []Pair
}

// GoldPath returns the path of the gold (space-separated) file for a dataset.
func GoldPath(dir, name string) string {
	return filepath.Join(dir, name+".txt")
}

// RawPath returns the path of the raw input file for a dataset.
func RawPath(dir, name string) string {
	return filepath.Join(dir, "test_"+name+".txt")
}

// LoadDataset reads <dir>/<name>.txt and <dir>/test_<name>.txt and pairs
// their lines by index. Pairing stops at the end of the shorter file.
func LoadDataset(dir, name string) (*Dataset, error) {
	gold, err := readLines(GoldPath(dir, name))
	if err != nil {
		return nil, err
	}
	raw, err := readLines(RawPath(dir, name))
	if err != nil {
		return nil, err
	}

	n := min(len(gold), len(raw))
	pairs := make([]Pair, n)
	for i := range n {
		pairs[i] = Pair{
			Ref: strings.Fields(gold[i]),
			Raw: raw[i],
		}
	}
	return &Dataset{Name: name, Pairs: pairs}, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	lines, err := scanLines(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

func scanLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimRight(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
