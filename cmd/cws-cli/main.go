package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	cws "github.com/jamesainslie/go-cws"
)

func main() {
	modelPath := flag.String("model", "", "Path to ONNX model file")
	tokenizerPath := flag.String("tokenizer", "", "Path to tokenizer.json")
	labelsPath := flag.String("config", "", "Path to config.json with id2label (default B,M,E,S)")
	poolSize := flag.Int("pool", 1, "Number of inference sessions")
	maxSeqLen := flag.Int("max-seq-len", 512, "Longest sequence fed to the model in one pass")
	mode := flag.String("mode", "segment", "Mode: segment or tag")

	flag.Parse()

	if *modelPath == "" || *tokenizerPath == "" {
		fmt.Fprintln(os.Stderr, "Usage: cws-cli -model MODEL -tokenizer TOKENIZER [OPTIONS] TEXT")
		flag.PrintDefaults()
		os.Exit(1)
	}

	text := strings.Join(flag.Args(), " ")
	if text == "" {
		fmt.Fprintln(os.Stderr, "Error: no text provided")
		os.Exit(1)
	}

	opts := []cws.Option{cws.WithPoolSize(*poolSize), cws.WithMaxSeqLen(*maxSeqLen)}
	if *labelsPath != "" {
		labels, err := cws.LoadLabels(*labelsPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading labels: %v\n", err)
			os.Exit(1)
		}
		opts = append(opts, cws.WithLabels(labels))
	}

	seg, err := cws.New(*modelPath, *tokenizerPath, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating segmenter: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = seg.Close() }() // Cleanup error ignored in CLI

	ctx := context.Background()

	switch *mode {
	case "segment":
		words, err := seg.Segment(ctx, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Text: %q\n", text)
		fmt.Printf("Words (%d): %s\n", len(words), strings.Join(words, " / "))

	case "tag":
		tags, tokens, err := seg.Tag(ctx, text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Text: %q\n", text)
		for i, tok := range tokens {
			fmt.Printf("  %3d %s %s\n", tok.Start, tok.Text, tags[i])
		}
		if unknown := seg.Unknown(text); len(unknown) > 0 {
			fmt.Printf("Unknown (%d): %s\n", len(unknown), strings.Join(unknown, " "))
		}

	default:
		fmt.Fprintf(os.Stderr, "Unknown mode: %s\n", *mode)
		os.Exit(1)
	}
}
