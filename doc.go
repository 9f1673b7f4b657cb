// Package cws provides Chinese word segmentation using ONNX exports of
// character-tagging models such as StructBERT and LSTM-CRF segmenters.
//
// # Quick Start
//
//	seg, err := cws.New("model.onnx", "tokenizer.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer seg.Close()
//
//	words, err := seg.Segment(ctx, "今天天气不错")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(strings.Join(words, " ")) // 今天 天气 不错
//
// # Labels
//
// The model must emit one logits row per input position. Each output index
// is mapped to a B, M, E or S tag; the default order is B, M, E, S. Models
// exported with a config.json can be configured with
//
//	labels, err := cws.LoadLabels("config.json")
//	seg, err := cws.New("model.onnx", "tokenizer.json", cws.WithLabels(labels))
//
// # Thread Safety
//
// Segmenter is safe for concurrent use. It manages an internal pool of ONNX
// sessions, configurable via WithPoolSize.
package cws
