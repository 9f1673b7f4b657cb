package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-ego/gse"
)

var errClosed = errors.New("tool: closed")

// gseTool segments with gse in accurate mode with HMM enabled.
type gseTool struct {
	seg gse.Segmenter
}

// newGse loads dict, or the embedded simplified Chinese dictionary when dict
// is empty.
func newGse(dict string) (*gseTool, error) {
	t := &gseTool{}
	t.seg.SkipLog = true

	var err error
	if dict == "" {
		err = t.seg.LoadDictEmbed("zh_s")
	} else {
		err = t.seg.LoadDict(dict)
	}
	if err != nil {
		return nil, fmt.Errorf("loading gse dictionary: %w", err)
	}
	return t, nil
}

func (*gseTool) Name() string { return Gse }
func (*gseTool) Kind() Kind   { return KindAlgorithmic }
func (*gseTool) Close() error { return nil }

func (t *gseTool) Segment(ctx context.Context, line string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return dropSpace(t.seg.Cut(line, true)), nil
}
