package tool

import (
	"context"
	"sync"

	"github.com/yanyiwu/gojieba"
)

// jiebaTool segments with cppjieba in accurate mode with HMM enabled.
type jiebaTool struct {
	mu sync.RWMutex
	jb *gojieba.Jieba
}

func newJieba(dicts []string) *jiebaTool {
	return &jiebaTool{jb: gojieba.NewJieba(dicts...)}
}

func (*jiebaTool) Name() string { return Jieba }
func (*jiebaTool) Kind() Kind   { return KindAlgorithmic }

func (t *jiebaTool) Segment(ctx context.Context, line string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.jb == nil {
		return nil, errClosed
	}
	return dropSpace(t.jb.Cut(line, true)), nil
}

func (t *jiebaTool) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.jb != nil {
		t.jb.Free()
		t.jb = nil
	}
	return nil
}
