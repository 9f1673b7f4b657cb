package tool

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "今天天气不错，适合出去游玩"

func TestKind_String(t *testing.T) {
	assert.Equal(t, "algorithmic", KindAlgorithmic.String())
	assert.Equal(t, "model", KindModel.String())
	assert.Equal(t, "Kind(7)", Kind(7).String())
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name   string
		want   Kind
		wantOK bool
	}{
		{"jieba", KindAlgorithmic, true},
		{"gse", KindAlgorithmic, true},
		{"char", KindAlgorithmic, true},
		{"nlp_structbert_word-segmentation_chinese-base", KindModel, true},
		{"nlp_lstmcrf_word-segmentation_chinese-news", KindModel, true},
		{"snownlp", 0, false},
		{"jiagu", 0, false},
		{"hanlp", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Lookup(tt.name)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNames(t *testing.T) {
	names := Names()
	assert.Len(t, names, 9)
	assert.Equal(t, "jieba", names[0])
	for _, n := range names {
		_, ok := Lookup(n)
		assert.True(t, ok, n)
	}
}

func TestUnsupportedError(t *testing.T) {
	var err error = &UnsupportedError{Name: "jiagu"}

	assert.Equal(t, "target: jiagu is not supported", err.Error())
	assert.ErrorIs(t, err, ErrUnsupportedTool)
	assert.False(t, errors.Is(errors.New("other"), ErrUnsupportedTool))
}

func TestRegistry_Unsupported(t *testing.T) {
	r := NewRegistry()
	defer func() { _ = r.Close() }()

	for _, name := range []string{"snownlp", "jiagu", "hanlp", "nope"} {
		s, err := r.Get(name)
		assert.Nil(t, s)
		require.ErrorIs(t, err, ErrUnsupportedTool)
		assert.Equal(t, "target: "+name+" is not supported", err.Error())
	}
}

func TestRegistry_Char(t *testing.T) {
	r := NewRegistry()
	defer func() { _ = r.Close() }()

	s, err := r.Get(Char)
	require.NoError(t, err)
	assert.Equal(t, Char, s.Name())
	assert.Equal(t, KindAlgorithmic, s.Kind())

	words, err := s.Segment(context.Background(), "今天 好")
	require.NoError(t, err)
	assert.Equal(t, []string{"今", "天", "好"}, words)

	words, err = s.Segment(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestRegistry_GetCaches(t *testing.T) {
	r := NewRegistry()
	defer func() { _ = r.Close() }()

	var wg sync.WaitGroup
	got := make([]Segmenter, 8)
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i], _ = r.Get(Char)
		}()
	}
	wg.Wait()

	for _, s := range got {
		assert.Equal(t, got[0], s)
	}
}

func TestRegistry_SlowLoadDoesNotBlockOtherTools(t *testing.T) {
	r := NewRegistry()
	defer func() { _ = r.Close() }()

	started := make(chan struct{})
	release := make(chan struct{})
	build := r.build
	r.build = func(name string, kind Kind) (Segmenter, error) {
		if name == Jieba {
			close(started)
			<-release
			return charTool{}, nil
		}
		return build(name, kind)
	}

	slow := make(chan error, 1)
	go func() {
		_, err := r.Get(Jieba)
		slow <- err
	}()
	<-started

	fast := make(chan error, 1)
	go func() {
		_, err := r.Get(Char)
		fast <- err
	}()

	select {
	case err := <-fast:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("char waited for jieba to load")
	}

	close(release)
	require.NoError(t, <-slow)
}

func TestRegistry_BuildsOncePerTool(t *testing.T) {
	r := NewRegistry()
	defer func() { _ = r.Close() }()

	var calls atomic.Int32
	build := r.build
	r.build = func(name string, kind Kind) (Segmenter, error) {
		calls.Add(1)
		time.Sleep(10 * time.Millisecond)
		return build(name, kind)
	}

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.Get(Char)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestRegistry_Resolve(t *testing.T) {
	r := NewRegistry()
	defer func() { _ = r.Close() }()

	s, err := r.Resolve(Char)
	require.NoError(t, err)
	require.NotNil(t, s)

	s, err = r.Resolve("jiagu")
	assert.Nil(t, s)
	assert.ErrorIs(t, err, ErrUnsupportedTool)
}

func TestRegistry_ModelMissing(t *testing.T) {
	name := "nlp_structbert_word-segmentation_chinese-lite"
	r := NewRegistry(WithModelDir(t.TempDir()))
	defer func() { _ = r.Close() }()

	_, err := r.Get(name)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), "target: "+name+" failed to load")
	assert.NotErrorIs(t, err, ErrUnsupportedTool)

	// The failure is remembered for the rest of the run.
	_, again := r.Get(name)
	assert.Equal(t, err, again)
}

func TestRegistry_ModelBadLabels(t *testing.T) {
	name := "nlp_lstmcrf_word-segmentation_chinese-news"
	root := t.TempDir()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for file, content := range map[string]string{
		modelFile:     "not a model",
		tokenizerFile: "{}",
		configFile:    `{"id2label": {"0": "X"}}`,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0644))
	}

	r := NewRegistry(WithModelDir(root), WithPoolSize(1))
	defer func() { _ = r.Close() }()

	_, err := r.Get(name)
	require.Error(t, err)
}

func TestLocalModelFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := localModelFiles(dir)
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(filepath.Join(dir, modelFile), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, tokenizerFile), nil, 0644))

	files, err := localModelFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, modelFile), files.Model)
	assert.Empty(t, files.Labels)

	require.NoError(t, os.WriteFile(filepath.Join(dir, configFile), nil, 0644))
	files, err = localModelFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, configFile), files.Labels)
}

func TestFetcher_Unconfigured(t *testing.T) {
	f := newFetcher(HubConfig{Repos: map[string]string{"a": "org/a"}}, nil)

	assert.True(t, f.has("a"))
	assert.False(t, f.has("b"))

	_, err := f.fetch("b")
	assert.Error(t, err)
}

func TestDropSpace(t *testing.T) {
	assert.Equal(t, []string{"今天", "好"}, dropSpace([]string{"今天", " ", "", "　", "好"}))
	assert.Empty(t, dropSpace(nil))
}

func TestGse(t *testing.T) {
	s, err := newGse("")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	words, err := s.Segment(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, sample, strings.Join(words, ""))
	assert.Greater(t, len(words), 1)
	assert.Less(t, len(words), len([]rune(sample)))
}

func TestJieba(t *testing.T) {
	s := newJieba(nil)

	words, err := s.Segment(context.Background(), sample)
	require.NoError(t, err)
	assert.Equal(t, sample, strings.Join(words, ""))
	assert.Contains(t, words, "今天")

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.Segment(context.Background(), sample)
	assert.ErrorIs(t, err, errClosed)
}

func TestSegment_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g, err := newGse("")
	require.NoError(t, err)
	_, err = g.Segment(ctx, sample)
	assert.ErrorIs(t, err, context.Canceled)
}
