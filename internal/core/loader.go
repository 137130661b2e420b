package core

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
)

type LoaderConfig struct {
	ModelDir string
	// TokenizerPath defaults to tokenizer.json inside ModelDir.
	TokenizerPath string
	Onnx          OnnxOptions
}

func (c LoaderConfig) tokenizerPath() string {
	if c.TokenizerPath != "" {
		return c.TokenizerPath
	}
	return filepath.Join(c.ModelDir, "tokenizer.json")
}

// Loader owns the tokenizer and model artifacts and the single pipeline built
// from them.
type Loader struct {
	tokenizer *Tokenizer
	model     *Model
	cache     *PipelineCache
}

// NewLoader reads the tokenizer and model from disk. InitRuntime should have
// been called first; the loader itself does not touch ORT until the first
// GetPipeline.
func NewLoader(cfg LoaderConfig) (*Loader, error) {
	tokenizer, err := LoadTokenizer(cfg.tokenizerPath(), TokenizerOptions{CleanUpTokenizationSpaces: false})
	if err != nil {
		return nil, err
	}

	model, err := LoadModel(cfg.ModelDir)
	if err != nil {
		tokenizer.Close()
		return nil, err
	}

	slog.Info("loaded sentiment model", "model_dir", cfg.ModelDir, "tokenizer", cfg.tokenizerPath(), "labels", model.Labels, "max_seq_len", model.MaxSeqLen)

	l := &Loader{tokenizer: tokenizer, model: model}
	l.cache = NewPipelineCache(func(device string) (Pipeline, error) {
		p, err := NewOnnxPipeline(l.tokenizer, l.model, device, cfg.Onnx)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
	return l, nil
}

// GetPipeline returns the process pipeline, creating it on device the first
// time. See PipelineCache for why device is ignored after that.
func (l *Loader) GetPipeline(device string) (Pipeline, error) {
	return l.cache.Get(device)
}

func (l *Loader) State() CacheState {
	return l.cache.State()
}

func (l *Loader) Labels() []string {
	return l.model.Labels
}

func (l *Loader) Close() {
	l.cache.Close()
	l.tokenizer.Close()
}

var ErrNotLoaded = errors.New("sentiment model is not loaded")

var (
	loadOnce      sync.Once
	defaultLoader atomic.Pointer[Loader]
	loadErr       error
)

// Load creates the process wide loader. Only the first call does any work,
// later calls return the same loader and error.
func Load(cfg LoaderConfig) (*Loader, error) {
	loadOnce.Do(func() {
		l, err := NewLoader(cfg)
		if err != nil {
			loadErr = fmt.Errorf("error loading sentiment model: %w", err)
			return
		}
		defaultLoader.Store(l)
	})
	return defaultLoader.Load(), loadErr
}

// GetPipeline is Loader.GetPipeline on the loader created by Load.
func GetPipeline(device string) (Pipeline, error) {
	l := defaultLoader.Load()
	if l == nil {
		return nil, ErrNotLoaded
	}
	return l.GetPipeline(device)
}
