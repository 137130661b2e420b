package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

const (
	modelFileName  = "model.onnx"
	configFileName = "config.json"

	defaultMaxSeqLen = 512
)

// ProblemType selects the activation applied to the classifier logits.
type ProblemType string

const (
	SingleLabel ProblemType = "single_label_classification"
	MultiLabel  ProblemType = "multi_label_classification"
	Regression  ProblemType = "regression"
)

var ErrInvalidModelConfig = errors.New("invalid model config")

// Model holds the exported classifier graph and its label metadata. It is
// read only after LoadModel returns and is shared by every pipeline built
// from it.
type Model struct {
	Dir         string
	onnxBytes   []byte
	Labels      []string
	ProblemType ProblemType
	MaxSeqLen   int
}

type hfConfig struct {
	ID2Label              map[string]string `json:"id2label"`
	ProblemType           string            `json:"problem_type"`
	MaxPositionEmbeddings int               `json:"max_position_embeddings"`
}

func LoadModel(modelDir string) (*Model, error) {
	info, err := os.Stat(modelDir)
	if err != nil {
		return nil, fmt.Errorf("model dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("model dir: %s is not a directory", modelDir)
	}

	cfgBytes, err := os.ReadFile(filepath.Join(modelDir, configFileName))
	if err != nil {
		return nil, fmt.Errorf("read model config: %w", err)
	}
	labels, problemType, maxSeqLen, err := parseModelConfig(cfgBytes)
	if err != nil {
		return nil, err
	}

	onnxBytes, err := os.ReadFile(filepath.Join(modelDir, modelFileName))
	if err != nil {
		return nil, fmt.Errorf("read onnx model: %w", err)
	}
	if len(onnxBytes) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrInvalidModelConfig, modelFileName)
	}

	return &Model{
		Dir:         modelDir,
		onnxBytes:   onnxBytes,
		Labels:      labels,
		ProblemType: problemType,
		MaxSeqLen:   maxSeqLen,
	}, nil
}

func parseModelConfig(data []byte) ([]string, ProblemType, int, error) {
	var cfg hfConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, "", 0, fmt.Errorf("%w: %v", ErrInvalidModelConfig, err)
	}
	if len(cfg.ID2Label) == 0 {
		return nil, "", 0, fmt.Errorf("%w: id2label is empty", ErrInvalidModelConfig)
	}

	labels := make([]string, len(cfg.ID2Label))
	seen := make([]bool, len(cfg.ID2Label))
	for key, label := range cfg.ID2Label {
		id, err := strconv.Atoi(key)
		if err != nil || id < 0 || id >= len(labels) {
			return nil, "", 0, fmt.Errorf("%w: label ids must be 0..%d, got %q", ErrInvalidModelConfig, len(labels)-1, key)
		}
		if seen[id] {
			return nil, "", 0, fmt.Errorf("%w: duplicate label id %d", ErrInvalidModelConfig, id)
		}
		seen[id] = true
		labels[id] = label
	}

	problemType := ProblemType(cfg.ProblemType)
	switch problemType {
	case "", SingleLabel, MultiLabel, Regression:
	default:
		return nil, "", 0, fmt.Errorf("%w: unknown problem_type %q", ErrInvalidModelConfig, cfg.ProblemType)
	}

	maxSeqLen := cfg.MaxPositionEmbeddings
	if maxSeqLen <= 0 {
		maxSeqLen = defaultMaxSeqLen
	}

	return labels, problemType, maxSeqLen, nil
}
