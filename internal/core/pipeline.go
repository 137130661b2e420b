package core

import (
	"context"
	"fmt"

	"sentiment-backend/internal/core/types"
	"sentiment-backend/internal/core/utils"
)

// Pipeline classifies text on the device it was built for. Implementations
// must be safe for concurrent Predict calls.
type Pipeline interface {
	Predict(text string) (types.Prediction, error)

	Device() Device

	Release()
}

// PipelineFactory builds a pipeline bound to device. It is the only place a
// device identifier is validated.
type PipelineFactory func(device string) (Pipeline, error)

type indexedText struct {
	idx  int
	text string
}

type indexedPrediction struct {
	idx        int
	prediction types.Prediction
}

// PredictBatch classifies texts with up to maxWorkers concurrent Predict
// calls. Results are returned in input order; any failed text fails the
// whole batch with the first error seen.
func PredictBatch(ctx context.Context, p Pipeline, texts []string, maxWorkers int) ([]types.Prediction, error) {
	if len(texts) == 0 {
		return []types.Prediction{}, nil
	}
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	queue := make(chan indexedText, len(texts))
	for i, text := range texts {
		queue <- indexedText{idx: i, text: text}
	}
	close(queue)

	completed := make(chan utils.CompletedTask[indexedPrediction], len(texts))
	utils.RunInPool(ctx, func(in indexedText) (indexedPrediction, error) {
		pred, err := p.Predict(in.text)
		if err != nil {
			return indexedPrediction{}, fmt.Errorf("text %d: %w", in.idx, err)
		}
		return indexedPrediction{idx: in.idx, prediction: pred}, nil
	}, queue, completed, maxWorkers)

	results := make([]types.Prediction, len(texts))
	var firstErr error
	for task := range completed {
		if task.Error != nil {
			if firstErr == nil {
				firstErr = task.Error
			}
			continue
		}
		results[task.Result.idx] = task.Result.prediction
	}
	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}
