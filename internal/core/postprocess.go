package core

import (
	"math"

	"sentiment-backend/internal/core/types"
)

type activation int

const (
	activationNone activation = iota
	activationSigmoid
	activationSoftmax
)

// activationFor matches the HuggingFace text-classification pipeline: a
// single logit or a multi label head gets a sigmoid, otherwise softmax.
func activationFor(problemType ProblemType, numLabels int) activation {
	switch {
	case problemType == MultiLabel || numLabels == 1:
		return activationSigmoid
	case problemType == SingleLabel || (numLabels > 1 && problemType != Regression):
		return activationSoftmax
	default:
		return activationNone
	}
}

func softmax(logits []float32) []float32 {
	if len(logits) == 0 {
		return nil
	}
	maxLogit := logits[0]
	for _, l := range logits[1:] {
		if l > maxLogit {
			maxLogit = l
		}
	}
	out := make([]float32, len(logits))
	var sum float64
	for i, l := range logits {
		e := math.Exp(float64(l - maxLogit))
		out[i] = float32(e)
		sum += e
	}
	for i := range out {
		out[i] = float32(float64(out[i]) / sum)
	}
	return out
}

func sigmoid(logits []float32) []float32 {
	out := make([]float32, len(logits))
	for i, l := range logits {
		out[i] = float32(1 / (1 + math.Exp(-float64(l))))
	}
	return out
}

func postprocess(logits []float32, labels []string, act activation) types.Prediction {
	var scores []float32
	switch act {
	case activationSigmoid:
		scores = sigmoid(logits)
	case activationSoftmax:
		scores = softmax(logits)
	default:
		scores = append([]float32(nil), logits...)
	}
	return types.NewPrediction(labels, scores)
}
