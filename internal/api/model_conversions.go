package api

import (
	"sentiment-backend/internal/core/types"
	"sentiment-backend/pkg/api"
)

func convertPrediction(text string, p types.Prediction, allScores bool) api.Prediction {
	out := api.Prediction{Text: text, Label: p.Label, Score: p.Score}
	if allScores {
		out.Scores = make([]api.LabelScore, len(p.Scores))
		for i, s := range p.Scores {
			out.Scores[i] = api.LabelScore{Label: s.Label, Score: s.Score}
		}
	}
	return out
}

func convertPredictions(texts []string, preds []types.Prediction, allScores bool) []api.Prediction {
	out := make([]api.Prediction, len(preds))
	for i, p := range preds {
		out[i] = convertPrediction(texts[i], p, allScores)
	}
	return out
}
