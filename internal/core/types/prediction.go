package types

// LabelScore is the probability assigned to a single class label.
type LabelScore struct {
	Label string  `json:"label"`
	Score float32 `json:"score"`
}

// Prediction is the result of classifying one text. Label and Score are the
// top scoring class; Scores holds every class in label id order.
type Prediction struct {
	Label  string       `json:"label"`
	Score  float32      `json:"score"`
	Scores []LabelScore `json:"scores,omitempty"`
}

func NewPrediction(labels []string, probs []float32) Prediction {
	best := 0
	scores := make([]LabelScore, len(probs))
	for i, p := range probs {
		scores[i] = LabelScore{Label: labels[i], Score: p}
		if p > probs[best] {
			best = i
		}
	}
	if len(probs) == 0 {
		return Prediction{}
	}
	return Prediction{Label: labels[best], Score: probs[best], Scores: scores}
}
