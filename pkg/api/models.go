package api

import "github.com/google/uuid"

type LabelScore struct {
	Label string
	Score float32
}

type Prediction struct {
	Text   string
	Label  string
	Score  float32
	Scores []LabelScore `json:"Scores,omitempty"`
}

type SentimentRequest struct {
	Texts []string
	// Device is only honored if the pipeline has not been created yet.
	Device    string
	AllScores bool
}

type SentimentQuery struct {
	Text   string `schema:"text,required"`
	Device string `schema:"device"`
	// AllScores includes the score of every label, not just the top one.
	AllScores bool `schema:"all_scores"`
}

type SentimentResponse struct {
	BatchId     uuid.UUID
	Device      string
	Predictions []Prediction
}

type PipelineInfo struct {
	State  string
	Device string `json:"Device,omitempty"`
	Labels []string
}
