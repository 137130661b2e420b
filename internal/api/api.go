package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"sentiment-backend/internal/core"
	"sentiment-backend/pkg/api"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const maxBatchSize = 256

// PipelineProvider is satisfied by *core.Loader.
type PipelineProvider interface {
	GetPipeline(device string) (core.Pipeline, error)
	State() core.CacheState
	Labels() []string
}

type SentimentService struct {
	provider      PipelineProvider
	defaultDevice string
	concurrency   int
}

func NewSentimentService(provider PipelineProvider, defaultDevice string, concurrency int) *SentimentService {
	return &SentimentService{provider: provider, defaultDevice: defaultDevice, concurrency: concurrency}
}

func (s *SentimentService) AddRoutes(r chi.Router) {
	r.Get("/health", RestHandler(func(r *http.Request) (any, error) { return nil, nil }))
	r.Get("/pipeline", RestHandler(s.GetPipelineInfo))
	r.Route("/sentiment", func(r chi.Router) {
		r.Post("/", RestHandler(s.ClassifyBatch))
		r.Get("/", RestHandler(s.Classify))
	})
}

func (s *SentimentService) pipeline(device string) (core.Pipeline, error) {
	if device == "" {
		device = s.defaultDevice
	}

	p, err := s.provider.GetPipeline(device)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrUnsupportedDevice):
			return nil, CodedError(http.StatusUnprocessableEntity, err)
		case errors.Is(err, core.ErrRuntimeNotInitialized), errors.Is(err, core.ErrNotLoaded):
			return nil, CodedError(http.StatusServiceUnavailable, err)
		default:
			slog.Error("error creating pipeline", "device", device, "error", err)
			return nil, CodedErrorf(http.StatusInternalServerError, "error creating pipeline: %v", err)
		}
	}
	return p, nil
}

func (s *SentimentService) GetPipelineInfo(r *http.Request) (any, error) {
	state := s.provider.State()
	info := api.PipelineInfo{State: state.String(), Labels: s.provider.Labels()}
	if state == core.Ready {
		p, err := s.provider.GetPipeline("")
		if err != nil {
			return nil, CodedErrorf(http.StatusInternalServerError, "error retrieving pipeline: %v", err)
		}
		info.Device = p.Device().Name
	}
	return info, nil
}

func (s *SentimentService) Classify(r *http.Request) (any, error) {
	params, err := ParseRequestQueryParams[api.SentimentQuery](r)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(params.Text) == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "text must not be empty")
	}

	p, err := s.pipeline(params.Device)
	if err != nil {
		return nil, err
	}

	pred, err := p.Predict(params.Text)
	if err != nil {
		slog.Error("error running sentiment inference", "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "inference failed: %v", err)
	}

	return convertPrediction(params.Text, pred, params.AllScores), nil
}

func (s *SentimentService) ClassifyBatch(r *http.Request) (any, error) {
	req, err := ParseRequest[api.SentimentRequest](r)
	if err != nil {
		return nil, err
	}

	if len(req.Texts) == 0 {
		return nil, CodedErrorf(http.StatusBadRequest, "at least one text is required")
	}
	if len(req.Texts) > maxBatchSize {
		return nil, CodedErrorf(http.StatusBadRequest, "too many texts: got %d, max is %d", len(req.Texts), maxBatchSize)
	}
	for i, text := range req.Texts {
		if strings.TrimSpace(text) == "" {
			return nil, CodedErrorf(http.StatusBadRequest, "text %d is empty", i)
		}
	}

	p, err := s.pipeline(req.Device)
	if err != nil {
		return nil, err
	}

	batchId := uuid.New()
	preds, err := core.PredictBatch(r.Context(), p, req.Texts, s.concurrency)
	if err != nil {
		slog.Error("error running batch sentiment inference", "batch_id", batchId, "error", err)
		return nil, CodedErrorf(http.StatusInternalServerError, "inference failed: %v", err)
	}

	slog.Info("classified batch", "batch_id", batchId, "texts", len(req.Texts), "device", p.Device().Name)

	return api.SentimentResponse{
		BatchId:     batchId,
		Device:      p.Device().Name,
		Predictions: convertPredictions(req.Texts, preds, req.AllScores),
	}, nil
}
