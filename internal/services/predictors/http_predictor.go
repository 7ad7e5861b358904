package predictors

import (
	"context"
	"fmt"
	"time"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	domsvc "SignalFuse/internal/domain/service"
)

// HTTPPredictor calls an external model runner over HTTP. Each
// configured source (deepseek, gemini, groq) gets its own instance
// pointing at its runner's base URL.
type HTTPPredictor struct {
	name    string
	base    *HTTPServiceBase
	retries int
}

func NewHTTPPredictor(name, baseURL string, timeout time.Duration, retries int) *HTTPPredictor {
	if retries <= 0 {
		retries = 3
	}
	return &HTTPPredictor{
		name:    name,
		base:    NewHTTPServiceBase(baseURL, timeout),
		retries: retries,
	}
}

func (p *HTTPPredictor) Name() string { return p.name }

type predictRequest struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Context   string `json:"context"`
}

type predictResponse struct {
	Label             string   `json:"prediction_label"`
	Confidence        float64  `json:"signal_strength"`
	TechnicalAnalysis string   `json:"technical_analysis"`
	SentimentAnalysis string   `json:"sentiment_analysis"`
	KeyFactors        []string `json:"key_factors"`
}

func (p *HTTPPredictor) Predict(ctx context.Context, symbol string, tf domrepo.Timeframe, analysisContext string) (models.PredictionRecord, error) {
	var pr predictResponse
	err := p.base.PostJSONWithRetry(ctx, "/predict", predictRequest{
		Symbol:    symbol,
		Timeframe: string(tf),
		Context:   analysisContext,
	}, &pr, p.retries)
	if err != nil {
		return models.PredictionRecord{}, fmt.Errorf("predict %s: %w", p.name, err)
	}

	label := models.Label(pr.Label)
	if !label.IsValid() {
		return models.PredictionRecord{}, fmt.Errorf("predict %s: unknown label %q", p.name, pr.Label)
	}
	if pr.Confidence < 0 || pr.Confidence > 1 {
		return models.PredictionRecord{}, fmt.Errorf("predict %s: confidence %v out of range", p.name, pr.Confidence)
	}

	return models.PredictionRecord{
		Symbol:            symbol,
		Timeframe:         string(tf),
		Source:            p.name,
		Label:             label,
		Confidence:        pr.Confidence,
		TechnicalAnalysis: pr.TechnicalAnalysis,
		SentimentAnalysis: pr.SentimentAnalysis,
		KeyFactors:        pr.KeyFactors,
		Timestamp:         time.Now().UTC(),
	}, nil
}

var _ domsvc.Predictor = (*HTTPPredictor)(nil)
