package service

import (
	"context"

	"SignalFuse/internal/domain/models"
	"SignalFuse/internal/domain/repository"
)

// Predictor produces one directional prediction for a symbol and
// timeframe, given a rendered analysis context block. Implementations
// wrap external model runners and are treated as black boxes.
type Predictor interface {
	Name() string
	Predict(ctx context.Context, symbol string, tf repository.Timeframe, analysisContext string) (models.PredictionRecord, error)
}
