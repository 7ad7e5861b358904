package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	domsvc "SignalFuse/internal/domain/service"
)

func TestRunAllStoresEachPredictorResult(t *testing.T) {
	analysis := NewAnalysisUseCase(&fakeBarStore{series: barSeries(60)}, fakeMetrics{}, nil)
	store := newFakePredictionStore()
	uc := NewPredictUseCase(analysis, []domsvc.Predictor{
		&fakePredictor{name: "deepseek", rec: models.PredictionRecord{Label: models.LabelBuy, Confidence: 0.8}},
		&fakePredictor{name: "gemini", rec: models.PredictionRecord{Label: models.LabelHold, Confidence: 0.5}},
	}, store, fakeMetrics{}, nil)

	res, err := uc.RunAll(context.Background(), models.RunPredictorsRequest{Symbol: "NQ", TF: "intraday"})
	require.NoError(t, err)

	assert.Len(t, res.Stored, 2)
	assert.Nil(t, res.Errors)

	got, err := store.GetForKey(context.Background(), "NQ", domrepo.TFIntraday)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestRunAllFailingPredictorIsReportedNotFatal(t *testing.T) {
	analysis := NewAnalysisUseCase(&fakeBarStore{series: barSeries(60)}, fakeMetrics{}, nil)
	store := newFakePredictionStore()
	uc := NewPredictUseCase(analysis, []domsvc.Predictor{
		&fakePredictor{name: "deepseek", rec: models.PredictionRecord{Label: models.LabelSell, Confidence: 0.7}},
		&fakePredictor{name: "groq", err: errors.New("model timeout")},
	}, store, fakeMetrics{}, nil)

	res, err := uc.RunAll(context.Background(), models.RunPredictorsRequest{Symbol: "NQ", TF: "intraday"})
	require.NoError(t, err)

	assert.Len(t, res.Stored, 1)
	assert.Contains(t, res.Errors, "groq")
	assert.Contains(t, res.Errors["groq"], "model timeout")
}

func TestRunAllContextRenderFailureIsFatal(t *testing.T) {
	analysis := NewAnalysisUseCase(&fakeBarStore{err: errors.New("clickhouse down")}, fakeMetrics{}, nil)
	uc := NewPredictUseCase(analysis, nil, newFakePredictionStore(), fakeMetrics{}, nil)

	_, err := uc.RunAll(context.Background(), models.RunPredictorsRequest{Symbol: "NQ", TF: "intraday"})
	assert.ErrorContains(t, err, "render context")
}

func TestSubmitStoresRecord(t *testing.T) {
	store := newFakePredictionStore()
	uc := NewPredictUseCase(nil, nil, store, fakeMetrics{}, nil)

	rec, err := uc.Submit(context.Background(), models.SubmitPredictionRequest{
		Symbol:     "ES",
		Timeframe:  "5d",
		Source:     "gemini",
		Label:      "Sell",
		Confidence: 0.64,
		KeyFactors: []string{"fed minutes"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.LabelSell, rec.Label)
	assert.False(t, rec.Timestamp.IsZero())

	got, err := store.GetForKey(context.Background(), "ES", domrepo.TF5D)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"fed minutes"}, got[0].KeyFactors)
}
