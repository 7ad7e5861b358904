package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/domain/models"
	"SignalFuse/internal/domain/repository"
)

func TestInferFromOtherTimeframesEmpty(t *testing.T) {
	_, ok := InferFromOtherTimeframes("NQ", repository.TFIntraday, "gemini", nil)
	assert.False(t, ok)
}

func TestInferFromOtherTimeframesMajority(t *testing.T) {
	out, ok := InferFromOtherTimeframes("NQ", repository.TFIntraday, "gemini", []models.PredictionRecord{
		{Timeframe: "5d", Source: "gemini", Label: models.LabelBuy, Confidence: 0.8},
		{Timeframe: "30d", Source: "gemini", Label: models.LabelBuy, Confidence: 0.6},
	})
	require.True(t, ok)

	assert.Equal(t, "NQ", out.Symbol)
	assert.Equal(t, "intraday", out.Timeframe)
	assert.Equal(t, "gemini", out.Source)
	assert.Equal(t, models.LabelBuy, out.Label)
	assert.InDelta(t, 0.7, out.Confidence, 1e-9)
	assert.True(t, out.Inferred)
	assert.Contains(t, out.KeyFactors, "Inferred from other timeframes")
}

func TestInferFromOtherTimeframesTieWithoutHold(t *testing.T) {
	out, ok := InferFromOtherTimeframes("ES", repository.TF30D, "deepseek", []models.PredictionRecord{
		{Timeframe: "intraday", Source: "deepseek", Label: models.LabelBuy, Confidence: 0.5},
		{Timeframe: "5d", Source: "deepseek", Label: models.LabelSell, Confidence: 0.5},
	})
	require.True(t, ok)
	assert.Equal(t, models.LabelBuy, out.Label)
}
