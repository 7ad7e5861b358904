package consensus

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/domain/models"
	"SignalFuse/internal/domain/repository"
)

func rec(source string, label models.Label, conf float64) models.PredictionRecord {
	return models.PredictionRecord{
		Symbol:     "NQ",
		Timeframe:  "intraday",
		Source:     source,
		Label:      label,
		Confidence: conf,
	}
}

func TestAggregateNoPredictions(t *testing.T) {
	_, err := NewEngine().Aggregate("NQ", repository.TFIntraday, nil)
	assert.ErrorIs(t, err, ErrNoPredictions)
}

func TestAggregateMajorityWins(t *testing.T) {
	out, err := NewEngine().Aggregate("NQ", repository.TFIntraday, []models.PredictionRecord{
		rec("deepseek", models.LabelBuy, 0.8),
		rec("gemini", models.LabelBuy, 0.6),
		rec("groq", models.LabelSell, 0.9),
	})
	require.NoError(t, err)

	assert.Equal(t, models.LabelBuy, out.Label)
	assert.Equal(t, 2, out.Votes[models.LabelBuy])
	assert.Equal(t, 1, out.Votes[models.LabelSell])
	assert.Equal(t, 0, out.Votes[models.LabelHold])
	assert.InDelta(t, (0.8+0.6+0.9)/3, out.Confidence, 1e-9)
}

func TestAggregateTiePrefersHold(t *testing.T) {
	out, err := NewEngine().Aggregate("NQ", repository.TFIntraday, []models.PredictionRecord{
		rec("deepseek", models.LabelBuy, 0.7),
		rec("gemini", models.LabelHold, 0.5),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LabelHold, out.Label)
}

func TestAggregateTieWithoutHoldPrefersBuy(t *testing.T) {
	out, err := NewEngine().Aggregate("NQ", repository.TFIntraday, []models.PredictionRecord{
		rec("deepseek", models.LabelBuy, 0.7),
		rec("gemini", models.LabelSell, 0.7),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LabelBuy, out.Label)
}

func TestAggregateThreeWayTieIsHold(t *testing.T) {
	out, err := NewEngine().Aggregate("NQ", repository.TFIntraday, []models.PredictionRecord{
		rec("deepseek", models.LabelBuy, 0.9),
		rec("gemini", models.LabelSell, 0.3),
		rec("groq", models.LabelHold, 0.6),
	})
	require.NoError(t, err)
	assert.Equal(t, models.LabelHold, out.Label)
	assert.InDelta(t, 0.6, out.Confidence, 1e-9)
}

func TestAggregateNormalizesUnknownLabels(t *testing.T) {
	out, err := NewEngine().Aggregate("NQ", repository.TFIntraday, []models.PredictionRecord{
		rec("deepseek", models.Label("SHORT"), 0.4),
		rec("gemini", models.Label("SHORT"), 0.4),
		rec("groq", models.LabelBuy, 0.4),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Votes[models.LabelHold])
	assert.Equal(t, models.LabelHold, out.Label)
}

func TestAggregatePreservesSourceRecords(t *testing.T) {
	direct := rec("deepseek", models.LabelSell, 0.55)
	direct.KeyFactors = []string{"rate decision"}
	out, err := NewEngine().Aggregate("NQ", repository.TFIntraday, []models.PredictionRecord{direct})
	require.NoError(t, err)

	require.Contains(t, out.Sources, "deepseek")
	assert.Equal(t, direct, out.Sources["deepseek"])
	assert.Equal(t, models.LabelSell, out.Label)
	assert.False(t, out.Timestamp.IsZero())
}

func TestAggregateIdempotentModuloTimestamp(t *testing.T) {
	records := []models.PredictionRecord{
		rec("deepseek", models.LabelBuy, 0.8),
		rec("gemini", models.LabelSell, 0.6),
		rec("groq", models.LabelHold, 0.9),
	}
	e := NewEngine()

	first, err := e.Aggregate("NQ", repository.TFIntraday, records)
	require.NoError(t, err)
	second, err := e.Aggregate("NQ", repository.TFIntraday, records)
	require.NoError(t, err)

	first.Timestamp, second.Timestamp = time.Time{}, time.Time{}
	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAggregateSingleSourceConfidenceNotDiluted(t *testing.T) {
	out, err := NewEngine().Aggregate("ES", repository.TF5D, []models.PredictionRecord{
		rec("groq", models.LabelBuy, 0.82),
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.82, out.Confidence, 1e-9)
	assert.Equal(t, "5d", out.Timeframe)
}
