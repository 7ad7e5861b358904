package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
)

func TestAggregateJobRecomputesConsensus(t *testing.T) {
	uc, preds, store, _, _, _ := newAggregateFixture(t)
	seedPrediction(t, preds, "intraday", "deepseek", models.LabelBuy, 0.8)
	seedPrediction(t, preds, "intraday", "gemini", models.LabelBuy, 0.6)

	job := NewAggregateJob(uc, false, nil)
	payload, err := json.Marshal(AggregateJobPayload{Symbol: "NQ", Timeframe: "intraday"})
	require.NoError(t, err)

	// The queue hands payloads to jobs as raw JSON.
	require.NoError(t, job.Handle(context.Background(), json.RawMessage(payload)))

	rec, err := store.Get(context.Background(), "NQ", domrepo.TFIntraday)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.LabelBuy, rec.Label)
}

func TestAggregateJobNoPredictionsIsNotAnError(t *testing.T) {
	uc, _, _, _, _, _ := newAggregateFixture(t)
	job := NewAggregateJob(uc, false, nil)

	err := job.Handle(context.Background(), AggregateJobPayload{Symbol: "NQ", Timeframe: "intraday"})
	assert.NoError(t, err)
}

func TestAggregateJobRejectsBadPayload(t *testing.T) {
	uc, _, _, _, _, _ := newAggregateFixture(t)
	job := NewAggregateJob(uc, false, nil)

	assert.Error(t, job.Handle(context.Background(), 42))
}
