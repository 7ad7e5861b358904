package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
)

func TestIngestHandlerStoresValidMessage(t *testing.T) {
	store := newFakePredictionStore()
	h := NewPredictionIngestHandler("predictions", store, nil, fakeMetrics{})

	msg := []byte(`{"symbol":"NQ","timeframe":"5d","source":"groq","prediction_label":"Buy","signal_strength":0.77,"key_factors":["breadth"]}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	got, err := store.GetForKey(context.Background(), "NQ", domrepo.TF5D)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.LabelBuy, got[0].Label)
	assert.InDelta(t, 0.77, got[0].Confidence, 1e-9)
}

type fakeJobQueue struct {
	published []AggregateJobPayload
}

func (q *fakeJobQueue) PublishMessage(_ context.Context, msgType string, payload interface{}) error {
	if msgType == AggregateJobType {
		q.published = append(q.published, payload.(AggregateJobPayload))
	}
	return nil
}

func TestIngestHandlerEnqueuesRecompute(t *testing.T) {
	jobs := &fakeJobQueue{}
	h := NewPredictionIngestHandler("predictions", newFakePredictionStore(), jobs, fakeMetrics{})

	msg := []byte(`{"symbol":"ES","timeframe":"30d","source":"gemini","prediction_label":"Sell","signal_strength":0.6}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	require.Len(t, jobs.published, 1)
	assert.Equal(t, AggregateJobPayload{Symbol: "ES", Timeframe: "30d"}, jobs.published[0])
}

func TestIngestHandlerRejectsMalformedJSON(t *testing.T) {
	h := NewPredictionIngestHandler("predictions", newFakePredictionStore(), nil, fakeMetrics{})
	assert.Error(t, h.Handle(context.Background(), []byte("{not json")))
}

func TestIngestHandlerRejectsMissingIdentity(t *testing.T) {
	h := NewPredictionIngestHandler("predictions", newFakePredictionStore(), nil, fakeMetrics{})
	err := h.Handle(context.Background(), []byte(`{"prediction_label":"Buy"}`))
	assert.ErrorContains(t, err, "missing symbol or source")
}

func TestIngestHandlerNormalizesTimeframeAndLabel(t *testing.T) {
	store := newFakePredictionStore()
	h := NewPredictionIngestHandler("predictions", store, nil, fakeMetrics{})

	msg := []byte(`{"symbol":"YM","timeframe":"1w","source":"deepseek","prediction_label":"LONG","signal_strength":0.5}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	got, err := store.GetForKey(context.Background(), "YM", domrepo.TFIntraday)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.LabelHold, got[0].Label)
}
