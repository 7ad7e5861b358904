package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	"SignalFuse/pkg/cache"
)

func newPredictionStore() *CachePredictionStore {
	return NewCachePredictionStore(cache.NewMemoryCache(), time.Hour, nil)
}

func record(symbol, tf, source string, label models.Label) models.PredictionRecord {
	return models.PredictionRecord{
		Symbol:     symbol,
		Timeframe:  tf,
		Source:     source,
		Label:      label,
		Confidence: 0.5,
		Timestamp:  time.Now().UTC(),
	}
}

func TestPredictionStoreRoundTrip(t *testing.T) {
	s := newPredictionStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, record("NQ", "intraday", "deepseek", models.LabelBuy)))
	require.NoError(t, s.Put(ctx, record("NQ", "intraday", "gemini", models.LabelSell)))

	got, err := s.GetForKey(ctx, "NQ", domrepo.TFIntraday)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "deepseek", got[0].Source)
	assert.Equal(t, "gemini", got[1].Source)
	assert.Equal(t, models.LabelSell, got[1].Label)
}

func TestPredictionStorePutOverwritesSameSource(t *testing.T) {
	s := newPredictionStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, record("NQ", "5d", "groq", models.LabelBuy)))
	require.NoError(t, s.Put(ctx, record("NQ", "5d", "groq", models.LabelSell)))

	got, err := s.GetForKey(ctx, "NQ", domrepo.TF5D)
	require.NoError(t, err)
	require.Len(t, got, 1, "index must not duplicate a re-submitting source")
	assert.Equal(t, models.LabelSell, got[0].Label)
}

func TestPredictionStoreEmptyKey(t *testing.T) {
	s := newPredictionStore()
	got, err := s.GetForKey(context.Background(), "ES", domrepo.TF30D)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPredictionStoreGetBySource(t *testing.T) {
	s := newPredictionStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, record("YM", "intraday", "deepseek", models.LabelBuy)))
	require.NoError(t, s.Put(ctx, record("YM", "30d", "deepseek", models.LabelHold)))

	byTF, err := s.GetBySource(ctx, "YM", "deepseek")
	require.NoError(t, err)
	require.Len(t, byTF, 2)
	assert.Equal(t, models.LabelBuy, byTF[domrepo.TFIntraday].Label)
	assert.Equal(t, models.LabelHold, byTF[domrepo.TF30D].Label)
}

func TestConsensusStoreOverwriteAndMiss(t *testing.T) {
	s := NewCacheConsensusStore(cache.NewMemoryCache(), time.Hour)
	ctx := context.Background()

	missing, err := s.Get(ctx, "NQ", domrepo.TFIntraday)
	require.NoError(t, err)
	assert.Nil(t, missing)

	first := &models.ConsensusRecord{Symbol: "NQ", Timeframe: "intraday", Label: models.LabelBuy, Confidence: 0.7}
	require.NoError(t, s.Put(ctx, first))
	second := &models.ConsensusRecord{Symbol: "NQ", Timeframe: "intraday", Label: models.LabelSell, Confidence: 0.4}
	require.NoError(t, s.Put(ctx, second))

	got, err := s.Get(ctx, "NQ", domrepo.TFIntraday)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, models.LabelSell, got.Label)
	assert.InDelta(t, 0.4, got.Confidence, 1e-9)
}
