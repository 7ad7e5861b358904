package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/consensus"
	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	"SignalFuse/pkg/cache"
)

func newAggregateFixture(t *testing.T) (*AggregateUseCase, *fakePredictionStore, *fakeConsensusStore, *fakePublisher, *fakeHistory, cache.Service) {
	t.Helper()
	preds := newFakePredictionStore()
	store := newFakeConsensusStore()
	pub := &fakePublisher{}
	hist := &fakeHistory{}
	locks := cache.NewMemoryCache()
	uc := NewAggregateUseCase(
		consensus.NewEngine(), preds, store, pub, hist, locks,
		fakeMetrics{}, nil, []string{"deepseek", "gemini", "groq"},
	)
	return uc, preds, store, pub, hist, locks
}

func seedPrediction(t *testing.T, s *fakePredictionStore, tf, source string, label models.Label, conf float64) {
	t.Helper()
	err := s.Put(context.Background(), models.PredictionRecord{
		Symbol:     "NQ",
		Timeframe:  tf,
		Source:     source,
		Label:      label,
		Confidence: conf,
		Timestamp:  time.Now().UTC(),
	})
	require.NoError(t, err)
}

func TestAggregateNoPredictionsWritesNothing(t *testing.T) {
	uc, _, store, pub, hist, _ := newAggregateFixture(t)

	_, err := uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday"})
	assert.ErrorIs(t, err, consensus.ErrNoPredictions)

	stored, err := store.Get(context.Background(), "NQ", domrepo.TFIntraday)
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Empty(t, pub.published)
	assert.Empty(t, hist.archived)
}

func TestAggregateStoresPublishesAndArchives(t *testing.T) {
	uc, preds, store, pub, hist, _ := newAggregateFixture(t)
	seedPrediction(t, preds, "intraday", "deepseek", models.LabelBuy, 0.8)
	seedPrediction(t, preds, "intraday", "gemini", models.LabelBuy, 0.6)
	seedPrediction(t, preds, "intraday", "groq", models.LabelSell, 0.7)

	rec, err := uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday"})
	require.NoError(t, err)

	assert.Equal(t, models.LabelBuy, rec.Label)
	assert.InDelta(t, 0.7, rec.Confidence, 1e-9)
	assert.Len(t, rec.Sources, 3)

	stored, err := store.Get(context.Background(), "NQ", domrepo.TFIntraday)
	require.NoError(t, err)
	assert.Equal(t, rec, stored)
	require.Len(t, pub.published, 1)
	assert.Equal(t, rec, pub.published[0])
	require.Len(t, hist.archived, 1)
}

func TestAggregateOverwritesPriorConsensus(t *testing.T) {
	uc, preds, store, _, _, _ := newAggregateFixture(t)
	seedPrediction(t, preds, "intraday", "deepseek", models.LabelSell, 0.9)

	_, err := uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday"})
	require.NoError(t, err)

	seedPrediction(t, preds, "intraday", "deepseek", models.LabelBuy, 0.4)
	rec, err := uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday"})
	require.NoError(t, err)

	stored, err := store.Get(context.Background(), "NQ", domrepo.TFIntraday)
	require.NoError(t, err)
	assert.Equal(t, models.LabelBuy, stored.Label)
	assert.Equal(t, rec, stored)
}

func TestAggregateBusyWhenLockHeld(t *testing.T) {
	uc, preds, _, _, _, locks := newAggregateFixture(t)
	seedPrediction(t, preds, "intraday", "deepseek", models.LabelBuy, 0.5)

	ok, err := locks.TryLock(context.Background(), aggregateLockKey("NQ", domrepo.TFIntraday), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday"})
	assert.ErrorIs(t, err, ErrAggregateBusy)
}

func TestAggregateReleasesLock(t *testing.T) {
	uc, preds, _, _, _, _ := newAggregateFixture(t)
	seedPrediction(t, preds, "intraday", "deepseek", models.LabelBuy, 0.5)

	_, err := uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday"})
	require.NoError(t, err)

	// A second run must be able to take the lock again.
	_, err = uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday"})
	assert.NoError(t, err)
}

func TestAggregateInfersMissingSources(t *testing.T) {
	uc, preds, _, _, _, _ := newAggregateFixture(t)
	seedPrediction(t, preds, "intraday", "deepseek", models.LabelSell, 0.5)
	// gemini has no intraday record but agrees with itself elsewhere.
	seedPrediction(t, preds, "5d", "gemini", models.LabelBuy, 0.9)
	seedPrediction(t, preds, "30d", "gemini", models.LabelBuy, 0.7)

	rec, err := uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday", Infer: true})
	require.NoError(t, err)

	require.Contains(t, rec.Sources, "gemini")
	assert.True(t, rec.Sources["gemini"].Inferred)
	assert.Equal(t, models.LabelBuy, rec.Sources["gemini"].Label)
	assert.InDelta(t, 0.8, rec.Sources["gemini"].Confidence, 1e-9)
	assert.Equal(t, 1, rec.Votes[models.LabelBuy])
	assert.Equal(t, 1, rec.Votes[models.LabelSell])
}

func TestAggregateInferenceOffKeepsSourceAbsent(t *testing.T) {
	uc, preds, _, _, _, _ := newAggregateFixture(t)
	seedPrediction(t, preds, "intraday", "deepseek", models.LabelSell, 0.5)
	seedPrediction(t, preds, "5d", "gemini", models.LabelBuy, 0.9)

	rec, err := uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday"})
	require.NoError(t, err)
	assert.NotContains(t, rec.Sources, "gemini")
}

func TestConsensusReadBackAfterAggregate(t *testing.T) {
	uc, preds, _, _, _, _ := newAggregateFixture(t)
	seedPrediction(t, preds, "5d", "groq", models.LabelHold, 0.66)

	_, err := uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "5d"})
	require.NoError(t, err)

	rec, err := uc.Consensus(context.Background(), models.ConsensusRequest{Symbol: "NQ", TF: "5d"})
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, models.LabelHold, rec.Label)
}

func TestAggregateArchiveFailureIsBufferedAndBackfilled(t *testing.T) {
	uc, preds, _, _, hist, _ := newAggregateFixture(t)
	seedPrediction(t, preds, "intraday", "deepseek", models.LabelBuy, 0.8)

	hist.err = errors.New("warehouse down")
	first, err := uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday"})
	require.NoError(t, err, "archive failure must not fail the aggregation")
	assert.Empty(t, hist.archived)

	hist.err = nil
	seedPrediction(t, preds, "intraday", "gemini", models.LabelSell, 0.4)
	_, err = uc.Aggregate(context.Background(), models.AggregateRequest{Symbol: "NQ", TF: "intraday"})
	require.NoError(t, err)

	require.Len(t, hist.batches, 1, "buffered record must be backfilled as a batch")
	require.Len(t, hist.batches[0], 1)
	assert.Equal(t, first, hist.batches[0][0])
	assert.Len(t, hist.archived, 2)
}

func TestHealthWithoutArchive(t *testing.T) {
	uc := NewAggregateUseCase(
		consensus.NewEngine(), newFakePredictionStore(), newFakeConsensusStore(),
		&fakePublisher{}, nil, cache.NewMemoryCache(),
		fakeMetrics{}, nil, []string{"deepseek"},
	)
	assert.NoError(t, uc.Health(context.Background()))
}

func TestHealthReportsArchiveError(t *testing.T) {
	uc, _, _, _, hist, _ := newAggregateFixture(t)
	require.NoError(t, uc.Health(context.Background()))

	hist.err = errors.New("warehouse down")
	assert.Error(t, uc.Health(context.Background()))
}
