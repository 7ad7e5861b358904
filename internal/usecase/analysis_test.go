package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
)

func TestIndicatorsFullSeries(t *testing.T) {
	uc := NewAnalysisUseCase(&fakeBarStore{series: barSeries(60)}, fakeMetrics{}, nil)

	res, err := uc.Indicators(context.Background(), models.IndicatorsRequest{Symbol: "NQ", N: 60, TF: "intraday"})
	require.NoError(t, err)

	assert.Equal(t, "NQ", res.Symbol)
	assert.Equal(t, 60, res.Bars)
	require.NotNil(t, res.Snapshot.RSI)
	assert.InDelta(t, 100.0, *res.Snapshot.RSI, 1e-9) // monotone rising closes
	assert.NotNil(t, res.Snapshot.MACDLine)
	assert.NotNil(t, res.Snapshot.BBUpper)
	assert.Empty(t, res.Snapshot.Advisories)
}

func TestIndicatorsShortSeriesAdvisories(t *testing.T) {
	uc := NewAnalysisUseCase(&fakeBarStore{series: barSeries(5)}, fakeMetrics{}, nil)

	res, err := uc.Indicators(context.Background(), models.IndicatorsRequest{Symbol: "NQ", N: 5, TF: "intraday"})
	require.NoError(t, err)

	assert.Nil(t, res.Snapshot.RSI)
	assert.Nil(t, res.Snapshot.MACDLine)
	assert.NotNil(t, res.Snapshot.VWAP)
	assert.NotEmpty(t, res.Snapshot.Advisories)
}

func TestIndicatorsStoreError(t *testing.T) {
	uc := NewAnalysisUseCase(&fakeBarStore{err: errors.New("clickhouse down")}, fakeMetrics{}, nil)

	_, err := uc.Indicators(context.Background(), models.IndicatorsRequest{Symbol: "NQ", N: 60, TF: "intraday"})
	assert.ErrorContains(t, err, "load bars")
}

func TestProfileEmptySeriesIsNotAnError(t *testing.T) {
	uc := NewAnalysisUseCase(&fakeBarStore{}, fakeMetrics{}, nil)

	res, err := uc.Profile(context.Background(), models.ProfileRequest{Symbol: "YM", N: 300, Bins: 20, TF: "5d"})
	require.NoError(t, err)

	assert.True(t, res.Profile.NoData)
	assert.False(t, res.Summary.DataAvailable)
	assert.Equal(t, "unknown", res.Summary.VsPOC)
}

func TestProfileWithData(t *testing.T) {
	uc := NewAnalysisUseCase(&fakeBarStore{series: barSeries(40)}, fakeMetrics{}, nil)

	res, err := uc.Profile(context.Background(), models.ProfileRequest{Symbol: "NQ", N: 40, Bins: 20, TF: "intraday"})
	require.NoError(t, err)

	assert.Len(t, res.Profile.Bins, 20)
	assert.True(t, res.Summary.DataAvailable)
	assert.Positive(t, res.Profile.POC().Volume)
}

func TestAnalysisContextRendersBothSections(t *testing.T) {
	uc := NewAnalysisUseCase(&fakeBarStore{series: barSeries(60)}, fakeMetrics{}, nil)

	out, err := uc.AnalysisContext(context.Background(), "NQ", 60, domrepo.TFIntraday)
	require.NoError(t, err)

	assert.Contains(t, out, "Market Analysis for NQ (intraday):")
	assert.Contains(t, out, "Technical Indicators:")
	assert.Contains(t, out, "Volume Profile Analysis:")
}
