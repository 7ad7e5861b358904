package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/domain/models"
)

func TestSummarizeNoData(t *testing.T) {
	s := models.BarSeries{Symbol: "YM", Timeframe: "5d"}
	sum := Summarize(s, Build(s, 20))

	assert.False(t, sum.DataAvailable)
	assert.Equal(t, "unknown", sum.VsPOC)
	assert.Equal(t, "unknown", sum.VsValueArea)
	assert.Equal(t, "YM", sum.Symbol)
}

func TestSummarizeAbovePOCOutsideValueArea(t *testing.T) {
	// Heavy trading near 100, last close far above it.
	s := mkSeries(
		models.Bar{Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000},
		models.Bar{Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000},
		models.Bar{Open: 100, High: 120, Low: 100, Close: 119, Volume: 10},
	)
	vp := Build(s, 20)
	sum := Summarize(s, vp)

	require.True(t, sum.DataAvailable)
	assert.Equal(t, "above", sum.VsPOC)
	assert.Equal(t, "outside", sum.VsValueArea)
	assert.InDelta(t, 119.0, sum.CurrentPrice, 1e-9)
	assert.Less(t, sum.PointOfControl, 105.0)
}

func TestSummarizeInsideValueArea(t *testing.T) {
	s := mkSeries(
		models.Bar{Open: 100, High: 102, Low: 98, Close: 100, Volume: 500},
		models.Bar{Open: 100, High: 103, Low: 99, Close: 101, Volume: 600},
		models.Bar{Open: 101, High: 102, Low: 100, Close: 101, Volume: 550},
	)
	sum := Summarize(s, Build(s, 20))

	require.True(t, sum.DataAvailable)
	assert.Equal(t, "inside", sum.VsValueArea)
	assert.GreaterOrEqual(t, sum.ValueAreaHigh, sum.ValueAreaLow)
}

func TestFormatSummary(t *testing.T) {
	s := mkSeries(
		models.Bar{Open: 100, High: 102, Low: 98, Close: 101, Volume: 500},
	)
	out := FormatSummary(Summarize(s, Build(s, 20)))

	assert.Contains(t, out, "Point of Control (POC):")
	assert.Contains(t, out, "Value Area High (VAH):")
	assert.Contains(t, out, "Current Price: 101.00")
	assert.Contains(t, out, "Trading Implications:")
}

func TestFormatSummaryNoData(t *testing.T) {
	s := models.BarSeries{Symbol: "NQ", Timeframe: "intraday"}
	out := FormatSummary(Summarize(s, Build(s, 20)))
	assert.Contains(t, out, "No volume profile data available for NQ")
}
