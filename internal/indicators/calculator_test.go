package indicators

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/domain/models"
)

func seriesFromCloses(closes []float64) models.BarSeries {
	bars := make([]models.Bar, len(closes))
	ts := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.Bar{
			Timestamp: ts.Add(time.Duration(i) * 5 * time.Minute),
			Open:      c,
			High:      c + 1,
			Low:       c - 1,
			Close:     c,
			Volume:    100,
		}
	}
	return models.BarSeries{Symbol: "NQ", Timeframe: "intraday", Bars: bars}
}

func constCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestComputeMissingColumns(t *testing.T) {
	calc := NewCalculator()
	_, err := calc.Compute(Frame{Close: []float64{1, 2, 3}})

	var mc *MissingColumnsError
	require.ErrorAs(t, err, &mc)
	assert.ElementsMatch(t, []string{"open", "high", "low", "volume"}, mc.Fields)
}

func TestComputeShortSeriesYieldsAdvisoriesNotErrors(t *testing.T) {
	calc := NewCalculator()
	f := FrameFromSeries(seriesFromCloses(constCloses(10, 100)))

	set, err := calc.Compute(f)
	require.NoError(t, err)

	assert.Empty(t, set.RSI, "rsi must be empty, not zero-valued")
	assert.Empty(t, set.MACD.Line)
	assert.Empty(t, set.Bollinger.Middle)
	assert.Len(t, set.VWAP, 10, "vwap needs only one bar")
	assert.Len(t, set.Advisories, 4) // limited data + rsi + macd + bollinger
}

func TestRSIUndefinedBelowWarmup(t *testing.T) {
	// With exactly period bars there is no full window of deltas yet.
	out := RSI(constCloses(14, 50), 14)
	for i, v := range out {
		assert.True(t, math.IsNaN(v), "index %d should be undefined", i)
	}
}

func TestRSIKnownValue(t *testing.T) {
	// deltas: +1, -0.5, +1 -> avg gain 2/3, avg loss 1/6, RS = 4, RSI = 80
	out := RSI([]float64{10, 11, 10.5, 11.5}, 3)
	require.Len(t, out, 4)
	assert.True(t, math.IsNaN(out[2]))
	assert.InDelta(t, 80.0, out[3], 1e-9)
}

func TestRSIFlatSeriesIs50(t *testing.T) {
	out := RSI(constCloses(40, 100), 14)
	assert.InDelta(t, 50.0, out[39], 1e-9)
}

func TestRSIAllGainsIs100(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := RSI(closes, 14)
	assert.InDelta(t, 100.0, out[29], 1e-9)
}

func TestEMASeedsAtFirstValue(t *testing.T) {
	out := EMA([]float64{1, 2, 3}, 3) // alpha = 0.5
	assert.InDeltaSlice(t, []float64{1, 1.5, 2.25}, out, 1e-9)
}

func TestMACDConstantCloseHistogramIsZero(t *testing.T) {
	line, sig, hist := MACDSeries(constCloses(60, 250), 12, 26, 9)
	for i := range hist {
		assert.InDelta(t, 0.0, line[i], 1e-9)
		assert.InDelta(t, 0.0, sig[i], 1e-9)
		assert.InDelta(t, 0.0, hist[i], 1e-9)
	}
}

func TestVWAP(t *testing.T) {
	highs := []float64{12, 22}
	lows := []float64{8, 18}
	closes := []float64{10, 20}
	volumes := []float64{10, 30}

	out := VWAP(highs, lows, closes, volumes)
	assert.InDelta(t, 10.0, out[0], 1e-9)
	assert.InDelta(t, 17.5, out[1], 1e-9) // (10*10 + 20*30) / 40
}

func TestVWAPZeroVolumeIsUndefined(t *testing.T) {
	out := VWAP([]float64{12, 12}, []float64{8, 8}, []float64{10, 10}, []float64{0, 5})
	assert.True(t, math.IsNaN(out[0]), "zero cumulative volume must stay undefined")
	assert.InDelta(t, 10.0, out[1], 1e-9)
}

func TestSMA(t *testing.T) {
	out := SMA([]float64{1, 2, 3, 4}, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
}

func TestBollingerBandsSampleStdDev(t *testing.T) {
	upper, middle, lower := BollingerBands([]float64{1, 2, 3, 4}, 3, 2)
	// window [1,2,3]: mean 2, sample stddev 1
	assert.InDelta(t, 2.0, middle[2], 1e-9)
	assert.InDelta(t, 4.0, upper[2], 1e-9)
	assert.InDelta(t, 0.0, lower[2], 1e-9)
	// window [2,3,4]: mean 3, sample stddev 1
	assert.InDelta(t, 5.0, upper[3], 1e-9)
	assert.InDelta(t, 1.0, lower[3], 1e-9)
}

func TestBollingerFlatSeriesBandsCollapse(t *testing.T) {
	upper, middle, lower := BollingerBands(constCloses(25, 100), 20, 2)
	last := len(middle) - 1
	assert.InDelta(t, 100.0, middle[last], 1e-9)
	assert.InDelta(t, 100.0, upper[last], 1e-9)
	assert.InDelta(t, 100.0, lower[last], 1e-9)
}

func TestComputeFullSeries(t *testing.T) {
	calc := NewCalculator()
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + math.Sin(float64(i)/5)*3
	}
	f := FrameFromSeries(seriesFromCloses(closes))

	set, err := calc.Compute(f)
	require.NoError(t, err)

	assert.Len(t, set.RSI, 60)
	assert.Len(t, set.MACD.Histogram, 60)
	assert.Len(t, set.VWAP, 60)
	assert.Len(t, set.Bollinger.Upper, 60)
	assert.Empty(t, set.Advisories)
	assert.NotNil(t, LastDefined(set.RSI))
	assert.NotNil(t, LastDefined(set.Bollinger.Upper))
}

func TestLastDefined(t *testing.T) {
	assert.Nil(t, LastDefined(nil))
	assert.Nil(t, LastDefined([]float64{math.NaN(), math.NaN()}))

	v := LastDefined([]float64{1, 2, math.NaN()})
	require.NotNil(t, v)
	assert.Equal(t, 2.0, *v)
}
