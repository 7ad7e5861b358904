package profile

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalFuse/internal/domain/models"
)

func mkSeries(bars ...models.Bar) models.BarSeries {
	ts := time.Date(2025, 1, 2, 9, 30, 0, 0, time.UTC)
	for i := range bars {
		bars[i].Timestamp = ts.Add(time.Duration(i) * 5 * time.Minute)
	}
	return models.BarSeries{Symbol: "ES", Timeframe: "intraday", Bars: bars}
}

func countPOC(vp models.VolumeProfile) int {
	n := 0
	for _, b := range vp.Bins {
		if b.PointOfControl {
			n++
		}
	}
	return n
}

func TestBuildEmptySeriesDegenerateBin(t *testing.T) {
	vp := Build(models.BarSeries{Symbol: "NQ"}, 20)

	require.True(t, vp.NoData)
	require.Len(t, vp.Bins, 1)
	assert.True(t, vp.Bins[0].PointOfControl)
	assert.Zero(t, vp.Bins[0].PriceLow)
	assert.Zero(t, vp.Bins[0].Volume)
}

func TestBuildConservesVolume(t *testing.T) {
	s := mkSeries(
		models.Bar{Open: 101, High: 105, Low: 99, Close: 103, Volume: 1200},
		models.Bar{Open: 103, High: 110, Low: 102, Close: 108, Volume: 800},
		models.Bar{Open: 108, High: 109, Low: 100, Close: 101, Volume: 431.5},
		models.Bar{Open: 101, High: 101, Low: 101, Close: 101, Volume: 90}, // zero-range bar
	)
	vp := Build(s, 20)

	var want float64
	for _, b := range s.Bars {
		want += b.Volume
	}
	assert.InDelta(t, want, vp.TotalVolume(), 1e-6)
}

func TestBuildProportionalAllocation(t *testing.T) {
	// One bar spanning exactly two equal-width bins: 25% of the range in
	// the first bin, 75% in the second.
	s := mkSeries(models.Bar{Open: 100, High: 104, Low: 100, Close: 104, Volume: 400})
	vp := Build(s, 2)

	require.Len(t, vp.Bins, 2)
	assert.InDelta(t, 200.0, vp.Bins[0].Volume, 1e-9)
	assert.InDelta(t, 200.0, vp.Bins[1].Volume, 1e-9)
}

func TestBuildExactlyOnePOC(t *testing.T) {
	s := mkSeries(
		models.Bar{Open: 10, High: 20, Low: 10, Close: 15, Volume: 100},
		models.Bar{Open: 15, High: 18, Low: 12, Close: 14, Volume: 100},
	)
	vp := Build(s, 20)
	assert.Equal(t, 1, countPOC(vp))
}

func TestBuildPOCTieBreaksToLowerPrice(t *testing.T) {
	// Symmetric volume in two bins: the stable sort keeps ascending
	// price order among ties, so the lower-price bin is POC.
	s := mkSeries(models.Bar{Open: 100, High: 104, Low: 100, Close: 102, Volume: 100})
	vp := Build(s, 2)

	require.Equal(t, 1, countPOC(vp))
	assert.True(t, vp.Bins[0].PointOfControl)
	assert.False(t, vp.Bins[1].PointOfControl)
}

func TestBuildValueAreaCoversAndIsMinimal(t *testing.T) {
	s := mkSeries(
		models.Bar{Open: 100, High: 101, Low: 100, Close: 100, Volume: 500},
		models.Bar{Open: 103, High: 104, Low: 103, Close: 103, Volume: 300},
		models.Bar{Open: 107, High: 108, Low: 107, Close: 107, Volume: 120},
		models.Bar{Open: 109, High: 110, Low: 109, Close: 109, Volume: 80},
	)
	vp := Build(s, 10)

	total := vp.TotalVolume()
	var vaBins []models.ProfileBin
	var vaVolume float64
	for _, b := range vp.Bins {
		if b.ValueArea {
			vaBins = append(vaBins, b)
			vaVolume += b.Volume
		}
	}

	require.NotEmpty(t, vaBins)
	assert.GreaterOrEqual(t, vaVolume, 0.70*total-1e-9)

	// Removing the lowest-volume member must drop coverage below 70%.
	lowest := math.Inf(1)
	for _, b := range vaBins {
		if b.Volume < lowest {
			lowest = b.Volume
		}
	}
	assert.Less(t, vaVolume-lowest, 0.70*total)
}

func TestBuildSinglePriceLevel(t *testing.T) {
	s := mkSeries(
		models.Bar{Open: 50, High: 50, Low: 50, Close: 50, Volume: 10},
		models.Bar{Open: 50, High: 50, Low: 50, Close: 50, Volume: 20},
	)
	vp := Build(s, 20)

	require.Len(t, vp.Bins, 1)
	assert.True(t, vp.Bins[0].PointOfControl)
	assert.True(t, vp.Bins[0].ValueArea)
	assert.InDelta(t, 30.0, vp.Bins[0].Volume, 1e-9)
}

func TestBuildDefaultBinCount(t *testing.T) {
	s := mkSeries(models.Bar{Open: 10, High: 30, Low: 10, Close: 20, Volume: 100})
	vp := Build(s, 0)
	assert.Len(t, vp.Bins, DefaultBins)
}
