package profile

import (
	"sort"

	"SignalFuse/internal/domain/models"
)

const (
	// DefaultBins is the bin count used when the caller passes 0.
	DefaultBins = 20

	// valueAreaFraction is the share of total volume the value area
	// must reach.
	valueAreaFraction = 0.70
)

// Build bins traded volume by price level over the full range of the
// series and flags the point of control and value area. An empty series
// yields a single degenerate zero bin with the POC flag forced true and
// NoData set; it is not an error.
//
// A bar whose price range spans several bins has its volume split
// proportionally to the fraction of the range each bin covers, so the
// total binned volume always equals the total input volume.
func Build(s models.BarSeries, bins int) models.VolumeProfile {
	if bins <= 0 {
		bins = DefaultBins
	}

	if s.Empty() {
		return models.VolumeProfile{
			Bins:   []models.ProfileBin{{PointOfControl: true}},
			NoData: true,
		}
	}

	priceLow := s.Bars[0].Low
	priceHigh := s.Bars[0].High
	for _, b := range s.Bars {
		if b.Low < priceLow {
			priceLow = b.Low
		}
		if b.High > priceHigh {
			priceHigh = b.High
		}
	}

	if priceHigh == priceLow {
		// All trading at a single price level: one bin holds everything.
		var total float64
		for _, b := range s.Bars {
			total += b.Volume
		}
		return models.VolumeProfile{Bins: []models.ProfileBin{{
			PriceLow:       priceLow,
			PriceHigh:      priceHigh,
			PriceMid:       priceLow,
			Volume:         total,
			ValueArea:      true,
			PointOfControl: true,
		}}}
	}

	width := (priceHigh - priceLow) / float64(bins)
	out := make([]models.ProfileBin, bins)
	for i := range out {
		out[i].PriceLow = priceLow + float64(i)*width
		out[i].PriceHigh = priceLow + float64(i+1)*width
		out[i].PriceMid = (out[i].PriceLow + out[i].PriceHigh) / 2
	}
	// Close the float gap so the top edge is exact.
	out[bins-1].PriceHigh = priceHigh

	binIndex := func(p float64) int {
		i := int((p - priceLow) / width)
		if i < 0 {
			return 0
		}
		if i >= bins {
			return bins - 1
		}
		return i
	}

	for _, bar := range s.Bars {
		barRange := bar.High - bar.Low
		if barRange == 0 {
			// Zero-range bar: all volume at one price level.
			out[binIndex(bar.Low)].Volume += bar.Volume
			continue
		}
		lo := binIndex(bar.Low)
		hi := binIndex(bar.High)
		for i := lo; i <= hi; i++ {
			overlapLow := bar.Low
			if out[i].PriceLow > overlapLow {
				overlapLow = out[i].PriceLow
			}
			overlapHigh := bar.High
			if out[i].PriceHigh < overlapHigh {
				overlapHigh = out[i].PriceHigh
			}
			if overlapHigh > overlapLow {
				out[i].Volume += bar.Volume * (overlapHigh - overlapLow) / barRange
			}
		}
	}

	markPOCAndValueArea(out)
	return models.VolumeProfile{Bins: out}
}

// markPOCAndValueArea flags the highest-volume bin as POC and greedily
// accumulates bins in volume-descending order until the cumulative
// volume reaches the value-area fraction of total. The sort is stable:
// on equal volume the lower-price bin wins, which makes the tie-break
// explicit rather than incidental.
func markPOCAndValueArea(bins []models.ProfileBin) {
	order := make([]int, len(bins))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return bins[order[a]].Volume > bins[order[b]].Volume
	})

	bins[order[0]].PointOfControl = true

	var total float64
	for i := range bins {
		total += bins[i].Volume
	}
	target := total * valueAreaFraction

	var cum float64
	for _, idx := range order {
		cum += bins[idx].Volume
		bins[idx].ValueArea = true
		if cum >= target {
			break
		}
	}
}
