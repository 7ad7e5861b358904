package profile

import (
	"fmt"
	"strings"
	"time"

	"SignalFuse/internal/domain/models"
)

// Summarize derives POC price, value-area bounds, and the qualitative
// relation of the current price (last close) to both.
func Summarize(s models.BarSeries, vp models.VolumeProfile) models.ProfileSummary {
	sum := models.ProfileSummary{
		Symbol:      s.Symbol,
		Timeframe:   s.Timeframe,
		VsPOC:       "unknown",
		VsValueArea: "unknown",
		Timestamp:   time.Now().UTC(),
	}
	if s.Empty() || vp.NoData {
		return sum
	}

	pocPrice := vp.POC().PriceMid
	vah := pocPrice
	val := pocPrice
	found := false
	for _, b := range vp.Bins {
		if !b.ValueArea {
			continue
		}
		if !found || b.PriceHigh > vah {
			vah = b.PriceHigh
		}
		if !found || b.PriceLow < val {
			val = b.PriceLow
		}
		found = true
	}

	cur := s.LastClose()
	sum.CurrentPrice = cur
	sum.PointOfControl = pocPrice
	sum.ValueAreaHigh = vah
	sum.ValueAreaLow = val
	sum.DataAvailable = true

	if cur > pocPrice {
		sum.VsPOC = "above"
	} else {
		sum.VsPOC = "below"
	}
	if val <= cur && cur <= vah {
		sum.VsValueArea = "inside"
	} else {
		sum.VsValueArea = "outside"
	}
	return sum
}

// FormatSummary renders the profile metrics as a text block for
// predictor context.
func FormatSummary(sum models.ProfileSummary) string {
	if !sum.DataAvailable {
		return fmt.Sprintf("Volume Profile Analysis:\nNo volume profile data available for %s with timeframe %s.\n", sum.Symbol, sum.Timeframe)
	}

	var b strings.Builder
	b.WriteString("Volume Profile Analysis:\n")
	fmt.Fprintf(&b, "- Point of Control (POC): %.2f (price level with highest trading volume)\n", sum.PointOfControl)
	fmt.Fprintf(&b, "- Value Area High (VAH): %.2f\n", sum.ValueAreaHigh)
	fmt.Fprintf(&b, "- Value Area Low (VAL): %.2f\n", sum.ValueAreaLow)
	fmt.Fprintf(&b, "- Current Price: %.2f\n", sum.CurrentPrice)
	fmt.Fprintf(&b, "- Position: Price is %s POC and %s Value Area\n", sum.VsPOC, sum.VsValueArea)
	b.WriteString("\nTrading Implications:\n")
	b.WriteString("- POC acts as a magnet for price and often serves as support/resistance\n")
	b.WriteString("- Value Area represents where 70% of trading occurred, suggesting fair value range\n")
	b.WriteString("- Price tends to revert to Value Area when trading outside it\n")
	b.WriteString("- Breakouts above VAH or below VAL with strong volume suggest potential trend continuation\n")
	return b.String()
}
