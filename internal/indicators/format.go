package indicators

import (
	"fmt"
	"strings"

	"SignalFuse/internal/domain/models"
)

// Trend comparison windows for the summary note.
const (
	trendFastPeriod = 20
	trendSlowPeriod = 50
	trendLongPeriod = 200
)

// Snapshot extracts the latest defined value per indicator plus the
// SMA20/SMA50 trend note for API responses.
func Snapshot(f Frame, set models.IndicatorSet) models.IndicatorSnapshot {
	snap := models.IndicatorSnapshot{
		RSI:        LastDefined(set.RSI),
		MACDLine:   LastDefined(set.MACD.Line),
		MACDSignal: LastDefined(set.MACD.Signal),
		MACDHist:   LastDefined(set.MACD.Histogram),
		VWAP:       LastDefined(set.VWAP),
		BBUpper:    LastDefined(set.Bollinger.Upper),
		BBMiddle:   LastDefined(set.Bollinger.Middle),
		BBLower:    LastDefined(set.Bollinger.Lower),
		Advisories: set.Advisories,
	}
	snap.Trend = trendNote(f.Close)
	if f.Len() >= trendLongPeriod {
		snap.SMA200 = LastDefined(SMA(f.Close, trendLongPeriod))
	}
	return snap
}

// FormatSummary renders the latest indicator values as a text block for
// predictor context. Undefined values render as "N/A".
func FormatSummary(f Frame, set models.IndicatorSet) string {
	snap := Snapshot(f, set)

	var b strings.Builder
	b.WriteString("Technical Indicators:")
	if f.Len() < recommendedBars {
		fmt.Fprintf(&b, "\nNote: Limited data points (%d) may affect indicator reliability. Some indicators may not be available.", f.Len())
	}
	fmt.Fprintf(&b, "\n- RSI: %s", fmtValue(snap.RSI))
	b.WriteString("\n- MACD:")
	fmt.Fprintf(&b, "\n  - MACD Line: %s", fmtValue(snap.MACDLine))
	fmt.Fprintf(&b, "\n  - Signal Line: %s", fmtValue(snap.MACDSignal))
	fmt.Fprintf(&b, "\n  - Histogram: %s", fmtValue(snap.MACDHist))
	fmt.Fprintf(&b, "\n- VWAP: %s", fmtValue(snap.VWAP))
	b.WriteString("\n- Bollinger Bands:")
	fmt.Fprintf(&b, "\n  - Upper Band: %s", fmtValue(snap.BBUpper))
	fmt.Fprintf(&b, "\n  - Middle Band: %s", fmtValue(snap.BBMiddle))
	fmt.Fprintf(&b, "\n  - Lower Band: %s", fmtValue(snap.BBLower))
	fmt.Fprintf(&b, "\n- Basic Trend (SMA%d vs SMA%d): %s", trendFastPeriod, trendSlowPeriod, snap.Trend)
	if snap.SMA200 != nil {
		fmt.Fprintf(&b, "\n- SMA%d: %s", trendLongPeriod, fmtValue(snap.SMA200))
	}
	b.WriteString("\n")
	return b.String()
}

// trendNote classifies the SMA20/SMA50 relation. Without enough bars
// for the slow window the note is "N/A".
func trendNote(closes []float64) string {
	if len(closes) < trendSlowPeriod {
		return "N/A"
	}
	fast := LastDefined(SMA(closes, trendFastPeriod))
	slow := LastDefined(SMA(closes, trendSlowPeriod))
	if fast == nil || slow == nil {
		return "N/A"
	}
	switch {
	case *fast > *slow:
		return "Bullish"
	case *fast < *slow:
		return "Bearish"
	default:
		return "Neutral"
	}
}

func fmtValue(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}
