package repository

// Timeframe represents prediction/analysis horizons.
type Timeframe string

const (
	TFIntraday Timeframe = "intraday"
	TF5D       Timeframe = "5d"
	TF30D      Timeframe = "30d"
)

// AllTimeframes lists supported timeframes in canonical order.
func AllTimeframes() []Timeframe {
	return []Timeframe{TFIntraday, TF5D, TF30D}
}

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TFIntraday, TF5D, TF30D:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TFIntraday }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}
