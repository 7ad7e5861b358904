package models

// MACD holds the MACD line, its signal line, and the histogram,
// each aligned to the bar index of the source series.
type MACD struct {
	Line      []float64
	Signal    []float64
	Histogram []float64
}

// Bollinger holds the three Bollinger Bands aligned to the bar index.
type Bollinger struct {
	Upper  []float64
	Middle []float64
	Lower  []float64
}

// IndicatorSet is the output of the indicator calculator for one series.
// Sequences are aligned to the bar index; leading not-yet-defined values
// are NaN. A zero-length sequence means the indicator was not computed
// because the series is shorter than its warm-up window; in that case a
// matching advisory is present. Undefined is never represented as zero.
type IndicatorSet struct {
	RSI        []float64
	MACD       MACD
	VWAP       []float64
	Bollinger  Bollinger
	Advisories []string
}

// IndicatorSnapshot carries the latest defined value per indicator for
// API responses and text rendering. Nil means undefined (rendered "N/A").
type IndicatorSnapshot struct {
	RSI        *float64 `json:"rsi"`
	MACDLine   *float64 `json:"macd_line"`
	MACDSignal *float64 `json:"macd_signal"`
	MACDHist   *float64 `json:"macd_histogram"`
	VWAP       *float64 `json:"vwap"`
	BBUpper    *float64 `json:"bollinger_upper"`
	BBMiddle   *float64 `json:"bollinger_middle"`
	BBLower    *float64 `json:"bollinger_lower"`
	Trend      string   `json:"trend"`
	SMA200     *float64 `json:"sma200,omitempty"`
	Advisories []string `json:"advisories,omitempty"`
}
