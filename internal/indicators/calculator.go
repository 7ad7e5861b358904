package indicators

import (
	"fmt"
	"math"
	"strings"

	"SignalFuse/internal/domain/models"
)

// Warm-up windows per indicator.
const (
	RSIPeriod        = 14
	MACDFastSpan     = 12
	MACDSlowSpan     = 26
	MACDSignalSpan   = 9
	BollingerPeriod  = 20
	BollingerStdDevs = 2.0

	// Below this many bars an advisory about reliability is attached.
	recommendedBars = 30
)

// MissingColumnsError reports required bar fields absent from the input.
// It is fatal for the call; warm-up shortfalls are not errors.
type MissingColumnsError struct {
	Fields []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("indicators: missing required columns: %s", strings.Join(e.Fields, ", "))
}

// Frame is the explicit per-field numeric view of a bar series. Every
// column is a plain []float64; a nil column means the field was absent
// from the input. This replaces any ambient column-shape ambiguity with
// one concrete type per field.
type Frame struct {
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// FrameFromSeries builds a Frame from a bar series. All columns are
// populated; the Frame path exists so callers assembling frames from
// partial external payloads get an explicit MissingColumns failure.
func FrameFromSeries(s models.BarSeries) Frame {
	n := len(s.Bars)
	f := Frame{
		Open:   make([]float64, n),
		High:   make([]float64, n),
		Low:    make([]float64, n),
		Close:  make([]float64, n),
		Volume: make([]float64, n),
	}
	for i, b := range s.Bars {
		f.Open[i] = b.Open
		f.High[i] = b.High
		f.Low[i] = b.Low
		f.Close[i] = b.Close
		f.Volume[i] = b.Volume
	}
	return f
}

// Len returns the row count of the frame.
func (f Frame) Len() int { return len(f.Close) }

func (f Frame) missing() []string {
	var absent []string
	if f.Open == nil {
		absent = append(absent, "open")
	}
	if f.High == nil {
		absent = append(absent, "high")
	}
	if f.Low == nil {
		absent = append(absent, "low")
	}
	if f.Close == nil {
		absent = append(absent, "close")
	}
	if f.Volume == nil {
		absent = append(absent, "volume")
	}
	return absent
}

// Calculator computes technical indicators over bar frames. It is a
// pure transform: no I/O, deterministic for a given input.
type Calculator struct{}

// NewCalculator creates an indicator calculator.
func NewCalculator() *Calculator { return &Calculator{} }

// Compute derives the full indicator set for the frame. A missing
// column is a fatal MissingColumnsError. A series shorter than an
// indicator's warm-up window yields an empty sequence for that
// indicator plus an advisory; it is never an error and never zero.
func (c *Calculator) Compute(f Frame) (models.IndicatorSet, error) {
	if absent := f.missing(); len(absent) > 0 {
		return models.IndicatorSet{}, &MissingColumnsError{Fields: absent}
	}

	n := f.Len()
	var set models.IndicatorSet

	if n < recommendedBars {
		set.Advisories = append(set.Advisories,
			fmt.Sprintf("limited data: %d bars available, at least %d recommended for reliable indicators", n, recommendedBars))
	}

	if n >= RSIPeriod {
		set.RSI = RSI(f.Close, RSIPeriod)
	} else {
		set.Advisories = append(set.Advisories,
			fmt.Sprintf("rsi not computed: %d bars available, minimum %d required", n, RSIPeriod))
	}

	if n >= MACDSlowSpan {
		line, signal, hist := MACDSeries(f.Close, MACDFastSpan, MACDSlowSpan, MACDSignalSpan)
		set.MACD = models.MACD{Line: line, Signal: signal, Histogram: hist}
	} else {
		set.Advisories = append(set.Advisories,
			fmt.Sprintf("macd not computed: %d bars available, minimum %d required", n, MACDSlowSpan))
	}

	if n >= 1 {
		set.VWAP = VWAP(f.High, f.Low, f.Close, f.Volume)
	}

	if n >= BollingerPeriod {
		upper, middle, lower := BollingerBands(f.Close, BollingerPeriod, BollingerStdDevs)
		set.Bollinger = models.Bollinger{Upper: upper, Middle: middle, Lower: lower}
	} else {
		set.Advisories = append(set.Advisories,
			fmt.Sprintf("bollinger bands not computed: %d bars available, minimum %d required", n, BollingerPeriod))
	}

	return set, nil
}

// RSI computes the Relative Strength Index over close prices using a
// rolling simple mean of gains and losses. Values before index
// `period` are NaN: the first delta lands at index 1, so a full window
// of deltas is first available at bar `period`. A flat window (no
// gains, no losses) is defined as 50; a window with gains and no
// losses is 100.
func RSI(closes []float64, period int) []float64 {
	n := len(closes)
	out := nanSlice(n)
	if n <= period {
		// Aligned NaN-only output; callers gate on length before calling.
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)
	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var sumGain, sumLoss float64
	for i := 1; i < n; i++ {
		sumGain += gains[i]
		sumLoss += losses[i]
		if i < period {
			continue
		}
		if i > period {
			sumGain -= gains[i-period]
			sumLoss -= losses[i-period]
		}
		avgGain := sumGain / float64(period)
		avgLoss := sumLoss / float64(period)
		switch {
		case avgGain == 0 && avgLoss == 0:
			out[i] = 50
		case avgLoss == 0:
			out[i] = 100
		default:
			rs := avgGain / avgLoss
			out[i] = 100 - 100/(1+rs)
		}
	}
	return out
}

// EMA computes an exponential moving average with alpha = 2/(span+1),
// seeded at the first value.
func EMA(xs []float64, span int) []float64 {
	n := len(xs)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	alpha := 2.0 / (float64(span) + 1.0)
	out[0] = xs[0]
	for i := 1; i < n; i++ {
		out[i] = alpha*xs[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACDSeries computes the MACD line, signal line, and histogram.
func MACDSeries(closes []float64, fast, slow, signal int) (line, sig, hist []float64) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)
	n := len(closes)
	line = make([]float64, n)
	for i := 0; i < n; i++ {
		line[i] = emaFast[i] - emaSlow[i]
	}
	sig = EMA(line, signal)
	hist = make([]float64, n)
	for i := 0; i < n; i++ {
		hist[i] = line[i] - sig[i]
	}
	return line, sig, hist
}

// VWAP computes the cumulative volume-weighted average price from the
// first bar. Where cumulative volume is zero the value is NaN, never a
// division by zero.
func VWAP(highs, lows, closes, volumes []float64) []float64 {
	n := len(closes)
	out := nanSlice(n)
	var cumPV, cumV float64
	for i := 0; i < n; i++ {
		typical := (highs[i] + lows[i] + closes[i]) / 3
		cumPV += typical * volumes[i]
		cumV += volumes[i]
		if cumV > 0 {
			out[i] = cumPV / cumV
		}
	}
	return out
}

// SMA computes a rolling simple moving average; values before a full
// window are NaN.
func SMA(xs []float64, period int) []float64 {
	n := len(xs)
	out := nanSlice(n)
	if period <= 0 || n < period {
		return out
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += xs[i]
		if i >= period {
			sum -= xs[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// BollingerBands computes middle = SMA(period) and upper/lower bands at
// k rolling sample standard deviations. Sample stddev (n-1 divisor)
// matches the reference behavior.
func BollingerBands(closes []float64, period int, k float64) (upper, middle, lower []float64) {
	n := len(closes)
	middle = SMA(closes, period)
	upper = nanSlice(n)
	lower = nanSlice(n)
	if n < period || period < 2 {
		return upper, middle, lower
	}
	for i := period - 1; i < n; i++ {
		mean := middle[i]
		var ss float64
		for j := i - period + 1; j <= i; j++ {
			d := closes[j] - mean
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(period-1))
		upper[i] = mean + k*sd
		lower[i] = mean - k*sd
	}
	return upper, middle, lower
}

// LastDefined returns the last non-NaN value, or nil if none exists.
func LastDefined(xs []float64) *float64 {
	for i := len(xs) - 1; i >= 0; i-- {
		if !math.IsNaN(xs[i]) {
			v := xs[i]
			return &v
		}
	}
	return nil
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
