package models

import (
	"fmt"
	"time"
)

// Bar represents a single OHLCV record for one symbol and timeframe.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// BarSeries is a time-ordered, gap-tolerant sequence of bars for one
// symbol and timeframe. Timestamps are strictly increasing.
type BarSeries struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
	Bars      []Bar  `json:"bars"`
}

// Empty reports whether the series holds no bars.
func (s BarSeries) Empty() bool { return len(s.Bars) == 0 }

// Len returns the number of bars.
func (s BarSeries) Len() int { return len(s.Bars) }

// LastClose returns the most recent close, or 0 for an empty series.
func (s BarSeries) LastClose() float64 {
	if len(s.Bars) == 0 {
		return 0
	}
	return s.Bars[len(s.Bars)-1].Close
}

// Validate checks series invariants: strictly increasing timestamps,
// non-negative volume, and high/low bracketing open and close.
func (s BarSeries) Validate() error {
	for i, b := range s.Bars {
		if i > 0 && !s.Bars[i-1].Timestamp.Before(b.Timestamp) {
			return fmt.Errorf("bar %d: timestamp %s not after previous %s", i, b.Timestamp, s.Bars[i-1].Timestamp)
		}
		if b.Volume < 0 {
			return fmt.Errorf("bar %d: negative volume %f", i, b.Volume)
		}
		if b.High < b.Open || b.High < b.Close || b.High < b.Low {
			return fmt.Errorf("bar %d: high %f below open/close/low", i, b.High)
		}
		if b.Low > b.Open || b.Low > b.Close {
			return fmt.Errorf("bar %d: low %f above open/close", i, b.Low)
		}
	}
	return nil
}
