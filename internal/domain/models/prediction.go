package models

import "time"

// Label is a directional prediction signal.
type Label string

const (
	LabelBuy  Label = "Buy"
	LabelSell Label = "Sell"
	LabelHold Label = "Hold"
)

// IsValid reports whether l is a known label.
func (l Label) IsValid() bool {
	switch l {
	case LabelBuy, LabelSell, LabelHold:
		return true
	default:
		return false
	}
}

// NormalizeLabel folds an unknown label to Hold.
func NormalizeLabel(l Label) Label {
	if l.IsValid() {
		return l
	}
	return LabelHold
}

// Labels lists all labels in the fixed tally order. The order is also
// the deterministic tie-break order used by the consensus engine.
func Labels() []Label { return []Label{LabelBuy, LabelSell, LabelHold} }

// PredictionRecord is one model's directional call for a symbol and
// timeframe. Rationale fields are produced by external predictors and
// pass through aggregation verbatim. Inferred marks records synthesized
// by the missing-timeframe fallback rather than observed directly.
type PredictionRecord struct {
	Symbol            string    `json:"symbol"`
	Timeframe         string    `json:"timeframe"`
	Source            string    `json:"source"`
	Label             Label     `json:"prediction_label"`
	Confidence        float64   `json:"signal_strength"`
	TechnicalAnalysis string    `json:"technical_analysis,omitempty"`
	SentimentAnalysis string    `json:"sentiment_analysis,omitempty"`
	KeyFactors        []string  `json:"key_factors,omitempty"`
	Inferred          bool      `json:"inferred,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// ConsensusRecord is the aggregate of all available per-source
// predictions for one {symbol, timeframe}. It is rebuilt from scratch
// on every aggregation and fully overwrites the previous record for
// the same key.
type ConsensusRecord struct {
	Symbol     string                      `json:"symbol"`
	Timeframe  string                      `json:"timeframe"`
	Label      Label                       `json:"prediction_label"`
	Confidence float64                     `json:"signal_strength"`
	Votes      map[Label]int               `json:"signal_counts"`
	Sources    map[string]PredictionRecord `json:"source_predictions"`
	Timestamp  time.Time                   `json:"timestamp"`
}
