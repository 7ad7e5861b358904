package consensus

import (
	"errors"
	"time"

	"SignalFuse/internal/domain/models"
	"SignalFuse/internal/domain/repository"
)

// ErrNoPredictions is returned when no source produced a record for the
// requested {symbol, timeframe}. The caller must not publish a
// consensus in that case.
var ErrNoPredictions = errors.New("consensus: no predictions available")

// Engine merges per-source prediction records into one consensus record
// per {symbol, timeframe}. It is a pure single-shot aggregation: every
// call builds a fresh record, and persistence (overwrite per key) is
// the caller's concern.
type Engine struct{}

// NewEngine creates a consensus engine.
func NewEngine() *Engine { return &Engine{} }

// Aggregate tallies directional votes and averages confidence across
// the available records. The majority label wins; on a tie Hold is
// preferred when it is among the tied labels, otherwise the first tied
// label in the fixed Buy, Sell, Hold order wins. Sources without a
// record are excluded from the confidence mean, not counted as zero.
func (e *Engine) Aggregate(symbol string, tf repository.Timeframe, records []models.PredictionRecord) (*models.ConsensusRecord, error) {
	if len(records) == 0 {
		return nil, ErrNoPredictions
	}

	votes := map[models.Label]int{
		models.LabelBuy:  0,
		models.LabelSell: 0,
		models.LabelHold: 0,
	}
	sources := make(map[string]models.PredictionRecord, len(records))
	var confidenceSum float64
	for _, rec := range records {
		votes[models.NormalizeLabel(rec.Label)]++
		confidenceSum += rec.Confidence
		sources[rec.Source] = rec
	}

	return &models.ConsensusRecord{
		Symbol:     symbol,
		Timeframe:  string(tf),
		Label:      majorityLabel(votes),
		Confidence: confidenceSum / float64(len(records)),
		Votes:      votes,
		Sources:    sources,
		Timestamp:  time.Now().UTC(),
	}, nil
}

// majorityLabel picks the label with the highest vote count. Ties
// prefer Hold; failing that the fixed models.Labels order decides, so
// the result is stable across runs.
func majorityLabel(votes map[models.Label]int) models.Label {
	max := 0
	for _, l := range models.Labels() {
		if votes[l] > max {
			max = votes[l]
		}
	}

	var tied []models.Label
	for _, l := range models.Labels() {
		if votes[l] == max {
			tied = append(tied, l)
		}
	}
	if len(tied) == 1 {
		return tied[0]
	}
	for _, l := range tied {
		if l == models.LabelHold {
			return models.LabelHold
		}
	}
	return tied[0]
}
