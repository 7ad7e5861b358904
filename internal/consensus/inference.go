package consensus

import (
	"time"

	"SignalFuse/internal/domain/models"
	"SignalFuse/internal/domain/repository"
)

// InferFromOtherTimeframes synthesizes a record for a source that has
// no prediction on the requested timeframe, using the same source's
// records on its other timeframes: majority label with the usual
// tie-break, mean confidence. Returns false when the source has no
// records anywhere, in which case the source simply stays absent.
//
// Inferred records are flagged so downstream consumers can tell them
// apart from direct model output.
func InferFromOtherTimeframes(symbol string, tf repository.Timeframe, source string, others []models.PredictionRecord) (models.PredictionRecord, bool) {
	if len(others) == 0 {
		return models.PredictionRecord{}, false
	}

	votes := map[models.Label]int{}
	var confidenceSum float64
	for _, rec := range others {
		votes[models.NormalizeLabel(rec.Label)]++
		confidenceSum += rec.Confidence
	}

	return models.PredictionRecord{
		Symbol:     symbol,
		Timeframe:  string(tf),
		Source:     source,
		Label:      majorityLabel(votes),
		Confidence: confidenceSum / float64(len(others)),
		KeyFactors: []string{"Inferred from other timeframes"},
		Inferred:   true,
		Timestamp:  time.Now().UTC(),
	}, true
}
