package usecase

import (
	"context"
	"errors"

	"SignalFuse/internal/consensus"
	"SignalFuse/internal/domain/models"
	applogger "SignalFuse/pkg/logger"
	"SignalFuse/pkg/queue"
)

// AggregateJobType is the queue message type for consensus recomputes.
const AggregateJobType = "consensus.aggregate"

// AggregateJobPayload identifies the key to re-aggregate.
type AggregateJobPayload struct {
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

// AggregateJob recomputes consensus for a key off the request path.
// Prediction ingest enqueues one of these per write so the stored
// consensus tracks new predictions without a caller triggering it.
type AggregateJob struct {
	aggregate *AggregateUseCase
	infer     bool
	l         *applogger.Logger
}

func NewAggregateJob(aggregate *AggregateUseCase, infer bool, l *applogger.Logger) *AggregateJob {
	return &AggregateJob{aggregate: aggregate, infer: infer, l: l}
}

func (j *AggregateJob) Name() string { return "consensus-aggregate" }
func (j *AggregateJob) Type() string { return AggregateJobType }

func (j *AggregateJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[AggregateJobPayload](payload)
	if err != nil {
		return err
	}

	_, err = j.aggregate.Aggregate(ctx, models.AggregateRequest{
		Symbol: p.Symbol,
		TF:     p.Timeframe,
		Infer:  j.infer,
	})
	switch {
	case errors.Is(err, consensus.ErrNoPredictions):
		// Nothing to fuse yet for this key, not a failure.
		return nil
	case errors.Is(err, ErrAggregateBusy):
		// Another run holds the lock; let the queue retry later.
		return err
	}
	return err
}

var _ queue.Job = (*AggregateJob)(nil)
