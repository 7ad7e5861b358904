package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	pkgkafka "SignalFuse/pkg/kafka"
	"SignalFuse/pkg/queue"
)

// PredictionIngestHandler consumes prediction messages from Kafka and
// writes them to the prediction store. External model runners publish
// to the topic instead of calling the HTTP API. When a job queue is
// attached, each stored prediction enqueues a consensus recompute for
// its key.
type PredictionIngestHandler struct {
	topic   string
	store   domrepo.PredictionStore
	jobs    queue.QueueService
	metrics domrepo.Metrics
}

func NewPredictionIngestHandler(topic string, store domrepo.PredictionStore, jobs queue.QueueService, metrics domrepo.Metrics) *PredictionIngestHandler {
	return &PredictionIngestHandler{topic: topic, store: store, jobs: jobs, metrics: metrics}
}

func (h *PredictionIngestHandler) Topic() string { return h.topic }

// incoming message schema matches the HTTP submit payload
func (h *PredictionIngestHandler) Handle(ctx context.Context, b []byte) error {
	var m models.SubmitPredictionRequest
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.Symbol == "" || m.Source == "" {
		h.metrics.RecordError("consumer_invalid")
		return fmt.Errorf("prediction message missing symbol or source")
	}
	m.Timeframe = string(domrepo.NormalizeTimeframe(m.Timeframe))

	start := time.Now()
	err := h.store.Put(ctx, models.PredictionRecord{
		Symbol:            m.Symbol,
		Timeframe:         m.Timeframe,
		Source:            m.Source,
		Label:             models.NormalizeLabel(models.Label(m.Label)),
		Confidence:        m.Confidence,
		TechnicalAnalysis: m.TechnicalAnalysis,
		SentimentAnalysis: m.SentimentAnalysis,
		KeyFactors:        m.KeyFactors,
		Timestamp:         time.Now().UTC(),
	})
	h.metrics.RecordLatency("prediction_store_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordPredictionIngested(m.Source, m.Symbol)

	if h.jobs != nil {
		payload := AggregateJobPayload{Symbol: m.Symbol, Timeframe: m.Timeframe}
		if err := h.jobs.PublishMessage(ctx, AggregateJobType, payload); err != nil {
			// The prediction is stored; the next trigger re-aggregates.
			h.metrics.RecordError("aggregate_enqueue")
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*PredictionIngestHandler)(nil)
