package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictionsIngested *prometheus.CounterVec
	consensusPublished  *prometheus.CounterVec
	consensusConfidence *prometheus.GaugeVec
	errorsTotal         *prometheus.CounterVec
	latency             *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictionsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfuse_predictions_ingested_total",
				Help: "Total number of prediction records ingested",
			},
			[]string{"source", "symbol"},
		),
		consensusPublished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfuse_consensus_published_total",
				Help: "Total number of consensus records published",
			},
			[]string{"symbol", "timeframe"},
		),
		consensusConfidence: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "signalfuse_consensus_confidence",
				Help: "Confidence of the latest consensus for a key",
			},
			[]string{"symbol", "timeframe"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "signalfuse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "signalfuse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPredictionIngested records one stored prediction.
func (r *Recorder) RecordPredictionIngested(source, symbol string) {
	r.predictionsIngested.WithLabelValues(source, symbol).Inc()
}

// RecordConsensusPublished records one published consensus.
func (r *Recorder) RecordConsensusPublished(symbol, timeframe string) {
	r.consensusPublished.WithLabelValues(symbol, timeframe).Inc()
}

// RecordConsensusConfidence records the latest consensus confidence.
func (r *Recorder) RecordConsensusConfidence(symbol, timeframe string, confidence float64) {
	r.consensusConfidence.WithLabelValues(symbol, timeframe).Set(confidence)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
