package repository

import (
	"context"
	"time"

	"SignalFuse/internal/domain/models"
)

// BarStore provides read access to OHLCV bars for analysis.
type BarStore interface {
	GetSeries(ctx context.Context, symbol string, n int, tf Timeframe) (models.BarSeries, error)
	GetSeriesRange(ctx context.Context, symbol string, from, to time.Time, tf Timeframe) (models.BarSeries, error)
}

// PredictionStore holds per-source prediction records keyed by
// {symbol, timeframe, source}. Put overwrites the existing record
// for the same key.
type PredictionStore interface {
	Put(ctx context.Context, rec models.PredictionRecord) error
	GetForKey(ctx context.Context, symbol string, tf Timeframe) ([]models.PredictionRecord, error)
	GetBySource(ctx context.Context, symbol, source string) (map[Timeframe]models.PredictionRecord, error)
}

// ConsensusStore persists the aggregate record keyed by
// {symbol, timeframe}. Put fully overwrites any prior record for the
// same key; there is no versioning.
type ConsensusStore interface {
	Put(ctx context.Context, rec *models.ConsensusRecord) error
	Get(ctx context.Context, symbol string, tf Timeframe) (*models.ConsensusRecord, error)
}

// ConsensusPublisher hands finished consensus records to downstream
// reporting/visualization consumers.
type ConsensusPublisher interface {
	Publish(ctx context.Context, rec *models.ConsensusRecord) error
	Close() error
}

// HistoryStore appends published consensus records to an archive for
// later analysis. It never serves the live keyed lookup path.
type HistoryStore interface {
	Archive(ctx context.Context, rec *models.ConsensusRecord) error
	ArchiveBatch(ctx context.Context, recs []*models.ConsensusRecord) error
	Query(ctx context.Context, symbol string, tf Timeframe, from, to time.Time, limit int) ([]models.ConsensusRecord, error)
	Health(ctx context.Context) error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordPredictionIngested(source, symbol string)
	RecordConsensusPublished(symbol, timeframe string)
	RecordConsensusConfidence(symbol, timeframe string, confidence float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
