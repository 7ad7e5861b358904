package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"SignalFuse/internal/consensus"
	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	"SignalFuse/pkg/cache"
	applogger "SignalFuse/pkg/logger"
)

// ErrAggregateBusy is returned when another aggregation for the same
// {symbol, timeframe} holds the lock.
var ErrAggregateBusy = errors.New("aggregate: another run in progress for this key")

// AggregateUseCase runs the consensus pipeline for one key: load the
// per-source predictions, optionally infer records for sources missing
// the timeframe, aggregate, overwrite the stored consensus, publish.
// Runs for the same key are serialized with a cache lock so concurrent
// triggers cannot interleave their read-aggregate-write cycles.
type AggregateUseCase struct {
	engine      *consensus.Engine
	predictions domrepo.PredictionStore
	store       domrepo.ConsensusStore
	publisher   domrepo.ConsensusPublisher
	history     domrepo.HistoryStore
	locks       cache.Service
	metrics     domrepo.Metrics
	l           *applogger.Logger
	sources     []string
	lockTTL     time.Duration

	mu              sync.Mutex
	pendingArchives []*models.ConsensusRecord
}

// maxPendingArchives bounds the retry buffer for failed archives;
// oldest records are dropped first when the warehouse stays down.
const maxPendingArchives = 256

func NewAggregateUseCase(
	engine *consensus.Engine,
	predictions domrepo.PredictionStore,
	store domrepo.ConsensusStore,
	publisher domrepo.ConsensusPublisher,
	history domrepo.HistoryStore,
	locks cache.Service,
	metrics domrepo.Metrics,
	l *applogger.Logger,
	sources []string,
) *AggregateUseCase {
	return &AggregateUseCase{
		engine:      engine,
		predictions: predictions,
		store:       store,
		publisher:   publisher,
		history:     history,
		locks:       locks,
		metrics:     metrics,
		l:           l,
		sources:     sources,
		lockTTL:     30 * time.Second,
	}
}

func aggregateLockKey(symbol string, tf domrepo.Timeframe) string {
	return fmt.Sprintf("lock:aggregate:%s:%s", symbol, tf)
}

func (uc *AggregateUseCase) Aggregate(ctx context.Context, p models.AggregateRequest) (*models.ConsensusRecord, error) {
	tf := domrepo.Timeframe(p.TF)
	lockKey := aggregateLockKey(p.Symbol, tf)
	ok, err := uc.locks.TryLock(ctx, lockKey, uc.lockTTL)
	if err != nil {
		uc.metrics.RecordError("aggregate_lock")
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, ErrAggregateBusy
	}
	defer func() {
		if err := uc.locks.Unlock(context.WithoutCancel(ctx), lockKey); err != nil && uc.l != nil {
			uc.l.Warn("aggregate unlock failed",
				applogger.String("key", lockKey),
				applogger.Error(err),
			)
		}
	}()

	start := time.Now()
	records, err := uc.predictions.GetForKey(ctx, p.Symbol, tf)
	if err != nil {
		uc.metrics.RecordError("predictions_load")
		return nil, fmt.Errorf("load predictions: %w", err)
	}

	if p.Infer {
		records = uc.inferMissing(ctx, p.Symbol, tf, records)
	}

	rec, err := uc.engine.Aggregate(p.Symbol, tf, records)
	if err != nil {
		// No predictions is a valid empty state: nothing is written
		// and nothing is published.
		return nil, err
	}

	if err := uc.store.Put(ctx, rec); err != nil {
		uc.metrics.RecordError("consensus_store")
		return nil, fmt.Errorf("store consensus: %w", err)
	}
	if err := uc.publisher.Publish(ctx, rec); err != nil {
		uc.metrics.RecordError("consensus_publish")
		return nil, fmt.Errorf("publish consensus: %w", err)
	}
	if uc.history != nil {
		// Archive failures are logged, not surfaced: the live keyed
		// record is already committed. Failed records are buffered and
		// backfilled in a batch on the next run.
		uc.archive(ctx, rec)
	}

	uc.metrics.RecordConsensusPublished(p.Symbol, p.TF)
	uc.metrics.RecordConsensusConfidence(p.Symbol, p.TF, rec.Confidence)
	uc.metrics.RecordLatency("aggregate_seconds", time.Since(start).Seconds())
	if uc.l != nil {
		uc.l.Info("consensus aggregated",
			applogger.String("symbol", p.Symbol),
			applogger.String("tf", p.TF),
			applogger.String("label", string(rec.Label)),
			applogger.Float64("confidence", rec.Confidence),
			applogger.Int("sources", len(rec.Sources)),
		)
	}
	return rec, nil
}

func (uc *AggregateUseCase) archive(ctx context.Context, rec *models.ConsensusRecord) {
	uc.flushPendingArchives(ctx)
	if err := uc.history.Archive(ctx, rec); err != nil {
		uc.metrics.RecordError("consensus_archive")
		uc.bufferArchive(rec)
		if uc.l != nil {
			uc.l.Warn("consensus archive failed, buffered for retry",
				applogger.String("symbol", rec.Symbol),
				applogger.String("tf", rec.Timeframe),
				applogger.Error(err),
			)
		}
	}
}

// flushPendingArchives backfills records whose archive failed earlier.
func (uc *AggregateUseCase) flushPendingArchives(ctx context.Context) {
	uc.mu.Lock()
	pending := uc.pendingArchives
	uc.pendingArchives = nil
	uc.mu.Unlock()
	if len(pending) == 0 {
		return
	}

	if err := uc.history.ArchiveBatch(ctx, pending); err != nil {
		uc.metrics.RecordError("consensus_archive_batch")
		uc.mu.Lock()
		uc.pendingArchives = append(pending, uc.pendingArchives...)
		if n := len(uc.pendingArchives) - maxPendingArchives; n > 0 {
			uc.pendingArchives = uc.pendingArchives[n:]
		}
		uc.mu.Unlock()
		if uc.l != nil {
			uc.l.Warn("archive backfill failed",
				applogger.Int("pending", len(pending)),
				applogger.Error(err),
			)
		}
	}
}

func (uc *AggregateUseCase) bufferArchive(rec *models.ConsensusRecord) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.pendingArchives = append(uc.pendingArchives, rec)
	if n := len(uc.pendingArchives) - maxPendingArchives; n > 0 {
		uc.pendingArchives = uc.pendingArchives[n:]
	}
}

// Health reports whether the consensus archive is reachable. Without a
// configured archive there is nothing to probe.
func (uc *AggregateUseCase) Health(ctx context.Context) error {
	if uc.history == nil {
		return nil
	}
	return uc.history.Health(ctx)
}

// Consensus returns the stored record for the key, or nil when no
// aggregation has produced one yet.
func (uc *AggregateUseCase) Consensus(ctx context.Context, p models.ConsensusRequest) (*models.ConsensusRecord, error) {
	return uc.store.Get(ctx, p.Symbol, domrepo.Timeframe(p.TF))
}

// History returns archived consensus records for the key, newest first.
func (uc *AggregateUseCase) History(ctx context.Context, symbol string, tf domrepo.Timeframe, from, to time.Time, limit int) ([]models.ConsensusRecord, error) {
	if uc.history == nil {
		return nil, nil
	}
	return uc.history.Query(ctx, symbol, tf, from, to, limit)
}

// inferMissing fills in records for configured sources that have no
// prediction on the requested timeframe, using each source's own
// records on the other timeframes. Sources with no records anywhere
// stay absent.
func (uc *AggregateUseCase) inferMissing(ctx context.Context, symbol string, tf domrepo.Timeframe, records []models.PredictionRecord) []models.PredictionRecord {
	present := make(map[string]bool, len(records))
	for _, rec := range records {
		present[rec.Source] = true
	}

	for _, source := range uc.sources {
		if present[source] {
			continue
		}
		byTF, err := uc.predictions.GetBySource(ctx, symbol, source)
		if err != nil {
			uc.metrics.RecordError("inference_load")
			if uc.l != nil {
				uc.l.Warn("inference lookup failed",
					applogger.String("symbol", symbol),
					applogger.String("source", source),
					applogger.Error(err),
				)
			}
			continue
		}
		others := make([]models.PredictionRecord, 0, len(byTF))
		for otherTF, rec := range byTF {
			if otherTF == tf {
				continue
			}
			others = append(others, rec)
		}
		if inferred, ok := consensus.InferFromOtherTimeframes(symbol, tf, source, others); ok {
			records = append(records, inferred)
			if uc.l != nil {
				uc.l.Debug("prediction inferred",
					applogger.String("symbol", symbol),
					applogger.String("tf", string(tf)),
					applogger.String("source", source),
					applogger.String("label", string(inferred.Label)),
				)
			}
		}
	}
	return records
}
