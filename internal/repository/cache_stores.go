package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	"SignalFuse/pkg/cache"
	applogger "SignalFuse/pkg/logger"
)

// CachePredictionStore keeps the latest per-source prediction per
// {symbol, timeframe} in the cache service. A sources index key is
// maintained alongside the records so GetForKey can enumerate without
// pattern scans.
type CachePredictionStore struct {
	c   cache.Service
	ttl time.Duration
	l   *applogger.Logger
}

func NewCachePredictionStore(c cache.Service, ttl time.Duration, l *applogger.Logger) *CachePredictionStore {
	return &CachePredictionStore{c: c, ttl: ttl, l: l}
}

func predictionKey(symbol string, tf domrepo.Timeframe, source string) string {
	return cache.GenerateKeyWithParams("prediction", symbol, tf, source)
}

func predictionIndexKey(symbol string, tf domrepo.Timeframe) string {
	return cache.GenerateKeyWithParams("prediction", symbol, tf, "sources")
}

func (s *CachePredictionStore) Put(ctx context.Context, rec models.PredictionRecord) error {
	tf := domrepo.Timeframe(rec.Timeframe)
	if err := s.c.Set(ctx, predictionKey(rec.Symbol, tf, rec.Source), rec, s.ttl); err != nil {
		return fmt.Errorf("store prediction: %w", err)
	}

	var sources []string
	if err := s.c.Get(ctx, predictionIndexKey(rec.Symbol, tf), &sources); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return fmt.Errorf("load sources index: %w", err)
	}
	for _, src := range sources {
		if src == rec.Source {
			return nil
		}
	}
	sources = append(sources, rec.Source)
	if err := s.c.Set(ctx, predictionIndexKey(rec.Symbol, tf), sources, s.ttl); err != nil {
		return fmt.Errorf("update sources index: %w", err)
	}
	if s.l != nil {
		s.l.Debug("prediction stored",
			applogger.String("symbol", rec.Symbol),
			applogger.String("tf", rec.Timeframe),
			applogger.String("source", rec.Source),
		)
	}
	return nil
}

func (s *CachePredictionStore) GetForKey(ctx context.Context, symbol string, tf domrepo.Timeframe) ([]models.PredictionRecord, error) {
	var sources []string
	if err := s.c.Get(ctx, predictionIndexKey(symbol, tf), &sources); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load sources index: %w", err)
	}
	if len(sources) == 0 {
		return nil, nil
	}

	keys := make([]string, len(sources))
	for i, src := range sources {
		keys[i] = predictionKey(symbol, tf, src)
	}
	byKey, err := cache.MGetTyped[models.PredictionRecord](ctx, s.c, keys...)
	if err != nil {
		return nil, fmt.Errorf("load predictions: %w", err)
	}

	out := make([]models.PredictionRecord, 0, len(sources))
	for _, key := range keys {
		if rec, ok := byKey[key]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *CachePredictionStore) GetBySource(ctx context.Context, symbol, source string) (map[domrepo.Timeframe]models.PredictionRecord, error) {
	tfs := domrepo.AllTimeframes()
	out := make(map[domrepo.Timeframe]models.PredictionRecord, len(tfs))
	for _, tf := range tfs {
		var rec models.PredictionRecord
		err := s.c.Get(ctx, predictionKey(symbol, tf, source), &rec)
		if errors.Is(err, cache.ErrCacheMiss) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("load prediction %s/%s/%s: %w", symbol, tf, source, err)
		}
		out[tf] = rec
	}
	return out, nil
}

// CacheConsensusStore persists one consensus record per
// {symbol, timeframe}. Put is a full overwrite of the prior value.
type CacheConsensusStore struct {
	c   cache.Service
	ttl time.Duration
}

func NewCacheConsensusStore(c cache.Service, ttl time.Duration) *CacheConsensusStore {
	return &CacheConsensusStore{c: c, ttl: ttl}
}

func consensusKey(symbol string, tf domrepo.Timeframe) string {
	return cache.GenerateKeyWithParams("consensus", symbol, tf)
}

func (s *CacheConsensusStore) Put(ctx context.Context, rec *models.ConsensusRecord) error {
	if err := s.c.Set(ctx, consensusKey(rec.Symbol, domrepo.Timeframe(rec.Timeframe)), rec, s.ttl); err != nil {
		return fmt.Errorf("store consensus: %w", err)
	}
	return nil
}

func (s *CacheConsensusStore) Get(ctx context.Context, symbol string, tf domrepo.Timeframe) (*models.ConsensusRecord, error) {
	var rec models.ConsensusRecord
	if err := s.c.Get(ctx, consensusKey(symbol, tf), &rec); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, nil
		}
		return nil, fmt.Errorf("load consensus: %w", err)
	}
	return &rec, nil
}
