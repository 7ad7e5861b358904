package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
)

type fakeMetrics struct{}

func (fakeMetrics) RecordPredictionIngested(string, string)          {}
func (fakeMetrics) RecordConsensusPublished(string, string)          {}
func (fakeMetrics) RecordConsensusConfidence(string, string, float64) {}
func (fakeMetrics) RecordError(string)                               {}
func (fakeMetrics) RecordLatency(string, float64)                    {}

type fakeBarStore struct {
	series models.BarSeries
	err    error
}

func (s *fakeBarStore) GetSeries(_ context.Context, symbol string, n int, tf domrepo.Timeframe) (models.BarSeries, error) {
	if s.err != nil {
		return models.BarSeries{}, s.err
	}
	out := s.series
	out.Symbol = symbol
	out.Timeframe = string(tf)
	if n < len(out.Bars) {
		out.Bars = out.Bars[len(out.Bars)-n:]
	}
	return out, nil
}

func (s *fakeBarStore) GetSeriesRange(ctx context.Context, symbol string, _, _ time.Time, tf domrepo.Timeframe) (models.BarSeries, error) {
	return s.GetSeries(ctx, symbol, len(s.series.Bars), tf)
}

type predKey struct {
	symbol string
	tf     domrepo.Timeframe
	source string
}

type fakePredictionStore struct {
	mu   sync.Mutex
	data map[predKey]models.PredictionRecord
	err  error
}

func newFakePredictionStore() *fakePredictionStore {
	return &fakePredictionStore{data: map[predKey]models.PredictionRecord{}}
}

func (s *fakePredictionStore) Put(_ context.Context, rec models.PredictionRecord) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[predKey{rec.Symbol, domrepo.Timeframe(rec.Timeframe), rec.Source}] = rec
	return nil
}

func (s *fakePredictionStore) GetForKey(_ context.Context, symbol string, tf domrepo.Timeframe) ([]models.PredictionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PredictionRecord
	for k, rec := range s.data {
		if k.symbol == symbol && k.tf == tf {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *fakePredictionStore) GetBySource(_ context.Context, symbol, source string) (map[domrepo.Timeframe]models.PredictionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[domrepo.Timeframe]models.PredictionRecord{}
	for k, rec := range s.data {
		if k.symbol == symbol && k.source == source {
			out[k.tf] = rec
		}
	}
	return out, nil
}

type fakeConsensusStore struct {
	mu   sync.Mutex
	data map[string]*models.ConsensusRecord
	err  error
}

func newFakeConsensusStore() *fakeConsensusStore {
	return &fakeConsensusStore{data: map[string]*models.ConsensusRecord{}}
}

func (s *fakeConsensusStore) key(symbol string, tf domrepo.Timeframe) string {
	return fmt.Sprintf("%s:%s", symbol, tf)
}

func (s *fakeConsensusStore) Put(_ context.Context, rec *models.ConsensusRecord) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(rec.Symbol, domrepo.Timeframe(rec.Timeframe))] = rec
	return nil
}

func (s *fakeConsensusStore) Get(_ context.Context, symbol string, tf domrepo.Timeframe) (*models.ConsensusRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[s.key(symbol, tf)], nil
}

type fakePublisher struct {
	mu        sync.Mutex
	published []*models.ConsensusRecord
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, rec *models.ConsensusRecord) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, rec)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeHistory struct {
	mu       sync.Mutex
	archived []*models.ConsensusRecord
	batches  [][]*models.ConsensusRecord
	err      error
}

func (h *fakeHistory) Archive(_ context.Context, rec *models.ConsensusRecord) error {
	if h.err != nil {
		return h.err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.archived = append(h.archived, rec)
	return nil
}

func (h *fakeHistory) ArchiveBatch(_ context.Context, recs []*models.ConsensusRecord) error {
	if h.err != nil {
		return h.err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.batches = append(h.batches, recs)
	h.archived = append(h.archived, recs...)
	return nil
}

func (h *fakeHistory) Query(context.Context, string, domrepo.Timeframe, time.Time, time.Time, int) ([]models.ConsensusRecord, error) {
	return nil, nil
}

func (h *fakeHistory) Health(context.Context) error { return h.err }

type fakePredictor struct {
	name string
	rec  models.PredictionRecord
	err  error
}

func (p *fakePredictor) Name() string { return p.name }

func (p *fakePredictor) Predict(_ context.Context, symbol string, tf domrepo.Timeframe, _ string) (models.PredictionRecord, error) {
	if p.err != nil {
		return models.PredictionRecord{}, p.err
	}
	rec := p.rec
	rec.Symbol = symbol
	rec.Timeframe = string(tf)
	rec.Source = p.name
	return rec, nil
}

func barSeries(n int) models.BarSeries {
	ts := time.Date(2025, 3, 3, 14, 30, 0, 0, time.UTC)
	bars := make([]models.Bar, n)
	for i := range bars {
		price := 100 + float64(i)*0.5
		bars[i] = models.Bar{
			Timestamp: ts.Add(time.Duration(i) * 5 * time.Minute),
			Open:      price,
			High:      price + 1,
			Low:       price - 1,
			Close:     price + 0.25,
			Volume:    1000,
		}
	}
	return models.BarSeries{Symbol: "NQ", Timeframe: "intraday", Bars: bars}
}
