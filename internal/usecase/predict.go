package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	domsvc "SignalFuse/internal/domain/service"
	applogger "SignalFuse/pkg/logger"
)

// PredictUseCase fans a rendered analysis context out to the configured
// predictors and stores whatever they return. A failing predictor is
// reported in the result, never fatal for the run.
type PredictUseCase struct {
	analysis   *AnalysisUseCase
	predictors []domsvc.Predictor
	store      domrepo.PredictionStore
	metrics    domrepo.Metrics
	l          *applogger.Logger
	timeout    time.Duration
	contextN   int
}

func NewPredictUseCase(
	analysis *AnalysisUseCase,
	predictors []domsvc.Predictor,
	store domrepo.PredictionStore,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *PredictUseCase {
	return &PredictUseCase{
		analysis:   analysis,
		predictors: predictors,
		store:      store,
		metrics:    metrics,
		l:          l,
		timeout:    60 * time.Second,
		contextN:   300,
	}
}

// RunResult reports per-source outcomes for one predictor run.
type RunResult struct {
	Symbol    string                             `json:"symbol"`
	Timeframe string                             `json:"timeframe"`
	Stored    map[string]models.PredictionRecord `json:"stored"`
	Errors    map[string]string                  `json:"errors,omitempty"`
	Timestamp time.Time                          `json:"timestamp"`
}

func (uc *PredictUseCase) RunAll(ctx context.Context, p models.RunPredictorsRequest) (*RunResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	tf := domrepo.Timeframe(p.TF)
	analysisCtx, err := uc.analysis.AnalysisContext(ctx, p.Symbol, uc.contextN, tf)
	if err != nil {
		return nil, fmt.Errorf("render context: %w", err)
	}

	res := &RunResult{
		Symbol:    p.Symbol,
		Timeframe: p.TF,
		Stored:    map[string]models.PredictionRecord{},
		Errors:    map[string]string{},
		Timestamp: time.Now().UTC(),
	}

	type item struct {
		name string
		rec  models.PredictionRecord
		err  error
	}
	ch := make(chan item, len(uc.predictors))
	var wg sync.WaitGroup

	for _, pred := range uc.predictors {
		wg.Add(1)
		go func(pred domsvc.Predictor) {
			defer wg.Done()
			rec, err := pred.Predict(ctx, p.Symbol, tf, analysisCtx)
			ch <- item{pred.Name(), rec, err}
		}(pred)
	}
	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			uc.metrics.RecordError("predictor_" + it.name)
			res.Errors[it.name] = it.err.Error()
			continue
		}
		if err := uc.store.Put(ctx, it.rec); err != nil {
			uc.metrics.RecordError("prediction_store")
			res.Errors[it.name] = err.Error()
			continue
		}
		uc.metrics.RecordPredictionIngested(it.name, p.Symbol)
		res.Stored[it.name] = it.rec
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	if uc.l != nil {
		uc.l.Info("predictor run finished",
			applogger.String("symbol", p.Symbol),
			applogger.String("tf", p.TF),
			applogger.Int("stored", len(res.Stored)),
			applogger.Int("failed", len(res.Errors)),
		)
	}
	return res, nil
}

// Submit stores one externally pushed prediction.
func (uc *PredictUseCase) Submit(ctx context.Context, p models.SubmitPredictionRequest) (*models.PredictionRecord, error) {
	rec := models.PredictionRecord{
		Symbol:            p.Symbol,
		Timeframe:         p.Timeframe,
		Source:            p.Source,
		Label:             models.Label(p.Label),
		Confidence:        p.Confidence,
		TechnicalAnalysis: p.TechnicalAnalysis,
		SentimentAnalysis: p.SentimentAnalysis,
		KeyFactors:        p.KeyFactors,
		Timestamp:         time.Now().UTC(),
	}
	if err := uc.store.Put(ctx, rec); err != nil {
		uc.metrics.RecordError("prediction_store")
		return nil, fmt.Errorf("store prediction: %w", err)
	}
	uc.metrics.RecordPredictionIngested(p.Source, p.Symbol)
	return &rec, nil
}
