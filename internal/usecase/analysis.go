package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	"SignalFuse/internal/indicators"
	"SignalFuse/internal/profile"
	applogger "SignalFuse/pkg/logger"
)

// AnalysisUseCase serves indicator and volume-profile reads over the
// bar store. All computation is pure; the store is the only I/O.
type AnalysisUseCase struct {
	store   domrepo.BarStore
	calc    *indicators.Calculator
	metrics domrepo.Metrics
	l       *applogger.Logger
	timeout time.Duration
}

func NewAnalysisUseCase(store domrepo.BarStore, metrics domrepo.Metrics, l *applogger.Logger) *AnalysisUseCase {
	return &AnalysisUseCase{
		store:   store,
		calc:    indicators.NewCalculator(),
		metrics: metrics,
		l:       l,
		timeout: 10 * time.Second,
	}
}

// IndicatorsResult pairs the latest snapshot with the full series for
// callers that want history, not just the last value.
type IndicatorsResult struct {
	Symbol    string                  `json:"symbol"`
	Timeframe string                  `json:"timeframe"`
	Bars      int                     `json:"bars"`
	Snapshot  models.IndicatorSnapshot `json:"snapshot"`
	Timestamp time.Time               `json:"timestamp"`
}

func (uc *AnalysisUseCase) Indicators(ctx context.Context, p models.IndicatorsRequest) (*IndicatorsResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	series, err := uc.store.GetSeries(ctx, p.Symbol, p.N, domrepo.Timeframe(p.TF))
	if err != nil {
		uc.metrics.RecordError("bars_load")
		return nil, fmt.Errorf("load bars: %w", err)
	}

	frame := indicators.FrameFromSeries(series)
	set, err := uc.calc.Compute(frame)
	if err != nil {
		uc.metrics.RecordError("indicators_compute")
		return nil, err
	}
	uc.metrics.RecordLatency("indicators_seconds", time.Since(start).Seconds())

	return &IndicatorsResult{
		Symbol:    p.Symbol,
		Timeframe: p.TF,
		Bars:      series.Len(),
		Snapshot:  indicators.Snapshot(frame, set),
		Timestamp: time.Now().UTC(),
	}, nil
}

// ProfileResult carries both the bins and the derived summary.
type ProfileResult struct {
	Profile models.VolumeProfile  `json:"profile"`
	Summary models.ProfileSummary `json:"summary"`
}

func (uc *AnalysisUseCase) Profile(ctx context.Context, p models.ProfileRequest) (*ProfileResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	start := time.Now()
	series, err := uc.store.GetSeries(ctx, p.Symbol, p.N, domrepo.Timeframe(p.TF))
	if err != nil {
		uc.metrics.RecordError("bars_load")
		return nil, fmt.Errorf("load bars: %w", err)
	}

	vp := profile.Build(series, p.Bins)
	uc.metrics.RecordLatency("profile_seconds", time.Since(start).Seconds())
	return &ProfileResult{
		Profile: vp,
		Summary: profile.Summarize(series, vp),
	}, nil
}

// AnalysisContext renders the combined indicator and volume-profile
// text block that predictors receive as model input.
func (uc *AnalysisUseCase) AnalysisContext(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	series, err := uc.store.GetSeries(ctx, symbol, n, tf)
	if err != nil {
		uc.metrics.RecordError("bars_load")
		return "", fmt.Errorf("load bars: %w", err)
	}

	frame := indicators.FrameFromSeries(series)
	set, err := uc.calc.Compute(frame)
	if err != nil {
		return "", err
	}
	vp := profile.Build(series, profile.DefaultBins)

	var b strings.Builder
	fmt.Fprintf(&b, "Market Analysis for %s (%s):\n\n", symbol, tf)
	b.WriteString(indicators.FormatSummary(frame, set))
	b.WriteString("\n")
	b.WriteString(profile.FormatSummary(profile.Summarize(series, vp)))
	if uc.l != nil {
		uc.l.Debug("analysis context rendered",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("bars", series.Len()),
		)
	}
	return b.String(), nil
}
