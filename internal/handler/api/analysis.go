package api

import (
	"errors"
	"net/http"
	"time"

	"SignalFuse/internal/consensus"
	models "SignalFuse/internal/domain/models"
	domrepo "SignalFuse/internal/domain/repository"
	"SignalFuse/internal/indicators"
	"SignalFuse/internal/usecase"
	xhttp "SignalFuse/pkg/http"
	xlogger "SignalFuse/pkg/logger"
	"SignalFuse/pkg/util"

	"github.com/labstack/echo/v4"
)

// AnalysisHandler implements Echo-based HTTP handlers following Clean Architecture.
type AnalysisHandler struct {
	logger    *xlogger.Logger
	analysis  *usecase.AnalysisUseCase
	aggregate *usecase.AggregateUseCase
	predict   *usecase.PredictUseCase
	bars      *usecase.BarsUseCase
}

func NewAnalysisHandler(
	logger *xlogger.Logger,
	analysis *usecase.AnalysisUseCase,
	aggregate *usecase.AggregateUseCase,
	predict *usecase.PredictUseCase,
	bars *usecase.BarsUseCase,
) *AnalysisHandler {
	return &AnalysisHandler{
		logger:    logger,
		analysis:  analysis,
		aggregate: aggregate,
		predict:   predict,
		bars:      bars,
	}
}

func (h *AnalysisHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api")
	g.GET("/indicators", h.Indicators)
	g.GET("/profile", h.Profile)
	g.GET("/consensus", h.Consensus)
	g.GET("/consensus/history", h.ConsensusHistory)
	g.GET("/bars", h.Bars)
	g.POST("/predictions", h.SubmitPrediction)
	g.POST("/predictions/run", h.RunPredictors)
	g.POST("/consensus/aggregate", h.Aggregate)
}

func (h *AnalysisHandler) Health(c echo.Context) error {
	if err := h.aggregate.Health(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"error":  err.Error(),
		})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *AnalysisHandler) Indicators(c echo.Context) error {
	req := &models.IndicatorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.TF = string(domrepo.NormalizeTimeframe(req.TF))

	res, err := h.analysis.Indicators(c.Request().Context(), *req)
	if err != nil {
		var mce *indicators.MissingColumnsError
		if errors.As(err, &mce) {
			return xhttp.BadRequestResponse(c, xhttp.NewAppError("ERR_MISSING_COLUMNS", "", mce.Error(), http.StatusBadRequest))
		}
		h.logger.Error("indicators usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Profile(c echo.Context) error {
	req := &models.ProfileRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.TF = string(domrepo.NormalizeTimeframe(req.TF))

	res, err := h.analysis.Profile(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("profile usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Consensus(c echo.Context) error {
	req := &models.ConsensusRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.TF = string(domrepo.NormalizeTimeframe(req.TF))

	rec, err := h.aggregate.Consensus(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("consensus usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if rec == nil {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("no consensus for %s/%s", req.Symbol, req.TF))
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *AnalysisHandler) ConsensusHistory(c echo.Context) error {
	req := &models.ConsensusHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	now := time.Now().UTC()
	from := util.ParseTimeDefault(req.From, now.AddDate(0, 0, -30))
	to := util.ParseTimeDefault(req.To, now)

	recs, err := h.aggregate.History(c.Request().Context(), req.Symbol, tf, from, to, req.Limit)
	if err != nil {
		h.logger.Error("consensus history error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, recs, int64(len(recs)))
}

func (h *AnalysisHandler) Bars(c echo.Context) error {
	req := &models.BarsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	tf := domrepo.NormalizeTimeframe(req.TF)
	now := time.Now().UTC()
	from := util.ParseTimeDefault(req.From, now.Add(-24*time.Hour))
	to := util.ParseTimeDefault(req.To, now)
	from, to = util.AlignFromTo(from, to, string(tf))

	res, err := h.bars.GetBars(c.Request().Context(), usecase.GetBarsParams{
		Symbol:    req.Symbol,
		From:      from,
		To:        to,
		Timeframe: tf,
	})
	if err != nil {
		h.logger.Error("bars usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) SubmitPrediction(c echo.Context) error {
	req := &models.SubmitPredictionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, err := h.predict.Submit(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("submit prediction error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.CreatedResponse(c, rec)
}

func (h *AnalysisHandler) RunPredictors(c echo.Context) error {
	req := &models.RunPredictorsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.TF = string(domrepo.NormalizeTimeframe(req.TF))

	res, err := h.predict.RunAll(c.Request().Context(), *req)
	if err != nil {
		h.logger.Error("predictor run error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisHandler) Aggregate(c echo.Context) error {
	req := &models.AggregateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	req.TF = string(domrepo.NormalizeTimeframe(req.TF))

	rec, err := h.aggregate.Aggregate(c.Request().Context(), *req)
	if err != nil {
		switch {
		case errors.Is(err, consensus.ErrNoPredictions):
			return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("no predictions for %s/%s", req.Symbol, req.TF))
		case errors.Is(err, usecase.ErrAggregateBusy):
			return xhttp.DataResponse(c, http.StatusConflict, xhttp.NewAppError("ERR_BUSY", "", err.Error(), http.StatusConflict))
		}
		h.logger.Error("aggregate usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, rec)
}
