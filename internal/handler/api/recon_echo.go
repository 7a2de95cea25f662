package api

import (
    "time"

    models "OpsRecon/internal/domain/models"
    imetrics "OpsRecon/internal/service/metrics"
    "OpsRecon/internal/usecase"
    xhttp "OpsRecon/pkg/http"
    xlogger "OpsRecon/pkg/logger"

    "github.com/labstack/echo/v4"
)

// ReconEchoHandler exposes the reconciled telemetry views over HTTP.
type ReconEchoHandler struct {
	logger *xlogger.Logger
	svc    *usecase.ReconService
}

func NewReconEchoHandler(logger *xlogger.Logger, svc *usecase.ReconService) *ReconEchoHandler {
	imetrics.Register()
	return &ReconEchoHandler{logger: logger, svc: svc}
}

func (h *ReconEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/feed", h.Feed)
	g.POST("/feed/:id/read", h.MarkRead)
	g.POST("/feed/read-all", h.MarkAllRead)
	g.POST("/anomalies/:id/ack", h.Acknowledge)
	g.GET("/execution/heatmap", h.Heatmap)
	g.GET("/live/status", h.LiveStatus)
	g.GET("/live/feed", h.LiveFeed)
	g.GET("/history/regimes", h.RegimeHistory)
	g.POST("/history/regimes", h.RecordRegime)
}

func (h *ReconEchoHandler) Feed(c echo.Context) error {
	start := time.Now()
	req := &models.FeedRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	events := h.svc.Feed(req.Source, req.Limit)
	imetrics.ReconLatency.WithLabelValues("feed").Observe(time.Since(start).Seconds())
	return xhttp.ListResponse(c, events, int64(len(events)))
}

func (h *ReconEchoHandler) MarkRead(c echo.Context) error {
	req := &models.MarkReadRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.svc.MarkRead(c.Request().Context(), req.ID) {
		imetrics.ReconErrors.WithLabelValues("mark_read").Inc()
		return xhttp.NotFoundResponse(c, "event not found")
	}
	return xhttp.NoContentResponse(c)
}

func (h *ReconEchoHandler) MarkAllRead(c echo.Context) error {
	h.svc.MarkAllRead(c.Request().Context())
	return xhttp.NoContentResponse(c)
}

func (h *ReconEchoHandler) Acknowledge(c echo.Context) error {
	req := &models.AcknowledgeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.svc.Acknowledge(c.Request().Context(), req.ID) {
		imetrics.ReconErrors.WithLabelValues("acknowledge").Inc()
		return xhttp.NotFoundResponse(c, "anomaly not found")
	}
	return xhttp.NoContentResponse(c)
}

func (h *ReconEchoHandler) Heatmap(c echo.Context) error {
	start := time.Now()
	req := &models.HeatmapRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res := h.svc.Heatmap(c.Request().Context(), req)
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=5")
	imetrics.ReconLatency.WithLabelValues("heatmap").Observe(time.Since(start).Seconds())
	return xhttp.SuccessResponse(c, res)
}

func (h *ReconEchoHandler) LiveStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.svc.LiveState())
}

func (h *ReconEchoHandler) LiveFeed(c echo.Context) error {
	events := h.svc.LiveSnapshot()
	return xhttp.ListResponse(c, events, int64(len(events)))
}

func (h *ReconEchoHandler) RegimeHistory(c echo.Context) error {
	req := &models.RegimeHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	entries, err := h.svc.RegimeHistory(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("regime history error", xlogger.Error(err))
		imetrics.ReconErrors.WithLabelValues("regime_history").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

func (h *ReconEchoHandler) RecordRegime(c echo.Context) error {
	req := &models.RegimeRecordRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	snap := models.RegimeSnapshot{
		Regime:     req.Regime,
		Confidence: req.Confidence,
		From:       req.From,
		To:         req.To,
	}
	if err := h.svc.RecordRegime(c.Request().Context(), snap); err != nil {
		h.logger.Error("regime record error", xlogger.Error(err))
		imetrics.ReconErrors.WithLabelValues("record_regime").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}
