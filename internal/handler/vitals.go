package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/service"
)

// TelemetryHandler serves every per-subject health endpoint.
type TelemetryHandler struct {
	Svc *service.Health
}

func NewTelemetryHandler(svc *service.Health) *TelemetryHandler {
	if svc == nil {
		panic("nil service passed to NewTelemetryHandler")
	}
	return &TelemetryHandler{Svc: svc}
}

// Ingest stores one sample and returns its validation and risk analysis.
func (h *TelemetryHandler) Ingest(c echo.Context) error {
	var in model.VitalsInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	if denied, err := denySubject(c, in.AstronautID); denied {
		return err
	}
	switch in.Source {
	case "", model.SourceManual, model.SourceSensor, model.SourceSimulated:
	default:
		return badRequest(c, "invalid source")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	resp, err := h.Svc.Ingest(ctx, in)
	if err != nil {
		return failed(c, "ingest", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Latest returns the newest sample, or JSON null when there is none.
func (h *TelemetryHandler) Latest(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Svc.Latest(ctx, c.Param("id"))
	if err != nil {
		return failed(c, "query", err)
	}
	return c.JSON(http.StatusOK, s)
}

// Timeline returns samples and daily averages for ?days=N (default 7).
func (h *TelemetryHandler) Timeline(c echo.Context) error {
	days, ok := queryInt(c, "days", 7, 1, 90)
	if !ok {
		return badRequest(c, "days must be a number")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	tl, err := h.Svc.Timeline(ctx, c.Param("id"), days)
	if err != nil {
		return failed(c, "timeline", err)
	}
	return c.JSON(http.StatusOK, tl)
}

// Simulate generates demo readings for ?astronaut_id=&days=.
func (h *TelemetryHandler) Simulate(c echo.Context) error {
	aid := c.QueryParam("astronaut_id")
	if denied, err := denySubject(c, aid); denied {
		return err
	}
	days, ok := queryInt(c, "days", 7, 1, service.MaxSimulationDays)
	if !ok {
		return badRequest(c, "days must be a number")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	res, err := h.Svc.Simulate(ctx, aid, days)
	if err != nil {
		return failed(c, "simulate", err)
	}
	return c.JSON(http.StatusOK, res)
}

// Baseline returns the subject's baseline, computing it on first use.
func (h *TelemetryHandler) Baseline(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Svc.Baseline(ctx, c.Param("id"))
	if err != nil {
		return failed(c, "baseline", err)
	}
	return c.JSON(http.StatusOK, b)
}

// Recalibrate recomputes the baseline for ?astronaut_id=.
func (h *TelemetryHandler) Recalibrate(c echo.Context) error {
	aid := c.QueryParam("astronaut_id")
	if denied, err := denySubject(c, aid); denied {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	b, err := h.Svc.Recalibrate(ctx, aid)
	if err != nil {
		return failed(c, "recalibrate", err)
	}
	return c.JSON(http.StatusOK, model.RecalibrateResponse{Success: true, Baseline: b})
}

// Roster lists the crew.
func (h *TelemetryHandler) Roster(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	r, err := h.Svc.Roster(ctx)
	if err != nil {
		return failed(c, "roster", err)
	}
	return c.JSON(http.StatusOK, r)
}

// Summary returns every slice of a subject in one response.
func (h *TelemetryHandler) Summary(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Svc.Summary(ctx, c.Param("id"))
	if err != nil {
		return failed(c, "summary", err)
	}
	return c.JSON(http.StatusOK, s)
}
