package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/astra-care/internal/model"
)

// Context returns the subject's mission context or the default one.
func (h *TelemetryHandler) Context(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	mc, err := h.Svc.Context(ctx, c.Param("id"))
	if err != nil {
		return failed(c, "query", err)
	}
	return c.JSON(http.StatusOK, mc)
}

// UpdateContext validates and stores a mission context.
func (h *TelemetryHandler) UpdateContext(c echo.Context) error {
	var in model.MissionContext
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	if denied, err := denySubject(c, in.AstronautID); denied {
		return err
	}
	if field := in.Validate(); field != "" {
		return badRequest(c, "invalid "+field)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	mc, err := h.Svc.UpdateContext(ctx, in)
	if err != nil {
		return failed(c, "update context", err)
	}
	return c.JSON(http.StatusOK, model.ContextUpdateResponse{Success: true, Context: mc})
}
