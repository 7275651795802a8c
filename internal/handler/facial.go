package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/astra-care/internal/model"
)

// AnalyzeFacial stores a biometric scan.
func (h *TelemetryHandler) AnalyzeFacial(c echo.Context) error {
	var in model.FacialAnalysisInput
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	if denied, err := denySubject(c, in.AstronautID); denied {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	resp, err := h.Svc.AnalyzeFacial(ctx, in)
	if err != nil {
		return failed(c, "facial analysis", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// LatestFacial returns the newest scan or null.
func (h *TelemetryHandler) LatestFacial(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()
	f, err := h.Svc.LatestFacial(ctx, c.Param("id"))
	if err != nil {
		return failed(c, "query", err)
	}
	return c.JSON(http.StatusOK, f)
}

// FacialHistory returns up to ?limit= scans, newest first.
func (h *TelemetryHandler) FacialHistory(c echo.Context) error {
	limit, ok := queryInt(c, "limit", 50, 1, 50)
	if !ok {
		return badRequest(c, "limit must be a number")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	recs, err := h.Svc.FacialHistory(ctx, c.Param("id"), limit)
	if err != nil {
		return failed(c, "query", err)
	}
	return c.JSON(http.StatusOK, model.FacialHistory{Records: recs})
}
