package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/astra-care/internal/middleware"
	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/repository"
)

// Alerts lists alerts filtered by ?status= (default active, "all" for every status).
func (h *TelemetryHandler) Alerts(c echo.Context) error {
	status := c.QueryParam("status")
	switch status {
	case "", repository.StatusAll, model.AlertActive, model.AlertAcknowledged, model.AlertDismissed, model.AlertEscalated:
	default:
		return badRequest(c, "invalid status")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	alerts, err := h.Svc.ListAlerts(ctx, c.Param("id"), status)
	if err != nil {
		return failed(c, "query", err)
	}
	return c.JSON(http.StatusOK, model.AlertList{Alerts: alerts})
}

// ActOnAlert acknowledges, dismisses or escalates one alert.  Success is
// false when the alert does not belong to the subject.
func (h *TelemetryHandler) ActOnAlert(c echo.Context) error {
	var in model.AlertAction
	if err := c.Bind(&in); err != nil {
		return badRequest(c, "invalid body")
	}
	if denied, err := denySubject(c, in.AstronautID); denied {
		return err
	}
	if in.AlertID == "" {
		return badRequest(c, "alert_id required")
	}
	if !model.ValidAlertAction(in.Action) {
		return badRequest(c, "invalid action")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	ok, err := h.Svc.ActOnAlert(ctx, in, middleware.UserID(c))
	if err != nil {
		return failed(c, "update alert", err)
	}
	return c.JSON(http.StatusOK, model.SuccessResponse{Success: ok})
}
