package handler // declare the package name; contains HTTP handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/astra-care/internal/model"
)

// Version is reported by the status endpoint.
const Version = "2.0.0"

// Health is the public liveness endpoint used by load balancers and by the
// dashboard's connectivity check.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, model.SystemStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   Version,
		System:    "ASTRA-CARE",
	})
}
