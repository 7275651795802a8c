package handler // handler defines http handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/astra-care/internal/middleware"
)

// dbTimeout bounds the database work of a single request.
const dbTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func forbidden(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
}

// failed logs err and answers 500 without leaking details.
func failed(c echo.Context, op string, err error) error {
	c.Logger().Errorf("%s: %v", op, err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": op + " failed"})
}

// denySubject enforces the subject access rule for ids carried in a body
// or query string.  When it answers 400 or 403 itself it returns true and
// the handler must stop.
func denySubject(c echo.Context, subject string) (bool, error) {
	if subject == "" {
		return true, badRequest(c, "astronaut_id required")
	}
	if !middleware.CanAccessSubject(c, subject) {
		return true, forbidden(c)
	}
	return false, nil
}

// queryInt parses an optional integer query parameter and clamps it to
// [lo, hi].  ok is false when the value is not a number.
func queryInt(c echo.Context, name string, def, lo, hi int) (n int, ok bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return max(lo, min(hi, n)), true
}
