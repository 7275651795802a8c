package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/astra-care/internal/stream"
)

// Stream upgrades to a websocket that pushes the subject's alert events.
func Stream(hub *stream.Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := hub.Serve(c.Response(), c.Request(), c.Param("id")); err != nil {
			c.Logger().Warnf("stream: upgrade failed: %v", err)
		}
		return nil
	}
}
