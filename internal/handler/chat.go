package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/astra-care/internal/model"
	"github.com/iliyamo/astra-care/internal/service"
)

// ChatHandler serves the companion chat.
type ChatHandler struct {
	Companion *service.Companion
}

func NewChatHandler(c *service.Companion) *ChatHandler { return &ChatHandler{Companion: c} }

// Send answers one message.  The request outlives the usual database
// timeout because the reply comes from a language model.
func (h *ChatHandler) Send(c echo.Context) error {
	var req model.ChatRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if denied, err := denySubject(c, req.AstronautID); denied {
		return err
	}
	resp, err := h.Companion.Send(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) {
			return badRequest(c, err.Error())
		}
		return failed(c, "chat", err)
	}
	return c.JSON(http.StatusOK, resp)
}

// History returns recent exchanges, oldest first.
func (h *ChatHandler) History(c echo.Context) error {
	limit, ok := queryInt(c, "limit", 50, 1, 50)
	if !ok {
		return badRequest(c, "limit must be a number")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	hist, err := h.Companion.History(ctx, c.Param("id"), c.QueryParam("session_id"), limit)
	if err != nil {
		return failed(c, "query", err)
	}
	return c.JSON(http.StatusOK, model.ChatHistory{History: hist})
}
