package handler

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/room-reservation/internal/chat"
	"github.com/iliyamo/room-reservation/internal/middleware"
	"github.com/iliyamo/room-reservation/internal/service"
)

// ChatHandler serves the conversational front-end.  Agent is nil when no
// model is configured; History is nil without Redis.
type ChatHandler struct {
	Agent   *chat.Agent
	History chat.History
}

// NewChatHandler returns a handler; either argument may be nil.
func NewChatHandler(agent *chat.Agent, history chat.History) *ChatHandler {
	return &ChatHandler{Agent: agent, History: history}
}

type chatRequest struct {
	SessionID string `json:"session_id" validate:"omitempty,max=64"`
	Message   string `json:"message" validate:"required,max=2000"`
}

// Send handles POST /v1/chat.  A session ID is generated when the client
// does not send one.
func (h *ChatHandler) Send(c echo.Context) error {
	if h.Agent == nil {
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "chat_disabled", "message": "chat is not configured"})
	}
	var req chatRequest
	if err := bindAndValidate(c, &req); err != nil {
		return writeError(c, err)
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}
	resp, err := h.Agent.Handle(c.Request().Context(), req.SessionID, middleware.Owner(c), req.Message)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "model_unavailable", "message": "the assistant is unavailable, try again later"})
	}
	return c.JSON(http.StatusOK, resp)
}

// GetHistory handles GET /v1/chat/:session.
func (h *ChatHandler) GetHistory(c echo.Context) error {
	if h.History == nil {
		return c.JSON(http.StatusOK, echo.Map{"session_id": c.Param("session"), "messages": []chat.Message{}, "count": 0})
	}
	session := c.Param("session")
	msgs, err := h.History.Load(c.Request().Context(), session, 0)
	if err != nil {
		return writeError(c, fmt.Errorf("%w: history store", service.ErrTransient))
	}
	return c.JSON(http.StatusOK, echo.Map{"session_id": session, "messages": msgs, "count": len(msgs)})
}

// ClearHistory handles DELETE /v1/chat/:session.
func (h *ChatHandler) ClearHistory(c echo.Context) error {
	if h.History != nil {
		if err := h.History.Clear(c.Request().Context(), c.Param("session")); err != nil {
			return writeError(c, fmt.Errorf("%w: history store", service.ErrTransient))
		}
	}
	return c.NoContent(http.StatusNoContent)
}
