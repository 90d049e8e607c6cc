// Package handler exposes the public chat endpoint.
package handler

import (
	"net/http"

	"buildvive_backend/internal/chat/service"
	"buildvive_backend/internal/chat/transport"
	"buildvive_backend/platform/httpkit"
	"buildvive_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// Handler handles chat HTTP requests.
type Handler struct {
	service *service.Service
	val     *validator.Validator
}

// NewHandler creates a new chat handler.
func NewHandler(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{service: svc, val: val}
}

// HandleChat processes one chat message.
// POST /api/v1/chat
func (h *Handler) HandleChat(c *gin.Context) {
	var req transport.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.val.Struct(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation error", err.Error())
		return
	}

	resp, err := h.service.Handle(c.Request.Context(), service.Request{
		Message:   req.Message,
		QuoteID:   req.QuoteID,
		SessionID: req.SessionID,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ChatResponse{
		Response:  resp.Text,
		SessionID: resp.SessionID,
		Escalate:  resp.Escalated,
	})
}
