// Package handler exposes the telephony call webhook and admin session reads.
package handler

import (
	"net/http"
	"time"

	"buildvive_backend/internal/sessions/repository"
	"buildvive_backend/internal/sessions/service"
	"buildvive_backend/internal/sessions/transport"
	"buildvive_backend/platform/httpkit"
	"buildvive_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Handler handles session HTTP requests.
type Handler struct {
	service *service.Service
	log     *logger.Logger
}

// NewHandler creates a new sessions handler.
func NewHandler(svc *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: svc, log: log}
}

// HandleCallWebhook ingests telephony provider events.
// POST /api/v1/call-webhook
//
// The contract with the provider is deliberately one-sided: a malformed
// body is the only 400. Everything past decoding returns 200 regardless of
// outcome, because the provider retries non-2xx responses and a retry of an
// event we cannot process only produces duplicate noise.
func (h *Handler) HandleCallWebhook(c *gin.Context) {
	var req transport.CallWebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	msg := req.Message
	callID := msg.Call.ID
	h.log.WebhookEvent(msg.Type, callID)

	if callID == "" {
		h.log.Warn("call webhook without call id", "type", msg.Type)
		httpkit.OK(c, gin.H{"received": true})
		return
	}

	ctx := c.Request.Context()
	var err error
	switch msg.Type {
	case transport.EventStatusUpdate:
		err = h.handleStatusUpdate(c, msg)
	case transport.EventTranscript:
		err = h.handleTranscript(c, msg)
	case transport.EventEndOfCallReport:
		_, err = h.service.EnrichForCall(ctx, callID, reportMeta(msg))
	default:
		h.log.Warn("unhandled call webhook type", "type", msg.Type, "call_id", callID)
	}

	if err != nil {
		h.log.Error("call webhook processing failed", "type", msg.Type, "call_id", callID, "error", err)
	}
	httpkit.OK(c, gin.H{"received": true})
}

func (h *Handler) handleStatusUpdate(c *gin.Context, msg transport.WebhookMessage) error {
	ctx := c.Request.Context()
	callID := msg.Call.ID

	switch msg.CallStatus() {
	case transport.CallStatusStarted:
		meta := service.InitialMeta{
			Phone: msg.Call.Customer.Number,
			Name:  msg.Call.Customer.Name,
		}
		if quoteID := msg.Call.Metadata.String("quoteId"); quoteID != "" {
			meta.Tags = append(meta.Tags, "quote:"+quoteID)
		}
		_, err := h.service.CreateForCall(ctx, callID, meta)
		return err
	case transport.CallStatusEnded:
		endedAt := time.Time{}
		if msg.Call.EndedAt != nil {
			endedAt = *msg.Call.EndedAt
		}
		_, err := h.service.CloseForCall(ctx, callID, endedAt, callMeta(msg))
		return err
	default:
		h.log.Warn("unhandled call status", "status", msg.CallStatus(), "call_id", callID)
		return nil
	}
}

func (h *Handler) handleTranscript(c *gin.Context, msg transport.WebhookMessage) error {
	if msg.TranscriptText == "" {
		return nil
	}

	turn := repository.ChatTurn{
		Role: transcriptRole(msg.Role),
		Text: msg.TranscriptText,
	}
	if msg.Timestamp != nil {
		turn.Timestamp = *msg.Timestamp
	}

	_, err := h.service.AppendTurnForCall(c.Request.Context(), msg.Call.ID, turn)
	return err
}

// HandleGetSession returns a single session.
// GET /api/v1/admin/sessions/:sessionId
func (h *Handler) HandleGetSession(c *gin.Context) {
	sess, err := h.service.Get(c.Request.Context(), c.Param("sessionId"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ToSessionResponse(sess))
}

// HandleListActiveSessions returns all active sessions.
// GET /api/v1/admin/sessions
func (h *Handler) HandleListActiveSessions(c *gin.Context) {
	ids, err := h.service.ActiveIDs(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.SessionResponse, 0, len(ids))
	for _, id := range ids {
		sess, err := h.service.Get(c.Request.Context(), id)
		if err != nil {
			continue
		}
		out = append(out, transport.ToSessionResponse(sess))
	}
	httpkit.OK(c, gin.H{"sessions": out, "count": len(out)})
}

func transcriptRole(role string) repository.Role {
	switch role {
	case "user", "customer":
		return repository.RoleUser
	default:
		return repository.RoleAssistant
	}
}

func callMeta(msg transport.WebhookMessage) *repository.CallMeta {
	meta := &repository.CallMeta{
		DurationSeconds: msg.Call.Duration,
		Cost:            msg.Call.Cost,
		RecordingURL:    msg.Call.RecordingURL,
		TranscriptText:  msg.Call.Transcript,
		Summary:         msg.Call.Summary,
		Analysis:        msg.Call.Analysis,
	}
	if meta.DurationSeconds == 0 && meta.Cost == 0 && meta.RecordingURL == "" &&
		meta.TranscriptText == "" && meta.Summary == "" && len(meta.Analysis) == 0 {
		return nil
	}
	return meta
}

func reportMeta(msg transport.WebhookMessage) repository.CallMeta {
	meta := repository.CallMeta{
		DurationSeconds: msg.DurationSec,
		Cost:            msg.Cost,
		RecordingURL:    msg.RecordingURL,
		Summary:         msg.Summary,
		Analysis:        msg.Analysis,
		TranscriptText:  msg.TranscriptText,
	}
	if meta.DurationSeconds == 0 {
		meta.DurationSeconds = msg.Call.Duration
	}
	if meta.Cost == 0 {
		meta.Cost = msg.Call.Cost
	}
	if meta.RecordingURL == "" {
		meta.RecordingURL = msg.Call.RecordingURL
	}
	if meta.Summary == "" {
		meta.Summary = msg.Call.Summary
	}
	if meta.Analysis == nil {
		meta.Analysis = msg.Call.Analysis
	}
	return meta
}
