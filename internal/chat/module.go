// Package chat provides the conversational triage bounded context module.
package chat

import (
	"buildvive_backend/internal/chat/handler"
	"buildvive_backend/internal/chat/service"
	"buildvive_backend/internal/escalation"
	apphttp "buildvive_backend/internal/http"
	sessionsvc "buildvive_backend/internal/sessions/service"
	"buildvive_backend/internal/triage"
	"buildvive_backend/platform/httpkit"
	"buildvive_backend/platform/logger"
	"buildvive_backend/platform/validator"
)

// Module is the chat bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	log     *logger.Logger
}

// NewModule creates and initializes the chat module with all its dependencies.
// ai may be nil; the responder then uses rule-based fallbacks only.
func NewModule(sessions *sessionsvc.Service, quotes service.QuoteReader, esc *escalation.Coordinator, ai triage.AIResponder, val *validator.Validator, log *logger.Logger) *Module {
	lex := triage.NewLexicon()
	classifier := triage.NewClassifier(lex)
	responder := triage.NewResponder(lex, ai, log)
	svc := service.New(classifier, responder, sessions, quotes, esc, log)

	return &Module{handler: handler.NewHandler(svc, val), log: log}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "chat"
}

// RegisterRoutes mounts chat routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	limiter := httpkit.NewChatRateLimiter(m.log)
	ctx.V1.POST("/chat", limiter.RateLimit(), m.handler.HandleChat)
}
