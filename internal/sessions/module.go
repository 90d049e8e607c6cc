// Package sessions provides the session lifecycle bounded context module.
package sessions

import (
	"crypto/subtle"
	"net/http"

	"buildvive_backend/internal/events"
	apphttp "buildvive_backend/internal/http"
	"buildvive_backend/internal/sessions/handler"
	"buildvive_backend/internal/sessions/repository"
	"buildvive_backend/internal/sessions/service"
	"buildvive_backend/internal/store"
	"buildvive_backend/platform/config"
	"buildvive_backend/platform/httpkit"
	"buildvive_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// Module is the sessions bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	cfg     config.WebhookConfig
}

// NewModule creates and initializes the sessions module with all its dependencies.
func NewModule(st store.Store, eventBus events.Bus, cfg config.WebhookConfig, log *logger.Logger) *Module {
	repo := repository.New(st)
	svc := service.New(repo, eventBus, log)
	h := handler.NewHandler(svc, log)

	return &Module{handler: h, service: svc, cfg: cfg}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "sessions"
}

// Service exposes the session service for modules that orchestrate on top of
// it (chat, scheduler).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts session routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	// Public webhook endpoint, optionally authenticated by a shared token.
	ctx.V1.POST("/call-webhook", m.webhookTokenRequired(), m.handler.HandleCallWebhook)

	adminGroup := ctx.Admin.Group("/sessions")
	adminGroup.GET("", m.handler.HandleListActiveSessions)
	adminGroup.GET("/:sessionId", m.handler.HandleGetSession)
}

// webhookTokenRequired verifies the X-Call-Webhook-Token header when a token
// is configured. With no token configured the endpoint is open, which is the
// local development default.
func (m *Module) webhookTokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := m.cfg.GetWebhookToken()
		if token == "" {
			c.Next()
			return
		}
		got := c.GetHeader("X-Call-Webhook-Token")
		if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			httpkit.Error(c, http.StatusUnauthorized, "invalid webhook token", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}
