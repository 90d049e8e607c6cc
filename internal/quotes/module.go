// Package quotes provides the quote lifecycle bounded context module.
package quotes

import (
	"buildvive_backend/internal/events"
	apphttp "buildvive_backend/internal/http"
	"buildvive_backend/internal/quotes/handler"
	"buildvive_backend/internal/quotes/repository"
	"buildvive_backend/internal/quotes/service"
	"buildvive_backend/internal/store"
	"buildvive_backend/platform/logger"
	"buildvive_backend/platform/validator"
)

// Module is the quotes bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the quotes module with all its dependencies.
func NewModule(st store.Store, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(st)
	svc := service.New(repo, eventBus, log)
	h := handler.NewHandler(svc, val)

	return &Module{handler: h, service: svc}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "quotes"
}

// Service exposes the quote service for modules that read quote context.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts quote routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.POST("/quote", m.handler.HandleSubmitQuote)
	ctx.V1.PUT("/quote", m.handler.HandleUpdateQuote)
	ctx.V1.DELETE("/quote", m.handler.HandleDeleteQuote)

	adminGroup := ctx.Admin.Group("/quotes")
	adminGroup.GET("", m.handler.HandleListQuotes)
	adminGroup.GET("/:quoteId", m.handler.HandleGetQuote)
}
