// Package http holds the server-side plumbing shared by the chat, sessions
// and quotes modules.
package http

import (
	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own HTTP routes, keeping the
// router decoupled from individual endpoints.
type Module interface {
	// Name identifies the module in logs.
	Name() string
	// RegisterRoutes mounts the module's routes on the shared groups.
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext carries the route groups modules register against.
type RouterContext struct {
	// Engine is the root gin engine for modules needing engine-level access.
	Engine *gin.Engine
	// V1 is the public /api/v1 group.
	V1 *gin.RouterGroup
	// Admin is the /api/v1/admin group, guarded by the admin API key.
	Admin *gin.RouterGroup
}
