// Package http holds the pieces the router shares with the domain modules.
package http

import (
	"salescrm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is handed to every Module during route registration.
type RouterContext struct {
	// Protected is /api/v1 behind AuthRequired.
	Protected *gin.RouterGroup
	// RateLimiter throttles per client IP. Nil disables limiting.
	RateLimiter *httpkit.IPRateLimiter
}
