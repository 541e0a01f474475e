package http

import (
	"context"
	"net/http"

	"salescrm_backend/platform/config"
	"salescrm_backend/platform/logger"

	"github.com/gin-gonic/gin"
)

// RouterConfig combines the config interfaces needed by the HTTP router.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker is pinged by /api/health.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is what the composition root hands to the router.
type App struct {
	Config RouterConfig
	Logger *logger.Logger
	// Health backs /api/health. Nil reports healthy.
	Health HealthChecker
	// Metrics serves /metrics and records request metrics when set.
	Metrics MetricsProvider
	Modules []Module
}

// MetricsProvider is the request instrumentation and exposition endpoint.
type MetricsProvider interface {
	Middleware() gin.HandlerFunc
	Handler() http.Handler
}
