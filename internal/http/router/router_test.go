package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "salescrm_backend/internal/http"
	"salescrm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfig struct{}

func (stubConfig) GetHTTPAddr() string        { return ":0" }
func (stubConfig) GetCORSAllowAll() bool      { return false }
func (stubConfig) GetCORSOrigins() []string   { return []string{"http://localhost:4200"} }
func (stubConfig) GetCORSAllowCreds() bool    { return true }
func (stubConfig) GetJWTAccessSecret() string { return "secret" }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type echoModule struct{ registered bool }

func (m *echoModule) Name() string { return "echo" }

func (m *echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.registered = true
	ctx.Protected.GET("/echo", func(c *gin.Context) { c.Status(http.StatusOK) })
}

func newEngine(health apphttp.HealthChecker, modules ...apphttp.Module) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return New(&apphttp.App{
		Config:  stubConfig{},
		Logger:  logger.Discard(),
		Health:  health,
		Modules: modules,
	})
}

func serve(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	ok := newEngine(pingFunc(func(context.Context) error { return nil }))
	assert.Equal(t, http.StatusOK, serve(ok, "/api/health").Code)

	down := newEngine(pingFunc(func(context.Context) error { return errors.New("db down") }))
	assert.Equal(t, http.StatusServiceUnavailable, serve(down, "/api/health").Code)
}

func TestModuleRoutesRequireAuth(t *testing.T) {
	module := &echoModule{}
	engine := newEngine(nil, module)

	require.True(t, module.registered)
	rec := serve(engine, "/api/v1/echo")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsRouteAbsentWithoutProvider(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, serve(newEngine(nil), "/metrics").Code)
}
