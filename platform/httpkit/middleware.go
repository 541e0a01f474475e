// Package httpkit holds the gin middleware, caller identity and error
// rendering shared by every HTTP module.
package httpkit

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"salescrm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// ContextUserIDKey is the gin context key for the authenticated user ID.
	ContextUserIDKey = "userID"
	// ContextRolesKey is the gin context key for the user's roles.
	ContextRolesKey = "roles"
	// ContextTenantIDKey is the gin context key for the caller's tenant ID.
	ContextTenantIDKey = "tenantID"

	headerRequestID = "X-Request-ID"
)

// RequestLogger writes one line per request once the handler chain returns.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		log.WithContext(c.Request.Context()).HTTPRequest(
			c.Request.Method,
			path,
			c.Writer.Status(),
			float64(time.Since(start).Milliseconds()),
			c.ClientIP(),
		)
	}
}

// ErrorLogger logs the errors HandleError attached to the request, which are
// the ones whose cause was hidden from the client.
func ErrorLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		scoped := log.WithContext(c.Request.Context())
		for _, e := range c.Errors {
			scoped.DatabaseError(c.Request.Method+" "+c.FullPath(), e.Err)
		}
	}
}

// RequestID propagates X-Request-ID (generating one when absent) and stores it
// on the request context for logger.WithContext.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(headerRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(headerRequestID, id)
		ctx := context.WithValue(c.Request.Context(), logger.RequestIDKey, id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// SecurityHeaders sets the response headers of a JSON-only API.
func SecurityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Cache-Control", "no-store")
		if c.Request.TLS != nil {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	limiters sync.Map
	rate     rate.Limit
	burst    int
	log      *logger.Logger
}

// NewIPRateLimiter creates a limiter allowing r events per second per IP.
func NewIPRateLimiter(r rate.Limit, burst int, log *logger.Logger) *IPRateLimiter {
	return &IPRateLimiter{rate: r, burst: burst, log: log}
}

func (i *IPRateLimiter) limiterFor(ip string) *rate.Limiter {
	if existing, ok := i.limiters.Load(ip); ok {
		return existing.(*rate.Limiter)
	}
	actual, _ := i.limiters.LoadOrStore(ip, rate.NewLimiter(i.rate, i.burst))
	return actual.(*rate.Limiter)
}

// RateLimit rejects requests with 429 once the caller's bucket is empty.
func (i *IPRateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if i.limiterFor(ip).Allow() {
			c.Next()
			return
		}
		if i.log != nil {
			i.log.RateLimitExceeded(ip, c.Request.URL.Path)
		}
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
	}
}
