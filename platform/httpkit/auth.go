package httpkit

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strings"

	"salescrm_backend/platform/config"
	"salescrm_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	errMissingToken = "missing token"
	errInvalidToken = "invalid token"

	tokenTypeAccess = "access"
	bearerPrefix    = "Bearer "
)

var errNotAccessToken = errors.New("not an access token")

// AccessClaims is the payload of an access token. Subject carries the user id.
type AccessClaims struct {
	jwt.RegisteredClaims
	TenantID string   `json:"tenant_id,omitempty"`
	Roles    []string `json:"roles,omitempty"`
	Type     string   `json:"type"`
}

// AuthRequired verifies the bearer access token and stores the caller on the
// gin context and on the request context for logging.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (any, error) {
		return []byte(cfg.GetJWTAccessSecret()), nil
	}

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, errMissingToken)
			return
		}

		caller, err := verifyAccessToken(parser, keyFunc, raw)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}

		c.Set(ContextUserIDKey, caller.userID)
		c.Set(ContextRolesKey, caller.roles)
		ctx := context.WithValue(c.Request.Context(), logger.UserIDKey, caller.userID.String())
		if caller.tenantID != nil {
			c.Set(ContextTenantIDKey, *caller.tenantID)
			ctx = context.WithValue(ctx, logger.TenantIDKey, caller.tenantID.String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequireRole lets the request through when the caller holds any of allowed.
func RequireRole(allowed ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := GetIdentity(c)
		if id.IsAuthenticated() && slices.ContainsFunc(allowed, id.HasRole) {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

func verifyAccessToken(parser *jwt.Parser, keyFunc jwt.Keyfunc, raw string) (*identity, error) {
	claims := &AccessClaims{}
	if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil {
		return nil, err
	}
	if claims.Type != tokenTypeAccess {
		return nil, errNotAccessToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, err
	}
	caller := &identity{userID: userID, roles: claims.Roles, authenticated: true}
	if caller.roles == nil {
		caller.roles = []string{}
	}

	if tenant := strings.TrimSpace(claims.TenantID); tenant != "" {
		tenantID, err := uuid.Parse(tenant)
		if err != nil {
			return nil, err
		}
		caller.tenantID = &tenantID
	}
	return caller, nil
}

func bearerToken(header string) (string, bool) {
	raw, ok := strings.CutPrefix(header, bearerPrefix)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}
