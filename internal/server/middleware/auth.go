// Package middleware holds the gin middleware shared by the API server:
// bearer-token authentication, audit logging, and request telemetry.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"agrimarket/backend/internal/security"
	"agrimarket/backend/internal/server/reqctx"
)

const bearerPrefix = "bearer "

// ClientIP copies the client IP into the request context so audit and
// telemetry code can read it without a request handle.
func ClientIP() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := reqctx.WithClientIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// BearerAuth validates the Bearer (access) token from the Authorization header
// and sets user_id, org_id, session_id in the request context. Requests with a
// missing or invalid token are rejected with 401; use it only on protected groups.
func BearerAuth(tokens *security.TokenProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			unauthorized(c)
			return
		}
		sessionID, userID, orgID, err := tokens.ValidateAccess(token)
		if err != nil {
			unauthorized(c)
			return
		}
		ctx := reqctx.WithIdentity(c.Request.Context(), userID, orgID, sessionID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// OptionalBearerAuth sets the identity in context when a valid Bearer token is
// present and otherwise lets the request through anonymously. Used on public
// routes like logout that behave differently for authenticated callers.
func OptionalBearerAuth(tokens *security.TokenProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token != "" {
			if sessionID, userID, orgID, err := tokens.ValidateAccess(token); err == nil {
				ctx := reqctx.WithIdentity(c.Request.Context(), userID, orgID, sessionID)
				c.Request = c.Request.WithContext(ctx)
			}
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid authorization", "code": "unauthenticated"})
}

// extractBearer returns the Bearer token from the Authorization header value, or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
