// Package httpx holds the error-response conventions shared by all handlers.
package httpx

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"agrimarket/backend/internal/platform/rbac"
)

// Error writes the standard error envelope {"error": msg, "code": code}.
func Error(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": code})
}

// GuardError maps guard failures to 401/403 and anything else to 500.
func GuardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, rbac.ErrUnauthenticated):
		Error(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
	case errors.Is(err, rbac.ErrForbidden):
		Error(c, http.StatusForbidden, "forbidden", "permission denied")
	default:
		Internal(c, err)
	}
}

// Internal logs the error and writes a generic 500 without leaking details.
func Internal(c *gin.Context, err error) {
	log.Printf("internal error: %s %s: %v", c.Request.Method, c.FullPath(), err)
	Error(c, http.StatusInternalServerError, "internal", "internal server error")
}
