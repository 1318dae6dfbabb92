package middleware

import (
	"github.com/gin-gonic/gin"

	"agrimarket/backend/internal/audit"
	"agrimarket/backend/internal/server/reqctx"
)

// Audit returns middleware that records an audit log entry after each request.
// skipRoutes is the set of gin route patterns to not audit (e.g. /healthz,
// optionally the audit listing itself). Writes are best-effort and only happen
// when org_id is set (authenticated context).
func Audit(logger audit.AuditLogger, skipRoutes map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" || skipRoutes[route] {
			return
		}
		orgID, _ := reqctx.GetOrgID(c.Request.Context())
		if orgID == "" {
			return
		}
		userID, _ := reqctx.GetUserID(c.Request.Context())
		ar := audit.ParseRoute(c.Request.Method, route)
		logger.LogEvent(c.Request.Context(), orgID, userID, ar.Action, ar.Resource, "")
	}
}
