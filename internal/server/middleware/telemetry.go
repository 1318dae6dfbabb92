package middleware

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"

	"agrimarket/backend/internal/server/reqctx"
	"agrimarket/backend/internal/telemetry"
	"agrimarket/backend/internal/telemetry/domain"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// Telemetry returns middleware that emits a telemetry event after each request.
// Best-effort: failures are logged and do not fail the request. If emitter is
// nil, the middleware no-ops. skipRoutes is the set of gin route patterns to
// not emit (e.g. /healthz).
func Telemetry(emitter telemetry.EventEmitter, skipRoutes map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if emitter == nil || route == "" || skipRoutes[route] {
			return
		}
		ctx := c.Request.Context()
		meta := httpRequestMetadata{
			Method:     c.Request.Method,
			Route:      route,
			StatusCode: c.Writer.Status(),
			DurationMs: time.Since(start).Milliseconds(),
			ClientIP:   reqctx.GetClientIP(ctx),
		}
		metaJSON, _ := json.Marshal(meta)
		orgID, _ := reqctx.GetOrgID(ctx)
		userID, _ := reqctx.GetUserID(ctx)
		sessionID, _ := reqctx.GetSessionID(ctx)
		event := &domain.Event{
			OrgID:     orgID,
			UserID:    userID,
			SessionID: sessionID,
			EventType: "http_request",
			Source:    "http_middleware",
			Metadata:  metaJSON,
			CreatedAt: time.Now().UTC(),
		}
		telemetry.EmitAsync(emitter, ctx, event)
	}
}
