package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	auditrepo "agrimarket/backend/internal/audit/repository"
	"agrimarket/backend/internal/authz"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/httpx"
)

// AuditHandler exposes the org audit trail to org admins.
type AuditHandler struct {
	logs  auditrepo.Repository
	guard *rbac.Guard
}

func NewAuditHandler(logs auditrepo.Repository, guard *rbac.Guard) *AuditHandler {
	return &AuditHandler{logs: logs, guard: guard}
}

// Register registers the audit routes on the group.
func (h *AuditHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/audit", h.list)
}

func (h *AuditHandler) list(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessAdmin)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	entries, err := h.logs.ListAuditLogsByOrg(c.Request.Context(), id.OrgID, limit, offset)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	out := make([]gin.H, 0, len(entries))
	for _, e := range entries {
		out = append(out, gin.H{
			"id":         e.ID,
			"org_id":     e.OrgID,
			"user_id":    e.UserID,
			"action":     e.Action,
			"resource":   e.Resource,
			"ip":         e.IP,
			"metadata":   e.Metadata,
			"created_at": e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"audit_logs": out})
}
