package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrimarket/backend/internal/authz"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/policy/domain"
	"agrimarket/backend/internal/policy/repository"
	"agrimarket/backend/internal/server/httpx"
)

// PolicyHandler lets org admins read and replace their order-approval policy.
type PolicyHandler struct {
	policies repository.Repository
	guard    *rbac.Guard
}

func NewPolicyHandler(policies repository.Repository, guard *rbac.Guard) *PolicyHandler {
	return &PolicyHandler{policies: policies, guard: guard}
}

// Register registers the policy routes on the group.
func (h *PolicyHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/policy", h.get)
	rg.PUT("/policy", h.put)
}

func (h *PolicyHandler) get(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessAdmin)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	p, err := h.policies.GetPolicyByOrg(c.Request.Context(), id.OrgID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusOK, gin.H{"org_id": id.OrgID, "rules": "", "enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"org_id":  p.OrgID,
		"rules":   p.Rules,
		"enabled": p.Enabled,
	})
}

type putPolicyRequest struct {
	Rules   string `json:"rules" binding:"required"`
	Enabled bool   `json:"enabled"`
}

func (h *PolicyHandler) put(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessAdmin)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	var req putPolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	p := &domain.Policy{
		ID:        uuid.New().String(),
		OrgID:     id.OrgID,
		Rules:     req.Rules,
		Enabled:   req.Enabled,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.policies.UpsertPolicy(c.Request.Context(), p); err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"org_id": p.OrgID, "enabled": p.Enabled})
}
