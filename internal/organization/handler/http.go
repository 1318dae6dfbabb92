package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrimarket/backend/internal/authz"
	memdomain "agrimarket/backend/internal/membership/domain"
	memrepo "agrimarket/backend/internal/membership/repository"
	"agrimarket/backend/internal/organization/domain"
	"agrimarket/backend/internal/organization/repository"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/httpx"
	"agrimarket/backend/internal/server/reqctx"
)

// OrgHandler exposes organization creation, lookup, and suspension.
type OrgHandler struct {
	orgs        repository.Repository
	memberships memrepo.Repository
	guard       *rbac.Guard
}

func NewOrgHandler(orgs repository.Repository, memberships memrepo.Repository, guard *rbac.Guard) *OrgHandler {
	return &OrgHandler{orgs: orgs, memberships: memberships, guard: guard}
}

// Register registers the organization routes on the group.
func (h *OrgHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/orgs", h.create)
	rg.GET("/orgs", h.listMine)
	rg.GET("/orgs/:id", h.get)
	rg.POST("/orgs/:id/suspend", h.suspend)
	rg.POST("/orgs/:id/reactivate", h.reactivate)
}

type createOrgRequest struct {
	LegalName string `json:"legal_name" binding:"required"`
	OrgType   string `json:"org_type" binding:"required"`
}

// create registers a new organization and makes the caller its admin.
// Requires only a valid bearer token, not an existing membership.
func (h *OrgHandler) create(c *gin.Context) {
	userID, ok := reqctx.GetUserID(c.Request.Context())
	if !ok || userID == "" {
		httpx.Error(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}
	var req createOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	orgType, err := authz.ParseOrgType(req.OrgType)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_org_type", err.Error())
		return
	}
	now := time.Now().UTC()
	org := &domain.Org{
		ID:        uuid.New().String(),
		Name:      req.LegalName,
		Type:      orgType,
		Status:    domain.OrgStatusActive,
		CreatedAt: now,
	}
	if err := org.Validate(); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := h.orgs.CreateOrg(c.Request.Context(), org); err != nil {
		httpx.Internal(c, err)
		return
	}
	m := &memdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    userID,
		OrgID:     org.ID,
		Role:      string(authz.RoleAdmin),
		IsActive:  true,
		CreatedAt: now,
	}
	if err := h.memberships.CreateMembership(c.Request.Context(), m); err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusCreated, orgJSON(org))
}

// listMine returns the organizations the caller has an active membership in.
func (h *OrgHandler) listMine(c *gin.Context) {
	userID, ok := reqctx.GetUserID(c.Request.Context())
	if !ok || userID == "" {
		httpx.Error(c, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}
	ms, err := h.memberships.ListMembershipsByUser(c.Request.Context(), userID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	out := make([]gin.H, 0, len(ms))
	for _, m := range ms {
		if !m.IsActive {
			continue
		}
		org, err := h.orgs.GetOrgByID(c.Request.Context(), m.OrgID)
		if err != nil {
			httpx.Internal(c, err)
			return
		}
		if org == nil {
			continue
		}
		j := orgJSON(org)
		j["role"] = m.Role
		out = append(out, j)
	}
	c.JSON(http.StatusOK, gin.H{"orgs": out})
}

func (h *OrgHandler) get(c *gin.Context) {
	if _, err := h.guard.Resolve(c.Request.Context()); err != nil {
		httpx.GuardError(c, err)
		return
	}
	org, err := h.orgs.GetOrgByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if org == nil {
		httpx.Error(c, http.StatusNotFound, "not_found", "organization not found")
		return
	}
	c.JSON(http.StatusOK, orgJSON(org))
}

// suspend disables the caller's own org. Only admins of the org may do it.
func (h *OrgHandler) suspend(c *gin.Context) {
	h.setStatus(c, domain.OrgStatusSuspended)
}

func (h *OrgHandler) reactivate(c *gin.Context) {
	h.setStatus(c, domain.OrgStatusActive)
}

func (h *OrgHandler) setStatus(c *gin.Context, status domain.OrgStatus) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessAdmin)
	if err != nil && status == domain.OrgStatusSuspended {
		httpx.GuardError(c, err)
		return
	}
	if status == domain.OrgStatusActive {
		// Reactivation cannot pass the guard while the org is suspended,
		// so it checks the membership role directly.
		id, err = h.resolveAdminOfSuspended(c)
		if err != nil {
			httpx.GuardError(c, err)
			return
		}
	}
	if id.OrgID != c.Param("id") {
		httpx.Error(c, http.StatusForbidden, "forbidden", "can only change status of your own organization")
		return
	}
	if err := h.orgs.UpdateOrgStatus(c.Request.Context(), id.OrgID, status); err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id.OrgID, "status": string(status)})
}

func (h *OrgHandler) resolveAdminOfSuspended(c *gin.Context) (*rbac.Identity, error) {
	ctx := c.Request.Context()
	userID, okUser := reqctx.GetUserID(ctx)
	orgID, okOrg := reqctx.GetOrgID(ctx)
	if !okUser || userID == "" || !okOrg || orgID == "" {
		return nil, rbac.ErrUnauthenticated
	}
	org, err := h.orgs.GetOrgByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, rbac.ErrForbidden
	}
	m, err := h.memberships.GetMembershipByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive {
		return nil, rbac.ErrForbidden
	}
	if authz.NormalizeRole(m.Role, org.Type) != authz.RoleAdmin {
		return nil, rbac.ErrForbidden
	}
	return &rbac.Identity{UserID: userID, OrgID: orgID, OrgType: org.Type, Role: authz.RoleAdmin}, nil
}

func orgJSON(o *domain.Org) gin.H {
	return gin.H{
		"id":         o.ID,
		"legal_name": o.Name,
		"org_type":   string(o.Type),
		"status":     string(o.Status),
		"created_at": o.CreatedAt,
	}
}
