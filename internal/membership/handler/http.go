package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrimarket/backend/internal/authz"
	"agrimarket/backend/internal/membership/domain"
	"agrimarket/backend/internal/membership/repository"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/httpx"
	userrepo "agrimarket/backend/internal/user/repository"
)

// MemberHandler manages the memberships of the caller's organization.
// Every route requires can_manage_users. Role writes go through the strict
// parser; only canonical roles enter the database.
type MemberHandler struct {
	memberships repository.Repository
	users       userrepo.Repository
	guard       *rbac.Guard
}

func NewMemberHandler(memberships repository.Repository, users userrepo.Repository, guard *rbac.Guard) *MemberHandler {
	return &MemberHandler{memberships: memberships, users: users, guard: guard}
}

// Register registers the member management routes on the group.
func (h *MemberHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/members", h.list)
	rg.POST("/members", h.add)
	rg.PATCH("/members/:id/role", h.changeRole)
	rg.POST("/members/:id/deactivate", h.deactivate)
	rg.POST("/members/:id/reactivate", h.reactivate)
}

func (h *MemberHandler) list(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapManageUsers)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	ms, err := h.memberships.ListMembershipsByOrg(c.Request.Context(), id.OrgID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	out := make([]gin.H, 0, len(ms))
	for _, m := range ms {
		out = append(out, memberJSON(m, id.OrgType))
	}
	c.JSON(http.StatusOK, gin.H{"members": out})
}

type addMemberRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

func (h *MemberHandler) add(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapManageUsers)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_role", err.Error())
		return
	}
	user, err := h.users.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if user == nil {
		httpx.Error(c, http.StatusNotFound, "not_found", "no registered user with that email")
		return
	}
	existing, err := h.memberships.GetMembershipByUserAndOrg(c.Request.Context(), user.ID, id.OrgID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if existing != nil {
		httpx.Error(c, http.StatusConflict, "already_member", "user already belongs to this organization")
		return
	}
	m := &domain.Membership{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		OrgID:     id.OrgID,
		Role:      string(role),
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.memberships.CreateMembership(c.Request.Context(), m); err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusCreated, memberJSON(m, id.OrgType))
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

func (h *MemberHandler) changeRole(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapManageUsers)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_role", err.Error())
		return
	}
	m, ok := h.memberInOrg(c, id.OrgID)
	if !ok {
		return
	}
	if err := h.memberships.UpdateMembershipRole(c.Request.Context(), m.ID, string(role)); err != nil {
		httpx.Internal(c, err)
		return
	}
	m.Role = string(role)
	c.JSON(http.StatusOK, memberJSON(m, id.OrgType))
}

func (h *MemberHandler) deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *MemberHandler) reactivate(c *gin.Context) {
	h.setActive(c, true)
}

func (h *MemberHandler) setActive(c *gin.Context, active bool) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapManageUsers)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	m, ok := h.memberInOrg(c, id.OrgID)
	if !ok {
		return
	}
	if !active && m.UserID == id.UserID {
		httpx.Error(c, http.StatusConflict, "self_deactivate", "cannot deactivate your own membership")
		return
	}
	if err := h.memberships.SetMembershipActive(c.Request.Context(), m.ID, active); err != nil {
		httpx.Internal(c, err)
		return
	}
	m.IsActive = active
	c.JSON(http.StatusOK, memberJSON(m, id.OrgType))
}

// memberInOrg loads the membership at :id and verifies it belongs to the
// caller's org. Writes the error response itself when it returns false.
func (h *MemberHandler) memberInOrg(c *gin.Context, orgID string) (*domain.Membership, bool) {
	ms, err := h.memberships.ListMembershipsByOrg(c.Request.Context(), orgID)
	if err != nil {
		httpx.Internal(c, err)
		return nil, false
	}
	target := c.Param("id")
	for _, m := range ms {
		if m.ID == target {
			return m, true
		}
	}
	httpx.Error(c, http.StatusNotFound, "not_found", "membership not found in your organization")
	return nil, false
}

func memberJSON(m *domain.Membership, orgType authz.OrgType) gin.H {
	return gin.H{
		"id":         m.ID,
		"user_id":    m.UserID,
		"org_id":     m.OrgID,
		"role":       string(authz.NormalizeRole(m.Role, orgType)),
		"is_active":  m.IsActive,
		"created_at": m.CreatedAt,
	}
}
