package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orgrepo "agrimarket/backend/internal/organization/repository"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/httpx"
	"agrimarket/backend/internal/user/repository"
)

// MeHandler answers "who am I and what may I do" for the frontend. The
// capability record drives client-side navigation; enforcement stays in
// the route guards.
type MeHandler struct {
	users repository.Repository
	orgs  orgrepo.Repository
	guard *rbac.Guard
}

func NewMeHandler(users repository.Repository, orgs orgrepo.Repository, guard *rbac.Guard) *MeHandler {
	return &MeHandler{users: users, orgs: orgs, guard: guard}
}

// Register registers the profile route on the group.
func (h *MeHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/me", h.me)
}

func (h *MeHandler) me(c *gin.Context) {
	id, err := h.guard.Resolve(c.Request.Context())
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	user, err := h.users.GetUserByID(c.Request.Context(), id.UserID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if user == nil {
		httpx.Error(c, http.StatusNotFound, "not_found", "user not found")
		return
	}
	org, err := h.orgs.GetOrgByID(c.Request.Context(), id.OrgID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if org == nil {
		httpx.Error(c, http.StatusNotFound, "not_found", "organization not found")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"name":  user.Name,
			"phone": user.Phone,
		},
		"org": gin.H{
			"id":         org.ID,
			"legal_name": org.Name,
			"org_type":   string(org.Type),
			"status":     string(org.Status),
		},
		"role":         string(id.Role),
		"capabilities": id.Capabilities,
	})
}
