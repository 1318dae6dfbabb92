package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrimarket/backend/internal/authz"
	identitydomain "agrimarket/backend/internal/identity/domain"
	identityrepo "agrimarket/backend/internal/identity/repository"
	"agrimarket/backend/internal/invite/domain"
	"agrimarket/backend/internal/invite/repository"
	memdomain "agrimarket/backend/internal/membership/domain"
	memrepo "agrimarket/backend/internal/membership/repository"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/security"
	"agrimarket/backend/internal/server/httpx"
	userdomain "agrimarket/backend/internal/user/domain"
	userrepo "agrimarket/backend/internal/user/repository"
)

// InviteHandler issues membership invites and handles public acceptance.
// The raw token is returned once on creation; the database keeps its hash.
type InviteHandler struct {
	invites     repository.Repository
	memberships memrepo.Repository
	users       userrepo.Repository
	identities  identityrepo.Repository
	guard       *rbac.Guard
	hasher      *security.Hasher
	ttl         time.Duration
}

func NewInviteHandler(
	invites repository.Repository,
	memberships memrepo.Repository,
	users userrepo.Repository,
	identities identityrepo.Repository,
	guard *rbac.Guard,
	hasher *security.Hasher,
	ttl time.Duration,
) *InviteHandler {
	return &InviteHandler{
		invites: invites, memberships: memberships, users: users,
		identities: identities, guard: guard, hasher: hasher, ttl: ttl,
	}
}

// Register registers the protected invite routes on rg and the public
// accept route on pub.
func (h *InviteHandler) Register(rg, pub *gin.RouterGroup) {
	rg.POST("/invites", h.create)
	rg.GET("/invites", h.list)
	pub.POST("/invites/accept", h.accept)
}

type createInviteRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

func (h *InviteHandler) create(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapManageUsers)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	var req createInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	role, err := authz.ParseRole(req.Role)
	if err != nil {
		httpx.Error(c, http.StatusBadRequest, "invalid_role", err.Error())
		return
	}
	token, err := security.NewOpaqueToken()
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	inv := &domain.Invite{
		ID:        uuid.New().String(),
		OrgID:     id.OrgID,
		Email:     strings.TrimSpace(strings.ToLower(req.Email)),
		Role:      string(role),
		TokenHash: security.HashToken(token),
		ExpiresAt: time.Now().UTC().Add(h.ttl),
		CreatedAt: time.Now().UTC(),
	}
	if err := inv.Validate(); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := h.invites.CreateInvite(c.Request.Context(), inv); err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":         inv.ID,
		"email":      inv.Email,
		"role":       inv.Role,
		"token":      token,
		"expires_at": inv.ExpiresAt,
	})
}

func (h *InviteHandler) list(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapManageUsers)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	invs, err := h.invites.ListInvitesByOrg(c.Request.Context(), id.OrgID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	out := make([]gin.H, 0, len(invs))
	for _, inv := range invs {
		out = append(out, gin.H{
			"id":          inv.ID,
			"email":       inv.Email,
			"role":        inv.Role,
			"expires_at":  inv.ExpiresAt,
			"accepted_at": inv.AcceptedAt,
			"created_at":  inv.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"invites": out})
}

type acceptInviteRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// accept redeems an invite token. If the invited email has no account yet,
// a password is required and a user plus local identity is created.
func (h *InviteHandler) accept(c *gin.Context) {
	var req acceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	inv, err := h.invites.GetInviteByTokenHash(c.Request.Context(), security.HashToken(req.Token))
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if inv == nil || !inv.Acceptable(time.Now().UTC()) {
		httpx.Error(c, http.StatusNotFound, "invalid_invite", "invite not found, expired, or already used")
		return
	}
	user, err := h.users.GetUserByEmail(c.Request.Context(), inv.Email)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if user == nil {
		if req.Password == "" {
			httpx.Error(c, http.StatusBadRequest, "password_required", "no account for invited email; password required")
			return
		}
		user, err = h.createUser(c, inv.Email, req.Password, req.Name)
		if err != nil {
			return // response already written
		}
	}
	existing, err := h.memberships.GetMembershipByUserAndOrg(c.Request.Context(), user.ID, inv.OrgID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if existing != nil {
		httpx.Error(c, http.StatusConflict, "already_member", "user already belongs to this organization")
		return
	}
	m := &memdomain.Membership{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		OrgID:     inv.OrgID,
		Role:      inv.Role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.memberships.CreateMembership(c.Request.Context(), m); err != nil {
		httpx.Internal(c, err)
		return
	}
	if err := h.invites.MarkInviteAccepted(c.Request.Context(), inv.ID); err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": user.ID,
		"org_id":  inv.OrgID,
		"role":    inv.Role,
	})
}

func (h *InviteHandler) createUser(c *gin.Context, email, password, name string) (*userdomain.User, error) {
	hashed, err := h.hasher.Hash([]byte(password))
	if err != nil {
		httpx.Internal(c, err)
		return nil, err
	}
	now := time.Now().UTC()
	user := &userdomain.User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Status:    userdomain.UserStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.users.CreateUser(c.Request.Context(), user); err != nil {
		httpx.Internal(c, err)
		return nil, err
	}
	ident := &identitydomain.Identity{
		ID:           uuid.New().String(),
		UserID:       user.ID,
		Provider:     identitydomain.IdentityProviderLocal,
		ProviderID:   email,
		PasswordHash: hashed,
		CreatedAt:    now,
	}
	if err := h.identities.CreateIdentity(c.Request.Context(), ident); err != nil {
		httpx.Internal(c, err)
		return nil, err
	}
	return user, nil
}
