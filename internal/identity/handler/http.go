package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agrimarket/backend/internal/identity/service"
	"agrimarket/backend/internal/server/httpx"
)

// AuthHandler exposes register, login, refresh, and logout over HTTP.
type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register registers the auth routes on the group.
func (h *AuthHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/register", h.register)
	rg.POST("/auth/login", h.login)
	rg.POST("/auth/refresh", h.refresh)
	rg.POST("/auth/logout", h.logout)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
}

func (h *AuthHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	res, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name, req.Phone)
	if err != nil {
		if errors.Is(err, service.ErrEmailAlreadyRegistered) {
			httpx.Error(c, http.StatusConflict, "email_taken", err.Error())
			return
		}
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": res.UserID})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	// OrgID is optional. Omitting it yields an org-less token that can only
	// create or list organizations.
	OrgID string `json:"org_id"`
}

func (h *AuthHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, req.OrgID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			httpx.Error(c, http.StatusUnauthorized, "invalid_credentials", err.Error())
		case errors.Is(err, service.ErrNotOrgMember), errors.Is(err, service.ErrOrgSuspended):
			httpx.Error(c, http.StatusForbidden, "forbidden", err.Error())
		default:
			httpx.Internal(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, tokenResponse(res))
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	res, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRefreshTokenReuse):
			httpx.Error(c, http.StatusUnauthorized, "token_reuse", err.Error())
		case errors.Is(err, service.ErrInvalidRefreshToken):
			httpx.Error(c, http.StatusUnauthorized, "invalid_refresh_token", err.Error())
		default:
			httpx.Internal(c, err)
		}
		return
	}
	c.JSON(http.StatusOK, tokenResponse(res))
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) logout(c *gin.Context) {
	var req logoutRequest
	_ = c.ShouldBindJSON(&req) // body optional; bearer session used as fallback
	if err := h.svc.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func tokenResponse(res *service.AuthResult) gin.H {
	return gin.H{
		"access_token":  res.AccessToken,
		"refresh_token": res.RefreshToken,
		"expires_at":    res.ExpiresAt,
		"user_id":       res.UserID,
		"org_id":        res.OrgID,
	}
}
