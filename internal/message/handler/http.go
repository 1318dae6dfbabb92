package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrimarket/backend/internal/authz"
	"agrimarket/backend/internal/message/domain"
	"agrimarket/backend/internal/message/repository"
	orgrepo "agrimarket/backend/internal/organization/repository"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/httpx"
)

// MessageHandler exposes org-to-org messaging.
type MessageHandler struct {
	messages repository.Repository
	orgs     orgrepo.Repository
	guard    *rbac.Guard
}

func NewMessageHandler(messages repository.Repository, orgs orgrepo.Repository, guard *rbac.Guard) *MessageHandler {
	return &MessageHandler{messages: messages, orgs: orgs, guard: guard}
}

// Register registers the message routes on the group.
func (h *MessageHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/messages", h.list)
	rg.POST("/messages", h.send)
}

func (h *MessageHandler) list(c *gin.Context) {
	id, err := h.guard.Resolve(c.Request.Context())
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	ms, err := h.messages.ListMessagesForOrg(c.Request.Context(), id.OrgID, limit)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	out := make([]gin.H, 0, len(ms))
	for _, m := range ms {
		out = append(out, gin.H{
			"id":          m.ID,
			"from_org_id": m.FromOrgID,
			"to_org_id":   m.ToOrgID,
			"user_id":     m.UserID,
			"body":        m.Body,
			"created_at":  m.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}

type sendMessageRequest struct {
	ToOrgID string `json:"to_org_id" binding:"required"`
	Body    string `json:"body" binding:"required"`
}

func (h *MessageHandler) send(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapSendMessages)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	target, err := h.orgs.GetOrgByID(c.Request.Context(), req.ToOrgID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if target == nil {
		httpx.Error(c, http.StatusNotFound, "not_found", "target organization not found")
		return
	}
	m := &domain.Message{
		ID:        uuid.New().String(),
		FromOrgID: id.OrgID,
		ToOrgID:   req.ToOrgID,
		UserID:    id.UserID,
		Body:      req.Body,
		CreatedAt: time.Now().UTC(),
	}
	if err := m.Validate(); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := h.messages.CreateMessage(c.Request.Context(), m); err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": m.ID, "created_at": m.CreatedAt})
}
