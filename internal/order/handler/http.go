package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agrimarket/backend/internal/authz"
	"agrimarket/backend/internal/order/domain"
	"agrimarket/backend/internal/order/repository"
	"agrimarket/backend/internal/order/service"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/httpx"
)

// OrderHandler exposes checkout and the order lifecycle.
type OrderHandler struct {
	svc    *service.CheckoutService
	orders repository.Repository
	guard  *rbac.Guard
}

func NewOrderHandler(svc *service.CheckoutService, orders repository.Repository, guard *rbac.Guard) *OrderHandler {
	return &OrderHandler{svc: svc, orders: orders, guard: guard}
}

// Register registers the order routes on the group.
func (h *OrderHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/orders", h.checkout)
	rg.GET("/orders", h.list)
	rg.GET("/orders/:id", h.get)
	rg.POST("/orders/:id/approve", h.approve)
	rg.POST("/orders/:id/cancel", h.cancel)
	rg.POST("/orders/:id/fulfill", h.fulfill)
}

type checkoutRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

func (h *OrderHandler) checkout(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapBuy)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	o, err := h.svc.Checkout(c.Request.Context(), id.OrgID, id.UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, orderJSON(o))
}

func (h *OrderHandler) list(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessOrders)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	os, err := h.orders.ListOrdersByOrg(c.Request.Context(), id.OrgID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	out := make([]gin.H, 0, len(os))
	for _, o := range os {
		out = append(out, orderJSON(o))
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func (h *OrderHandler) get(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessOrders)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	o, err := h.orders.GetOrderByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if o == nil || (o.BuyerOrgID != id.OrgID && o.VendorOrgID != id.OrgID) {
		httpx.Error(c, http.StatusNotFound, "not_found", "order not found")
		return
	}
	c.JSON(http.StatusOK, orderJSON(o))
}

// approve is the buyer-side release of a policy-held order.
func (h *OrderHandler) approve(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessAdmin)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	o, err := h.svc.Approve(c.Request.Context(), id.OrgID, c.Param("id"))
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(o))
}

func (h *OrderHandler) cancel(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessOrders)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	o, err := h.svc.Cancel(c.Request.Context(), id.OrgID, c.Param("id"))
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(o))
}

func (h *OrderHandler) fulfill(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapSell)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	o, err := h.svc.Fulfill(c.Request.Context(), id.OrgID, c.Param("id"))
	if err != nil {
		h.writeOrderError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderJSON(o))
}

func (h *OrderHandler) writeOrderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientStock):
		httpx.Error(c, http.StatusConflict, "insufficient_stock", err.Error())
	case errors.Is(err, service.ErrProductUnavailable):
		httpx.Error(c, http.StatusNotFound, "product_unavailable", err.Error())
	case errors.Is(err, service.ErrOrderNotFound):
		httpx.Error(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrNotYourOrder):
		httpx.Error(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		httpx.Error(c, http.StatusConflict, "invalid_transition", err.Error())
	default:
		httpx.Internal(c, err)
	}
}

func orderJSON(o *domain.Order) gin.H {
	return gin.H{
		"id":               o.ID,
		"buyer_org_id":     o.BuyerOrgID,
		"vendor_org_id":    o.VendorOrgID,
		"product_id":       o.ProductID,
		"quantity":         o.Quantity,
		"unit_price_cents": o.UnitPriceCents,
		"total_cents":      o.TotalCents(),
		"status":           string(o.Status),
		"placed_by":        o.PlacedBy,
		"created_at":       o.CreatedAt,
		"updated_at":       o.UpdatedAt,
	}
}
