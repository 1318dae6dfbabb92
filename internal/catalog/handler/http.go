package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agrimarket/backend/internal/authz"
	"agrimarket/backend/internal/catalog/domain"
	"agrimarket/backend/internal/catalog/repository"
	invrepo "agrimarket/backend/internal/inventory/repository"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/httpx"
)

// CatalogHandler exposes the product catalog. Reads need
// can_access_catalog; writes need can_sell and ownership by the caller's
// vendor org.
type CatalogHandler struct {
	products  repository.Repository
	inventory invrepo.Repository
	guard     *rbac.Guard
}

func NewCatalogHandler(products repository.Repository, inventory invrepo.Repository, guard *rbac.Guard) *CatalogHandler {
	return &CatalogHandler{products: products, inventory: inventory, guard: guard}
}

// Register registers the catalog routes on the group.
func (h *CatalogHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/products", h.list)
	rg.GET("/products/:id", h.get)
	rg.POST("/products", h.create)
	rg.PATCH("/products/:id", h.update)
	rg.PUT("/products/:id/stock", h.setStock)
}

func (h *CatalogHandler) list(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessCatalog)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	vendor := c.Query("vendor_org_id")
	// Vendors see their own retired products too.
	activeOnly := !(id.Capabilities.CanSell && (vendor == "" || vendor == id.OrgID))
	ps, err := h.products.ListProducts(c.Request.Context(), vendor, activeOnly)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	out := make([]gin.H, 0, len(ps))
	for _, p := range ps {
		out = append(out, productJSON(p))
	}
	c.JSON(http.StatusOK, gin.H{"products": out})
}

func (h *CatalogHandler) get(c *gin.Context) {
	if _, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessCatalog); err != nil {
		httpx.GuardError(c, err)
		return
	}
	p, err := h.products.GetProductByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if p == nil {
		httpx.Error(c, http.StatusNotFound, "not_found", "product not found")
		return
	}
	j := productJSON(p)
	stock, err := h.inventory.GetStock(c.Request.Context(), p.ID)
	if err == nil && stock != nil {
		j["qty_available"] = stock.QtyOnHand - stock.QtyReserved
	}
	c.JSON(http.StatusOK, j)
}

type createProductRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"required"`
	QtyOnHand   int    `json:"qty_on_hand"`
}

func (h *CatalogHandler) create(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapSell)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	now := time.Now().UTC()
	p := &domain.Product{
		ID:          uuid.New().String(),
		OrgID:       id.OrgID,
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Status:      domain.ProductStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := h.products.CreateProduct(c.Request.Context(), p); err != nil {
		httpx.Internal(c, err)
		return
	}
	if err := h.inventory.InitStock(c.Request.Context(), p.ID, req.QtyOnHand); err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusCreated, productJSON(p))
}

type updateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Status      *string `json:"status"`
}

func (h *CatalogHandler) update(c *gin.Context) {
	_, p, ok := h.ownProduct(c)
	if !ok {
		return
	}
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.PriceCents != nil {
		p.PriceCents = *req.PriceCents
	}
	if req.Status != nil {
		switch domain.ProductStatus(*req.Status) {
		case domain.ProductStatusActive, domain.ProductStatusRetired:
			p.Status = domain.ProductStatus(*req.Status)
		default:
			httpx.Error(c, http.StatusBadRequest, "invalid_status", "status must be active or retired")
			return
		}
	}
	if err := p.Validate(); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := h.products.UpdateProduct(c.Request.Context(), p); err != nil {
		httpx.Internal(c, err)
		return
	}
	c.JSON(http.StatusOK, productJSON(p))
}

type setStockRequest struct {
	QtyOnHand int `json:"qty_on_hand" binding:"min=0"`
}

func (h *CatalogHandler) setStock(c *gin.Context) {
	_, p, ok := h.ownProduct(c)
	if !ok {
		return
	}
	var req setStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if err := h.inventory.SetOnHand(c.Request.Context(), p.ID, req.QtyOnHand); err != nil {
		httpx.Error(c, http.StatusConflict, "stock_conflict", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"product_id": p.ID, "qty_on_hand": req.QtyOnHand})
}

// ownProduct checks can_sell and that the product at :id belongs to the
// caller's org. Writes the error response itself when it returns false.
func (h *CatalogHandler) ownProduct(c *gin.Context) (*rbac.Identity, *domain.Product, bool) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapSell)
	if err != nil {
		httpx.GuardError(c, err)
		return nil, nil, false
	}
	p, err := h.products.GetProductByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Internal(c, err)
		return nil, nil, false
	}
	if p == nil {
		httpx.Error(c, http.StatusNotFound, "not_found", "product not found")
		return nil, nil, false
	}
	if p.OrgID != id.OrgID {
		httpx.Error(c, http.StatusForbidden, "forbidden", "product belongs to another organization")
		return nil, nil, false
	}
	return id, p, true
}

func productJSON(p *domain.Product) gin.H {
	return gin.H{
		"id":          p.ID,
		"org_id":      p.OrgID,
		"sku":         p.SKU,
		"name":        p.Name,
		"description": p.Description,
		"price_cents": p.PriceCents,
		"status":      string(p.Status),
		"created_at":  p.CreatedAt,
		"updated_at":  p.UpdatedAt,
	}
}
