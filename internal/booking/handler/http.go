package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"agrimarket/backend/internal/authz"
	"agrimarket/backend/internal/booking/domain"
	"agrimarket/backend/internal/booking/repository"
	"agrimarket/backend/internal/booking/service"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/httpx"
)

// BookingHandler exposes the mission lifecycle.
type BookingHandler struct {
	svc      *service.BookingService
	bookings repository.Repository
	guard    *rbac.Guard
}

func NewBookingHandler(svc *service.BookingService, bookings repository.Repository, guard *rbac.Guard) *BookingHandler {
	return &BookingHandler{svc: svc, bookings: bookings, guard: guard}
}

// Register registers the booking routes on the group.
func (h *BookingHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/bookings", h.request)
	rg.GET("/bookings", h.list)
	rg.GET("/bookings/:id", h.get)
	rg.POST("/bookings/:id/assign", h.assign)
	rg.POST("/bookings/:id/complete", h.complete)
	rg.POST("/bookings/:id/cancel", h.cancel)
}

type requestBookingRequest struct {
	OperatorOrgID string `json:"operator_org_id" binding:"required"`
	ServiceType   string `json:"service_type" binding:"required"`
	FieldNotes    string `json:"field_notes"`
}

func (h *BookingHandler) request(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapBuy)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	var req requestBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	b, err := h.svc.Request(c.Request.Context(), id.OrgID, id.UserID, req.OperatorOrgID, req.ServiceType, req.FieldNotes)
	if err != nil {
		h.writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookingJSON(b))
}

func (h *BookingHandler) list(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessBookings)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	bs, err := h.bookings.ListBookingsByOrg(c.Request.Context(), id.OrgID)
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	out := make([]gin.H, 0, len(bs))
	for _, b := range bs {
		out = append(out, bookingJSON(b))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": out})
}

func (h *BookingHandler) get(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessBookings)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	b, err := h.bookings.GetBookingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpx.Internal(c, err)
		return
	}
	if b == nil || (b.BuyerOrgID != id.OrgID && b.OperatorOrgID != id.OrgID) {
		httpx.Error(c, http.StatusNotFound, "not_found", "booking not found")
		return
	}
	c.JSON(http.StatusOK, bookingJSON(b))
}

type assignRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

func (h *BookingHandler) assign(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapDispatch)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	var req assignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpx.Error(c, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	b, err := h.svc.Assign(c.Request.Context(), id.OrgID, c.Param("id"), req.UserID)
	if err != nil {
		h.writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingJSON(b))
}

func (h *BookingHandler) complete(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapCompleteMissions)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	b, err := h.svc.Complete(c.Request.Context(), id.OrgID, c.Param("id"))
	if err != nil {
		h.writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingJSON(b))
}

func (h *BookingHandler) cancel(c *gin.Context) {
	id, err := h.guard.RequireCapability(c.Request.Context(), authz.CapAccessBookings)
	if err != nil {
		httpx.GuardError(c, err)
		return
	}
	b, err := h.svc.Cancel(c.Request.Context(), id.OrgID, c.Param("id"))
	if err != nil {
		h.writeBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookingJSON(b))
}

func (h *BookingHandler) writeBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrBookingNotFound):
		httpx.Error(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrNotYourBooking):
		httpx.Error(c, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, service.ErrOperatorRequired):
		httpx.Error(c, http.StatusBadRequest, "operator_required", err.Error())
	case errors.Is(err, service.ErrPilotNotInOrg):
		httpx.Error(c, http.StatusBadRequest, "pilot_not_in_org", err.Error())
	case errors.Is(err, service.ErrInvalidTransition):
		httpx.Error(c, http.StatusConflict, "invalid_transition", err.Error())
	default:
		httpx.Internal(c, err)
	}
}

func bookingJSON(b *domain.Booking) gin.H {
	return gin.H{
		"id":               b.ID,
		"buyer_org_id":     b.BuyerOrgID,
		"operator_org_id":  b.OperatorOrgID,
		"service_type":     b.ServiceType,
		"field_notes":      b.FieldNotes,
		"status":           string(b.Status),
		"assigned_user_id": b.AssignedUserID,
		"requested_by":     b.RequestedBy,
		"created_at":       b.CreatedAt,
		"updated_at":       b.UpdatedAt,
	}
}
