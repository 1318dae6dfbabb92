package domain

import "time"

// Order is a purchase of a catalog product by a buyer org. Stock stays
// reserved while the order is placed or awaiting approval; fulfillment
// commits the reservation and cancellation releases it.
type Order struct {
	ID             string
	BuyerOrgID     string
	VendorOrgID    string
	ProductID      string
	Quantity       int
	UnitPriceCents int64
	Status         OrderStatus
	PlacedBy       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderStatus string

const (
	OrderStatusPlaced          OrderStatus = "placed"
	OrderStatusPendingApproval OrderStatus = "pending_approval"
	OrderStatusFulfilled       OrderStatus = "fulfilled"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// TotalCents returns the order total.
func (o *Order) TotalCents() int64 {
	return int64(o.Quantity) * o.UnitPriceCents
}

// Open reports whether the order still holds a stock reservation.
func (o *Order) Open() bool {
	return o.Status == OrderStatusPlaced || o.Status == OrderStatusPendingApproval
}
