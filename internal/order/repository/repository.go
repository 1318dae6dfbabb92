package repository

import (
	"context"

	"agrimarket/backend/internal/order/domain"
)

// Repository defines persistence for orders.
type Repository interface {
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	ListOrdersByOrg(ctx context.Context, orgID string) ([]*domain.Order, error)
	CreateOrder(ctx context.Context, o *domain.Order) error
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
}
