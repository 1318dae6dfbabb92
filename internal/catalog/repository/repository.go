package repository

import (
	"context"

	"agrimarket/backend/internal/catalog/domain"
)

// Repository defines persistence for catalog products.
type Repository interface {
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	ListProducts(ctx context.Context, vendorOrgID string, activeOnly bool) ([]*domain.Product, error)
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpdateProduct(ctx context.Context, p *domain.Product) error
}
