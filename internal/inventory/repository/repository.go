package repository

import (
	"context"
	"errors"

	"agrimarket/backend/internal/inventory/domain"
)

// ErrInsufficientStock is returned when a reservation, release, commit, or
// on-hand adjustment would violate the stock invariant.
var ErrInsufficientStock = errors.New("insufficient stock")

// Repository defines persistence for product stock. Reserve, Release, and
// Commit are conditional updates: they fail with ErrInsufficientStock
// instead of ever writing an invalid quantity, so concurrent checkouts
// cannot oversell.
type Repository interface {
	GetStock(ctx context.Context, productID string) (*domain.Stock, error)
	InitStock(ctx context.Context, productID string, qtyOnHand int) error
	SetOnHand(ctx context.Context, productID string, qtyOnHand int) error
	Reserve(ctx context.Context, productID string, qty int) error
	Release(ctx context.Context, productID string, qty int) error
	Commit(ctx context.Context, productID string, qty int) error
}
