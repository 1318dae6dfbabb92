package repository

import (
	"context"

	"agrimarket/backend/internal/identity/domain"
)

// Repository defines persistence for login identities.
type Repository interface {
	GetIdentityByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error)
	CreateIdentity(ctx context.Context, i *domain.Identity) error
}
