package repository

import (
	"context"

	"agrimarket/backend/internal/policy/domain"
)

// Repository defines persistence for org order policies.
type Repository interface {
	GetPolicyByOrg(ctx context.Context, orgID string) (*domain.Policy, error)
	UpsertPolicy(ctx context.Context, p *domain.Policy) error
}
