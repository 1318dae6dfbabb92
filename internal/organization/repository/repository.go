package repository

import (
	"context"

	"agrimarket/backend/internal/organization/domain"
)

// Repository defines persistence for organizations.
type Repository interface {
	GetOrgByID(ctx context.Context, id string) (*domain.Org, error)
	CreateOrg(ctx context.Context, o *domain.Org) error
	UpdateOrgStatus(ctx context.Context, id string, status domain.OrgStatus) error
	ListOrgs(ctx context.Context, orgType string) ([]*domain.Org, error)
}
