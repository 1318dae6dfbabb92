package repository

import (
	"context"

	"agrimarket/backend/internal/invite/domain"
)

// Repository defines persistence for invites.
type Repository interface {
	GetInviteByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error)
	ListInvitesByOrg(ctx context.Context, orgID string) ([]*domain.Invite, error)
	CreateInvite(ctx context.Context, i *domain.Invite) error
	MarkInviteAccepted(ctx context.Context, id string) error
}
