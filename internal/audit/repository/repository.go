package repository

import (
	"context"

	"agrimarket/backend/internal/audit/domain"
)

// Repository defines persistence for audit logs.
type Repository interface {
	GetAuditLogByID(ctx context.Context, id string) (*domain.AuditLog, error)
	ListAuditLogsByOrg(ctx context.Context, orgID string, limit, offset int) ([]*domain.AuditLog, error)
	CreateAuditLog(ctx context.Context, a *domain.AuditLog) error
}
