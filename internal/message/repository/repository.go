package repository

import (
	"context"

	"agrimarket/backend/internal/message/domain"
)

// Repository defines persistence for messages.
type Repository interface {
	ListMessagesForOrg(ctx context.Context, orgID string, limit int) ([]*domain.Message, error)
	CreateMessage(ctx context.Context, m *domain.Message) error
}
