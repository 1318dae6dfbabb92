package repository

import (
	"context"

	"agrimarket/backend/internal/session/domain"
)

// Repository defines persistence for sessions.
type Repository interface {
	GetSessionByID(ctx context.Context, id string) (*domain.Session, error)
	CreateSession(ctx context.Context, s *domain.Session) error
	RotateRefresh(ctx context.Context, id, jti, tokenHash string) error
	RevokeSession(ctx context.Context, id string) error
	RevokeSessionsForUser(ctx context.Context, userID string) error
	TouchSession(ctx context.Context, id string) error
}
