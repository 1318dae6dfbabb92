package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/session/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a session repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetSessionByID returns the session for id, or nil if not found.
func (r *PostgresRepository) GetSessionByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, org_id, refresh_jti, refresh_token_hash, expires_at, revoked_at, last_seen_at, created_at
		 FROM sessions WHERE id = $1`, id)

	var s domain.Session
	var orgID sql.NullString
	var revokedAt, lastSeenAt sql.NullTime
	if err := row.Scan(&s.ID, &s.UserID, &orgID, &s.RefreshJti, &s.RefreshTokenHash,
		&s.ExpiresAt, &revokedAt, &lastSeenAt, &s.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	s.OrgID = orgID.String
	if revokedAt.Valid {
		s.RevokedAt = &revokedAt.Time
	}
	if lastSeenAt.Valid {
		s.LastSeenAt = &lastSeenAt.Time
	}
	return &s, nil
}

// CreateSession persists the session. The session must have ID set.
// An empty OrgID is stored as NULL to satisfy the organizations foreign key.
func (r *PostgresRepository) CreateSession(ctx context.Context, s *domain.Session) error {
	orgID := sql.NullString{String: s.OrgID, Valid: s.OrgID != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, org_id, refresh_jti, refresh_token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.UserID, orgID, s.RefreshJti, s.RefreshTokenHash, s.ExpiresAt, s.CreatedAt)
	return err
}

// RotateRefresh replaces the session's current refresh jti and token hash.
func (r *PostgresRepository) RotateRefresh(ctx context.Context, id, jti, tokenHash string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET refresh_jti = $2, refresh_token_hash = $3, last_seen_at = $4 WHERE id = $1`,
		id, jti, tokenHash, time.Now().UTC())
	return err
}

// RevokeSession marks the session revoked. Idempotent.
func (r *PostgresRepository) RevokeSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE id = $1 AND revoked_at IS NULL`,
		id, time.Now().UTC())
	return err
}

// RevokeSessionsForUser revokes every active session held by the user.
// Used on refresh token reuse detection.
func (r *PostgresRepository) RevokeSessionsForUser(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`,
		userID, time.Now().UTC())
	return err
}

// TouchSession updates the session's last_seen_at.
func (r *PostgresRepository) TouchSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = $2 WHERE id = $1`, id, time.Now().UTC())
	return err
}
