package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/invite/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an invite repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const inviteColumns = `id, org_id, email, role, token_hash, expires_at, accepted_at, created_at`

// GetInviteByTokenHash returns the invite for the token hash, or nil if not found.
func (r *PostgresRepository) GetInviteByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE token_hash = $1`, tokenHash)

	var i domain.Invite
	var acceptedAt sql.NullTime
	if err := row.Scan(&i.ID, &i.OrgID, &i.Email, &i.Role, &i.TokenHash, &i.ExpiresAt, &acceptedAt, &i.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if acceptedAt.Valid {
		i.AcceptedAt = &acceptedAt.Time
	}
	return &i, nil
}

// ListInvitesByOrg returns all invites issued by the org, newest last.
func (r *PostgresRepository) ListInvitesByOrg(ctx context.Context, orgID string) ([]*domain.Invite, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+inviteColumns+` FROM invites WHERE org_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Invite
	for rows.Next() {
		var i domain.Invite
		var acceptedAt sql.NullTime
		if err := rows.Scan(&i.ID, &i.OrgID, &i.Email, &i.Role, &i.TokenHash, &i.ExpiresAt, &acceptedAt, &i.CreatedAt); err != nil {
			return nil, err
		}
		if acceptedAt.Valid {
			i.AcceptedAt = &acceptedAt.Time
		}
		out = append(out, &i)
	}
	return out, rows.Err()
}

// CreateInvite persists the invite. The invite must have ID set.
func (r *PostgresRepository) CreateInvite(ctx context.Context, i *domain.Invite) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO invites (id, org_id, email, role, token_hash, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		i.ID, i.OrgID, i.Email, i.Role, i.TokenHash, i.ExpiresAt, i.CreatedAt)
	return err
}

// MarkInviteAccepted stamps the invite's accepted_at. Only unaccepted invites are updated.
func (r *PostgresRepository) MarkInviteAccepted(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE invites SET accepted_at = $2 WHERE id = $1 AND accepted_at IS NULL`,
		id, time.Now().UTC())
	return err
}
