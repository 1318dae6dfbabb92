package repository

import (
	"context"
	"database/sql"
	"errors"

	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/membership/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a membership repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const membershipColumns = `id, user_id, org_id, role, is_active, created_at`

// GetMembershipByUserAndOrg returns the membership for the user in the org, or nil if not found.
func (r *PostgresRepository) GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*domain.Membership, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 AND org_id = $2`,
		userID, orgID)

	var m domain.Membership
	if err := row.Scan(&m.ID, &m.UserID, &m.OrgID, &m.Role, &m.IsActive, &m.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

// ListMembershipsByOrg returns all memberships in the org, newest last.
func (r *PostgresRepository) ListMembershipsByOrg(ctx context.Context, orgID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE org_id = $1 ORDER BY created_at`, orgID)
	if err != nil {
		return nil, err
	}
	return collectMemberships(rows)
}

// ListMembershipsByUser returns all memberships held by the user.
func (r *PostgresRepository) ListMembershipsByUser(ctx context.Context, userID string) ([]*domain.Membership, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	return collectMemberships(rows)
}

// CreateMembership persists the membership. The membership must have ID set.
func (r *PostgresRepository) CreateMembership(ctx context.Context, m *domain.Membership) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO memberships (id, user_id, org_id, role, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.UserID, m.OrgID, m.Role, m.IsActive, m.CreatedAt)
	return err
}

// UpdateMembershipRole sets the stored role for the membership.
func (r *PostgresRepository) UpdateMembershipRole(ctx context.Context, id, role string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET role = $2 WHERE id = $1`, id, role)
	return err
}

// SetMembershipActive activates or deactivates the membership.
func (r *PostgresRepository) SetMembershipActive(ctx context.Context, id string, active bool) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE memberships SET is_active = $2 WHERE id = $1`, id, active)
	return err
}

func collectMemberships(rows *sql.Rows) ([]*domain.Membership, error) {
	defer rows.Close()
	var out []*domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.OrgID, &m.Role, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
