package repository

import (
	"context"
	"database/sql"
	"errors"

	"agrimarket/backend/internal/authz"
	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/organization/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an organization repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetOrgByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetOrgByID(ctx context.Context, id string) (*domain.Org, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, legal_name, org_type, status, created_at FROM organizations WHERE id = $1`, id)
	return scanOrg(row)
}

// CreateOrg persists the organization. The organization must have ID set.
func (r *PostgresRepository) CreateOrg(ctx context.Context, o *domain.Org) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO organizations (id, legal_name, org_type, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		o.ID, o.Name, string(o.Type), string(o.Status), o.CreatedAt)
	return err
}

// UpdateOrgStatus sets the status for the organization.
func (r *PostgresRepository) UpdateOrgStatus(ctx context.Context, id string, status domain.OrgStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE organizations SET status = $2 WHERE id = $1`, id, string(status))
	return err
}

// ListOrgs returns organizations, optionally filtered by org type.
func (r *PostgresRepository) ListOrgs(ctx context.Context, orgType string) ([]*domain.Org, error) {
	query := `SELECT id, legal_name, org_type, status, created_at FROM organizations ORDER BY created_at`
	args := []interface{}{}
	if orgType != "" {
		query = `SELECT id, legal_name, org_type, status, created_at FROM organizations
		         WHERE org_type = $1 ORDER BY created_at`
		args = append(args, orgType)
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orgs []*domain.Org
	for rows.Next() {
		var o domain.Org
		var orgType, status string
		if err := rows.Scan(&o.ID, &o.Name, &orgType, &status, &o.CreatedAt); err != nil {
			return nil, err
		}
		o.Type = authz.OrgType(orgType)
		o.Status = domain.OrgStatus(status)
		orgs = append(orgs, &o)
	}
	return orgs, rows.Err()
}

func scanOrg(row *sql.Row) (*domain.Org, error) {
	var o domain.Org
	var orgType, status string
	if err := row.Scan(&o.ID, &o.Name, &orgType, &status, &o.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.Type = authz.OrgType(orgType)
	o.Status = domain.OrgStatus(status)
	return &o, nil
}
