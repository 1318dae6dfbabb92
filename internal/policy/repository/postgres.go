package repository

import (
	"context"
	"database/sql"
	"errors"

	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/policy/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a policy repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetPolicyByOrg returns the org's policy, or nil if none is stored.
func (r *PostgresRepository) GetPolicyByOrg(ctx context.Context, orgID string) (*domain.Policy, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, org_id, rules, enabled, created_at FROM policies WHERE org_id = $1`, orgID)

	var p domain.Policy
	if err := row.Scan(&p.ID, &p.OrgID, &p.Rules, &p.Enabled, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// UpsertPolicy inserts or replaces the org's policy row.
func (r *PostgresRepository) UpsertPolicy(ctx context.Context, p *domain.Policy) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO policies (id, org_id, rules, enabled, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (org_id) DO UPDATE SET rules = EXCLUDED.rules, enabled = EXCLUDED.enabled`,
		p.ID, p.OrgID, p.Rules, p.Enabled, p.CreatedAt)
	return err
}
