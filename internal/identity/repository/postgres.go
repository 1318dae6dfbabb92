package repository

import (
	"context"
	"database/sql"
	"errors"

	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/identity/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an identity repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetIdentityByUserAndProvider returns the identity for the user and provider, or nil if not found.
func (r *PostgresRepository) GetIdentityByUserAndProvider(ctx context.Context, userID string, provider domain.IdentityProvider) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, provider, provider_id, password_hash, created_at
		 FROM identities WHERE user_id = $1 AND provider = $2`,
		userID, string(provider))

	var i domain.Identity
	var prov string
	var hash sql.NullString
	if err := row.Scan(&i.ID, &i.UserID, &prov, &i.ProviderID, &hash, &i.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	i.Provider = domain.IdentityProvider(prov)
	i.PasswordHash = hash.String
	return &i, nil
}

// CreateIdentity persists the identity. The identity must have ID set.
func (r *PostgresRepository) CreateIdentity(ctx context.Context, i *domain.Identity) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO identities (id, user_id, provider, provider_id, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		i.ID, i.UserID, string(i.Provider), i.ProviderID, i.PasswordHash, i.CreatedAt)
	return err
}
