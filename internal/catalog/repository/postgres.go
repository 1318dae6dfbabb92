package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"agrimarket/backend/internal/catalog/domain"
	"agrimarket/backend/internal/db"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a product repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const productColumns = `id, org_id, sku, name, description, price_cents, status, created_at, updated_at`

// GetProductByID returns the product for id, or nil if not found.
func (r *PostgresRepository) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	var p domain.Product
	var status string
	if err := row.Scan(&p.ID, &p.OrgID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.Status = domain.ProductStatus(status)
	return &p, nil
}

// ListProducts returns products, optionally filtered by vendor org and active status.
func (r *PostgresRepository) ListProducts(ctx context.Context, vendorOrgID string, activeOnly bool) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE 1=1`
	args := []interface{}{}
	if vendorOrgID != "" {
		args = append(args, vendorOrgID)
		query += ` AND org_id = $1`
	}
	if activeOnly {
		query += ` AND status = 'active'`
	}
	query += ` ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Product
	for rows.Next() {
		var p domain.Product
		var status string
		if err := rows.Scan(&p.ID, &p.OrgID, &p.SKU, &p.Name, &p.Description, &p.PriceCents, &status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Status = domain.ProductStatus(status)
		out = append(out, &p)
	}
	return out, rows.Err()
}

// CreateProduct persists the product. The product must have ID set.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, org_id, sku, name, description, price_cents, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.OrgID, p.SKU, p.Name, p.Description, p.PriceCents, string(p.Status), p.CreatedAt, p.UpdatedAt)
	return err
}

// UpdateProduct updates the mutable fields of the product record.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p *domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = $2, description = $3, price_cents = $4, status = $5, updated_at = $6
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.PriceCents, string(p.Status), time.Now().UTC())
	return err
}
