package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/order/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an order repository that uses the given db
// for persistence. Pass a *sql.Tx to run inside the checkout transaction.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const orderColumns = `id, buyer_org_id, vendor_org_id, product_id, quantity, unit_price_cents, status, placed_by, created_at, updated_at`

// GetOrderByID returns the order for id, or nil if not found.
func (r *PostgresRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

	var o domain.Order
	var status string
	if err := row.Scan(&o.ID, &o.BuyerOrgID, &o.VendorOrgID, &o.ProductID, &o.Quantity,
		&o.UnitPriceCents, &status, &o.PlacedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	o.Status = domain.OrderStatus(status)
	return &o, nil
}

// ListOrdersByOrg returns orders where the org is buyer or vendor, newest first.
func (r *PostgresRepository) ListOrdersByOrg(ctx context.Context, orgID string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders
		 WHERE buyer_org_id = $1 OR vendor_org_id = $1
		 ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		var o domain.Order
		var status string
		if err := rows.Scan(&o.ID, &o.BuyerOrgID, &o.VendorOrgID, &o.ProductID, &o.Quantity,
			&o.UnitPriceCents, &status, &o.PlacedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		o.Status = domain.OrderStatus(status)
		out = append(out, &o)
	}
	return out, rows.Err()
}

// CreateOrder persists the order. The order must have ID set.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *domain.Order) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO orders (id, buyer_org_id, vendor_org_id, product_id, quantity, unit_price_cents, status, placed_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		o.ID, o.BuyerOrgID, o.VendorOrgID, o.ProductID, o.Quantity,
		o.UnitPriceCents, string(o.Status), o.PlacedBy, o.CreatedAt, o.UpdatedAt)
	return err
}

// UpdateOrderStatus sets the status for the order.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC())
	return err
}
