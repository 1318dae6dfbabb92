package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/inventory/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns an inventory repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// GetStock returns the stock row for the product, or nil if not found.
func (r *PostgresRepository) GetStock(ctx context.Context, productID string) (*domain.Stock, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT product_id, qty_on_hand, qty_reserved, updated_at FROM inventory WHERE product_id = $1`,
		productID)

	var s domain.Stock
	if err := row.Scan(&s.ProductID, &s.QtyOnHand, &s.QtyReserved, &s.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// InitStock creates the stock row for a new product.
func (r *PostgresRepository) InitStock(ctx context.Context, productID string, qtyOnHand int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO inventory (product_id, qty_on_hand, qty_reserved, updated_at)
		 VALUES ($1, $2, 0, $3)`,
		productID, qtyOnHand, time.Now().UTC())
	return err
}

// SetOnHand replaces qty_on_hand. Refused when the new level would drop
// below the quantity already reserved.
func (r *PostgresRepository) SetOnHand(ctx context.Context, productID string, qtyOnHand int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory SET qty_on_hand = $2, updated_at = $3
		 WHERE product_id = $1 AND qty_reserved <= $2`,
		productID, qtyOnHand, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Reserve moves qty units from available to reserved. The WHERE clause is
// the oversell guard: zero rows affected means not enough stock.
func (r *PostgresRepository) Reserve(ctx context.Context, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory SET qty_reserved = qty_reserved + $2, updated_at = $3
		 WHERE product_id = $1 AND qty_on_hand - qty_reserved >= $2`,
		productID, qty, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Release returns qty reserved units to available stock.
func (r *PostgresRepository) Release(ctx context.Context, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory SET qty_reserved = qty_reserved - $2, updated_at = $3
		 WHERE product_id = $1 AND qty_reserved >= $2`,
		productID, qty, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Commit removes qty units from both reserved and on-hand, completing a sale.
func (r *PostgresRepository) Commit(ctx context.Context, productID string, qty int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE inventory SET qty_on_hand = qty_on_hand - $2, qty_reserved = qty_reserved - $2, updated_at = $3
		 WHERE product_id = $1 AND qty_reserved >= $2`,
		productID, qty, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientStock
	}
	return nil
}
