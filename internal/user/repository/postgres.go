package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"agrimarket/backend/internal/db"
	"agrimarket/backend/internal/user/domain"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a user repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, email, name, phone, email_verified, status, created_at, updated_at`

// GetUserByID returns the user for id, or nil if not found.
func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByEmail returns the user for email, or nil if not found.
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// CreateUser persists the user. The user must have ID set.
func (r *PostgresRepository) CreateUser(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, phone, email_verified, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Email, u.Name, u.Phone, u.EmailVerified, string(u.Status), u.CreatedAt, u.UpdatedAt)
	return err
}

// UpdateUser updates the mutable fields of the user record.
func (r *PostgresRepository) UpdateUser(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET name = $2, phone = $3, email_verified = $4, status = $5, updated_at = $6
		 WHERE id = $1`,
		u.ID, u.Name, u.Phone, u.EmailVerified, string(u.Status), time.Now().UTC())
	return err
}

func scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	var name, phone sql.NullString
	var status string
	if err := row.Scan(&u.ID, &u.Email, &name, &phone, &u.EmailVerified, &status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	u.Name = name.String
	u.Phone = phone.String
	u.Status = domain.UserStatus(status)
	return &u, nil
}
