package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"agrimarket/backend/internal/booking/domain"
	"agrimarket/backend/internal/db"
)

type PostgresRepository struct {
	db db.DBTX
}

// NewPostgresRepository returns a booking repository that uses the given db for persistence.
func NewPostgresRepository(db db.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const bookingColumns = `id, buyer_org_id, operator_org_id, service_type, field_notes, status, assigned_user_id, requested_by, created_at, updated_at`

// GetBookingByID returns the booking for id, or nil if not found.
func (r *PostgresRepository) GetBookingByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row.Scan)
}

// ListBookingsByOrg returns bookings where the org is buyer or operator, newest first.
func (r *PostgresRepository) ListBookingsByOrg(ctx context.Context, orgID string) ([]*domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		 WHERE buyer_org_id = $1 OR operator_org_id = $1
		 ORDER BY created_at DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// CreateBooking persists the booking. The booking must have ID set.
func (r *PostgresRepository) CreateBooking(ctx context.Context, b *domain.Booking) error {
	assigned := sql.NullString{String: b.AssignedUserID, Valid: b.AssignedUserID != ""}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (id, buyer_org_id, operator_org_id, service_type, field_notes, status, assigned_user_id, requested_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ID, b.BuyerOrgID, b.OperatorOrgID, b.ServiceType, b.FieldNotes,
		string(b.Status), assigned, b.RequestedBy, b.CreatedAt, b.UpdatedAt)
	return err
}

// AssignBooking sets the assigned pilot and moves the booking to assigned.
func (r *PostgresRepository) AssignBooking(ctx context.Context, id, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET assigned_user_id = $2, status = 'assigned', updated_at = $3 WHERE id = $1`,
		id, userID, time.Now().UTC())
	return err
}

// UpdateBookingStatus sets the status for the booking.
func (r *PostgresRepository) UpdateBookingStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE bookings SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), time.Now().UTC())
	return err
}

func scanBooking(scan func(dest ...interface{}) error) (*domain.Booking, error) {
	var b domain.Booking
	var status string
	var assigned sql.NullString
	if err := scan(&b.ID, &b.BuyerOrgID, &b.OperatorOrgID, &b.ServiceType, &b.FieldNotes,
		&status, &assigned, &b.RequestedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	b.Status = domain.BookingStatus(status)
	b.AssignedUserID = assigned.String
	return &b, nil
}
