package repository

import (
	"context"

	"agrimarket/backend/internal/booking/domain"
)

// Repository defines persistence for bookings.
type Repository interface {
	GetBookingByID(ctx context.Context, id string) (*domain.Booking, error)
	ListBookingsByOrg(ctx context.Context, orgID string) ([]*domain.Booking, error)
	CreateBooking(ctx context.Context, b *domain.Booking) error
	AssignBooking(ctx context.Context, id, userID string) error
	UpdateBookingStatus(ctx context.Context, id string, status domain.BookingStatus) error
}
