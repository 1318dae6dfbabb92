package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	authzpkg "agrimarket/backend/internal/authz"
	"agrimarket/backend/internal/booking/domain"
	"agrimarket/backend/internal/booking/repository"
	memdomain "agrimarket/backend/internal/membership/domain"
	"agrimarket/backend/internal/notify/sms"
	orgdomain "agrimarket/backend/internal/organization/domain"
	userdomain "agrimarket/backend/internal/user/domain"
)

// Sentinel errors for the booking service; handler maps them to HTTP status codes.
var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrNotYourBooking    = errors.New("booking belongs to another organization")
	ErrInvalidTransition = errors.New("booking status does not allow this operation")
	ErrOperatorRequired  = errors.New("target org is not an operator org")
	ErrPilotNotInOrg     = errors.New("assignee is not an active member of the operator org")
)

// OrgRepo is the minimal organization repository needed by the booking service.
type OrgRepo interface {
	GetOrgByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// UserRepo is the minimal user repository needed by the booking service.
type UserRepo interface {
	GetUserByID(ctx context.Context, id string) (*userdomain.User, error)
}

// MembershipRepo is the minimal membership repository needed by the booking service.
type MembershipRepo interface {
	GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*memdomain.Membership, error)
}

// BookingService runs the mission lifecycle: request, assign, complete,
// cancel. Assignment sends the pilot a best-effort SMS.
type BookingService struct {
	bookings    repository.Repository
	orgs        OrgRepo
	users       UserRepo
	memberships MembershipRepo
	notifier    sms.Sender
}

func NewBookingService(bookings repository.Repository, orgs OrgRepo, users UserRepo, memberships MembershipRepo, notifier sms.Sender) *BookingService {
	return &BookingService{bookings: bookings, orgs: orgs, users: users, memberships: memberships, notifier: notifier}
}

// Request creates a booking against an operator org.
func (s *BookingService) Request(ctx context.Context, buyerOrgID, requestedBy, operatorOrgID, serviceType, fieldNotes string) (*domain.Booking, error) {
	op, err := s.orgs.GetOrgByID(ctx, operatorOrgID)
	if err != nil {
		return nil, err
	}
	if op == nil || op.Type != authzpkg.OrgTypeOperator || op.Status != orgdomain.OrgStatusActive {
		return nil, ErrOperatorRequired
	}
	now := time.Now().UTC()
	b := &domain.Booking{
		ID:            uuid.New().String(),
		BuyerOrgID:    buyerOrgID,
		OperatorOrgID: operatorOrgID,
		ServiceType:   serviceType,
		FieldNotes:    fieldNotes,
		Status:        domain.BookingStatusRequested,
		RequestedBy:   requestedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.bookings.CreateBooking(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Assign puts a pilot on a requested booking. The pilot must hold an
// active membership in the operator org. Notification failure does not
// fail the assignment.
func (s *BookingService) Assign(ctx context.Context, operatorOrgID, bookingID, pilotUserID string) (*domain.Booking, error) {
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OperatorOrgID != operatorOrgID {
		return nil, ErrNotYourBooking
	}
	if b.Status != domain.BookingStatusRequested && b.Status != domain.BookingStatusAssigned {
		return nil, ErrInvalidTransition
	}
	m, err := s.memberships.GetMembershipByUserAndOrg(ctx, pilotUserID, operatorOrgID)
	if err != nil {
		return nil, err
	}
	if m == nil || !m.IsActive {
		return nil, ErrPilotNotInOrg
	}
	if err := s.bookings.AssignBooking(ctx, b.ID, pilotUserID); err != nil {
		return nil, err
	}
	b.AssignedUserID = pilotUserID
	b.Status = domain.BookingStatusAssigned
	s.notifyPilot(ctx, b, pilotUserID)
	return b, nil
}

// Complete closes an assigned booking. Operator org only.
func (s *BookingService) Complete(ctx context.Context, operatorOrgID, bookingID string) (*domain.Booking, error) {
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.OperatorOrgID != operatorOrgID {
		return nil, ErrNotYourBooking
	}
	if b.Status != domain.BookingStatusAssigned {
		return nil, ErrInvalidTransition
	}
	if err := s.bookings.UpdateBookingStatus(ctx, b.ID, domain.BookingStatusCompleted); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatusCompleted
	return b, nil
}

// Cancel withdraws a booking that has not completed. Requester org only.
func (s *BookingService) Cancel(ctx context.Context, buyerOrgID, bookingID string) (*domain.Booking, error) {
	b, err := s.loadBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.BuyerOrgID != buyerOrgID {
		return nil, ErrNotYourBooking
	}
	if b.Status == domain.BookingStatusCompleted || b.Status == domain.BookingStatusCancelled {
		return nil, ErrInvalidTransition
	}
	if err := s.bookings.UpdateBookingStatus(ctx, b.ID, domain.BookingStatusCancelled); err != nil {
		return nil, err
	}
	b.Status = domain.BookingStatusCancelled
	return b, nil
}

func (s *BookingService) loadBooking(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := s.bookings.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBookingNotFound
	}
	return b, nil
}

func (s *BookingService) notifyPilot(ctx context.Context, b *domain.Booking, pilotUserID string) {
	if s.notifier == nil {
		return
	}
	u, err := s.users.GetUserByID(ctx, pilotUserID)
	if err != nil || u == nil || u.Phone == "" {
		return
	}
	msg := fmt.Sprintf("New %s mission assigned (booking %s)", b.ServiceType, b.ID)
	if err := s.notifier.Send(u.Phone, msg); err != nil {
		log.Printf("booking: SMS notify failed for booking %s: %v", b.ID, err)
	}
}
