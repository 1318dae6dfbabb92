package domain

import (
	"errors"
	"time"
)

// Booking is a drone service mission requested by a buyer org from an
// operator org. An operator dispatcher assigns a pilot; the pilot's org
// completes the mission.
type Booking struct {
	ID             string
	BuyerOrgID     string
	OperatorOrgID  string
	ServiceType    string
	FieldNotes     string
	Status         BookingStatus
	AssignedUserID string // empty until a pilot is assigned
	RequestedBy    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type BookingStatus string

const (
	BookingStatusRequested BookingStatus = "requested"
	BookingStatusAssigned  BookingStatus = "assigned"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Validate validates the booking for persistence.
func (b *Booking) Validate() error {
	if b.BuyerOrgID == "" {
		return errors.New("buyer_org_id is required")
	}
	if b.OperatorOrgID == "" {
		return errors.New("operator_org_id is required")
	}
	if b.ServiceType == "" {
		return errors.New("service_type is required")
	}
	if b.Status == "" {
		b.Status = BookingStatusRequested
	}
	return nil
}
