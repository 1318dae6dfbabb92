package domain

import (
	"errors"
	"time"

	"agrimarket/backend/internal/authz"
)

// Org represents an organization/tenant. Type decides which side of the
// marketplace the org sits on (buyer, vendor, or drone operator).
type Org struct {
	ID        string
	Name      string
	Type      authz.OrgType
	Status    OrgStatus
	CreatedAt time.Time
}

type OrgStatus string

const (
	OrgStatusActive    OrgStatus = "active"
	OrgStatusSuspended OrgStatus = "suspended"
)

// Validate validates the organization for persistence. Returns an error describing the first validation failure.
func (o *Org) Validate() error {
	if o.Name == "" {
		return errors.New("name is required")
	}
	if _, err := authz.ParseOrgType(string(o.Type)); err != nil {
		return err
	}
	if o.Status == "" {
		o.Status = OrgStatusActive
	}
	return nil
}
