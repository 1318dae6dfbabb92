package domain

import (
	"errors"
	"time"
)

// Invite is a pending membership offer for an email address. The raw invite
// token is shown once at creation; only its SHA-256 hash is stored.
type Invite struct {
	ID         string
	OrgID      string
	Email      string
	Role       string // canonical role the accepter will receive
	TokenHash  string
	ExpiresAt  time.Time
	AcceptedAt *time.Time
	CreatedAt  time.Time
}

// Validate validates the invite for persistence.
func (i *Invite) Validate() error {
	if i.OrgID == "" {
		return errors.New("org_id is required")
	}
	if i.Email == "" {
		return errors.New("email is required")
	}
	if i.Role == "" {
		return errors.New("role is required")
	}
	if i.TokenHash == "" {
		return errors.New("token hash is required")
	}
	return nil
}

// Acceptable reports whether the invite can still be accepted at t.
func (i *Invite) Acceptable(t time.Time) bool {
	return i.AcceptedAt == nil && t.Before(i.ExpiresAt)
}
