package domain

import (
	"errors"
	"time"
)

// Message is an org-to-org note written by a user, used for order and
// mission coordination between tenants.
type Message struct {
	ID        string
	FromOrgID string
	ToOrgID   string
	UserID    string
	Body      string
	CreatedAt time.Time
}

// Validate validates the message for persistence.
func (m *Message) Validate() error {
	if m.FromOrgID == "" || m.ToOrgID == "" {
		return errors.New("from and to org are required")
	}
	if m.FromOrgID == m.ToOrgID {
		return errors.New("cannot message your own organization")
	}
	if m.Body == "" {
		return errors.New("body is required")
	}
	return nil
}
