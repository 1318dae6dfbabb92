package domain

import (
	"time"
)

// Membership links a user to an organization with a role. Role holds the
// value as stored; rows written before the role cleanup may still carry
// legacy spellings, so read paths normalize via authz.NormalizeRole instead
// of trusting the raw string.
type Membership struct {
	ID        string
	UserID    string
	OrgID     string
	Role      string
	IsActive  bool
	CreatedAt time.Time
}
