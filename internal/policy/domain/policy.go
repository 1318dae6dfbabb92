package domain

import "time"

// Policy holds an org's order-approval rules as a Rego module. One policy
// row per org; when absent or disabled the default module applies.
type Policy struct {
	ID        string
	OrgID     string
	Rules     string
	Enabled   bool
	CreatedAt time.Time
}
