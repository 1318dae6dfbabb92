package domain

import "time"

// Identity represents a user's linked login identity. Only local
// email/password identities are issued today; the provider column leaves
// room for federated logins later.
type Identity struct {
	ID           string
	UserID       string
	Provider     IdentityProvider
	ProviderID   string
	PasswordHash string // empty if not local
	CreatedAt    time.Time
}

type IdentityProvider string

const (
	IdentityProviderLocal IdentityProvider = "local"
)
