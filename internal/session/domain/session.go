package domain

import "time"

// Session represents a refresh-token session scoped to a user and,
// except for first-org bootstrap sessions, an org.
type Session struct {
	ID               string
	UserID           string
	OrgID            string // empty for org-less bootstrap sessions
	RefreshJti       string // current refresh token jti for rotation
	RefreshTokenHash string // SHA-256 hash of current refresh token
	ExpiresAt        time.Time
	RevokedAt        *time.Time // nil when not revoked
	LastSeenAt       *time.Time
	CreatedAt        time.Time
}

// Active reports whether the session is usable at t.
func (s *Session) Active(t time.Time) bool {
	return s.RevokedAt == nil && t.Before(s.ExpiresAt)
}
