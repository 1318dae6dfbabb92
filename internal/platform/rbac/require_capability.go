// Package rbac resolves the caller's capabilities from their membership
// and gates handlers on a named capability.
package rbac

import (
	"context"
	"errors"
	"fmt"

	"agrimarket/backend/internal/authz"
	memdomain "agrimarket/backend/internal/membership/domain"
	orgdomain "agrimarket/backend/internal/organization/domain"
	"agrimarket/backend/internal/server/reqctx"
)

var (
	// ErrUnauthenticated means the request carried no usable identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden means the caller is known but lacks the capability.
	ErrForbidden = errors.New("permission denied")
)

// MembershipGetter returns a user's membership in an org. Used to resolve the caller's role.
type MembershipGetter interface {
	GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*memdomain.Membership, error)
}

// OrgGetter returns an org by id. Used to resolve org type and status.
type OrgGetter interface {
	GetOrgByID(ctx context.Context, id string) (*orgdomain.Org, error)
}

// Identity is the resolved caller: who they are, where they belong, and
// what their membership lets them do.
type Identity struct {
	UserID       string
	OrgID        string
	SessionID    string
	OrgType      authz.OrgType
	Role         authz.Role
	Capabilities authz.Capabilities
}

// Guard resolves identities and checks capabilities against them.
type Guard struct {
	memberships MembershipGetter
	orgs        OrgGetter
}

func NewGuard(memberships MembershipGetter, orgs OrgGetter) *Guard {
	return &Guard{memberships: memberships, orgs: orgs}
}

// Resolve loads the caller's org and membership and derives their
// capability record. Suspended orgs and deactivated memberships resolve to
// ErrForbidden. The stored role is normalized, never trusted raw.
func (g *Guard) Resolve(ctx context.Context) (*Identity, error) {
	userID, okUser := reqctx.GetUserID(ctx)
	orgID, okOrg := reqctx.GetOrgID(ctx)
	if !okUser || userID == "" || !okOrg || orgID == "" {
		return nil, ErrUnauthenticated
	}
	sessionID, _ := reqctx.GetSessionID(ctx)

	org, err := g.orgs.GetOrgByID(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("resolve org: %w", err)
	}
	if org == nil {
		return nil, ErrForbidden
	}
	if org.Status != orgdomain.OrgStatusActive {
		return nil, ErrForbidden
	}

	m, err := g.memberships.GetMembershipByUserAndOrg(ctx, userID, orgID)
	if err != nil {
		return nil, fmt.Errorf("resolve membership: %w", err)
	}
	if m == nil || !m.IsActive {
		return nil, ErrForbidden
	}

	role := authz.NormalizeRole(m.Role, org.Type)
	return &Identity{
		UserID:       userID,
		OrgID:        orgID,
		SessionID:    sessionID,
		OrgType:      org.Type,
		Role:         role,
		Capabilities: authz.DeriveCapabilities(string(org.Type), string(role)),
	}, nil
}

// RequireCapability resolves the caller and checks the named capability.
// Returns the resolved identity on success so handlers do not look it up twice.
func (g *Guard) RequireCapability(ctx context.Context, capability string) (*Identity, error) {
	id, err := g.Resolve(ctx)
	if err != nil {
		return nil, err
	}
	if !id.Capabilities.Allowed(capability) {
		return nil, ErrForbidden
	}
	return id, nil
}
