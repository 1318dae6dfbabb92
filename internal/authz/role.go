// Package authz implements the tenant permission model: legacy role
// normalization, capability derivation from (org type, role), and the
// guard consulted by route middleware. Derivation is pure and recomputed
// on every request; capabilities are never persisted or cached.
package authz

import (
	"fmt"
	"log"
	"strings"
)

// Role is the canonical role of a user within an organization.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleVendor     Role = "vendor"
	RoleOperator   Role = "operator"
	RoleDispatcher Role = "dispatcher"
)

// OrgType is the organization's marketplace type, fixed at registration.
type OrgType string

const (
	OrgTypeBuyer    OrgType = "buyer"
	OrgTypeVendor   OrgType = "vendor"
	OrgTypeOperator OrgType = "operator"
)

// ParseOrgType parses s case-insensitively into an OrgType. Rejects unknown values.
func ParseOrgType(s string) (OrgType, error) {
	switch OrgType(strings.ToLower(strings.TrimSpace(s))) {
	case OrgTypeBuyer:
		return OrgTypeBuyer, nil
	case OrgTypeVendor:
		return OrgTypeVendor, nil
	case OrgTypeOperator:
		return OrgTypeOperator, nil
	default:
		return "", fmt.Errorf("unknown org type %q", s)
	}
}

// NormalizeRole maps a stored role string, which may be a legacy value from
// earlier imports (VENDOR_ADMIN, PILOT, SALES, ...), to a canonical Role.
// Total: every input maps to a role. SALES is ambiguous and resolves by org
// type. Unrecognized and empty values degrade to admin, the documented
// default for rows that predate normalization; a warning is logged so these
// show up in operations. All writes go through ParseRole instead, which
// rejects anything non-canonical.
func NormalizeRole(legacyRole string, orgType OrgType) Role {
	switch strings.ToUpper(strings.TrimSpace(legacyRole)) {
	case "VENDOR_ADMIN", "BUYER_ADMIN", "ADMIN":
		return RoleAdmin
	case "DISPATCHER":
		return RoleDispatcher
	case "PILOT", "OPERATOR":
		return RoleOperator
	case "VENDOR":
		return RoleVendor
	case "SALES":
		if orgType == OrgTypeVendor {
			return RoleVendor
		}
		return RoleAdmin
	}
	// Anything admin-like (SUPER_ADMIN, org_admin, ...) counts as admin.
	if strings.Contains(strings.ToLower(legacyRole), "admin") {
		return RoleAdmin
	}
	log.Printf("authz: unrecognized role %q (org type %q), defaulting to admin", legacyRole, orgType)
	return RoleAdmin
}

// ParseRole is the strict write-path counterpart of NormalizeRole: it accepts
// only the four canonical roles, case-insensitively, and rejects everything
// else so legacy or misspelled values never reach storage.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleVendor:
		return RoleVendor, nil
	case RoleOperator:
		return RoleOperator, nil
	case RoleDispatcher:
		return RoleDispatcher, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}
