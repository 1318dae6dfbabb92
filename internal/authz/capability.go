package authz

import "strings"

// Capability names used by route guards and the frontend navigation map.
const (
	CapBuy              = "can_buy"
	CapSell             = "can_sell"
	CapOperate          = "can_operate"
	CapDispatch         = "can_dispatch"
	CapAccessAdmin      = "can_access_admin"
	CapAccessCatalog    = "can_access_catalog"
	CapAccessOrders     = "can_access_orders"
	CapAccessServices   = "can_access_services"
	CapAccessBookings   = "can_access_bookings"
	CapManageUsers      = "can_manage_users"
	CapSendMessages     = "can_send_messages"
	CapCompleteMissions = "can_complete_missions"
)

// Capabilities is the derived permission record for a user within an
// organization. It is a pure function of (org type, role): recomputed on
// every request, never stored, so a role change takes effect immediately.
type Capabilities struct {
	CanBuy              bool `json:"can_buy"`
	CanSell             bool `json:"can_sell"`
	CanOperate          bool `json:"can_operate"`
	CanDispatch         bool `json:"can_dispatch"`
	CanAccessAdmin      bool `json:"can_access_admin"`
	CanAccessCatalog    bool `json:"can_access_catalog"`
	CanAccessOrders     bool `json:"can_access_orders"`
	CanAccessServices   bool `json:"can_access_services"`
	CanAccessBookings   bool `json:"can_access_bookings"`
	CanManageUsers      bool `json:"can_manage_users"`
	CanSendMessages     bool `json:"can_send_messages"`
	CanCompleteMissions bool `json:"can_complete_missions"`
}

// DeriveCapabilities returns the capability record for the given org type and
// canonical role. Both inputs are matched case-insensitively. The function
// never fails: unknown org types and unauthorized role/org pairings degrade
// to the least-privileged record (all flags false, or can_buy only for a
// buyer org with an unrecognized role).
func DeriveCapabilities(orgType, role string) Capabilities {
	ot := OrgType(strings.ToLower(strings.TrimSpace(orgType)))
	r := Role(strings.ToLower(strings.TrimSpace(role)))

	switch ot {
	case OrgTypeBuyer, OrgTypeVendor, OrgTypeOperator:
	default:
		return Capabilities{}
	}

	switch r {
	case RoleAdmin:
		return Capabilities{
			CanBuy:              true,
			CanSell:             true,
			CanOperate:          true,
			CanDispatch:         true,
			CanAccessAdmin:      true,
			CanAccessCatalog:    true,
			CanAccessOrders:     true,
			CanAccessServices:   true,
			CanAccessBookings:   true,
			CanManageUsers:      true,
			CanSendMessages:     true,
			CanCompleteMissions: true,
		}
	case RoleDispatcher:
		return Capabilities{
			CanBuy:              ot == OrgTypeBuyer,
			CanSell:             ot == OrgTypeVendor,
			CanOperate:          true,
			CanDispatch:         true,
			CanAccessAdmin:      true,
			CanAccessCatalog:    true,
			CanAccessOrders:     true,
			CanAccessServices:   true,
			CanAccessBookings:   true,
			CanSendMessages:     true,
			CanCompleteMissions: true,
		}
	case RoleVendor:
		if ot != OrgTypeVendor {
			// vendor role inside a buyer or operator org is not an
			// authorized pairing.
			return Capabilities{}
		}
		return Capabilities{
			CanSell:          true,
			CanAccessAdmin:   true,
			CanAccessCatalog: true,
			CanAccessOrders:  true,
			CanSendMessages:  true,
		}
	case RoleOperator:
		if ot == OrgTypeBuyer {
			return Capabilities{}
		}
		return Capabilities{
			CanSell:             ot == OrgTypeVendor,
			CanOperate:          true,
			CanAccessAdmin:      true,
			CanAccessServices:   true,
			CanAccessBookings:   true,
			CanSendMessages:     true,
			CanCompleteMissions: true,
		}
	default:
		if ot == OrgTypeBuyer {
			return Capabilities{CanBuy: true}
		}
		return Capabilities{}
	}
}

// Allowed reports whether the named capability is set on the record. Unknown
// names are never allowed.
func (c Capabilities) Allowed(name string) bool {
	switch name {
	case CapBuy:
		return c.CanBuy
	case CapSell:
		return c.CanSell
	case CapOperate:
		return c.CanOperate
	case CapDispatch:
		return c.CanDispatch
	case CapAccessAdmin:
		return c.CanAccessAdmin
	case CapAccessCatalog:
		return c.CanAccessCatalog
	case CapAccessOrders:
		return c.CanAccessOrders
	case CapAccessServices:
		return c.CanAccessServices
	case CapAccessBookings:
		return c.CanAccessBookings
	case CapManageUsers:
		return c.CanManageUsers
	case CapSendMessages:
		return c.CanSendMessages
	case CapCompleteMissions:
		return c.CanCompleteMissions
	default:
		return false
	}
}
