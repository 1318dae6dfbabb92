package authz

import (
	"reflect"
	"testing"
)

func allTrue() Capabilities {
	return Capabilities{
		CanBuy: true, CanSell: true, CanOperate: true, CanDispatch: true,
		CanAccessAdmin: true, CanAccessCatalog: true, CanAccessOrders: true,
		CanAccessServices: true, CanAccessBookings: true, CanManageUsers: true,
		CanSendMessages: true, CanCompleteMissions: true,
	}
}

func TestDeriveCapabilities_AdminAllOrgs(t *testing.T) {
	for _, org := range []string{"buyer", "vendor", "operator"} {
		got := DeriveCapabilities(org, "admin")
		if !reflect.DeepEqual(got, allTrue()) {
			t.Errorf("admin in %s org = %+v, want all true", org, got)
		}
	}
}

func TestDeriveCapabilities_Dispatcher(t *testing.T) {
	got := DeriveCapabilities("buyer", "dispatcher")
	if !got.CanBuy {
		t.Error("dispatcher in buyer org should have can_buy")
	}
	if got.CanSell {
		t.Error("dispatcher in buyer org should not have can_sell")
	}
	if !got.CanOperate || !got.CanDispatch {
		t.Error("dispatcher should operate and dispatch")
	}
	if got.CanManageUsers {
		t.Error("dispatcher should not manage users")
	}
	if !got.CanCompleteMissions {
		t.Error("dispatcher should complete missions")
	}
	if !got.CanAccessAdmin || !got.CanAccessCatalog || !got.CanAccessOrders ||
		!got.CanAccessServices || !got.CanAccessBookings || !got.CanSendMessages {
		t.Errorf("dispatcher access flags = %+v, want all access true", got)
	}

	if v := DeriveCapabilities("vendor", "dispatcher"); !v.CanSell || v.CanBuy {
		t.Errorf("dispatcher in vendor org: can_sell=%v can_buy=%v, want true/false", v.CanSell, v.CanBuy)
	}
}

func TestDeriveCapabilities_VendorInVendorOrg(t *testing.T) {
	got := DeriveCapabilities("vendor", "vendor")
	if !got.CanSell {
		t.Error("vendor should sell")
	}
	if got.CanBuy || got.CanOperate || got.CanDispatch {
		t.Errorf("vendor should not buy/operate/dispatch: %+v", got)
	}
	if !got.CanAccessCatalog {
		t.Error("vendor should access catalog")
	}
	if got.CanAccessBookings {
		t.Error("vendor should not access bookings")
	}
	if got.CanAccessServices {
		t.Error("vendor should not access services")
	}
	if !got.CanAccessAdmin || !got.CanAccessOrders || !got.CanSendMessages {
		t.Errorf("vendor access flags = %+v", got)
	}
	if got.CanManageUsers || got.CanCompleteMissions {
		t.Errorf("vendor should not manage users or complete missions: %+v", got)
	}
}

func TestDeriveCapabilities_OperatorInOperatorOrg(t *testing.T) {
	got := DeriveCapabilities("operator", "operator")
	if !got.CanOperate || !got.CanCompleteMissions {
		t.Errorf("operator should operate and complete missions: %+v", got)
	}
	if got.CanAccessCatalog || got.CanAccessOrders {
		t.Errorf("operator should not access catalog/orders: %+v", got)
	}
	if !got.CanAccessServices || !got.CanAccessBookings || !got.CanAccessAdmin || !got.CanSendMessages {
		t.Errorf("operator access flags = %+v", got)
	}
	if got.CanSell || got.CanBuy || got.CanDispatch || got.CanManageUsers {
		t.Errorf("operator extra flags = %+v", got)
	}
}

func TestDeriveCapabilities_OperatorInVendorOrgSells(t *testing.T) {
	got := DeriveCapabilities("vendor", "operator")
	if !got.CanSell {
		t.Error("operator in vendor org should have can_sell")
	}
	if !got.CanOperate || !got.CanCompleteMissions {
		t.Errorf("operator in vendor org = %+v", got)
	}
}

func TestDeriveCapabilities_InvalidPairings(t *testing.T) {
	testCases := []struct {
		orgType string
		role    string
	}{
		{"buyer", "vendor"},
		{"operator", "vendor"},
		{"buyer", "operator"},
	}
	for _, tc := range testCases {
		if got := DeriveCapabilities(tc.orgType, tc.role); got != (Capabilities{}) {
			t.Errorf("Derive(%q, %q) = %+v, want all false", tc.orgType, tc.role, got)
		}
	}
}

func TestDeriveCapabilities_UnknownRoleInBuyerOrg(t *testing.T) {
	got := DeriveCapabilities("buyer", "intern")
	want := Capabilities{CanBuy: true}
	if got != want {
		t.Errorf("unknown role in buyer org = %+v, want can_buy only", got)
	}
}

func TestDeriveCapabilities_UnknownRoleOutsideBuyerOrg(t *testing.T) {
	for _, org := range []string{"vendor", "operator"} {
		if got := DeriveCapabilities(org, "intern"); got != (Capabilities{}) {
			t.Errorf("unknown role in %s org = %+v, want all false", org, got)
		}
	}
}

func TestDeriveCapabilities_UnknownOrgType(t *testing.T) {
	if got := DeriveCapabilities("reseller", "admin"); got != (Capabilities{}) {
		t.Errorf("unknown org type = %+v, want all false", got)
	}
	if got := DeriveCapabilities("", "admin"); got != (Capabilities{}) {
		t.Errorf("empty org type = %+v, want all false", got)
	}
}

func TestDeriveCapabilities_CaseInsensitive(t *testing.T) {
	a := DeriveCapabilities("Vendor", "VENDOR")
	b := DeriveCapabilities("vendor", "vendor")
	if a != b {
		t.Errorf("case-insensitive mismatch: %+v vs %+v", a, b)
	}
}

func TestDeriveCapabilities_Idempotent(t *testing.T) {
	a := DeriveCapabilities("operator", "dispatcher")
	b := DeriveCapabilities("operator", "dispatcher")
	if a != b {
		t.Errorf("identical inputs gave different records: %+v vs %+v", a, b)
	}
}

func TestDeriveCapabilities_NormalizedLegacyRoleEndToEnd(t *testing.T) {
	// Membership row {org_type: vendor, role: PILOT} resolves to an
	// operator with service access but no catalog access.
	role := NormalizeRole("PILOT", OrgTypeVendor)
	if role != RoleOperator {
		t.Fatalf("NormalizeRole(PILOT) = %q, want operator", role)
	}
	got := DeriveCapabilities("vendor", string(role))
	if !got.CanOperate || !got.CanAccessServices || !got.CanAccessBookings || !got.CanCompleteMissions {
		t.Errorf("pilot capabilities = %+v", got)
	}
	if got.CanAccessCatalog || got.CanAccessOrders {
		t.Errorf("pilot should not access catalog/orders: %+v", got)
	}
}

func TestCapabilities_Allowed(t *testing.T) {
	caps := DeriveCapabilities("vendor", "vendor")
	if !caps.Allowed(CapSell) {
		t.Error("Allowed(can_sell) should be true for vendor")
	}
	if caps.Allowed(CapBuy) {
		t.Error("Allowed(can_buy) should be false for vendor")
	}
	if caps.Allowed("can_fly_to_the_moon") {
		t.Error("unknown capability name should never be allowed")
	}
}
