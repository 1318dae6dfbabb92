package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"agrimarket/backend/internal/authz"
	"agrimarket/backend/internal/booking/domain"
	"agrimarket/backend/internal/booking/service"
	memdomain "agrimarket/backend/internal/membership/domain"
	orgdomain "agrimarket/backend/internal/organization/domain"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/reqctx"
	userdomain "agrimarket/backend/internal/user/domain"
)

type fakeBookingRepo struct {
	byID map[string]*domain.Booking
}

func (f *fakeBookingRepo) GetBookingByID(ctx context.Context, id string) (*domain.Booking, error) {
	return f.byID[id], nil
}

func (f *fakeBookingRepo) ListBookingsByOrg(ctx context.Context, orgID string) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range f.byID {
		if b.BuyerOrgID == orgID || b.OperatorOrgID == orgID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) CreateBooking(ctx context.Context, b *domain.Booking) error {
	f.byID[b.ID] = b
	return nil
}

func (f *fakeBookingRepo) AssignBooking(ctx context.Context, id, userID string) error {
	if b := f.byID[id]; b != nil {
		b.AssignedUserID = userID
		b.Status = domain.BookingStatusAssigned
	}
	return nil
}

func (f *fakeBookingRepo) UpdateBookingStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	if b := f.byID[id]; b != nil {
		b.Status = status
	}
	return nil
}

// fakeOrgDir resolves both the caller's org (for the guard) and the target
// operator org (for the booking service) from one map.
type fakeOrgDir struct {
	byID map[string]*orgdomain.Org
}

func (f *fakeOrgDir) GetOrgByID(ctx context.Context, id string) (*orgdomain.Org, error) {
	return f.byID[id], nil
}

type fakeMemberDir struct {
	byUserOrg map[string]*memdomain.Membership
}

func (f *fakeMemberDir) GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*memdomain.Membership, error) {
	return f.byUserOrg[userID+"/"+orgID], nil
}

type fakeUserDir struct {
	byID map[string]*userdomain.User
}

func (f *fakeUserDir) GetUserByID(ctx context.Context, id string) (*userdomain.User, error) {
	return f.byID[id], nil
}

type bookingFixture struct {
	router   *gin.Engine
	bookings *fakeBookingRepo
	members  *fakeMemberDir
	orgs     *fakeOrgDir
}

func newBookingRouter(t *testing.T, callerOrgID, role string) *bookingFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	orgs := &fakeOrgDir{byID: map[string]*orgdomain.Org{
		"org-buyer": {ID: "org-buyer", Name: "Sunrise Farms", Type: authz.OrgTypeBuyer, Status: orgdomain.OrgStatusActive},
		"org-op":    {ID: "org-op", Name: "SkyCrop", Type: authz.OrgTypeOperator, Status: orgdomain.OrgStatusActive},
	}}
	members := &fakeMemberDir{byUserOrg: map[string]*memdomain.Membership{
		"user-1/" + callerOrgID: {ID: "m-1", UserID: "user-1", OrgID: callerOrgID, Role: role, IsActive: true},
	}}
	users := &fakeUserDir{byID: map[string]*userdomain.User{}}
	bookings := &fakeBookingRepo{byID: map[string]*domain.Booking{}}
	svc := service.NewBookingService(bookings, orgs, users, members, nil)
	guard := rbac.NewGuard(members, orgs)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := reqctx.WithIdentity(c.Request.Context(), "user-1", callerOrgID, "sess-1")
		c.Request = c.Request.WithContext(ctx)
	})
	NewBookingHandler(svc, bookings, guard).Register(r.Group("/api/v1"))
	return &bookingFixture{router: r, bookings: bookings, members: members, orgs: orgs}
}

func postBooking(f *bookingFixture, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(http.MethodPost, path, nil)
	} else {
		req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	f.router.ServeHTTP(w, req)
	return w
}

func requestedBooking(f *bookingFixture) *domain.Booking {
	b := &domain.Booking{
		ID: "b-1", BuyerOrgID: "org-buyer", OperatorOrgID: "org-op",
		ServiceType: "spraying", Status: domain.BookingStatusRequested,
		RequestedBy: "user-9", CreatedAt: time.Now().UTC(),
	}
	f.bookings.byID[b.ID] = b
	return b
}

func TestRequestBooking_Buyer(t *testing.T) {
	f := newBookingRouter(t, "org-buyer", "dispatcher")

	w := postBooking(f, "/api/v1/bookings",
		`{"operator_org_id":"org-op","service_type":"spraying","field_notes":"north field"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["status"] != string(domain.BookingStatusRequested) {
		t.Errorf("status = %v, want requested", body["status"])
	}
	if body["buyer_org_id"] != "org-buyer" || body["requested_by"] != "user-1" {
		t.Errorf("booking attribution = %v", body)
	}
}

func TestRequestBooking_TargetMustBeOperator(t *testing.T) {
	f := newBookingRouter(t, "org-buyer", "dispatcher")

	w := postBooking(f, "/api/v1/bookings",
		`{"operator_org_id":"org-buyer","service_type":"spraying"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestAssignBooking_DispatcherOnly(t *testing.T) {
	f := newBookingRouter(t, "org-op", "operator")
	requestedBooking(f)

	w := postBooking(f, "/api/v1/bookings/b-1/assign", `{"user_id":"pilot-1"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403 for non-dispatcher: %s", w.Code, w.Body.String())
	}
}

func TestAssignBooking_DispatcherAssignsPilot(t *testing.T) {
	f := newBookingRouter(t, "org-op", "dispatcher")
	requestedBooking(f)
	f.members.byUserOrg["pilot-1/org-op"] = &memdomain.Membership{
		ID: "m-2", UserID: "pilot-1", OrgID: "org-op", Role: "operator", IsActive: true,
	}

	w := postBooking(f, "/api/v1/bookings/b-1/assign", `{"user_id":"pilot-1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if got := f.bookings.byID["b-1"].AssignedUserID; got != "pilot-1" {
		t.Errorf("assigned user = %q, want pilot-1", got)
	}
}

func TestAssignBooking_PilotOutsideOrg(t *testing.T) {
	f := newBookingRouter(t, "org-op", "dispatcher")
	requestedBooking(f)

	w := postBooking(f, "/api/v1/bookings/b-1/assign", `{"user_id":"stranger"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestCompleteBooking_RequiresAssignedState(t *testing.T) {
	f := newBookingRouter(t, "org-op", "operator")
	requestedBooking(f)

	w := postBooking(f, "/api/v1/bookings/b-1/complete", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", w.Code, w.Body.String())
	}
}

func TestCancelBooking_BuyerSide(t *testing.T) {
	f := newBookingRouter(t, "org-buyer", "admin")
	requestedBooking(f)

	w := postBooking(f, "/api/v1/bookings/b-1/cancel", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if f.bookings.byID["b-1"].Status != domain.BookingStatusCancelled {
		t.Errorf("status = %q, want cancelled", f.bookings.byID["b-1"].Status)
	}
}

func TestGetBooking_UnrelatedOrgHidden(t *testing.T) {
	f := newBookingRouter(t, "org-op", "dispatcher")
	f.bookings.byID["b-9"] = &domain.Booking{
		ID: "b-9", BuyerOrgID: "org-x", OperatorOrgID: "org-y",
		Status: domain.BookingStatusRequested,
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bookings/b-9", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
}
