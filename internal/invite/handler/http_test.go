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
	identitydomain "agrimarket/backend/internal/identity/domain"
	"agrimarket/backend/internal/invite/domain"
	memdomain "agrimarket/backend/internal/membership/domain"
	orgdomain "agrimarket/backend/internal/organization/domain"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/security"
	"agrimarket/backend/internal/server/reqctx"
	userdomain "agrimarket/backend/internal/user/domain"
)

type fakeInviteRepo struct {
	byHash   map[string]*domain.Invite
	accepted []string
}

func (f *fakeInviteRepo) GetInviteByTokenHash(ctx context.Context, tokenHash string) (*domain.Invite, error) {
	return f.byHash[tokenHash], nil
}

func (f *fakeInviteRepo) ListInvitesByOrg(ctx context.Context, orgID string) ([]*domain.Invite, error) {
	var out []*domain.Invite
	for _, inv := range f.byHash {
		if inv.OrgID == orgID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeInviteRepo) CreateInvite(ctx context.Context, i *domain.Invite) error {
	f.byHash[i.TokenHash] = i
	return nil
}

func (f *fakeInviteRepo) MarkInviteAccepted(ctx context.Context, id string) error {
	f.accepted = append(f.accepted, id)
	return nil
}

type fakeMembershipRepo struct {
	byID map[string]*memdomain.Membership
}

func (f *fakeMembershipRepo) GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*memdomain.Membership, error) {
	for _, m := range f.byID {
		if m.UserID == userID && m.OrgID == orgID {
			return m, nil
		}
	}
	return nil, nil
}

func (f *fakeMembershipRepo) ListMembershipsByOrg(ctx context.Context, orgID string) ([]*memdomain.Membership, error) {
	return nil, nil
}

func (f *fakeMembershipRepo) ListMembershipsByUser(ctx context.Context, userID string) ([]*memdomain.Membership, error) {
	return nil, nil
}

func (f *fakeMembershipRepo) CreateMembership(ctx context.Context, m *memdomain.Membership) error {
	f.byID[m.ID] = m
	return nil
}

func (f *fakeMembershipRepo) UpdateMembershipRole(ctx context.Context, id, role string) error {
	return nil
}

func (f *fakeMembershipRepo) SetMembershipActive(ctx context.Context, id string, active bool) error {
	return nil
}

type fakeUserRepo struct {
	byEmail map[string]*userdomain.User
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*userdomain.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, u *userdomain.User) error {
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) UpdateUser(ctx context.Context, u *userdomain.User) error { return nil }

type fakeIdentityRepo struct {
	created []*identitydomain.Identity
}

func (f *fakeIdentityRepo) GetIdentityByUserAndProvider(ctx context.Context, userID string, provider identitydomain.IdentityProvider) (*identitydomain.Identity, error) {
	return nil, nil
}

func (f *fakeIdentityRepo) CreateIdentity(ctx context.Context, i *identitydomain.Identity) error {
	f.created = append(f.created, i)
	return nil
}

type fakeOrgGetter struct {
	org *orgdomain.Org
}

func (f *fakeOrgGetter) GetOrgByID(ctx context.Context, id string) (*orgdomain.Org, error) {
	return f.org, nil
}

type inviteFixture struct {
	router      *gin.Engine
	invites     *fakeInviteRepo
	memberships *fakeMembershipRepo
	users       *fakeUserRepo
	identities  *fakeIdentityRepo
}

func newInviteRouter(t *testing.T, callerRole string) *inviteFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	invites := &fakeInviteRepo{byHash: map[string]*domain.Invite{}}
	memberships := &fakeMembershipRepo{byID: map[string]*memdomain.Membership{
		"m-caller": {ID: "m-caller", UserID: "user-1", OrgID: "org-1", Role: callerRole, IsActive: true},
	}}
	users := &fakeUserRepo{byEmail: map[string]*userdomain.User{}}
	identities := &fakeIdentityRepo{}
	guard := rbac.NewGuard(memberships, &fakeOrgGetter{org: &orgdomain.Org{
		ID: "org-1", Name: "AgriParts", Type: authz.OrgTypeVendor, Status: orgdomain.OrgStatusActive,
	}})
	h := NewInviteHandler(invites, memberships, users, identities, guard, security.NewHasher(4), time.Hour)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := reqctx.WithIdentity(c.Request.Context(), "user-1", "org-1", "sess-1")
		c.Request = c.Request.WithContext(ctx)
	})
	h.Register(r.Group("/api/v1"), r.Group("/"))
	return &inviteFixture{router: r, invites: invites, memberships: memberships, users: users, identities: identities}
}

func postInvite(f *inviteFixture, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func TestCreateInvite_RequiresManageUsers(t *testing.T) {
	f := newInviteRouter(t, "vendor")

	w := postInvite(f, "/api/v1/invites", `{"email":"new@example.com","role":"vendor"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
}

func TestCreateInvite_ReturnsRawTokenStoresHash(t *testing.T) {
	f := newInviteRouter(t, "admin")

	w := postInvite(f, "/api/v1/invites", `{"email":"New@Example.com","role":"vendor"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var body struct {
		Token string `json:"token"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body.Token == "" {
		t.Fatal("raw token missing from response")
	}
	if body.Email != "new@example.com" {
		t.Errorf("email = %q, want lowercased", body.Email)
	}
	inv := f.invites.byHash[security.HashToken(body.Token)]
	if inv == nil {
		t.Fatal("invite not stored under token hash")
	}
	if inv.TokenHash == body.Token {
		t.Error("raw token stored instead of hash")
	}
}

func TestCreateInvite_RejectsLegacyRole(t *testing.T) {
	f := newInviteRouter(t, "admin")

	w := postInvite(f, "/api/v1/invites", `{"email":"new@example.com","role":"SALES"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func seedInvite(f *inviteFixture, token string, expiresAt time.Time) *domain.Invite {
	inv := &domain.Invite{
		ID: "inv-1", OrgID: "org-1", Email: "new@example.com", Role: "vendor",
		TokenHash: security.HashToken(token), ExpiresAt: expiresAt, CreatedAt: time.Now().UTC(),
	}
	f.invites.byHash[inv.TokenHash] = inv
	return inv
}

func TestAcceptInvite_NewUserNeedsPassword(t *testing.T) {
	f := newInviteRouter(t, "admin")
	seedInvite(f, "tok-1", time.Now().UTC().Add(time.Hour))

	w := postInvite(f, "/invites/accept", `{"token":"tok-1"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestAcceptInvite_CreatesUserAndMembership(t *testing.T) {
	f := newInviteRouter(t, "admin")
	seedInvite(f, "tok-1", time.Now().UTC().Add(time.Hour))

	w := postInvite(f, "/invites/accept",
		`{"token":"tok-1","password":"Sup3r-Secret-Pass!","name":"New Vendor"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	user := f.users.byEmail["new@example.com"]
	if user == nil {
		t.Fatal("user not created")
	}
	if len(f.identities.created) != 1 || f.identities.created[0].PasswordHash == "Sup3r-Secret-Pass!" {
		t.Error("local identity missing or password stored unhashed")
	}
	m, _ := f.memberships.GetMembershipByUserAndOrg(context.Background(), user.ID, "org-1")
	if m == nil || m.Role != "vendor" || !m.IsActive {
		t.Errorf("membership = %+v, want active vendor", m)
	}
	if len(f.invites.accepted) != 1 {
		t.Errorf("invite not marked accepted: %v", f.invites.accepted)
	}
}

func TestAcceptInvite_Expired(t *testing.T) {
	f := newInviteRouter(t, "admin")
	seedInvite(f, "tok-1", time.Now().UTC().Add(-time.Minute))

	w := postInvite(f, "/invites/accept", `{"token":"tok-1","password":"Sup3r-Secret-Pass!"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
}

func TestAcceptInvite_ExistingMemberConflict(t *testing.T) {
	f := newInviteRouter(t, "admin")
	seedInvite(f, "tok-1", time.Now().UTC().Add(time.Hour))
	f.users.byEmail["new@example.com"] = &userdomain.User{
		ID: "user-2", Email: "new@example.com", Status: userdomain.UserStatusActive,
	}
	f.memberships.byID["m-2"] = &memdomain.Membership{
		ID: "m-2", UserID: "user-2", OrgID: "org-1", Role: "vendor", IsActive: true,
	}

	w := postInvite(f, "/invites/accept", `{"token":"tok-1"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", w.Code, w.Body.String())
	}
}
