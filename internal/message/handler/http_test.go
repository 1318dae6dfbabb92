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
	memdomain "agrimarket/backend/internal/membership/domain"
	"agrimarket/backend/internal/message/domain"
	orgdomain "agrimarket/backend/internal/organization/domain"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/reqctx"
)

type fakeMessageRepo struct {
	created []*domain.Message
	gotOrg  string
}

func (f *fakeMessageRepo) ListMessagesForOrg(ctx context.Context, orgID string, limit int) ([]*domain.Message, error) {
	f.gotOrg = orgID
	return f.created, nil
}

func (f *fakeMessageRepo) CreateMessage(ctx context.Context, m *domain.Message) error {
	f.created = append(f.created, m)
	return nil
}

type fakeOrgDir struct {
	byID map[string]*orgdomain.Org
}

func (f *fakeOrgDir) GetOrgByID(ctx context.Context, id string) (*orgdomain.Org, error) {
	return f.byID[id], nil
}

func (f *fakeOrgDir) CreateOrg(ctx context.Context, o *orgdomain.Org) error {
	f.byID[o.ID] = o
	return nil
}

func (f *fakeOrgDir) UpdateOrgStatus(ctx context.Context, id string, status orgdomain.OrgStatus) error {
	return nil
}

func (f *fakeOrgDir) ListOrgs(ctx context.Context, orgType string) ([]*orgdomain.Org, error) {
	return nil, nil
}

type fakeMemberships struct {
	m *memdomain.Membership
}

func (f *fakeMemberships) GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*memdomain.Membership, error) {
	return f.m, nil
}

func newMessageRouter(messages *fakeMessageRepo, role string, orgType authz.OrgType) *gin.Engine {
	gin.SetMode(gin.TestMode)
	orgs := &fakeOrgDir{byID: map[string]*orgdomain.Org{
		"org-1": {ID: "org-1", Name: "Sunrise Farms", Type: orgType, Status: orgdomain.OrgStatusActive},
		"org-2": {ID: "org-2", Name: "AgriParts", Type: authz.OrgTypeVendor, Status: orgdomain.OrgStatusActive},
	}}
	guard := rbac.NewGuard(
		&fakeMemberships{m: &memdomain.Membership{ID: "m-1", UserID: "user-1", OrgID: "org-1", Role: role, IsActive: true}},
		orgs,
	)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := reqctx.WithIdentity(c.Request.Context(), "user-1", "org-1", "sess-1")
		c.Request = c.Request.WithContext(ctx)
	})
	NewMessageHandler(messages, orgs, guard).Register(r.Group("/api/v1"))
	return r
}

func TestSendMessage_AttributedToCaller(t *testing.T) {
	messages := &fakeMessageRepo{}
	r := newMessageRouter(messages, "dispatcher", authz.OrgTypeBuyer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages",
		strings.NewReader(`{"to_org_id":"org-2","body":"Need spare rotors for next week."}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	if len(messages.created) != 1 {
		t.Fatalf("expected one message, got %d", len(messages.created))
	}
	m := messages.created[0]
	if m.FromOrgID != "org-1" || m.ToOrgID != "org-2" || m.UserID != "user-1" {
		t.Errorf("message attribution = %+v", m)
	}
}

func TestSendMessage_RequiresCapability(t *testing.T) {
	// operator role in a buyer org derives no capabilities.
	r := newMessageRouter(&fakeMessageRepo{}, "operator", authz.OrgTypeBuyer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages",
		strings.NewReader(`{"to_org_id":"org-2","body":"hi"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
}

func TestSendMessage_UnknownTargetOrg(t *testing.T) {
	messages := &fakeMessageRepo{}
	r := newMessageRouter(messages, "dispatcher", authz.OrgTypeBuyer)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages",
		strings.NewReader(`{"to_org_id":"org-missing","body":"hello?"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
	if len(messages.created) != 0 {
		t.Error("message created for unknown target org")
	}
}

func TestListMessages_ScopedToCallerOrg(t *testing.T) {
	messages := &fakeMessageRepo{created: []*domain.Message{{
		ID: "msg-1", FromOrgID: "org-2", ToOrgID: "org-1", UserID: "user-9",
		Body: "Rotors shipped.", CreatedAt: time.Now().UTC(),
	}}}
	r := newMessageRouter(messages, "dispatcher", authz.OrgTypeBuyer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/messages", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if messages.gotOrg != "org-1" {
		t.Errorf("listed org = %q, want org-1", messages.gotOrg)
	}
	var body struct {
		Messages []map[string]any `json:"messages"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if len(body.Messages) != 1 || body.Messages[0]["body"] != "Rotors shipped." {
		t.Errorf("messages = %v", body.Messages)
	}
}
