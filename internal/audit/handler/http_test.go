package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	auditdomain "agrimarket/backend/internal/audit/domain"
	"agrimarket/backend/internal/authz"
	memdomain "agrimarket/backend/internal/membership/domain"
	orgdomain "agrimarket/backend/internal/organization/domain"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/server/reqctx"
)

type fakeAuditRepo struct {
	entries []*auditdomain.AuditLog
	gotOrg  string
}

func (f *fakeAuditRepo) GetAuditLogByID(ctx context.Context, id string) (*auditdomain.AuditLog, error) {
	return nil, nil
}

func (f *fakeAuditRepo) ListAuditLogsByOrg(ctx context.Context, orgID string, limit, offset int) ([]*auditdomain.AuditLog, error) {
	f.gotOrg = orgID
	return f.entries, nil
}

func (f *fakeAuditRepo) CreateAuditLog(ctx context.Context, a *auditdomain.AuditLog) error {
	f.entries = append(f.entries, a)
	return nil
}

type fakeMemberships struct {
	m *memdomain.Membership
}

func (f *fakeMemberships) GetMembershipByUserAndOrg(ctx context.Context, userID, orgID string) (*memdomain.Membership, error) {
	return f.m, nil
}

type fakeOrgs struct {
	org *orgdomain.Org
}

func (f *fakeOrgs) GetOrgByID(ctx context.Context, id string) (*orgdomain.Org, error) {
	return f.org, nil
}

func newAuditTestRouter(repo *fakeAuditRepo, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	guard := rbac.NewGuard(
		&fakeMemberships{m: &memdomain.Membership{ID: "m-1", UserID: "user-1", OrgID: "org-1", Role: role, IsActive: true}},
		&fakeOrgs{org: &orgdomain.Org{ID: "org-1", Name: "Sunrise Farms", Type: authz.OrgTypeBuyer, Status: orgdomain.OrgStatusActive}},
	)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := reqctx.WithIdentity(c.Request.Context(), "user-1", "org-1", "sess-1")
		c.Request = c.Request.WithContext(ctx)
	})
	NewAuditHandler(repo, guard).Register(r.Group("/api/v1"))
	return r
}

func TestListAuditLogsAsAdmin(t *testing.T) {
	repo := &fakeAuditRepo{entries: []*auditdomain.AuditLog{{
		ID: "a-1", OrgID: "org-1", UserID: "user-1", Action: "create",
		Resource: "order", IP: "203.0.113.9", CreatedAt: time.Now().UTC(),
	}}}
	r := newAuditTestRouter(repo, "admin")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if repo.gotOrg != "org-1" {
		t.Errorf("listed org = %q, want org-1", repo.gotOrg)
	}
	var body struct {
		AuditLogs []map[string]any `json:"audit_logs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if len(body.AuditLogs) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(body.AuditLogs))
	}
	if body.AuditLogs[0]["action"] != "create" || body.AuditLogs[0]["resource"] != "order" {
		t.Errorf("entry = %v", body.AuditLogs[0])
	}
}

func TestListAuditLogsForbiddenWithoutAdminCapability(t *testing.T) {
	// operator role in a buyer org is an unauthorized pairing and derives
	// no capabilities at all.
	r := newAuditTestRouter(&fakeAuditRepo{}, "operator")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/audit", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}
