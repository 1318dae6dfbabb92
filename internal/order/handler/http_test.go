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
	catalogdomain "agrimarket/backend/internal/catalog/domain"
	invdomain "agrimarket/backend/internal/inventory/domain"
	invrepo "agrimarket/backend/internal/inventory/repository"
	memdomain "agrimarket/backend/internal/membership/domain"
	"agrimarket/backend/internal/order/domain"
	orderrepo "agrimarket/backend/internal/order/repository"
	"agrimarket/backend/internal/order/service"
	orgdomain "agrimarket/backend/internal/organization/domain"
	"agrimarket/backend/internal/platform/rbac"
	"agrimarket/backend/internal/policy/engine"
	"agrimarket/backend/internal/server/reqctx"
)

type fakeCatalog struct {
	byID map[string]*catalogdomain.Product
}

func (f *fakeCatalog) GetProductByID(ctx context.Context, id string) (*catalogdomain.Product, error) {
	return f.byID[id], nil
}

func (f *fakeCatalog) ListProducts(ctx context.Context, vendorOrgID string, activeOnly bool) ([]*catalogdomain.Product, error) {
	return nil, nil
}

func (f *fakeCatalog) CreateProduct(ctx context.Context, p *catalogdomain.Product) error { return nil }

func (f *fakeCatalog) UpdateProduct(ctx context.Context, p *catalogdomain.Product) error { return nil }

type fakeOrderRepo struct {
	byID map[string]*domain.Order
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return f.byID[id], nil
}

func (f *fakeOrderRepo) ListOrdersByOrg(ctx context.Context, orgID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range f.byID {
		if o.BuyerOrgID == orgID || o.VendorOrgID == orgID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOrderRepo) CreateOrder(ctx context.Context, o *domain.Order) error {
	f.byID[o.ID] = o
	return nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if o := f.byID[id]; o != nil {
		o.Status = status
	}
	return nil
}

type fakeInventory struct {
	reserveErr error
	reserved   int
}

func (f *fakeInventory) GetStock(ctx context.Context, productID string) (*invdomain.Stock, error) {
	return nil, nil
}

func (f *fakeInventory) InitStock(ctx context.Context, productID string, qtyOnHand int) error {
	return nil
}

func (f *fakeInventory) SetOnHand(ctx context.Context, productID string, qtyOnHand int) error {
	return nil
}

func (f *fakeInventory) Reserve(ctx context.Context, productID string, qty int) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	f.reserved += qty
	return nil
}

func (f *fakeInventory) Release(ctx context.Context, productID string, qty int) error { return nil }

func (f *fakeInventory) Commit(ctx context.Context, productID string, qty int) error { return nil }

// fakeStore hands the transaction callback the fakes it was built with.
type fakeStore struct {
	inv    invrepo.Repository
	orders orderrepo.Repository
}

func (f *fakeStore) RunInTx(ctx context.Context, fn func(inv invrepo.Repository, orders orderrepo.Repository) error) error {
	return fn(f.inv, f.orders)
}

type fakeEvaluator struct {
	autoApprove bool
}

func (f *fakeEvaluator) EvaluateOrder(ctx context.Context, in engine.OrderInput) (engine.OrderResult, error) {
	return engine.OrderResult{AutoApprove: f.autoApprove}, nil
}

func (f *fakeEvaluator) HealthCheck(ctx context.Context) error { return nil }

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

type orderFixture struct {
	router *gin.Engine
	orders *fakeOrderRepo
	inv    *fakeInventory
}

func newOrderRouter(t *testing.T, role string, orgType authz.OrgType, autoApprove bool) *orderFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	products := &fakeCatalog{byID: map[string]*catalogdomain.Product{
		"p-1": {ID: "p-1", OrgID: "org-vendor", SKU: "SPRAY", Name: "Sprayer",
			PriceCents: 1000, Status: catalogdomain.ProductStatusActive, CreatedAt: time.Now().UTC()},
	}}
	orders := &fakeOrderRepo{byID: map[string]*domain.Order{}}
	inv := &fakeInventory{}
	svc := service.NewCheckoutService(
		&fakeStore{inv: inv, orders: orders},
		products, orders, &fakeEvaluator{autoApprove: autoApprove},
	)
	guard := rbac.NewGuard(
		&fakeMemberships{m: &memdomain.Membership{ID: "m-1", UserID: "user-1", OrgID: "org-1", Role: role, IsActive: true}},
		&fakeOrgs{org: &orgdomain.Org{ID: "org-1", Name: "Sunrise Farms", Type: orgType, Status: orgdomain.OrgStatusActive}},
	)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		ctx := reqctx.WithIdentity(c.Request.Context(), "user-1", "org-1", "sess-1")
		c.Request = c.Request.WithContext(ctx)
	})
	NewOrderHandler(svc, orders, guard).Register(r.Group("/api/v1"))
	return &orderFixture{router: r, orders: orders, inv: inv}
}

func checkout(f *orderFixture, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func TestCheckout_BuyerPlacesOrder(t *testing.T) {
	f := newOrderRouter(t, "dispatcher", authz.OrgTypeBuyer, true)

	w := checkout(f, `{"product_id":"p-1","quantity":3}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["status"] != string(domain.OrderStatusPlaced) {
		t.Errorf("status = %v, want placed", body["status"])
	}
	if body["total_cents"].(float64) != 3000 {
		t.Errorf("total_cents = %v, want 3000", body["total_cents"])
	}
	if f.inv.reserved != 3 {
		t.Errorf("reserved = %d, want 3", f.inv.reserved)
	}
}

func TestCheckout_VendorForbidden(t *testing.T) {
	f := newOrderRouter(t, "vendor", authz.OrgTypeVendor, true)

	w := checkout(f, `{"product_id":"p-1","quantity":1}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
}

func TestCheckout_PolicyHoldGoesToPendingApproval(t *testing.T) {
	f := newOrderRouter(t, "dispatcher", authz.OrgTypeBuyer, false)

	w := checkout(f, `{"product_id":"p-1","quantity":50}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body: %v", err)
	}
	if body["status"] != string(domain.OrderStatusPendingApproval) {
		t.Errorf("status = %v, want pending_approval", body["status"])
	}
}

func TestCheckout_InsufficientStock(t *testing.T) {
	f := newOrderRouter(t, "dispatcher", authz.OrgTypeBuyer, true)
	f.inv.reserveErr = invrepo.ErrInsufficientStock

	w := checkout(f, `{"product_id":"p-1","quantity":999}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409: %s", w.Code, w.Body.String())
	}
}

func TestApproveOrder_RequiresAdminCapability(t *testing.T) {
	// operator role in a buyer org derives no capabilities.
	f := newOrderRouter(t, "operator", authz.OrgTypeBuyer, true)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/orders/o-1/approve", nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}
}

func TestGetOrder_OtherOrgsHidden(t *testing.T) {
	f := newOrderRouter(t, "admin", authz.OrgTypeBuyer, true)
	f.orders.byID["o-9"] = &domain.Order{
		ID: "o-9", BuyerOrgID: "org-8", VendorOrgID: "org-9", ProductID: "p-1",
		Quantity: 1, UnitPriceCents: 1000, Status: domain.OrderStatusPlaced,
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/orders/o-9", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
}
