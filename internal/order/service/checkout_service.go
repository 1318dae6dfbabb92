package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	catalogdomain "agrimarket/backend/internal/catalog/domain"
	catalogrepo "agrimarket/backend/internal/catalog/repository"
	invrepo "agrimarket/backend/internal/inventory/repository"
	"agrimarket/backend/internal/order/domain"
	orderrepo "agrimarket/backend/internal/order/repository"
	"agrimarket/backend/internal/policy/engine"
)

// Sentinel errors for the checkout service; handler maps them to HTTP status codes.
var (
	ErrProductUnavailable = errors.New("product not found or not active")
	ErrInsufficientStock  = invrepo.ErrInsufficientStock
	ErrOrderNotFound      = errors.New("order not found")
	ErrNotYourOrder       = errors.New("order belongs to another organization")
	ErrInvalidTransition  = errors.New("order status does not allow this operation")
)

// Store runs a function with inventory and order repositories bound to a
// single database transaction. The reservation and the order row must
// commit or roll back together.
type Store interface {
	RunInTx(ctx context.Context, fn func(inv invrepo.Repository, orders orderrepo.Repository) error) error
}

// SQLStore is the Postgres Store over *sql.DB.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) RunInTx(ctx context.Context, fn func(inv invrepo.Repository, orders orderrepo.Repository) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(invrepo.NewPostgresRepository(tx), orderrepo.NewPostgresRepository(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// CheckoutService places, approves, cancels, and fulfills orders. Checkout
// reserves stock and inserts the order in one transaction; the org's
// policy decides whether the order starts placed or held for approval.
type CheckoutService struct {
	store     Store
	products  catalogrepo.Repository
	orders    orderrepo.Repository
	evaluator engine.Evaluator
}

func NewCheckoutService(store Store, products catalogrepo.Repository, orders orderrepo.Repository, evaluator engine.Evaluator) *CheckoutService {
	return &CheckoutService{store: store, products: products, orders: orders, evaluator: evaluator}
}

// Checkout places an order for the buyer org.
func (s *CheckoutService) Checkout(ctx context.Context, buyerOrgID, placedBy, productID string, quantity int) (*domain.Order, error) {
	if quantity <= 0 {
		return nil, ErrProductUnavailable
	}
	p, err := s.products.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil || p.Status != catalogdomain.ProductStatusActive {
		return nil, ErrProductUnavailable
	}

	result, err := s.evaluator.EvaluateOrder(ctx, engine.OrderInput{
		BuyerOrgID:     buyerOrgID,
		VendorOrgID:    p.OrgID,
		ProductID:      p.ID,
		PlacedBy:       placedBy,
		Quantity:       quantity,
		UnitPriceCents: p.PriceCents,
		TotalCents:     int64(quantity) * p.PriceCents,
	})
	if err != nil {
		return nil, err
	}
	status := domain.OrderStatusPendingApproval
	if result.AutoApprove {
		status = domain.OrderStatusPlaced
	}

	now := time.Now().UTC()
	order := &domain.Order{
		ID:             uuid.New().String(),
		BuyerOrgID:     buyerOrgID,
		VendorOrgID:    p.OrgID,
		ProductID:      p.ID,
		Quantity:       quantity,
		UnitPriceCents: p.PriceCents,
		Status:         status,
		PlacedBy:       placedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.store.RunInTx(ctx, func(inv invrepo.Repository, orders orderrepo.Repository) error {
		if err := inv.Reserve(ctx, p.ID, quantity); err != nil {
			return err
		}
		return orders.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Approve moves a held order to placed. Buyer org only.
func (s *CheckoutService) Approve(ctx context.Context, orgID, orderID string) (*domain.Order, error) {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerOrgID != orgID {
		return nil, ErrNotYourOrder
	}
	if o.Status != domain.OrderStatusPendingApproval {
		return nil, ErrInvalidTransition
	}
	if err := s.orders.UpdateOrderStatus(ctx, o.ID, domain.OrderStatusPlaced); err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatusPlaced
	return o, nil
}

// Cancel cancels an open order and releases its reservation. Buyer org only.
func (s *CheckoutService) Cancel(ctx context.Context, orgID, orderID string) (*domain.Order, error) {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerOrgID != orgID {
		return nil, ErrNotYourOrder
	}
	if !o.Open() {
		return nil, ErrInvalidTransition
	}
	err = s.store.RunInTx(ctx, func(inv invrepo.Repository, orders orderrepo.Repository) error {
		if err := inv.Release(ctx, o.ProductID, o.Quantity); err != nil {
			return err
		}
		return orders.UpdateOrderStatus(ctx, o.ID, domain.OrderStatusCancelled)
	})
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatusCancelled
	return o, nil
}

// Fulfill completes a placed order and commits its reservation. Vendor org only.
func (s *CheckoutService) Fulfill(ctx context.Context, orgID, orderID string) (*domain.Order, error) {
	o, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.VendorOrgID != orgID {
		return nil, ErrNotYourOrder
	}
	if o.Status != domain.OrderStatusPlaced {
		return nil, ErrInvalidTransition
	}
	err = s.store.RunInTx(ctx, func(inv invrepo.Repository, orders orderrepo.Repository) error {
		if err := inv.Commit(ctx, o.ProductID, o.Quantity); err != nil {
			return err
		}
		return orders.UpdateOrderStatus(ctx, o.ID, domain.OrderStatusFulfilled)
	})
	if err != nil {
		return nil, err
	}
	o.Status = domain.OrderStatusFulfilled
	return o, nil
}

func (s *CheckoutService) loadOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	o, err := s.orders.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrOrderNotFound
	}
	return o, nil
}
