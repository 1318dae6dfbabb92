package engine

import "context"

// OrderInput is the order context handed to the policy engine.
type OrderInput struct {
	BuyerOrgID     string
	VendorOrgID    string
	ProductID      string
	PlacedBy       string
	Quantity       int
	UnitPriceCents int64
	TotalCents     int64
}

// OrderResult holds the result of order-approval policy evaluation.
type OrderResult struct {
	AutoApprove bool
}

// Evaluator decides whether an order is placed immediately or held for
// approval. Implementations must not fail the checkout on policy errors;
// they fall back to holding the order.
type Evaluator interface {
	EvaluateOrder(ctx context.Context, in OrderInput) (OrderResult, error)
	HealthCheck(ctx context.Context) error
}
