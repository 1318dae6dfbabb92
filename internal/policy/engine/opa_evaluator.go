package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"agrimarket/backend/internal/policy/repository"
)

// Default Rego policy: auto-approve small orders, hold everything else.
const defaultRegoPolicy = `package agrimarket.order_approval

default auto_approve = false

auto_approve if {
	input.order.quantity <= 25
}
`

const approveQuery = "data.agrimarket.order_approval.auto_approve"

// OPAEvaluator evaluates order-approval policies using OPA Rego.
// The buyer org's stored policy module is used when present and enabled;
// otherwise the default module applies.
type OPAEvaluator struct {
	policyRepo repository.Repository
}

// NewOPAEvaluator returns an OPA-based policy evaluator.
func NewOPAEvaluator(policyRepo repository.Repository) *OPAEvaluator {
	return &OPAEvaluator{policyRepo: policyRepo}
}

// HealthCheck verifies that the in-process OPA Rego engine can compile and evaluate the default policy.
// Does not call the policy repo or database. Returns nil on success.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	compiler, err := ast.CompileModules(map[string]string{"policy_0.rego": defaultRegoPolicy})
	if err != nil {
		return fmt.Errorf("compile default policy: %w", err)
	}
	q := rego.New(
		rego.Query(approveQuery),
		rego.Compiler(compiler),
		rego.Input(minimalInput()),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return fmt.Errorf("eval default policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}

// EvaluateOrder evaluates the buyer org's order policy. Policy load or
// evaluation failures never block checkout; the order is held for manual
// approval instead.
func (e *OPAEvaluator) EvaluateOrder(ctx context.Context, in OrderInput) (OrderResult, error) {
	module := defaultRegoPolicy
	p, err := e.policyRepo.GetPolicyByOrg(ctx, in.BuyerOrgID)
	if err != nil {
		log.Printf("policy: failed to load policy for org %s: %v", in.BuyerOrgID, err)
	} else if p != nil && p.Enabled && p.Rules != "" {
		module = p.Rules
	}

	result, err := e.evaluate(ctx, module, buildInput(in))
	if err != nil {
		log.Printf("policy: evaluation failed for org %s: %v, holding order", in.BuyerOrgID, err)
		return OrderResult{AutoApprove: false}, nil
	}
	return result, nil
}

func (e *OPAEvaluator) evaluate(ctx context.Context, module string, input map[string]interface{}) (OrderResult, error) {
	compiler, err := ast.CompileModules(map[string]string{"policy_0.rego": module})
	if err != nil {
		return OrderResult{}, fmt.Errorf("compile policy: %w", err)
	}
	q := rego.New(
		rego.Query(approveQuery),
		rego.Compiler(compiler),
		rego.Input(input),
	)
	rs, err := q.Eval(ctx)
	if err != nil {
		return OrderResult{}, fmt.Errorf("eval policy: %w", err)
	}
	out := OrderResult{AutoApprove: false}
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		if v, ok := rs[0].Expressions[0].Value.(bool); ok {
			out.AutoApprove = v
		}
	}
	return out, nil
}

func buildInput(in OrderInput) map[string]interface{} {
	return map[string]interface{}{
		"order": map[string]interface{}{
			"buyer_org_id":     in.BuyerOrgID,
			"vendor_org_id":    in.VendorOrgID,
			"product_id":       in.ProductID,
			"placed_by":        in.PlacedBy,
			"quantity":         in.Quantity,
			"unit_price_cents": in.UnitPriceCents,
			"total_cents":      in.TotalCents,
		},
	}
}

func minimalInput() map[string]interface{} {
	return buildInput(OrderInput{Quantity: 1, UnitPriceCents: 1, TotalCents: 1})
}
