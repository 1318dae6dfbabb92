package domain

import (
	"errors"
	"time"
)

// Product is a drone or drone part listed by a vendor org.
type Product struct {
	ID          string
	OrgID       string
	SKU         string
	Name        string
	Description string
	PriceCents  int64
	Status      ProductStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductStatus string

const (
	ProductStatusActive  ProductStatus = "active"
	ProductStatusRetired ProductStatus = "retired"
)

// Validate validates the product for persistence.
func (p *Product) Validate() error {
	if p.OrgID == "" {
		return errors.New("org_id is required")
	}
	if p.SKU == "" {
		return errors.New("sku is required")
	}
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.PriceCents < 0 {
		return errors.New("price_cents must not be negative")
	}
	if p.Status == "" {
		p.Status = ProductStatusActive
	}
	return nil
}
