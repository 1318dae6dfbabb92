package domain

import "time"

// Stock tracks on-hand and reserved quantities for a product.
// Invariant: 0 <= QtyReserved <= QtyOnHand, enforced both here and by a
// database CHECK constraint.
type Stock struct {
	ProductID   string
	QtyOnHand   int
	QtyReserved int
	UpdatedAt   time.Time
}

// Available returns the quantity that can still be reserved.
func (s *Stock) Available() int {
	return s.QtyOnHand - s.QtyReserved
}
