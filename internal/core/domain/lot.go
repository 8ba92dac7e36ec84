// internal/core/domain/lot.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseLot is one purchase-order line item tracked with its own remaining
// quantity and unit cost. Lots are consumed FIFO by sales, ordered by
// (order date ascending, id ascending). Remaining only changes inside a
// locked transaction, through the lot ledger.
type PurchaseLot struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	OrderCode string          `json:"order_code"`
	OrderDate time.Time       `json:"order_date"`
	Quantity  int             `json:"quantity"`
	Remaining int             `json:"remaining"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Validate checks the lot invariants before it is stored.
func (l *PurchaseLot) Validate() error {
	if l.ProductID == uuid.Nil {
		return &ValidationError{Field: "product_id", Reason: "is required"}
	}
	if l.Quantity <= 0 {
		return &ValidationError{Field: "quantity", Reason: "must be positive"}
	}
	if l.Remaining < 0 || l.Remaining > l.Quantity {
		return &ValidationError{
			Field:  "remaining",
			Reason: fmt.Sprintf("must be between 0 and %d", l.Quantity),
		}
	}
	if l.UnitCost.IsNegative() {
		return &ValidationError{Field: "unit_cost", Reason: "cannot be negative"}
	}
	return nil
}

// PrepareForStorage fills identifiers and defaults before the first insert.
func (l *PurchaseLot) PrepareForStorage() {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Remaining == 0 {
		l.Remaining = l.Quantity
	}
	now := time.Now()
	if l.OrderDate.IsZero() {
		l.OrderDate = now
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = now
	}
	l.UpdatedAt = now
}

// LotConsumption records one FIFO allocation taken from a lot: the quantity
// drawn and the lot's unit cost at consumption time.
type LotConsumption struct {
	LotID    uuid.UUID       `json:"lot_id"`
	Quantity int             `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}
