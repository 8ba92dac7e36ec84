// internal/core/domain/shipping.go
package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ShippingRule is a carrier-specific fee rule keyed by (carrier, payment
// method). Managed by an external collaborator; read-only here.
type ShippingRule struct {
	ID                  uuid.UUID       `json:"id"`
	CarrierID           uuid.UUID       `json:"carrier_id"`
	PaymentMethod       PaymentMethod   `json:"payment_method"`
	Percentage          decimal.Decimal `json:"percentage"`
	FixedFee            decimal.Decimal `json:"fixed_fee"`
	Threshold           decimal.Decimal `json:"threshold"`
	FixedBelowThreshold bool            `json:"fixed_below_threshold"`
}

// Fee evaluates the rule against a sale total. Totals at or under the
// threshold use the fixed fee when the rule says so; everything else pays
// the percentage. The result is rounded half-up to 2 decimal places.
func (r *ShippingRule) Fee(saleTotal decimal.Decimal) decimal.Decimal {
	if r.FixedBelowThreshold && !r.Threshold.IsZero() && saleTotal.LessThanOrEqual(r.Threshold) {
		return r.FixedFee.Round(2)
	}
	return saleTotal.Mul(r.Percentage).Round(2)
}

// ShippingQuote is the evaluated cost pair stored on a sale header. Both
// values come from the same rule evaluation.
type ShippingQuote struct {
	ShippingCost decimal.Decimal `json:"shipping_cost"`
	Commission   decimal.Decimal `json:"commission"`
}
