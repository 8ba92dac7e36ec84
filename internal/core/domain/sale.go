// internal/core/domain/sale.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the payment axis of a sale
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

// ShippingStatus represents the shipping axis of a sale
type ShippingStatus string

const (
	ShippingPending  ShippingStatus = "pending"
	ShippingShipped  ShippingStatus = "shipped"
	ShippingReceived ShippingStatus = "received"
)

// OverallStatus represents the overall lifecycle axis of a sale
type OverallStatus string

const (
	OverallActive    OverallStatus = "active"
	OverallCancelled OverallStatus = "cancelled"
	OverallFinalized OverallStatus = "finalized"
)

// PaymentMethod represents how a sale is paid
type PaymentMethod string

const (
	MethodCash           PaymentMethod = "cash"
	MethodCard           PaymentMethod = "card"
	MethodTransfer       PaymentMethod = "transfer"
	MethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// Sale is the header row of a sale, plus its lot-level lines
type Sale struct {
	ID                uuid.UUID       `json:"id"`
	Code              string          `json:"code"`
	ClientID          uuid.UUID       `json:"client_id"`
	CarrierID         *uuid.UUID      `json:"carrier_id,omitempty"`
	PaymentMethod     PaymentMethod   `json:"payment_method"`
	Total             decimal.Decimal `json:"total"`
	ShippingCost      decimal.Decimal `json:"shipping_cost"`
	CarrierCommission decimal.Decimal `json:"carrier_commission"`
	PaymentStatus     PaymentStatus   `json:"payment_status"`
	ShippingStatus    ShippingStatus  `json:"shipping_status"`
	OverallStatus     OverallStatus   `json:"overall_status"`
	Lines             []SaleLine      `json:"lines,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// SaleLine is one row per (sale, lot) pair. A requested quantity that spans
// two lots produces two lines. LotID is mandatory: it is the only exact way
// to reverse the consumption later.
type SaleLine struct {
	ID          uuid.UUID       `json:"id"`
	SaleID      uuid.UUID       `json:"sale_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	LotID       uuid.UUID       `json:"lot_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
}

// LineSubtotal computes qty * unitPrice * (1 - discountPct/100),
// rounded half-up to 2 decimal places.
func LineSubtotal(qty int, unitPrice, discountPct decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	factor := decimal.NewFromInt(1).Sub(discountPct.Div(decimal.NewFromInt(100)))
	return gross.Mul(factor).Round(2)
}

// RecomputeTotal sets Total to the sum of line subtotals.
func (s *Sale) RecomputeTotal() {
	total := decimal.Zero
	for i := range s.Lines {
		total = total.Add(s.Lines[i].Subtotal)
	}
	s.Total = total.Round(2)
}

// TryFinalize advances the overall status to finalized when payment and
// shipping both reached their terminal states. Idempotent: a sale that is
// already finalized is left untouched. Returns true when a transition
// happened, so callers know whether the header needs a write.
func (s *Sale) TryFinalize() bool {
	if s.PaymentStatus == PaymentPaid &&
		s.ShippingStatus == ShippingReceived &&
		s.OverallStatus != OverallFinalized {
		s.OverallStatus = OverallFinalized
		return true
	}
	return false
}

// StatusPatch carries the optional axis values of a quick status update.
type StatusPatch struct {
	Payment  *PaymentStatus  `json:"payment_status,omitempty"`
	Shipping *ShippingStatus `json:"shipping_status,omitempty"`
}

// Apply copies the provided axes onto the sale, leaving absent axes alone.
func (p StatusPatch) Apply(s *Sale) {
	if p.Payment != nil {
		s.PaymentStatus = *p.Payment
	}
	if p.Shipping != nil {
		s.ShippingStatus = *p.Shipping
	}
}

// Validate checks the patch carries at least one known axis value.
func (p StatusPatch) Validate() error {
	if p.Payment == nil && p.Shipping == nil {
		return &ValidationError{Field: "status", Reason: "at least one status axis is required"}
	}
	if p.Payment != nil && *p.Payment != PaymentPending && *p.Payment != PaymentPaid {
		return &ValidationError{Field: "payment_status", Reason: "unknown payment status"}
	}
	if p.Shipping != nil {
		switch *p.Shipping {
		case ShippingPending, ShippingShipped, ShippingReceived:
		default:
			return &ValidationError{Field: "shipping_status", Reason: "unknown shipping status"}
		}
	}
	return nil
}

// PrepareForStorage fills identifiers, defaults and timestamps before the
// first insert.
func (s *Sale) PrepareForStorage() {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.PaymentStatus == "" {
		s.PaymentStatus = PaymentPending
	}
	if s.ShippingStatus == "" {
		s.ShippingStatus = ShippingPending
	}
	if s.OverallStatus == "" {
		s.OverallStatus = OverallActive
	}
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now
}
