package domain_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ventaro/retail-be/internal/core/domain"
)

func TestLineSubtotal(t *testing.T) {
	tests := []struct {
		name        string
		qty         int
		unitPrice   string
		discountPct string
		expected    string
	}{
		{
			name:        "no_discount",
			qty:         3,
			unitPrice:   "10.00",
			discountPct: "0",
			expected:    "30",
		},
		{
			name:        "with_discount",
			qty:         2,
			unitPrice:   "50.00",
			discountPct: "10",
			expected:    "90",
		},
		{
			name:        "rounds_half_up",
			qty:         3,
			unitPrice:   "0.335",
			discountPct: "0",
			expected:    "1.01",
		},
		{
			name:        "fractional_discount",
			qty:         1,
			unitPrice:   "99.99",
			discountPct: "33",
			expected:    "66.99",
		},
		{
			name:        "full_discount",
			qty:         5,
			unitPrice:   "12.34",
			discountPct: "100",
			expected:    "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price := decimal.RequireFromString(tt.unitPrice)
			discount := decimal.RequireFromString(tt.discountPct)
			expected := decimal.RequireFromString(tt.expected)

			got := domain.LineSubtotal(tt.qty, price, discount)
			assert.True(t, expected.Equal(got),
				"expected %s, got %s", expected, got)
		})
	}
}

func TestSale_RecomputeTotal(t *testing.T) {
	sale := &domain.Sale{
		Lines: []domain.SaleLine{
			{Subtotal: decimal.RequireFromString("10.50")},
			{Subtotal: decimal.RequireFromString("4.25")},
			{Subtotal: decimal.RequireFromString("0.25")},
		},
	}

	sale.RecomputeTotal()
	assert.True(t, decimal.RequireFromString("15").Equal(sale.Total))
}

func TestSale_RecomputeTotal_NoLines(t *testing.T) {
	sale := &domain.Sale{Total: decimal.RequireFromString("99.99")}

	sale.RecomputeTotal()
	assert.True(t, sale.Total.IsZero())
}

func TestSale_TryFinalize(t *testing.T) {
	tests := []struct {
		name            string
		payment         domain.PaymentStatus
		shipping        domain.ShippingStatus
		overall         domain.OverallStatus
		wantTransition  bool
		expectedOverall domain.OverallStatus
	}{
		{
			name:            "finalizes_when_paid_and_received",
			payment:         domain.PaymentPaid,
			shipping:        domain.ShippingReceived,
			overall:         domain.OverallActive,
			wantTransition:  true,
			expectedOverall: domain.OverallFinalized,
		},
		{
			name:            "stays_active_when_unpaid",
			payment:         domain.PaymentPending,
			shipping:        domain.ShippingReceived,
			overall:         domain.OverallActive,
			wantTransition:  false,
			expectedOverall: domain.OverallActive,
		},
		{
			name:            "stays_active_when_not_received",
			payment:         domain.PaymentPaid,
			shipping:        domain.ShippingShipped,
			overall:         domain.OverallActive,
			wantTransition:  false,
			expectedOverall: domain.OverallActive,
		},
		{
			name:            "idempotent_when_already_finalized",
			payment:         domain.PaymentPaid,
			shipping:        domain.ShippingReceived,
			overall:         domain.OverallFinalized,
			wantTransition:  false,
			expectedOverall: domain.OverallFinalized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sale := &domain.Sale{
				PaymentStatus:  tt.payment,
				ShippingStatus: tt.shipping,
				OverallStatus:  tt.overall,
			}

			got := sale.TryFinalize()
			assert.Equal(t, tt.wantTransition, got)
			assert.Equal(t, tt.expectedOverall, sale.OverallStatus)
		})
	}
}

func TestStatusPatch_Validate(t *testing.T) {
	paid := domain.PaymentPaid
	shipped := domain.ShippingShipped
	badPayment := domain.PaymentStatus("refunded")
	badShipping := domain.ShippingStatus("lost")

	tests := []struct {
		name    string
		patch   domain.StatusPatch
		wantErr bool
	}{
		{name: "payment_only", patch: domain.StatusPatch{Payment: &paid}},
		{name: "shipping_only", patch: domain.StatusPatch{Shipping: &shipped}},
		{name: "both_axes", patch: domain.StatusPatch{Payment: &paid, Shipping: &shipped}},
		{name: "empty_patch", patch: domain.StatusPatch{}, wantErr: true},
		{name: "unknown_payment", patch: domain.StatusPatch{Payment: &badPayment}, wantErr: true},
		{name: "unknown_shipping", patch: domain.StatusPatch{Shipping: &badShipping}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.patch.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, domain.IsValidation(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestStatusPatch_Apply(t *testing.T) {
	paid := domain.PaymentPaid
	sale := &domain.Sale{
		PaymentStatus:  domain.PaymentPending,
		ShippingStatus: domain.ShippingShipped,
	}

	domain.StatusPatch{Payment: &paid}.Apply(sale)

	assert.Equal(t, domain.PaymentPaid, sale.PaymentStatus)
	// Absent axis is left untouched
	assert.Equal(t, domain.ShippingShipped, sale.ShippingStatus)
}

func TestSale_PrepareForStorage(t *testing.T) {
	sale := &domain.Sale{}
	sale.PrepareForStorage()

	assert.NotEmpty(t, sale.ID)
	assert.Equal(t, domain.PaymentPending, sale.PaymentStatus)
	assert.Equal(t, domain.ShippingPending, sale.ShippingStatus)
	assert.Equal(t, domain.OverallActive, sale.OverallStatus)
	assert.False(t, sale.CreatedAt.IsZero())
	assert.False(t, sale.UpdatedAt.IsZero())
}

func TestPurchaseLot_Validate(t *testing.T) {
	valid := func() *domain.PurchaseLot {
		lot := &domain.PurchaseLot{
			ProductID: uuid.New(),
			Quantity:  10,
			UnitCost:  decimal.RequireFromString("5.00"),
		}
		lot.PrepareForStorage()
		return lot
	}

	t.Run("valid_lot", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("missing_product", func(t *testing.T) {
		lot := valid()
		lot.ProductID = uuid.Nil
		assert.Error(t, lot.Validate())
	})

	t.Run("non_positive_quantity", func(t *testing.T) {
		lot := valid()
		lot.Quantity = 0
		assert.Error(t, lot.Validate())
	})

	t.Run("remaining_above_quantity", func(t *testing.T) {
		lot := valid()
		lot.Remaining = lot.Quantity + 1
		assert.Error(t, lot.Validate())
	})

	t.Run("negative_unit_cost", func(t *testing.T) {
		lot := valid()
		lot.UnitCost = decimal.RequireFromString("-1")
		assert.Error(t, lot.Validate())
	})
}

func TestPurchaseLot_PrepareForStorage(t *testing.T) {
	lot := &domain.PurchaseLot{Quantity: 25}
	lot.PrepareForStorage()

	assert.NotEmpty(t, lot.ID)
	assert.Equal(t, 25, lot.Remaining)
	assert.False(t, lot.OrderDate.IsZero())
}
