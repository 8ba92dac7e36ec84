// internal/core/ports/sale_service.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ventaro/retail-be/internal/core/domain"
)

// SaleService is the application port the HTTP layer talks to. Every write
// operation runs as exactly one database transaction.
type SaleService interface {
	CreateSale(ctx context.Context, req SaleRequest) (*domain.Sale, error)
	UpdateSale(ctx context.Context, saleID uuid.UUID, req SaleRequest) (*domain.Sale, error)
	DeleteSale(ctx context.Context, saleID uuid.UUID) error
	CancelSale(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error)
	QuickUpdateStatus(ctx context.Context, saleID uuid.UUID, patch domain.StatusPatch) (*domain.Sale, error)
	GetSale(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error)
	ListSales(ctx context.Context, params SaleListParams) (*SaleListResult, error)
}

// SaleRequest is the payload for creating or replacing a sale. Line items
// are requested per product; the engine splits them across lots.
type SaleRequest struct {
	Code           string                 `json:"code"`
	ClientID       uuid.UUID              `json:"client_id"`
	CarrierID      *uuid.UUID             `json:"carrier_id,omitempty"`
	PaymentMethod  domain.PaymentMethod   `json:"payment_method"`
	PaymentStatus  *domain.PaymentStatus  `json:"payment_status,omitempty"`
	ShippingStatus *domain.ShippingStatus `json:"shipping_status,omitempty"`
	Lines          []SaleLineRequest      `json:"lines"`
}

// SaleLineRequest is one requested product line.
type SaleLineRequest struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
}

// Validate rejects a structurally invalid request before any database work.
func (r *SaleRequest) Validate() error {
	if r.ClientID == uuid.Nil {
		return &domain.ValidationError{Field: "client_id", Reason: "is required"}
	}
	if len(r.Lines) == 0 {
		return &domain.ValidationError{Field: "lines", Reason: "must not be empty"}
	}
	for i := range r.Lines {
		line := &r.Lines[i]
		if line.ProductID == uuid.Nil {
			return &domain.ValidationError{Field: "lines.product_id", Reason: "is required"}
		}
		if line.Quantity <= 0 {
			return &domain.ValidationError{Field: "lines.quantity", Reason: "must be positive"}
		}
		if !line.UnitPrice.IsPositive() {
			return &domain.ValidationError{Field: "lines.unit_price", Reason: "must be positive"}
		}
		if line.DiscountPct.IsNegative() || line.DiscountPct.GreaterThan(decimal.NewFromInt(100)) {
			return &domain.ValidationError{Field: "lines.discount_pct", Reason: "must be between 0 and 100"}
		}
	}
	if r.PaymentMethod == "" {
		return &domain.ValidationError{Field: "payment_method", Reason: "is required"}
	}
	return nil
}

// SaleListResult holds one page of the sale list view.
type SaleListResult struct {
	Sales      []*domain.Sale `json:"sales"`
	Page       int            `json:"page"`
	PageSize   int            `json:"page_size"`
	TotalCount int64          `json:"total_count"`
	TotalPages int            `json:"total_pages"`
}
