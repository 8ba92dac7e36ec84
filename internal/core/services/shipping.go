// internal/core/services/shipping.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/ports"
)

// ShippingCalculator evaluates carrier fee rules against a sale total.
type ShippingCalculator struct {
	rules  ports.ShippingRuleRepository
	logger *slog.Logger
}

// NewShippingCalculator creates a new shipping calculator
func NewShippingCalculator(rules ports.ShippingRuleRepository, logger *slog.Logger) *ShippingCalculator {
	return &ShippingCalculator{
		rules:  rules,
		logger: logger.With(slog.String("service", "shipping")),
	}
}

// Quote computes the shipping cost and carrier commission for a sale.
// A missing carrier or a (carrier, payment method) pair with no rule both
// quote as zero. Both fields come from the same rule evaluation.
func (c *ShippingCalculator) Quote(ctx context.Context, carrierID *uuid.UUID, method domain.PaymentMethod, saleTotal decimal.Decimal) (domain.ShippingQuote, error) {
	zero := domain.ShippingQuote{ShippingCost: decimal.Zero, Commission: decimal.Zero}

	if carrierID == nil {
		return zero, nil
	}

	rule, err := c.rules.Find(ctx, *carrierID, method)
	if err != nil {
		return zero, fmt.Errorf("failed to look up shipping rule: %w", err)
	}
	if rule == nil {
		c.logger.DebugContext(ctx, "no shipping rule for carrier",
			slog.String("carrier_id", carrierID.String()),
			slog.String("payment_method", string(method)))
		return zero, nil
	}

	fee := rule.Fee(saleTotal)
	return domain.ShippingQuote{ShippingCost: fee, Commission: fee}, nil
}
