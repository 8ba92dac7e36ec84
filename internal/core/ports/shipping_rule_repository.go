// internal/core/ports/shipping_rule_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ventaro/retail-be/internal/core/domain"
)

// ShippingRuleRepository looks up the fee rule for a (carrier, payment
// method) pair. Returns nil when no rule exists; the calculator treats an
// absent rule as a zero fee.
type ShippingRuleRepository interface {
	Find(ctx context.Context, carrierID uuid.UUID, method domain.PaymentMethod) (*domain.ShippingRule, error)
}
