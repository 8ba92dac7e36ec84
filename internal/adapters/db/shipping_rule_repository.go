// internal/adapters/db/shipping_rule_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/ports"
)

const shippingRuleTTL = 10 * time.Minute

// shippingRuleRepository implements ports.ShippingRuleRepository with a
// cache-aside layer. Rules change rarely and are read on every sale write,
// so lookups go through Redis with a short TTL.
type shippingRuleRepository struct {
	db     *Database
	cache  ports.CacheRepository
	logger *slog.Logger
}

// NewShippingRuleRepository creates a new shipping rule repository
func NewShippingRuleRepository(db *Database, cache ports.CacheRepository, logger *slog.Logger) ports.ShippingRuleRepository {
	return &shippingRuleRepository{
		db:     db,
		cache:  cache,
		logger: logger.With(slog.String("repository", "shipping_rules")),
	}
}

// cachedRule wraps the rule so an absent rule caches as found=false instead
// of hammering the database on every quote.
type cachedRule struct {
	Found bool                 `json:"found"`
	Rule  *domain.ShippingRule `json:"rule,omitempty"`
}

// Find looks up the rule for a (carrier, payment method) pair, nil when no
// rule exists.
func (r *shippingRuleRepository) Find(ctx context.Context, carrierID uuid.UUID, method domain.PaymentMethod) (*domain.ShippingRule, error) {
	if r.cache == nil {
		return r.findDB(ctx, carrierID, method)
	}

	key := fmt.Sprintf("shipping_rule:%s:%s", carrierID, method)
	var cached cachedRule
	err := r.cache.GetOrSet(ctx, key, &cached, func() (interface{}, error) {
		rule, err := r.findDB(ctx, carrierID, method)
		if err != nil {
			return nil, err
		}
		return &cachedRule{Found: rule != nil, Rule: rule}, nil
	}, shippingRuleTTL)
	if err != nil {
		// Cache trouble must not block quoting
		r.logger.WarnContext(ctx, "shipping rule cache lookup failed", "err", err)
		return r.findDB(ctx, carrierID, method)
	}

	if !cached.Found {
		return nil, nil
	}
	return cached.Rule, nil
}

func (r *shippingRuleRepository) findDB(ctx context.Context, carrierID uuid.UUID, method domain.PaymentMethod) (*domain.ShippingRule, error) {
	query := `
		SELECT id, carrier_id, payment_method, threshold,
		       fixed_fee, percentage, fixed_below_threshold
		FROM shipping_rules
		WHERE carrier_id = $1 AND payment_method = $2`

	rule := &domain.ShippingRule{}
	err := r.db.QueryRow(ctx, query, carrierID, method).Scan(
		&rule.ID, &rule.CarrierID, &rule.PaymentMethod, &rule.Threshold,
		&rule.FixedFee, &rule.Percentage, &rule.FixedBelowThreshold,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find shipping rule: %w", err)
	}

	return rule, nil
}
