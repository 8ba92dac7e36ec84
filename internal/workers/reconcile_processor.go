// internal/workers/reconcile_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ventaro/retail-be/internal/adapters/db"
)

const (
	TypeReconcileStock = "stock:reconcile"
	TypeRetentionPurge = "history:purge"
)

// ReconcileProcessor repairs drift between the aggregate stock counter and
// the lot ledger. The counter only moves on paid sales while lot remaining
// moves on every allocation, so the expected value is
// sum(remaining) + quantity reserved by unpaid non-cancelled sales.
type ReconcileProcessor struct {
	db     *db.Database
	logger *slog.Logger
}

// NewReconcileProcessor creates a new reconcile processor
func NewReconcileProcessor(database *db.Database, logger *slog.Logger) *ReconcileProcessor {
	return &ReconcileProcessor{
		db:     database,
		logger: logger.With(slog.String("processor", "reconcile")),
	}
}

// ReconcileStock recomputes the expected stock per product and rewrites
// counters that drifted.
func (p *ReconcileProcessor) ReconcileStock(ctx context.Context, t *asynq.Task) error {
	p.logger.InfoContext(ctx, "reconciling stock counters")

	query := `
		SELECT p.id, p.stock,
		       COALESCE(l.remaining_sum, 0) + COALESCE(r.reserved, 0) AS expected
		FROM products p
		LEFT JOIN (
			SELECT product_id, SUM(remaining) AS remaining_sum
			FROM purchase_lots
			GROUP BY product_id
		) l ON l.product_id = p.id
		LEFT JOIN (
			SELECT sl.product_id, SUM(sl.quantity) AS reserved
			FROM sale_lines sl
			JOIN sales s ON s.id = sl.sale_id
			WHERE s.payment_status = 'pending' AND s.overall_status != 'cancelled'
			GROUP BY sl.product_id
		) r ON r.product_id = p.id
		WHERE p.stock != COALESCE(l.remaining_sum, 0) + COALESCE(r.reserved, 0)`

	rows, err := p.db.Query(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to query stock drift: %w", err)
	}
	defer rows.Close()

	type drift struct {
		productID uuid.UUID
		stock     int
		expected  int
	}

	var drifts []drift
	for rows.Next() {
		var d drift
		if err := rows.Scan(&d.productID, &d.stock, &d.expected); err != nil {
			return fmt.Errorf("failed to scan drift row: %w", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}

	for _, d := range drifts {
		p.logger.WarnContext(ctx, "stock counter drifted",
			slog.String("product_id", d.productID.String()),
			slog.Int("stock", d.stock),
			slog.Int("expected", d.expected))

		_, err := p.db.Exec(ctx,
			`UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`,
			d.productID, d.expected)
		if err != nil {
			return fmt.Errorf("failed to repair stock for %s: %w", d.productID, err)
		}
	}

	p.logger.InfoContext(ctx, "stock reconciliation complete",
		slog.Int("products_repaired", len(drifts)))

	return nil
}
