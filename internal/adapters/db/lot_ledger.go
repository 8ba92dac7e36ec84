// internal/adapters/db/lot_ledger.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/ports"
)

// lotLedger implements ports.LotLedger
type lotLedger struct {
	db     *Database
	logger *slog.Logger
}

// NewLotLedger creates a new lot ledger repository
func NewLotLedger(db *Database, logger *slog.Logger) ports.LotLedger {
	return &lotLedger{
		db:     db,
		logger: logger.With(slog.String("repository", "lot_ledger")),
	}
}

// Consume draws qty from the product's oldest lots. Every candidate row is
// locked with FOR UPDATE before its remaining quantity is read, so two
// transactions consuming the same product serialize on the first shared lot.
// Scan order is (order_date ASC, id ASC); a lot is drained before the next
// one is touched. If the locked rows cannot cover qty the partial updates
// are returned as an InsufficientStockError and the caller aborts.
func (l *lotLedger) Consume(ctx context.Context, tx pgx.Tx, productID uuid.UUID, qty int) ([]domain.LotConsumption, error) {
	query := `
		SELECT id, remaining, unit_cost
		FROM purchase_lots
		WHERE product_id = $1 AND remaining > 0
		ORDER BY order_date ASC, id ASC
		FOR UPDATE`

	rows, err := tx.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock lots: %w", err)
	}

	type lockedLot struct {
		id        uuid.UUID
		remaining int
		unitCost  decimal.Decimal
	}
	var lots []lockedLot
	for rows.Next() {
		var lot lockedLot
		if err := rows.Scan(&lot.id, &lot.remaining, &lot.unitCost); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan lot: %w", err)
		}
		lots = append(lots, lot)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating lots: %w", err)
	}

	available := 0
	for _, lot := range lots {
		available += lot.remaining
	}
	if available < qty {
		return nil, &domain.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: available,
		}
	}

	var consumptions []domain.LotConsumption
	need := qty
	for _, lot := range lots {
		if need == 0 {
			break
		}
		take := lot.remaining
		if take > need {
			take = need
		}

		tag, err := tx.Exec(ctx,
			`UPDATE purchase_lots SET remaining = remaining - $2, updated_at = NOW()
			 WHERE id = $1 AND remaining >= $2`,
			lot.id, take)
		if err != nil {
			return nil, fmt.Errorf("failed to consume lot %s: %w", lot.id, err)
		}
		if tag.RowsAffected() == 0 {
			return nil, fmt.Errorf("lot %s changed under lock", lot.id)
		}

		consumptions = append(consumptions, domain.LotConsumption{
			LotID:    lot.id,
			Quantity: take,
			UnitCost: lot.unitCost,
		})
		need -= take
	}

	l.logger.DebugContext(ctx, "lots consumed",
		slog.String("product_id", productID.String()),
		slog.Int("quantity", qty),
		slog.Int("lots", len(consumptions)))

	return consumptions, nil
}

// Release gives qty back to a lot, capped by the lot's original quantity.
func (l *lotLedger) Release(ctx context.Context, tx pgx.Tx, lotID uuid.UUID, qty int) error {
	tag, err := tx.Exec(ctx,
		`UPDATE purchase_lots SET remaining = remaining + $2, updated_at = NOW()
		 WHERE id = $1 AND remaining + $2 <= quantity`,
		lotID, qty)
	if err != nil {
		return fmt.Errorf("failed to release lot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("lot %s cannot take back %d units", lotID, qty)
	}

	l.logger.DebugContext(ctx, "lot released",
		slog.String("lot_id", lotID.String()),
		slog.Int("quantity", qty))

	return nil
}

// CreateLot inserts a new purchase lot
func (l *lotLedger) CreateLot(ctx context.Context, lot *domain.PurchaseLot) error {
	query := `
		INSERT INTO purchase_lots (
			id, product_id, order_code, order_date,
			quantity, remaining, unit_cost, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := l.db.Exec(ctx, query,
		lot.ID, lot.ProductID, lot.OrderCode, lot.OrderDate,
		lot.Quantity, lot.Remaining, lot.UnitCost, lot.CreatedAt, lot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create lot: %w", err)
	}

	l.logger.DebugContext(ctx, "lot created",
		slog.String("lot_id", lot.ID.String()),
		slog.String("product_id", lot.ProductID.String()),
		slog.Int("quantity", lot.Quantity))

	return nil
}

// FindLot retrieves a single lot, nil when absent
func (l *lotLedger) FindLot(ctx context.Context, lotID uuid.UUID) (*domain.PurchaseLot, error) {
	query := `
		SELECT id, product_id, order_code, order_date,
		       quantity, remaining, unit_cost, created_at, updated_at
		FROM purchase_lots
		WHERE id = $1`

	lot := &domain.PurchaseLot{}
	err := l.db.QueryRow(ctx, query, lotID).Scan(
		&lot.ID, &lot.ProductID, &lot.OrderCode, &lot.OrderDate,
		&lot.Quantity, &lot.Remaining, &lot.UnitCost, &lot.CreatedAt, &lot.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find lot: %w", err)
	}

	return lot, nil
}
