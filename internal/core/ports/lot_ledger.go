// internal/core/ports/lot_ledger.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ventaro/retail-be/internal/core/domain"
)

// LotLedger owns purchase-lot rows and exposes the FIFO consume/release
// primitives. Consume and Release run inside the caller's transaction and
// lock every lot row they touch before reading it.
type LotLedger interface {
	// Consume allocates qty from the oldest lots with remaining stock,
	// ordered by (order date ascending, id ascending). It returns one
	// consumption per lot drawn from. When the lots cannot cover qty it
	// returns a domain.InsufficientStockError and the caller must abort
	// the whole transaction.
	Consume(ctx context.Context, tx pgx.Tx, productID uuid.UUID, qty int) ([]domain.LotConsumption, error)

	// Release gives qty back to the named lot. Only used to reverse a
	// consumption previously recorded on a sale line.
	Release(ctx context.Context, tx pgx.Tx, lotID uuid.UUID, qty int) error

	// CreateLot inserts a new purchase lot (purchase-order intake path).
	CreateLot(ctx context.Context, lot *domain.PurchaseLot) error

	// FindLot loads a single lot, nil when absent.
	FindLot(ctx context.Context, lotID uuid.UUID) (*domain.PurchaseLot, error)
}
