// internal/core/ports/product_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepository is the persistence port for products. The engine never
// does stock arithmetic itself: AdjustStock is the only mutation path for
// the cached aggregate counter.
type ProductRepository interface {
	// LockForUpdate locks the given product rows in ascending id order,
	// before any read that will inform a write decision.
	LockForUpdate(ctx context.Context, tx pgx.Tx, productIDs []uuid.UUID) error

	// AdjustStock atomically increments (or decrements) a product's
	// aggregate stock counter.
	AdjustStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, delta int) error

	Exists(ctx context.Context, productID uuid.UUID) (bool, error)
}

// PartnerRepository provides the existence checks used for validation.
// Clients and carriers are managed by external collaborators.
type PartnerRepository interface {
	ClientExists(ctx context.Context, clientID uuid.UUID) (bool, error)
	CarrierExists(ctx context.Context, carrierID uuid.UUID) (bool, error)
}
