// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ventaro/retail-be/internal/core/ports"
)

// productRepository implements ports.ProductRepository
type productRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *Database, logger *slog.Logger) ports.ProductRepository {
	return &productRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "products")),
	}
}

// LockForUpdate locks the product rows in ascending id order. Every writer
// that touches a set of products locks them through this method first, so
// overlapping transactions always acquire locks in the same order.
func (r *productRepository) LockForUpdate(ctx context.Context, tx pgx.Tx, productIDs []uuid.UUID) error {
	if len(productIDs) == 0 {
		return nil
	}

	rows, err := tx.Query(ctx,
		`SELECT id FROM products WHERE id = ANY($1) ORDER BY id ASC FOR UPDATE`,
		productIDs)
	if err != nil {
		return fmt.Errorf("failed to lock products: %w", err)
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan product id: %w", err)
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating rows: %w", err)
	}
	if locked != len(productIDs) {
		return fmt.Errorf("locked %d of %d products", locked, len(productIDs))
	}

	return nil
}

// AdjustStock atomically shifts the aggregate stock counter
func (r *productRepository) AdjustStock(ctx context.Context, tx pgx.Tx, productID uuid.UUID, delta int) error {
	tag, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`,
		productID, delta)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product not found: %s", productID)
	}

	r.logger.DebugContext(ctx, "stock adjusted",
		slog.String("product_id", productID.String()),
		slog.Int("delta", delta))

	return nil
}

// Exists checks if a product exists
func (r *productRepository) Exists(ctx context.Context, productID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}

// partnerRepository implements ports.PartnerRepository
type partnerRepository struct {
	db *Database
}

// NewPartnerRepository creates a new partner repository
func NewPartnerRepository(db *Database) ports.PartnerRepository {
	return &partnerRepository{db: db}
}

func (r *partnerRepository) ClientExists(ctx context.Context, clientID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM clients WHERE id = $1)`, clientID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check client existence: %w", err)
	}
	return exists, nil
}

func (r *partnerRepository) CarrierExists(ctx context.Context, carrierID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM carriers WHERE id = $1)`, carrierID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check carrier existence: %w", err)
	}
	return exists, nil
}
