// internal/core/ports/sale_repository.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ventaro/retail-be/internal/core/domain"
)

// SaleRepository is the persistence port for sale headers, lines and the
// transaction history ledger. Methods taking a pgx.Tx participate in the
// engine's transaction; FindByID and List are plain read paths.
type SaleRepository interface {
	Insert(ctx context.Context, tx pgx.Tx, sale *domain.Sale) error
	UpdateHeader(ctx context.Context, tx pgx.Tx, sale *domain.Sale) error
	UpdateStatuses(ctx context.Context, tx pgx.Tx, sale *domain.Sale) error
	Delete(ctx context.Context, tx pgx.Tx, saleID uuid.UUID) error

	// FindForUpdate loads header plus lines and locks the header row.
	// Returns nil when the sale does not exist.
	FindForUpdate(ctx context.Context, tx pgx.Tx, saleID uuid.UUID) (*domain.Sale, error)
	FindByID(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error)
	List(ctx context.Context, params SaleListParams) ([]*domain.Sale, int64, error)

	InsertLines(ctx context.Context, tx pgx.Tx, lines []domain.SaleLine) error
	DeleteLines(ctx context.Context, tx pgx.Tx, saleID uuid.UUID) error

	InsertHistory(ctx context.Context, tx pgx.Tx, entries []domain.HistoryEntry) error
	DeleteHistory(ctx context.Context, tx pgx.Tx, saleID uuid.UUID) error
}

// SaleListParams holds filters and pagination for the sale list view.
type SaleListParams struct {
	ClientID      *uuid.UUID
	CarrierID     *uuid.UUID
	PaymentStatus string
	OverallStatus string
	SortBy        string
	SortOrder     string
	Page          int
	PageSize      int
}
