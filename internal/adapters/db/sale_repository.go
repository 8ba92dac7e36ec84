// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/ports"
)

// saleRepository implements ports.SaleRepository
type saleRepository struct {
	db     *Database
	logger *slog.Logger
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(db *Database, logger *slog.Logger) ports.SaleRepository {
	return &saleRepository{
		db:     db,
		logger: logger.With(slog.String("repository", "sales")),
	}
}

const saleColumns = `
	id, code, client_id, carrier_id, payment_method,
	total, shipping_cost, carrier_commission,
	payment_status, shipping_status, overall_status,
	created_at, updated_at`

// Insert creates the sale header inside the caller's transaction
func (r *saleRepository) Insert(ctx context.Context, tx pgx.Tx, sale *domain.Sale) error {
	query := `
		INSERT INTO sales (
			id, code, client_id, carrier_id, payment_method,
			total, shipping_cost, carrier_commission,
			payment_status, shipping_status, overall_status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := tx.Exec(ctx, query,
		sale.ID, sale.Code, sale.ClientID, sale.CarrierID, sale.PaymentMethod,
		sale.Total, sale.ShippingCost, sale.CarrierCommission,
		sale.PaymentStatus, sale.ShippingStatus, sale.OverallStatus,
		sale.CreatedAt, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale: %w", err)
	}

	r.logger.DebugContext(ctx, "sale inserted",
		slog.String("sale_id", sale.ID.String()),
		slog.String("code", sale.Code))

	return nil
}

// UpdateHeader rewrites every mutable header column
func (r *saleRepository) UpdateHeader(ctx context.Context, tx pgx.Tx, sale *domain.Sale) error {
	query := `
		UPDATE sales SET
			code = $2, client_id = $3, carrier_id = $4, payment_method = $5,
			total = $6, shipping_cost = $7, carrier_commission = $8,
			payment_status = $9, shipping_status = $10, overall_status = $11,
			updated_at = $12
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query,
		sale.ID, sale.Code, sale.ClientID, sale.CarrierID, sale.PaymentMethod,
		sale.Total, sale.ShippingCost, sale.CarrierCommission,
		sale.PaymentStatus, sale.ShippingStatus, sale.OverallStatus,
		sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sale not found: %s", sale.ID)
	}

	return nil
}

// UpdateStatuses writes only the three status axes
func (r *saleRepository) UpdateStatuses(ctx context.Context, tx pgx.Tx, sale *domain.Sale) error {
	query := `
		UPDATE sales SET
			payment_status = $2, shipping_status = $3, overall_status = $4,
			updated_at = $5
		WHERE id = $1`

	tag, err := tx.Exec(ctx, query,
		sale.ID, sale.PaymentStatus, sale.ShippingStatus, sale.OverallStatus, sale.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update sale statuses: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sale not found: %s", sale.ID)
	}

	return nil
}

// Delete removes the sale header. Lines and history must go first.
func (r *saleRepository) Delete(ctx context.Context, tx pgx.Tx, saleID uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM sales WHERE id = $1`, saleID)
	if err != nil {
		return fmt.Errorf("failed to delete sale: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sale not found: %s", saleID)
	}

	r.logger.DebugContext(ctx, "sale deleted", slog.String("sale_id", saleID.String()))
	return nil
}

// FindForUpdate loads the header with FOR UPDATE plus its lines. Returns nil
// when the sale does not exist.
func (r *saleRepository) FindForUpdate(ctx context.Context, tx pgx.Tx, saleID uuid.UUID) (*domain.Sale, error) {
	query := `SELECT` + saleColumns + ` FROM sales WHERE id = $1 FOR UPDATE`

	sale, err := scanSale(tx.QueryRow(ctx, query, saleID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to lock sale: %w", err)
	}

	lines, err := r.loadLines(ctx, tx, saleID)
	if err != nil {
		return nil, err
	}
	sale.Lines = lines
	return sale, nil
}

// FindByID loads the header plus its lines outside any transaction
func (r *saleRepository) FindByID(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error) {
	query := `SELECT` + saleColumns + ` FROM sales WHERE id = $1`

	sale, err := scanSale(r.db.QueryRow(ctx, query, saleID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find sale: %w", err)
	}

	lines, err := r.loadLines(ctx, nil, saleID)
	if err != nil {
		return nil, err
	}
	sale.Lines = lines
	return sale, nil
}

// List retrieves sale headers with filtering and pagination
func (r *saleRepository) List(ctx context.Context, params ports.SaleListParams) ([]*domain.Sale, int64, error) {
	applyFilters := func(b squirrel.SelectBuilder) squirrel.SelectBuilder {
		if params.ClientID != nil {
			b = b.Where(squirrel.Eq{"client_id": *params.ClientID})
		}
		if params.CarrierID != nil {
			b = b.Where(squirrel.Eq{"carrier_id": *params.CarrierID})
		}
		if params.PaymentStatus != "" {
			b = b.Where(squirrel.Eq{"payment_status": params.PaymentStatus})
		}
		if params.OverallStatus != "" {
			b = b.Where(squirrel.Eq{"overall_status": params.OverallStatus})
		}
		return b
	}

	qb := applyFilters(squirrel.Select(
		"id", "code", "client_id", "carrier_id", "payment_method",
		"total", "shipping_cost", "carrier_commission",
		"payment_status", "shipping_status", "overall_status",
		"created_at", "updated_at",
	).From("sales").
		PlaceholderFormat(squirrel.Dollar))

	countSQL, countArgs, err := applyFilters(
		squirrel.Select("COUNT(*)").From("sales").PlaceholderFormat(squirrel.Dollar),
	).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var totalCount int64
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	orderBy := "created_at DESC"
	if params.SortBy != "" {
		direction := "ASC"
		if params.SortOrder == "desc" {
			direction = "DESC"
		}

		switch params.SortBy {
		case "code":
			orderBy = fmt.Sprintf("code %s", direction)
		case "total":
			orderBy = fmt.Sprintf("total %s", direction)
		case "updated":
			orderBy = fmt.Sprintf("updated_at %s", direction)
		default:
			orderBy = fmt.Sprintf("created_at %s", direction)
		}
	}
	qb = qb.OrderBy(orderBy)

	if params.PageSize > 0 {
		qb = qb.Limit(uint64(params.PageSize))
		if params.Page > 1 {
			qb = qb.Offset(uint64((params.Page - 1) * params.PageSize))
		}
	}

	listSQL, args, err := qb.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.Query(ctx, listSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	var sales []*domain.Sale
	for rows.Next() {
		sale := &domain.Sale{}
		err := rows.Scan(
			&sale.ID, &sale.Code, &sale.ClientID, &sale.CarrierID, &sale.PaymentMethod,
			&sale.Total, &sale.ShippingCost, &sale.CarrierCommission,
			&sale.PaymentStatus, &sale.ShippingStatus, &sale.OverallStatus,
			&sale.CreatedAt, &sale.UpdatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, sale)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return sales, totalCount, nil
}

// InsertLines bulk-inserts sale lines with COPY
func (r *saleRepository) InsertLines(ctx context.Context, tx pgx.Tx, lines []domain.SaleLine) error {
	if len(lines) == 0 {
		return nil
	}

	_, err := tx.CopyFrom(ctx,
		pgx.Identifier{"sale_lines"},
		[]string{"id", "sale_id", "product_id", "lot_id", "quantity", "unit_price", "discount_pct", "subtotal", "unit_cost"},
		pgx.CopyFromSlice(len(lines), func(i int) ([]interface{}, error) {
			line := &lines[i]
			return []interface{}{
				line.ID, line.SaleID, line.ProductID, line.LotID,
				line.Quantity, line.UnitPrice, line.DiscountPct, line.Subtotal, line.UnitCost,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sale lines: %w", err)
	}

	return nil
}

// DeleteLines removes every line of a sale
func (r *saleRepository) DeleteLines(ctx context.Context, tx pgx.Tx, saleID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM sale_lines WHERE sale_id = $1`, saleID); err != nil {
		return fmt.Errorf("failed to delete sale lines: %w", err)
	}
	return nil
}

// InsertHistory appends ledger entries in one batch
func (r *saleRepository) InsertHistory(ctx context.Context, tx pgx.Tx, entries []domain.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO transaction_history (
			id, sale_id, product_id, kind, quantity, unit_price, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	for i := range entries {
		e := &entries[i]
		batch.Queue(query, e.ID, e.SaleID, e.ProductID, e.Kind, e.Quantity, e.UnitPrice, e.RecordedAt)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	for range entries {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("failed to insert history entry: %w", err)
		}
	}

	return nil
}

// DeleteHistory removes every ledger entry of a sale
func (r *saleRepository) DeleteHistory(ctx context.Context, tx pgx.Tx, saleID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM transaction_history WHERE sale_id = $1`, saleID); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

func (r *saleRepository) loadLines(ctx context.Context, tx pgx.Tx, saleID uuid.UUID) ([]domain.SaleLine, error) {
	query := `
		SELECT id, sale_id, product_id, lot_id, quantity,
		       unit_price, discount_pct, subtotal, unit_cost
		FROM sale_lines
		WHERE sale_id = $1
		ORDER BY id ASC`

	var rows pgx.Rows
	var err error
	if tx != nil {
		rows, err = tx.Query(ctx, query, saleID)
	} else {
		rows, err = r.db.Query(ctx, query, saleID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sale lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.SaleLine
	for rows.Next() {
		var line domain.SaleLine
		err := rows.Scan(
			&line.ID, &line.SaleID, &line.ProductID, &line.LotID, &line.Quantity,
			&line.UnitPrice, &line.DiscountPct, &line.Subtotal, &line.UnitCost,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale line: %w", err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return lines, nil
}

func scanSale(row pgx.Row) (*domain.Sale, error) {
	sale := &domain.Sale{}
	err := row.Scan(
		&sale.ID, &sale.Code, &sale.ClientID, &sale.CarrierID, &sale.PaymentMethod,
		&sale.Total, &sale.ShippingCost, &sale.CarrierCommission,
		&sale.PaymentStatus, &sale.ShippingStatus, &sale.OverallStatus,
		&sale.CreatedAt, &sale.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sale, nil
}
