// internal/core/services/sales.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/ports"
)

// SalesService orchestrates sale writes. Every mutation runs as one database
// transaction: validation happens up front, then all reads that inform a
// write decision happen under row locks, then all writes, then commit.
// Inventory reversal always comes from the recorded (lot_id, quantity) pairs
// on sale lines, never from re-running the FIFO scan.
type SalesService struct {
	txm      ports.TxManager
	ledger   ports.LotLedger
	sales    ports.SaleRepository
	products ports.ProductRepository
	partners ports.PartnerRepository
	shipping *ShippingCalculator
	logger   *slog.Logger
}

// NewSalesService creates a new sales service with its dependencies
func NewSalesService(
	txm ports.TxManager,
	ledger ports.LotLedger,
	sales ports.SaleRepository,
	products ports.ProductRepository,
	partners ports.PartnerRepository,
	shipping *ShippingCalculator,
	logger *slog.Logger,
) *SalesService {
	return &SalesService{
		txm:      txm,
		ledger:   ledger,
		sales:    sales,
		products: products,
		partners: partners,
		shipping: shipping,
		logger:   logger.With(slog.String("service", "sales")),
	}
}

// CreateSale validates the request, quotes shipping, then consumes stock FIFO
// and persists the sale in a single transaction. When the sale is created
// already paid, product stock counters are decremented in the same
// transaction.
func (s *SalesService) CreateSale(ctx context.Context, req ports.SaleRequest) (*domain.Sale, error) {
	if err := s.validateRequest(ctx, &req); err != nil {
		return nil, err
	}

	sale := s.buildHeader(&req)
	sale.PrepareForStorage()

	quote, err := s.shipping.Quote(ctx, sale.CarrierID, sale.PaymentMethod, requestTotal(req.Lines))
	if err != nil {
		return nil, err
	}
	sale.ShippingCost = quote.ShippingCost
	sale.CarrierCommission = quote.Commission

	err = s.txm.WithinTransaction(ctx, func(tx pgx.Tx) error {
		if err := s.products.LockForUpdate(ctx, tx, requestProductIDs(req.Lines)); err != nil {
			return fmt.Errorf("failed to lock products: %w", err)
		}

		alloc, err := s.allocate(ctx, tx, sale, req.Lines)
		if err != nil {
			return err
		}
		sale.Lines = alloc.lines
		sale.RecomputeTotal()
		sale.TryFinalize()

		if err := s.sales.Insert(ctx, tx, sale); err != nil {
			return fmt.Errorf("failed to insert sale: %w", err)
		}
		if err := s.sales.InsertLines(ctx, tx, sale.Lines); err != nil {
			return fmt.Errorf("failed to insert sale lines: %w", err)
		}
		if err := s.sales.InsertHistory(ctx, tx, alloc.history); err != nil {
			return fmt.Errorf("failed to insert history: %w", err)
		}

		if sale.PaymentStatus == domain.PaymentPaid {
			if err := s.applyStockDeltas(ctx, tx, alloc.deltas, -1); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "sale created",
		slog.String("sale_id", sale.ID.String()),
		slog.String("code", sale.Code),
		slog.String("total", sale.Total.String()))
	return sale, nil
}

// UpdateSale replaces a sale wholesale: every recorded lot consumption is
// released, lines and history are rebuilt from the new request, and stock
// counters are restored and re-applied according to the paid status on each
// side. The whole delta lands in one transaction.
func (s *SalesService) UpdateSale(ctx context.Context, saleID uuid.UUID, req ports.SaleRequest) (*domain.Sale, error) {
	if err := s.validateRequest(ctx, &req); err != nil {
		return nil, err
	}

	var updated *domain.Sale
	err := s.txm.WithinTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.sales.FindForUpdate(ctx, tx, saleID)
		if err != nil {
			return fmt.Errorf("failed to load sale: %w", err)
		}
		if existing == nil {
			return &domain.NotFoundError{Entity: "sale", ID: saleID}
		}
		if existing.OverallStatus == domain.OverallCancelled {
			return &domain.ValidationError{Field: "overall_status", Reason: "sale is cancelled"}
		}

		ids := unionProductIDs(lineProductIDs(existing.Lines), requestProductIDs(req.Lines))
		if err := s.products.LockForUpdate(ctx, tx, ids); err != nil {
			return fmt.Errorf("failed to lock products: %w", err)
		}

		wasPaid := existing.PaymentStatus == domain.PaymentPaid
		if err := s.releaseLines(ctx, tx, existing.Lines, wasPaid); err != nil {
			return err
		}
		if err := s.sales.DeleteLines(ctx, tx, saleID); err != nil {
			return fmt.Errorf("failed to delete sale lines: %w", err)
		}
		if err := s.sales.DeleteHistory(ctx, tx, saleID); err != nil {
			return fmt.Errorf("failed to delete history: %w", err)
		}

		sale := s.buildHeader(&req)
		sale.ID = existing.ID
		sale.CreatedAt = existing.CreatedAt
		sale.UpdatedAt = time.Now()
		if req.Code == "" {
			sale.Code = existing.Code
		}
		if req.PaymentStatus == nil {
			sale.PaymentStatus = existing.PaymentStatus
		}
		if req.ShippingStatus == nil {
			sale.ShippingStatus = existing.ShippingStatus
		}
		sale.OverallStatus = domain.OverallActive

		quote, err := s.shipping.Quote(ctx, sale.CarrierID, sale.PaymentMethod, requestTotal(req.Lines))
		if err != nil {
			return err
		}
		sale.ShippingCost = quote.ShippingCost
		sale.CarrierCommission = quote.Commission

		alloc, err := s.allocate(ctx, tx, sale, req.Lines)
		if err != nil {
			return err
		}
		sale.Lines = alloc.lines
		sale.RecomputeTotal()
		sale.TryFinalize()

		if err := s.sales.InsertLines(ctx, tx, sale.Lines); err != nil {
			return fmt.Errorf("failed to insert sale lines: %w", err)
		}
		if err := s.sales.InsertHistory(ctx, tx, alloc.history); err != nil {
			return fmt.Errorf("failed to insert history: %w", err)
		}
		if sale.PaymentStatus == domain.PaymentPaid {
			if err := s.applyStockDeltas(ctx, tx, alloc.deltas, -1); err != nil {
				return err
			}
		}
		if err := s.sales.UpdateHeader(ctx, tx, sale); err != nil {
			return fmt.Errorf("failed to update sale: %w", err)
		}

		updated = sale
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "sale updated",
		slog.String("sale_id", saleID.String()),
		slog.String("total", updated.Total.String()))
	return updated, nil
}

// DeleteSale removes a sale and exactly reverses its inventory effects:
// every consumed lot gets its quantity back, and stock counters are restored
// when the sale had been paid. A cancelled sale was already reversed, so only
// its rows are removed.
func (s *SalesService) DeleteSale(ctx context.Context, saleID uuid.UUID) error {
	err := s.txm.WithinTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.sales.FindForUpdate(ctx, tx, saleID)
		if err != nil {
			return fmt.Errorf("failed to load sale: %w", err)
		}
		if existing == nil {
			return &domain.NotFoundError{Entity: "sale", ID: saleID}
		}

		if existing.OverallStatus != domain.OverallCancelled {
			if err := s.products.LockForUpdate(ctx, tx, lineProductIDs(existing.Lines)); err != nil {
				return fmt.Errorf("failed to lock products: %w", err)
			}
			wasPaid := existing.PaymentStatus == domain.PaymentPaid
			if err := s.releaseLines(ctx, tx, existing.Lines, wasPaid); err != nil {
				return err
			}
		}

		if err := s.sales.DeleteHistory(ctx, tx, saleID); err != nil {
			return fmt.Errorf("failed to delete history: %w", err)
		}
		if err := s.sales.DeleteLines(ctx, tx, saleID); err != nil {
			return fmt.Errorf("failed to delete sale lines: %w", err)
		}
		if err := s.sales.Delete(ctx, tx, saleID); err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "sale deleted", slog.String("sale_id", saleID.String()))
	return nil
}

// CancelSale reverses the sale's inventory effects like a delete but keeps
// the record: lines stay in place, a cancellation entry per product is
// appended to the history ledger, and the overall status flips to cancelled.
func (s *SalesService) CancelSale(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error) {
	var cancelled *domain.Sale
	err := s.txm.WithinTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.sales.FindForUpdate(ctx, tx, saleID)
		if err != nil {
			return fmt.Errorf("failed to load sale: %w", err)
		}
		if existing == nil {
			return &domain.NotFoundError{Entity: "sale", ID: saleID}
		}
		if existing.OverallStatus == domain.OverallCancelled {
			return &domain.ValidationError{Field: "overall_status", Reason: "sale is already cancelled"}
		}

		if err := s.products.LockForUpdate(ctx, tx, lineProductIDs(existing.Lines)); err != nil {
			return fmt.Errorf("failed to lock products: %w", err)
		}
		wasPaid := existing.PaymentStatus == domain.PaymentPaid
		if err := s.releaseLines(ctx, tx, existing.Lines, wasPaid); err != nil {
			return err
		}

		now := time.Now()
		entries := make([]domain.HistoryEntry, 0)
		for _, id := range lineProductIDs(existing.Lines) {
			qty := 0
			var unitPrice decimal.Decimal
			for i := range existing.Lines {
				if existing.Lines[i].ProductID == id {
					qty += existing.Lines[i].Quantity
					unitPrice = existing.Lines[i].UnitPrice
				}
			}
			entries = append(entries, domain.HistoryEntry{
				ID:         uuid.New(),
				SaleID:     &existing.ID,
				ProductID:  id,
				Kind:       domain.HistoryCancellation,
				Quantity:   qty,
				UnitPrice:  unitPrice,
				RecordedAt: now,
			})
		}
		if err := s.sales.InsertHistory(ctx, tx, entries); err != nil {
			return fmt.Errorf("failed to insert history: %w", err)
		}

		existing.OverallStatus = domain.OverallCancelled
		existing.UpdatedAt = now
		if err := s.sales.UpdateStatuses(ctx, tx, existing); err != nil {
			return fmt.Errorf("failed to update sale status: %w", err)
		}

		cancelled = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "sale cancelled", slog.String("sale_id", saleID.String()))
	return cancelled, nil
}

// QuickUpdateStatus patches the payment and shipping axes without touching
// lines. Crossing the paid boundary adjusts stock counters from the recorded
// sale lines: transitioning to paid decrements, leaving paid restores. When
// both axes reach their terminal states the sale finalizes in the same
// transaction.
func (s *SalesService) QuickUpdateStatus(ctx context.Context, saleID uuid.UUID, patch domain.StatusPatch) (*domain.Sale, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var updated *domain.Sale
	err := s.txm.WithinTransaction(ctx, func(tx pgx.Tx) error {
		existing, err := s.sales.FindForUpdate(ctx, tx, saleID)
		if err != nil {
			return fmt.Errorf("failed to load sale: %w", err)
		}
		if existing == nil {
			return &domain.NotFoundError{Entity: "sale", ID: saleID}
		}
		if existing.OverallStatus == domain.OverallCancelled {
			return &domain.ValidationError{Field: "overall_status", Reason: "sale is cancelled"}
		}

		wasPaid := existing.PaymentStatus == domain.PaymentPaid
		patch.Apply(existing)
		nowPaid := existing.PaymentStatus == domain.PaymentPaid

		if wasPaid != nowPaid {
			if err := s.products.LockForUpdate(ctx, tx, lineProductIDs(existing.Lines)); err != nil {
				return fmt.Errorf("failed to lock products: %w", err)
			}
			deltas := make(map[uuid.UUID]int)
			for i := range existing.Lines {
				deltas[existing.Lines[i].ProductID] += existing.Lines[i].Quantity
			}
			sign := 1
			if nowPaid {
				sign = -1
			}
			if err := s.applyStockDeltas(ctx, tx, deltas, sign); err != nil {
				return err
			}
		}

		existing.TryFinalize()
		existing.UpdatedAt = time.Now()
		if err := s.sales.UpdateStatuses(ctx, tx, existing); err != nil {
			return fmt.Errorf("failed to update sale status: %w", err)
		}

		updated = existing
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "sale status updated",
		slog.String("sale_id", saleID.String()),
		slog.String("payment_status", string(updated.PaymentStatus)),
		slog.String("shipping_status", string(updated.ShippingStatus)),
		slog.String("overall_status", string(updated.OverallStatus)))
	return updated, nil
}

// GetSale loads a sale with its lines.
func (s *SalesService) GetSale(ctx context.Context, saleID uuid.UUID) (*domain.Sale, error) {
	sale, err := s.sales.FindByID(ctx, saleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load sale: %w", err)
	}
	if sale == nil {
		return nil, &domain.NotFoundError{Entity: "sale", ID: saleID}
	}
	return sale, nil
}

// ListSales returns one page of the sale list view.
func (s *SalesService) ListSales(ctx context.Context, params ports.SaleListParams) (*ports.SaleListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	sales, total, err := s.sales.List(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	totalPages := int(total) / params.PageSize
	if int(total)%params.PageSize > 0 {
		totalPages++
	}
	return &ports.SaleListResult{
		Sales:      sales,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: totalPages,
	}, nil
}

// validateRequest runs the structural checks plus referential existence
// checks for client, carrier and every referenced product.
func (s *SalesService) validateRequest(ctx context.Context, req *ports.SaleRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	ok, err := s.partners.ClientExists(ctx, req.ClientID)
	if err != nil {
		return fmt.Errorf("failed to check client: %w", err)
	}
	if !ok {
		return &domain.ValidationError{Field: "client_id", Reason: "client does not exist"}
	}

	if req.CarrierID != nil {
		ok, err := s.partners.CarrierExists(ctx, *req.CarrierID)
		if err != nil {
			return fmt.Errorf("failed to check carrier: %w", err)
		}
		if !ok {
			return &domain.ValidationError{Field: "carrier_id", Reason: "carrier does not exist"}
		}
	}

	for _, id := range requestProductIDs(req.Lines) {
		ok, err := s.products.Exists(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to check product: %w", err)
		}
		if !ok {
			return &domain.ValidationError{Field: "lines.product_id", Reason: "product does not exist"}
		}
	}
	return nil
}

func (s *SalesService) buildHeader(req *ports.SaleRequest) *domain.Sale {
	sale := &domain.Sale{
		Code:          req.Code,
		ClientID:      req.ClientID,
		CarrierID:     req.CarrierID,
		PaymentMethod: req.PaymentMethod,
	}
	if sale.Code == "" {
		sale.Code = "S-" + strings.ToUpper(uuid.New().String()[:8])
	}
	if req.PaymentStatus != nil {
		sale.PaymentStatus = *req.PaymentStatus
	}
	if req.ShippingStatus != nil {
		sale.ShippingStatus = *req.ShippingStatus
	}
	return sale
}

// allocation collects everything one FIFO pass produces: the lot-level sale
// lines, the history entries, and the per-product quantity deltas.
type allocation struct {
	lines   []domain.SaleLine
	history []domain.HistoryEntry
	deltas  map[uuid.UUID]int
}

// allocate consumes stock FIFO for every requested line and splits each one
// into per-lot sale lines. Split subtotals are computed per lot; the last
// split absorbs the rounding remainder so the splits sum exactly to the
// requested line's subtotal.
func (s *SalesService) allocate(ctx context.Context, tx pgx.Tx, sale *domain.Sale, reqs []ports.SaleLineRequest) (*allocation, error) {
	out := &allocation{deltas: make(map[uuid.UUID]int)}
	now := time.Now()

	for _, lr := range reqs {
		consumptions, err := s.ledger.Consume(ctx, tx, lr.ProductID, lr.Quantity)
		if err != nil {
			return nil, err
		}

		lineTotal := domain.LineSubtotal(lr.Quantity, lr.UnitPrice, lr.DiscountPct)
		allocated := decimal.Zero
		for i, c := range consumptions {
			var subtotal decimal.Decimal
			if i == len(consumptions)-1 {
				subtotal = lineTotal.Sub(allocated)
			} else {
				subtotal = domain.LineSubtotal(c.Quantity, lr.UnitPrice, lr.DiscountPct)
				allocated = allocated.Add(subtotal)
			}
			out.lines = append(out.lines, domain.SaleLine{
				ID:          uuid.New(),
				SaleID:      sale.ID,
				ProductID:   lr.ProductID,
				LotID:       c.LotID,
				Quantity:    c.Quantity,
				UnitPrice:   lr.UnitPrice,
				DiscountPct: lr.DiscountPct,
				Subtotal:    subtotal,
				UnitCost:    c.UnitCost,
			})
		}

		out.history = append(out.history, domain.HistoryEntry{
			ID:         uuid.New(),
			SaleID:     &sale.ID,
			ProductID:  lr.ProductID,
			Kind:       domain.HistorySale,
			Quantity:   lr.Quantity,
			UnitPrice:  lr.UnitPrice,
			RecordedAt: now,
		})
		out.deltas[lr.ProductID] += lr.Quantity
	}
	return out, nil
}

// releaseLines reverses recorded consumptions lot by lot and, when the sale
// had been paid, restores the product stock counters.
func (s *SalesService) releaseLines(ctx context.Context, tx pgx.Tx, lines []domain.SaleLine, wasPaid bool) error {
	deltas := make(map[uuid.UUID]int)
	for i := range lines {
		line := &lines[i]
		if err := s.ledger.Release(ctx, tx, line.LotID, line.Quantity); err != nil {
			return fmt.Errorf("failed to release lot %s: %w", line.LotID, err)
		}
		deltas[line.ProductID] += line.Quantity
	}
	if wasPaid {
		if err := s.applyStockDeltas(ctx, tx, deltas, 1); err != nil {
			return err
		}
	}
	return nil
}

// applyStockDeltas adjusts product stock counters in ascending id order.
func (s *SalesService) applyStockDeltas(ctx context.Context, tx pgx.Tx, deltas map[uuid.UUID]int, sign int) error {
	ids := make([]uuid.UUID, 0, len(deltas))
	for id := range deltas {
		ids = append(ids, id)
	}
	sortIDs(ids)
	for _, id := range ids {
		if err := s.products.AdjustStock(ctx, tx, id, sign*deltas[id]); err != nil {
			return fmt.Errorf("failed to adjust stock for product %s: %w", id, err)
		}
	}
	return nil
}

func requestTotal(lines []ports.SaleLineRequest) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(domain.LineSubtotal(l.Quantity, l.UnitPrice, l.DiscountPct))
	}
	return total.Round(2)
}

func requestProductIDs(lines []ports.SaleLineRequest) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	return sortedDistinct(ids)
}

func lineProductIDs(lines []domain.SaleLine) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(lines))
	for i := range lines {
		ids = append(ids, lines[i].ProductID)
	}
	return sortedDistinct(ids)
}

func unionProductIDs(a, b []uuid.UUID) []uuid.UUID {
	return sortedDistinct(append(append([]uuid.UUID{}, a...), b...))
}

func sortedDistinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sortIDs(out)
	return out
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
