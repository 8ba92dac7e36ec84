// internal/core/services/sales_service_test.go
package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/ports"
	"github.com/ventaro/retail-be/internal/core/services"
	"github.com/ventaro/retail-be/test/helpers"
	"github.com/ventaro/retail-be/test/mocks"
)

// salesFixture wires a SalesService against mocks for every port.
type salesFixture struct {
	txm      *mocks.MockTxManager
	ledger   *mocks.MockLotLedger
	sales    *mocks.MockSaleRepository
	products *mocks.MockProductRepository
	partners *mocks.MockPartnerRepository
	rules    *mocks.MockShippingRuleRepository
	service  *services.SalesService
}

func newSalesFixture(t *testing.T) *salesFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &salesFixture{
		txm:      mocks.NewMockTxManager(ctrl),
		ledger:   mocks.NewMockLotLedger(ctrl),
		sales:    mocks.NewMockSaleRepository(ctrl),
		products: mocks.NewMockProductRepository(ctrl),
		partners: mocks.NewMockPartnerRepository(ctrl),
		rules:    mocks.NewMockShippingRuleRepository(ctrl),
	}
	calc := services.NewShippingCalculator(f.rules, helpers.TestLogger())
	f.service = services.NewSalesService(
		f.txm, f.ledger, f.sales, f.products, f.partners, calc, helpers.TestLogger())
	return f
}

// expectTx makes the transaction manager run the callback directly, so the
// test observes the same call sequence the engine issues inside a real
// transaction.
func (f *salesFixture) expectTx() {
	f.txm.EXPECT().
		WithinTransaction(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(pgx.Tx) error) error {
			return fn(nil)
		})
}

func (f *salesFixture) expectValidRequest(clientID uuid.UUID, productIDs ...uuid.UUID) {
	f.partners.EXPECT().ClientExists(gomock.Any(), clientID).Return(true, nil)
	for _, id := range productIDs {
		f.products.EXPECT().Exists(gomock.Any(), id).Return(true, nil)
	}
}

func existingSale(clientID, productID, lotID uuid.UUID, qty int, paid bool) *domain.Sale {
	sale := &domain.Sale{
		ID:             uuid.New(),
		Code:           "S-EXIST01",
		ClientID:       clientID,
		PaymentMethod:  domain.MethodCash,
		PaymentStatus:  domain.PaymentPending,
		ShippingStatus: domain.ShippingPending,
		OverallStatus:  domain.OverallActive,
	}
	if paid {
		sale.PaymentStatus = domain.PaymentPaid
	}
	sale.Lines = []domain.SaleLine{{
		ID:        uuid.New(),
		SaleID:    sale.ID,
		ProductID: productID,
		LotID:     lotID,
		Quantity:  qty,
		UnitPrice: decimal.NewFromInt(25),
		Subtotal:  decimal.NewFromInt(int64(qty) * 25),
	}}
	sale.RecomputeTotal()
	return sale
}

func TestSalesService_CreateSale(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	productID := uuid.New()

	t.Run("splits_line_across_lots_with_exact_subtotals", func(t *testing.T) {
		f := newSalesFixture(t)
		lotA, lotB := uuid.New(), uuid.New()

		req := helpers.CreateTestSaleRequest(clientID, productID, func(r *ports.SaleRequest) {
			r.Lines[0].Quantity = 5
			r.Lines[0].UnitPrice = decimal.RequireFromString("10.00")
			r.Lines[0].DiscountPct = decimal.NewFromInt(10)
		})

		f.expectValidRequest(clientID, productID)
		f.expectTx()
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), []uuid.UUID{productID}).Return(nil)
		f.ledger.EXPECT().
			Consume(gomock.Any(), gomock.Any(), productID, 5).
			Return([]domain.LotConsumption{
				{LotID: lotA, Quantity: 3, UnitCost: decimal.NewFromInt(4)},
				{LotID: lotB, Quantity: 2, UnitCost: decimal.NewFromInt(5)},
			}, nil)

		f.sales.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.sales.EXPECT().
			InsertLines(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ pgx.Tx, lines []domain.SaleLine) error {
				require.Len(t, lines, 2)
				assert.Equal(t, lotA, lines[0].LotID)
				assert.Equal(t, 3, lines[0].Quantity)
				assert.True(t, decimal.RequireFromString("27.00").Equal(lines[0].Subtotal))
				assert.Equal(t, lotB, lines[1].LotID)
				assert.Equal(t, 2, lines[1].Quantity)
				assert.True(t, decimal.RequireFromString("18.00").Equal(lines[1].Subtotal))
				return nil
			})
		f.sales.EXPECT().
			InsertHistory(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ pgx.Tx, entries []domain.HistoryEntry) error {
				require.Len(t, entries, 1)
				assert.Equal(t, domain.HistorySale, entries[0].Kind)
				assert.Equal(t, 5, entries[0].Quantity)
				return nil
			})

		sale, err := f.service.CreateSale(ctx, req)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("45.00").Equal(sale.Total),
			"expected 45.00, got %s", sale.Total)
		assert.Equal(t, domain.PaymentPending, sale.PaymentStatus)
		assert.Equal(t, domain.OverallActive, sale.OverallStatus)
		assert.NotEmpty(t, sale.Code)
	})

	t.Run("split_subtotals_absorb_rounding_remainder", func(t *testing.T) {
		f := newSalesFixture(t)
		lots := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}

		req := helpers.CreateTestSaleRequest(clientID, productID, func(r *ports.SaleRequest) {
			r.Lines[0].Quantity = 3
			r.Lines[0].UnitPrice = decimal.RequireFromString("0.335")
		})

		f.expectValidRequest(clientID, productID)
		f.expectTx()
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.ledger.EXPECT().
			Consume(gomock.Any(), gomock.Any(), productID, 3).
			Return([]domain.LotConsumption{
				{LotID: lots[0], Quantity: 1},
				{LotID: lots[1], Quantity: 1},
				{LotID: lots[2], Quantity: 1},
			}, nil)
		f.sales.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.sales.EXPECT().
			InsertLines(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ pgx.Tx, lines []domain.SaleLine) error {
				require.Len(t, lines, 3)
				sum := decimal.Zero
				for _, l := range lines {
					sum = sum.Add(l.Subtotal)
				}
				// 3 x 0.335 rounds to 1.01; the last split absorbs the cent
				assert.True(t, decimal.RequireFromString("1.01").Equal(sum),
					"expected 1.01, got %s", sum)
				assert.True(t, decimal.RequireFromString("0.33").Equal(lines[2].Subtotal))
				return nil
			})
		f.sales.EXPECT().InsertHistory(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		sale, err := f.service.CreateSale(ctx, req)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("1.01").Equal(sale.Total))
	})

	t.Run("paid_sale_decrements_stock_in_same_transaction", func(t *testing.T) {
		f := newSalesFixture(t)
		lotA := uuid.New()
		paid := domain.PaymentPaid

		req := helpers.CreateTestSaleRequest(clientID, productID, func(r *ports.SaleRequest) {
			r.PaymentStatus = &paid
		})

		f.expectValidRequest(clientID, productID)
		f.expectTx()
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.ledger.EXPECT().
			Consume(gomock.Any(), gomock.Any(), productID, 2).
			Return([]domain.LotConsumption{{LotID: lotA, Quantity: 2}}, nil)
		f.sales.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.sales.EXPECT().InsertLines(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.sales.EXPECT().InsertHistory(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.products.EXPECT().AdjustStock(gomock.Any(), gomock.Any(), productID, -2).Return(nil)

		sale, err := f.service.CreateSale(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, sale.PaymentStatus)
	})

	t.Run("quotes_shipping_from_carrier_rule", func(t *testing.T) {
		f := newSalesFixture(t)
		carrierID := uuid.New()
		lotA := uuid.New()

		req := helpers.CreateTestSaleRequest(clientID, productID, func(r *ports.SaleRequest) {
			r.CarrierID = &carrierID
		})

		f.expectValidRequest(clientID, productID)
		f.partners.EXPECT().CarrierExists(gomock.Any(), carrierID).Return(true, nil)
		f.rules.EXPECT().
			Find(gomock.Any(), carrierID, domain.MethodCash).
			Return(&domain.ShippingRule{
				Percentage: decimal.RequireFromString("0.10"),
			}, nil)
		f.expectTx()
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.ledger.EXPECT().
			Consume(gomock.Any(), gomock.Any(), productID, 2).
			Return([]domain.LotConsumption{{LotID: lotA, Quantity: 2}}, nil)
		f.sales.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.sales.EXPECT().InsertLines(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.sales.EXPECT().InsertHistory(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		sale, err := f.service.CreateSale(ctx, req)
		require.NoError(t, err)
		// 2 x 25.00 = 50.00 at 10%
		assert.True(t, decimal.RequireFromString("5.00").Equal(sale.ShippingCost))
		assert.True(t, sale.ShippingCost.Equal(sale.CarrierCommission))
	})

	t.Run("insufficient_stock_aborts_transaction", func(t *testing.T) {
		f := newSalesFixture(t)

		req := helpers.CreateTestSaleRequest(clientID, productID, func(r *ports.SaleRequest) {
			r.Lines[0].Quantity = 50
		})

		f.expectValidRequest(clientID, productID)
		f.expectTx()
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.ledger.EXPECT().
			Consume(gomock.Any(), gomock.Any(), productID, 50).
			Return(nil, &domain.InsufficientStockError{
				ProductID: productID, Requested: 50, Available: 10,
			})

		_, err := f.service.CreateSale(ctx, req)
		require.Error(t, err)
		assert.True(t, domain.IsInsufficientStock(err))
	})

	t.Run("rejects_unknown_client_before_any_transaction", func(t *testing.T) {
		f := newSalesFixture(t)

		req := helpers.CreateTestSaleRequest(clientID, productID)
		f.partners.EXPECT().ClientExists(gomock.Any(), clientID).Return(false, nil)

		_, err := f.service.CreateSale(ctx, req)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("rejects_unknown_product", func(t *testing.T) {
		f := newSalesFixture(t)

		req := helpers.CreateTestSaleRequest(clientID, productID)
		f.partners.EXPECT().ClientExists(gomock.Any(), clientID).Return(true, nil)
		f.products.EXPECT().Exists(gomock.Any(), productID).Return(false, nil)

		_, err := f.service.CreateSale(ctx, req)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("rejects_structurally_invalid_request", func(t *testing.T) {
		f := newSalesFixture(t)

		req := helpers.CreateTestSaleRequest(clientID, productID, func(r *ports.SaleRequest) {
			r.Lines[0].Quantity = 0
		})

		_, err := f.service.CreateSale(ctx, req)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestSalesService_UpdateSale(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	productID := uuid.New()

	t.Run("releases_recorded_lots_before_reallocating", func(t *testing.T) {
		f := newSalesFixture(t)
		oldLot, newLot := uuid.New(), uuid.New()
		existing := existingSale(clientID, productID, oldLot, 2, false)

		req := helpers.CreateTestSaleRequest(clientID, productID, func(r *ports.SaleRequest) {
			r.Lines[0].Quantity = 4
			r.Lines[0].UnitPrice = decimal.RequireFromString("30.00")
		})

		f.expectValidRequest(clientID, productID)
		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), []uuid.UUID{productID}).Return(nil)

		gomock.InOrder(
			f.ledger.EXPECT().Release(gomock.Any(), gomock.Any(), oldLot, 2).Return(nil),
			f.sales.EXPECT().DeleteLines(gomock.Any(), gomock.Any(), existing.ID).Return(nil),
			f.sales.EXPECT().DeleteHistory(gomock.Any(), gomock.Any(), existing.ID).Return(nil),
			f.ledger.EXPECT().
				Consume(gomock.Any(), gomock.Any(), productID, 4).
				Return([]domain.LotConsumption{{LotID: newLot, Quantity: 4}}, nil),
			f.sales.EXPECT().InsertLines(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
			f.sales.EXPECT().InsertHistory(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
			f.sales.EXPECT().UpdateHeader(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil),
		)

		updated, err := f.service.UpdateSale(ctx, existing.ID, req)
		require.NoError(t, err)
		assert.Equal(t, existing.ID, updated.ID)
		// Empty request code keeps the stored one
		assert.Equal(t, "S-EXIST01", updated.Code)
		assert.True(t, decimal.RequireFromString("120.00").Equal(updated.Total))
	})

	t.Run("paid_sale_restores_then_reapplies_stock", func(t *testing.T) {
		f := newSalesFixture(t)
		oldLot, newLot := uuid.New(), uuid.New()
		existing := existingSale(clientID, productID, oldLot, 2, true)

		req := helpers.CreateTestSaleRequest(clientID, productID, func(r *ports.SaleRequest) {
			r.Lines[0].Quantity = 3
		})

		f.expectValidRequest(clientID, productID)
		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.ledger.EXPECT().Release(gomock.Any(), gomock.Any(), oldLot, 2).Return(nil)
		// Old consumption restored, new one applied, both in the same tx
		f.products.EXPECT().AdjustStock(gomock.Any(), gomock.Any(), productID, 2).Return(nil)
		f.sales.EXPECT().DeleteLines(gomock.Any(), gomock.Any(), existing.ID).Return(nil)
		f.sales.EXPECT().DeleteHistory(gomock.Any(), gomock.Any(), existing.ID).Return(nil)
		f.ledger.EXPECT().
			Consume(gomock.Any(), gomock.Any(), productID, 3).
			Return([]domain.LotConsumption{{LotID: newLot, Quantity: 3}}, nil)
		f.sales.EXPECT().InsertLines(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.sales.EXPECT().InsertHistory(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.products.EXPECT().AdjustStock(gomock.Any(), gomock.Any(), productID, -3).Return(nil)
		f.sales.EXPECT().UpdateHeader(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		updated, err := f.service.UpdateSale(ctx, existing.ID, req)
		require.NoError(t, err)
		// Absent payment status keeps the stored one
		assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
	})

	t.Run("missing_sale_is_not_found", func(t *testing.T) {
		f := newSalesFixture(t)
		saleID := uuid.New()

		req := helpers.CreateTestSaleRequest(clientID, productID)
		f.expectValidRequest(clientID, productID)
		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), saleID).Return(nil, nil)

		_, err := f.service.UpdateSale(ctx, saleID, req)
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})

	t.Run("cancelled_sale_rejects_update", func(t *testing.T) {
		f := newSalesFixture(t)
		existing := existingSale(clientID, productID, uuid.New(), 2, false)
		existing.OverallStatus = domain.OverallCancelled

		req := helpers.CreateTestSaleRequest(clientID, productID)
		f.expectValidRequest(clientID, productID)
		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)

		_, err := f.service.UpdateSale(ctx, existing.ID, req)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestSalesService_DeleteSale(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	productID := uuid.New()

	t.Run("unpaid_sale_releases_lots_without_touching_stock", func(t *testing.T) {
		f := newSalesFixture(t)
		lotA := uuid.New()
		existing := existingSale(clientID, productID, lotA, 2, false)

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), []uuid.UUID{productID}).Return(nil)
		f.ledger.EXPECT().Release(gomock.Any(), gomock.Any(), lotA, 2).Return(nil)
		f.sales.EXPECT().DeleteHistory(gomock.Any(), gomock.Any(), existing.ID).Return(nil)
		f.sales.EXPECT().DeleteLines(gomock.Any(), gomock.Any(), existing.ID).Return(nil)
		f.sales.EXPECT().Delete(gomock.Any(), gomock.Any(), existing.ID).Return(nil)

		require.NoError(t, f.service.DeleteSale(ctx, existing.ID))
	})

	t.Run("paid_sale_restores_stock_counters", func(t *testing.T) {
		f := newSalesFixture(t)
		lotA := uuid.New()
		existing := existingSale(clientID, productID, lotA, 3, true)

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.ledger.EXPECT().Release(gomock.Any(), gomock.Any(), lotA, 3).Return(nil)
		f.products.EXPECT().AdjustStock(gomock.Any(), gomock.Any(), productID, 3).Return(nil)
		f.sales.EXPECT().DeleteHistory(gomock.Any(), gomock.Any(), existing.ID).Return(nil)
		f.sales.EXPECT().DeleteLines(gomock.Any(), gomock.Any(), existing.ID).Return(nil)
		f.sales.EXPECT().Delete(gomock.Any(), gomock.Any(), existing.ID).Return(nil)

		require.NoError(t, f.service.DeleteSale(ctx, existing.ID))
	})

	t.Run("cancelled_sale_deletes_rows_without_reversal", func(t *testing.T) {
		f := newSalesFixture(t)
		existing := existingSale(clientID, productID, uuid.New(), 2, true)
		existing.OverallStatus = domain.OverallCancelled

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)
		// Cancellation already gave the stock back; only rows go away
		f.sales.EXPECT().DeleteHistory(gomock.Any(), gomock.Any(), existing.ID).Return(nil)
		f.sales.EXPECT().DeleteLines(gomock.Any(), gomock.Any(), existing.ID).Return(nil)
		f.sales.EXPECT().Delete(gomock.Any(), gomock.Any(), existing.ID).Return(nil)

		require.NoError(t, f.service.DeleteSale(ctx, existing.ID))
	})

	t.Run("missing_sale_is_not_found", func(t *testing.T) {
		f := newSalesFixture(t)
		saleID := uuid.New()

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), saleID).Return(nil, nil)

		err := f.service.DeleteSale(ctx, saleID)
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestSalesService_CancelSale(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	productID := uuid.New()

	t.Run("releases_lots_and_records_cancellation_history", func(t *testing.T) {
		f := newSalesFixture(t)
		lotA, lotB := uuid.New(), uuid.New()
		existing := existingSale(clientID, productID, lotA, 2, true)
		existing.Lines = append(existing.Lines, domain.SaleLine{
			ID:        uuid.New(),
			SaleID:    existing.ID,
			ProductID: productID,
			LotID:     lotB,
			Quantity:  1,
			UnitPrice: decimal.NewFromInt(25),
			Subtotal:  decimal.NewFromInt(25),
		})

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.ledger.EXPECT().Release(gomock.Any(), gomock.Any(), lotA, 2).Return(nil)
		f.ledger.EXPECT().Release(gomock.Any(), gomock.Any(), lotB, 1).Return(nil)
		f.products.EXPECT().AdjustStock(gomock.Any(), gomock.Any(), productID, 3).Return(nil)
		f.sales.EXPECT().
			InsertHistory(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ pgx.Tx, entries []domain.HistoryEntry) error {
				// One aggregated entry per product across both lot lines
				require.Len(t, entries, 1)
				assert.Equal(t, domain.HistoryCancellation, entries[0].Kind)
				assert.Equal(t, 3, entries[0].Quantity)
				assert.Equal(t, productID, entries[0].ProductID)
				return nil
			})
		f.sales.EXPECT().
			UpdateStatuses(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ pgx.Tx, sale *domain.Sale) error {
				assert.Equal(t, domain.OverallCancelled, sale.OverallStatus)
				return nil
			})

		cancelled, err := f.service.CancelSale(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.OverallCancelled, cancelled.OverallStatus)
	})

	t.Run("already_cancelled_is_rejected", func(t *testing.T) {
		f := newSalesFixture(t)
		existing := existingSale(clientID, productID, uuid.New(), 2, false)
		existing.OverallStatus = domain.OverallCancelled

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)

		_, err := f.service.CancelSale(ctx, existing.ID)
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("missing_sale_is_not_found", func(t *testing.T) {
		f := newSalesFixture(t)
		saleID := uuid.New()

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), saleID).Return(nil, nil)

		_, err := f.service.CancelSale(ctx, saleID)
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestSalesService_QuickUpdateStatus(t *testing.T) {
	ctx := context.Background()
	clientID := uuid.New()
	productID := uuid.New()
	paid := domain.PaymentPaid
	pending := domain.PaymentPending
	shipped := domain.ShippingShipped
	received := domain.ShippingReceived

	t.Run("transition_to_paid_decrements_from_recorded_lines", func(t *testing.T) {
		f := newSalesFixture(t)
		existing := existingSale(clientID, productID, uuid.New(), 2, false)

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), []uuid.UUID{productID}).Return(nil)
		f.products.EXPECT().AdjustStock(gomock.Any(), gomock.Any(), productID, -2).Return(nil)
		f.sales.EXPECT().UpdateStatuses(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		updated, err := f.service.QuickUpdateStatus(ctx, existing.ID, domain.StatusPatch{Payment: &paid})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPaid, updated.PaymentStatus)
		assert.Equal(t, domain.OverallActive, updated.OverallStatus)
	})

	t.Run("leaving_paid_restores_stock", func(t *testing.T) {
		f := newSalesFixture(t)
		existing := existingSale(clientID, productID, uuid.New(), 2, true)

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)
		f.products.EXPECT().LockForUpdate(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
		f.products.EXPECT().AdjustStock(gomock.Any(), gomock.Any(), productID, 2).Return(nil)
		f.sales.EXPECT().UpdateStatuses(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		updated, err := f.service.QuickUpdateStatus(ctx, existing.ID, domain.StatusPatch{Payment: &pending})
		require.NoError(t, err)
		assert.Equal(t, domain.PaymentPending, updated.PaymentStatus)
	})

	t.Run("shipping_only_patch_skips_stock_work", func(t *testing.T) {
		f := newSalesFixture(t)
		existing := existingSale(clientID, productID, uuid.New(), 2, false)

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)
		f.sales.EXPECT().UpdateStatuses(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		updated, err := f.service.QuickUpdateStatus(ctx, existing.ID, domain.StatusPatch{Shipping: &shipped})
		require.NoError(t, err)
		assert.Equal(t, domain.ShippingShipped, updated.ShippingStatus)
		assert.Equal(t, domain.PaymentPending, updated.PaymentStatus)
	})

	t.Run("finalizes_when_both_axes_reach_terminal_states", func(t *testing.T) {
		f := newSalesFixture(t)
		existing := existingSale(clientID, productID, uuid.New(), 2, true)
		existing.ShippingStatus = domain.ShippingShipped

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)
		f.sales.EXPECT().UpdateStatuses(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		updated, err := f.service.QuickUpdateStatus(ctx, existing.ID, domain.StatusPatch{Shipping: &received})
		require.NoError(t, err)
		assert.Equal(t, domain.OverallFinalized, updated.OverallStatus)
	})

	t.Run("empty_patch_is_rejected_before_any_transaction", func(t *testing.T) {
		f := newSalesFixture(t)

		_, err := f.service.QuickUpdateStatus(ctx, uuid.New(), domain.StatusPatch{})
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("cancelled_sale_is_rejected", func(t *testing.T) {
		f := newSalesFixture(t)
		existing := existingSale(clientID, productID, uuid.New(), 2, false)
		existing.OverallStatus = domain.OverallCancelled

		f.expectTx()
		f.sales.EXPECT().FindForUpdate(gomock.Any(), gomock.Any(), existing.ID).Return(existing, nil)

		_, err := f.service.QuickUpdateStatus(ctx, existing.ID, domain.StatusPatch{Payment: &paid})
		require.Error(t, err)
		assert.True(t, domain.IsValidation(err))
	})
}

func TestSalesService_GetSale(t *testing.T) {
	ctx := context.Background()

	t.Run("returns_sale_with_lines", func(t *testing.T) {
		f := newSalesFixture(t)
		existing := existingSale(uuid.New(), uuid.New(), uuid.New(), 2, false)

		f.sales.EXPECT().FindByID(gomock.Any(), existing.ID).Return(existing, nil)

		sale, err := f.service.GetSale(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, existing.ID, sale.ID)
		assert.Len(t, sale.Lines, 1)
	})

	t.Run("missing_sale_is_not_found", func(t *testing.T) {
		f := newSalesFixture(t)
		saleID := uuid.New()

		f.sales.EXPECT().FindByID(gomock.Any(), saleID).Return(nil, nil)

		_, err := f.service.GetSale(ctx, saleID)
		require.Error(t, err)
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestSalesService_ListSales(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults_page_and_page_size", func(t *testing.T) {
		f := newSalesFixture(t)

		f.sales.EXPECT().
			List(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, params ports.SaleListParams) ([]*domain.Sale, int64, error) {
				assert.Equal(t, 1, params.Page)
				assert.Equal(t, 20, params.PageSize)
				return nil, 0, nil
			})

		result, err := f.service.ListSales(ctx, ports.SaleListParams{Page: 0, PageSize: 500})
		require.NoError(t, err)
		assert.Equal(t, 0, result.TotalPages)
	})

	t.Run("rounds_total_pages_up", func(t *testing.T) {
		f := newSalesFixture(t)

		sales := []*domain.Sale{
			existingSale(uuid.New(), uuid.New(), uuid.New(), 1, false),
		}
		f.sales.EXPECT().
			List(gomock.Any(), gomock.Any()).
			Return(sales, int64(45), nil)

		result, err := f.service.ListSales(ctx, ports.SaleListParams{Page: 2, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(45), result.TotalCount)
		assert.Equal(t, 3, result.TotalPages)
		assert.Equal(t, 2, result.Page)
	})
}
