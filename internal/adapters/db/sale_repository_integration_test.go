//go:build integration
// +build integration

package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/ventaro/retail-be/internal/adapters/db"
	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/ports"
	"github.com/ventaro/retail-be/test/helpers"
)

type SaleRepositorySuite struct {
	suite.Suite
	testDB *helpers.TestDB
	repo   ports.SaleRepository
	ctx    context.Context

	clientID  uuid.UUID
	productID uuid.UUID
	lotID     uuid.UUID
}

func (s *SaleRepositorySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.repo = db.NewSaleRepository(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *SaleRepositorySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
	s.clientID = helpers.SeedClient(s.T(), s.testDB.PgxPool, "Mercado Central")
	s.productID = helpers.SeedProduct(s.T(), s.testDB.PgxPool, "Yerba Mate 1kg", 10)
	s.lotID = helpers.SeedLot(s.T(), s.testDB.PgxPool, s.productID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 10, decimal.NewFromInt(10))
}

func (s *SaleRepositorySuite) inTx(fn func(tx pgx.Tx) error) {
	s.Require().NoError(s.testDB.Database.WithinTransaction(s.ctx, fn))
}

func (s *SaleRepositorySuite) newSale() *domain.Sale {
	sale := &domain.Sale{
		Code:          "S-" + uuid.New().String()[:8],
		ClientID:      s.clientID,
		PaymentMethod: domain.MethodCash,
	}
	sale.PrepareForStorage()
	sale.Lines = []domain.SaleLine{{
		ID:        uuid.New(),
		SaleID:    sale.ID,
		ProductID: s.productID,
		LotID:     s.lotID,
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("25.00"),
		Subtotal:  decimal.RequireFromString("50.00"),
		UnitCost:  decimal.NewFromInt(10),
	}}
	sale.RecomputeTotal()
	return sale
}

func (s *SaleRepositorySuite) insertSale(sale *domain.Sale) {
	s.inTx(func(tx pgx.Tx) error {
		if err := s.repo.Insert(s.ctx, tx, sale); err != nil {
			return err
		}
		return s.repo.InsertLines(s.ctx, tx, sale.Lines)
	})
}

func (s *SaleRepositorySuite) TestInsert_FindByID() {
	sale := s.newSale()
	s.insertSale(sale)

	found, err := s.repo.FindByID(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(sale.Code, found.Code)
	s.Equal(sale.ClientID, found.ClientID)
	s.Equal(domain.PaymentPending, found.PaymentStatus)
	s.True(sale.Total.Equal(found.Total))

	s.Require().Len(found.Lines, 1)
	s.Equal(s.lotID, found.Lines[0].LotID)
	s.Equal(2, found.Lines[0].Quantity)
	s.True(decimal.RequireFromString("50.00").Equal(found.Lines[0].Subtotal))
}

func (s *SaleRepositorySuite) TestFindByID_Missing() {
	found, err := s.repo.FindByID(s.ctx, uuid.New())
	s.NoError(err)
	s.Nil(found)
}

func (s *SaleRepositorySuite) TestFindForUpdate_LoadsLines() {
	sale := s.newSale()
	s.insertSale(sale)

	s.inTx(func(tx pgx.Tx) error {
		found, err := s.repo.FindForUpdate(s.ctx, tx, sale.ID)
		s.Require().NoError(err)
		s.Require().NotNil(found)
		s.Require().Len(found.Lines, 1)
		s.Equal(s.lotID, found.Lines[0].LotID)
		return nil
	})
}

func (s *SaleRepositorySuite) TestFindForUpdate_Missing() {
	s.inTx(func(tx pgx.Tx) error {
		found, err := s.repo.FindForUpdate(s.ctx, tx, uuid.New())
		s.NoError(err)
		s.Nil(found)
		return nil
	})
}

func (s *SaleRepositorySuite) TestUpdateStatuses() {
	sale := s.newSale()
	s.insertSale(sale)

	sale.PaymentStatus = domain.PaymentPaid
	sale.ShippingStatus = domain.ShippingReceived
	sale.OverallStatus = domain.OverallFinalized
	sale.UpdatedAt = time.Now()
	s.inTx(func(tx pgx.Tx) error {
		return s.repo.UpdateStatuses(s.ctx, tx, sale)
	})

	found, err := s.repo.FindByID(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentPaid, found.PaymentStatus)
	s.Equal(domain.ShippingReceived, found.ShippingStatus)
	s.Equal(domain.OverallFinalized, found.OverallStatus)
}

func (s *SaleRepositorySuite) TestUpdateHeader() {
	sale := s.newSale()
	s.insertSale(sale)

	sale.Total = decimal.RequireFromString("75.00")
	sale.ShippingCost = decimal.RequireFromString("3.00")
	sale.UpdatedAt = time.Now()
	s.inTx(func(tx pgx.Tx) error {
		return s.repo.UpdateHeader(s.ctx, tx, sale)
	})

	found, err := s.repo.FindByID(s.ctx, sale.ID)
	s.Require().NoError(err)
	s.True(decimal.RequireFromString("75.00").Equal(found.Total))
	s.True(decimal.RequireFromString("3.00").Equal(found.ShippingCost))
}

func (s *SaleRepositorySuite) TestDelete_RemovesSaleLinesAndHistory() {
	sale := s.newSale()
	s.insertSale(sale)
	s.inTx(func(tx pgx.Tx) error {
		return s.repo.InsertHistory(s.ctx, tx, []domain.HistoryEntry{{
			ID:         uuid.New(),
			SaleID:     &sale.ID,
			ProductID:  s.productID,
			Kind:       domain.HistorySale,
			Quantity:   2,
			UnitPrice:  decimal.RequireFromString("25.00"),
			RecordedAt: time.Now(),
		}})
	})

	s.inTx(func(tx pgx.Tx) error {
		if err := s.repo.DeleteHistory(s.ctx, tx, sale.ID); err != nil {
			return err
		}
		if err := s.repo.DeleteLines(s.ctx, tx, sale.ID); err != nil {
			return err
		}
		return s.repo.Delete(s.ctx, tx, sale.ID)
	})

	found, err := s.repo.FindByID(s.ctx, sale.ID)
	s.NoError(err)
	s.Nil(found)

	var count int
	err = s.testDB.PgxPool.QueryRow(s.ctx,
		`SELECT COUNT(*) FROM transaction_history WHERE sale_id = $1`, sale.ID).Scan(&count)
	s.Require().NoError(err)
	s.Equal(0, count)
}

func (s *SaleRepositorySuite) TestList_FiltersAndPaginates() {
	otherClient := helpers.SeedClient(s.T(), s.testDB.PgxPool, "Almacen Don Julio")

	for i := 0; i < 3; i++ {
		sale := s.newSale()
		s.insertSale(sale)
	}
	paidSale := s.newSale()
	paidSale.PaymentStatus = domain.PaymentPaid
	paidSale.ClientID = otherClient
	s.insertSale(paidSale)

	s.Run("by_payment_status", func() {
		sales, total, err := s.repo.List(s.ctx, ports.SaleListParams{
			PaymentStatus: "paid", Page: 1, PageSize: 20,
		})
		s.Require().NoError(err)
		s.Equal(int64(1), total)
		s.Require().Len(sales, 1)
		s.Equal(paidSale.ID, sales[0].ID)
	})

	s.Run("by_client", func() {
		_, total, err := s.repo.List(s.ctx, ports.SaleListParams{
			ClientID: &s.clientID, Page: 1, PageSize: 20,
		})
		s.Require().NoError(err)
		s.Equal(int64(3), total)
	})

	s.Run("pagination", func() {
		sales, total, err := s.repo.List(s.ctx, ports.SaleListParams{
			Page: 2, PageSize: 3,
		})
		s.Require().NoError(err)
		s.Equal(int64(4), total)
		s.Len(sales, 1)
	})

	s.Run("sort_by_code", func() {
		sales, _, err := s.repo.List(s.ctx, ports.SaleListParams{
			SortBy: "code", SortOrder: "asc", Page: 1, PageSize: 20,
		})
		s.Require().NoError(err)
		s.Require().Len(sales, 4)
		for i := 1; i < len(sales); i++ {
			s.LessOrEqual(sales[i-1].Code, sales[i].Code)
		}
	})
}

func TestSaleRepositorySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(SaleRepositorySuite))
}
