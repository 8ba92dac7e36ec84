//go:build integration
// +build integration

package db_test

import (
	"bytes"
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

type LotLedgerSuite struct {
	suite.Suite
	testDB *helpers.TestDB
	ledger ports.LotLedger
	ctx    context.Context
}

func (s *LotLedgerSuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.ledger = db.NewLotLedger(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *LotLedgerSuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

// consume runs one Consume call in its own transaction
func (s *LotLedgerSuite) consume(productID uuid.UUID, qty int) ([]domain.LotConsumption, error) {
	var out []domain.LotConsumption
	err := s.testDB.Database.WithinTransaction(s.ctx, func(tx pgx.Tx) error {
		var err error
		out, err = s.ledger.Consume(s.ctx, tx, productID, qty)
		return err
	})
	return out, err
}

func (s *LotLedgerSuite) release(lotID uuid.UUID, qty int) error {
	return s.testDB.Database.WithinTransaction(s.ctx, func(tx pgx.Tx) error {
		return s.ledger.Release(s.ctx, tx, lotID, qty)
	})
}

func (s *LotLedgerSuite) TestConsume_DrainsOldestLotFirst() {
	productID := helpers.SeedProduct(s.T(), s.testDB.PgxPool, "Yerba Mate 1kg", 8)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	oldLot := helpers.SeedLot(s.T(), s.testDB.PgxPool, productID, day, 3, decimal.NewFromInt(10))
	newLot := helpers.SeedLot(s.T(), s.testDB.PgxPool, productID, day.AddDate(0, 0, 7), 5, decimal.NewFromInt(12))

	consumptions, err := s.consume(productID, 5)
	s.Require().NoError(err)
	s.Require().Len(consumptions, 2)

	s.Equal(oldLot, consumptions[0].LotID)
	s.Equal(3, consumptions[0].Quantity)
	s.True(decimal.NewFromInt(10).Equal(consumptions[0].UnitCost))

	s.Equal(newLot, consumptions[1].LotID)
	s.Equal(2, consumptions[1].Quantity)
	s.True(decimal.NewFromInt(12).Equal(consumptions[1].UnitCost))

	s.Equal(0, helpers.LotRemaining(s.T(), s.testDB.PgxPool, oldLot))
	s.Equal(3, helpers.LotRemaining(s.T(), s.testDB.PgxPool, newLot))
}

func (s *LotLedgerSuite) TestConsume_BreaksDateTiesByID() {
	productID := helpers.SeedProduct(s.T(), s.testDB.PgxPool, "Harina 000", 10)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lotA := helpers.SeedLot(s.T(), s.testDB.PgxPool, productID, day, 5, decimal.NewFromInt(7))
	lotB := helpers.SeedLot(s.T(), s.testDB.PgxPool, productID, day, 5, decimal.NewFromInt(7))

	first := lotA
	if bytes.Compare(lotB[:], lotA[:]) < 0 {
		first = lotB
	}

	consumptions, err := s.consume(productID, 1)
	s.Require().NoError(err)
	s.Require().Len(consumptions, 1)
	s.Equal(first, consumptions[0].LotID)
}

func (s *LotLedgerSuite) TestConsume_SkipsDrainedLots() {
	productID := helpers.SeedProduct(s.T(), s.testDB.PgxPool, "Aceite 900ml", 7)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	oldLot := helpers.SeedLot(s.T(), s.testDB.PgxPool, productID, day, 2, decimal.NewFromInt(20))
	newLot := helpers.SeedLot(s.T(), s.testDB.PgxPool, productID, day.AddDate(0, 0, 1), 5, decimal.NewFromInt(22))

	_, err := s.consume(productID, 2)
	s.Require().NoError(err)
	s.Equal(0, helpers.LotRemaining(s.T(), s.testDB.PgxPool, oldLot))

	consumptions, err := s.consume(productID, 3)
	s.Require().NoError(err)
	s.Require().Len(consumptions, 1)
	s.Equal(newLot, consumptions[0].LotID)
	s.Equal(2, helpers.LotRemaining(s.T(), s.testDB.PgxPool, newLot))
}

func (s *LotLedgerSuite) TestConsume_InsufficientStock() {
	productID := helpers.SeedProduct(s.T(), s.testDB.PgxPool, "Azucar 1kg", 4)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lotA := helpers.SeedLot(s.T(), s.testDB.PgxPool, productID, day, 4, decimal.NewFromInt(5))

	_, err := s.consume(productID, 10)
	s.Require().Error(err)
	s.True(domain.IsInsufficientStock(err))

	var stockErr *domain.InsufficientStockError
	s.Require().ErrorAs(err, &stockErr)
	s.Equal(10, stockErr.Requested)
	s.Equal(4, stockErr.Available)

	// The failed transaction rolled back; nothing was drawn
	s.Equal(4, helpers.LotRemaining(s.T(), s.testDB.PgxPool, lotA))
}

func (s *LotLedgerSuite) TestRelease_RoundTrip() {
	productID := helpers.SeedProduct(s.T(), s.testDB.PgxPool, "Fideos 500g", 6)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lotA := helpers.SeedLot(s.T(), s.testDB.PgxPool, productID, day, 6, decimal.NewFromInt(3))

	consumptions, err := s.consume(productID, 4)
	s.Require().NoError(err)
	s.Require().Len(consumptions, 1)
	s.Equal(2, helpers.LotRemaining(s.T(), s.testDB.PgxPool, lotA))

	s.Require().NoError(s.release(lotA, 4))
	s.Equal(6, helpers.LotRemaining(s.T(), s.testDB.PgxPool, lotA))
}

func (s *LotLedgerSuite) TestRelease_RejectsOverfill() {
	productID := helpers.SeedProduct(s.T(), s.testDB.PgxPool, "Arroz 1kg", 5)
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	lotA := helpers.SeedLot(s.T(), s.testDB.PgxPool, productID, day, 5, decimal.NewFromInt(4))

	err := s.release(lotA, 1)
	s.Require().Error(err)
	s.Equal(5, helpers.LotRemaining(s.T(), s.testDB.PgxPool, lotA))
}

func (s *LotLedgerSuite) TestCreateLot_FindLot() {
	productID := helpers.SeedProduct(s.T(), s.testDB.PgxPool, "Cafe Molido 250g", 0)

	lot := &domain.PurchaseLot{
		ProductID: productID,
		OrderCode: "PO-2026-014",
		OrderDate: time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC),
		Quantity:  12,
		UnitCost:  decimal.RequireFromString("8.50"),
	}
	lot.PrepareForStorage()
	s.Require().NoError(s.ledger.CreateLot(s.ctx, lot))

	found, err := s.ledger.FindLot(s.ctx, lot.ID)
	s.Require().NoError(err)
	s.Require().NotNil(found)
	s.Equal(lot.ProductID, found.ProductID)
	s.Equal("PO-2026-014", found.OrderCode)
	s.Equal(12, found.Quantity)
	s.Equal(12, found.Remaining)
	s.True(lot.UnitCost.Equal(found.UnitCost))
}

func (s *LotLedgerSuite) TestFindLot_Missing() {
	found, err := s.ledger.FindLot(s.ctx, uuid.New())
	s.NoError(err)
	s.Nil(found)
}

func TestLotLedgerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(LotLedgerSuite))
}
