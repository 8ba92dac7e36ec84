package benchmarks

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/ventaro/retail-be/internal/adapters/db"
	"github.com/ventaro/retail-be/internal/adapters/redis_adapter"
	"github.com/ventaro/retail-be/internal/core/domain"
	"github.com/ventaro/retail-be/internal/core/ports"
	"github.com/ventaro/retail-be/internal/core/services"
	"github.com/ventaro/retail-be/test/helpers"
)

func BenchmarkSalesEngine(b *testing.B) {
	// Setup
	testDB := helpers.SetupTestDB(&testing.T{})
	defer testDB.Database.Close()

	mr, err := miniredis.Run()
	if err != nil {
		b.Fatalf("failed to start miniredis: %v", err)
	}
	defer mr.Close()
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer redisClient.Close()

	logger := helpers.TestLogger()
	cache := redis_adapter.NewCache(redisClient, time.Minute, logger)

	ledger := db.NewLotLedger(testDB.Database, logger)
	saleRepo := db.NewSaleRepository(testDB.Database, logger)
	productRepo := db.NewProductRepository(testDB.Database, logger)
	partnerRepo := db.NewPartnerRepository(testDB.Database)
	ruleRepo := db.NewShippingRuleRepository(testDB.Database, cache, logger)
	calc := services.NewShippingCalculator(ruleRepo, logger)
	service := services.NewSalesService(
		testDB.Database, ledger, saleRepo, productRepo, partnerRepo, calc, logger)

	ctx := context.Background()
	cat := seedCatalog(b, testDB.PgxPool)

	b.Run("Create", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = service.CreateSale(ctx, cat.saleRequest(i, 2))
		}
	})

	// Pre-create sales for the read benchmarks
	var saleIDs []uuid.UUID
	for i := 0; i < 100; i++ {
		sale, err := service.CreateSale(ctx, cat.saleRequest(1_000_000+i, 1))
		if err != nil {
			b.Fatalf("failed to pre-create sale: %v", err)
		}
		saleIDs = append(saleIDs, sale.ID)
	}

	b.Run("Get", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = service.GetSale(ctx, saleIDs[i%len(saleIDs)])
		}
	})

	b.Run("List", func(b *testing.B) {
		params := ports.SaleListParams{
			Page:     1,
			PageSize: 50,
		}

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_, _ = service.ListSales(ctx, params)
		}
	})

	b.Run("StatusFlip", func(b *testing.B) {
		paid := domain.PaymentPaid
		pending := domain.PaymentPending

		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			patch := domain.StatusPatch{Payment: &paid}
			if i%2 == 1 {
				patch.Payment = &pending
			}
			_, _ = service.QuickUpdateStatus(ctx, saleIDs[0], patch)
		}
	})
}

func BenchmarkLineSubtotal(b *testing.B) {
	price := decimal.RequireFromString("25.99")
	discount := decimal.NewFromInt(15)

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = domain.LineSubtotal(3, price, discount)
	}
}

func BenchmarkRecomputeTotal(b *testing.B) {
	sale := &domain.Sale{Lines: make([]domain.SaleLine, 100)}
	for i := range sale.Lines {
		sale.Lines[i].Subtotal = decimal.RequireFromString("19.99")
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sale.RecomputeTotal()
	}
}

func BenchmarkShippingFee(b *testing.B) {
	rule := &domain.ShippingRule{
		Percentage:          decimal.RequireFromString("0.04"),
		FixedFee:            decimal.NewFromInt(1200),
		Threshold:           decimal.NewFromInt(30000),
		FixedBelowThreshold: true,
	}
	totals := []decimal.Decimal{
		decimal.NewFromInt(15000),
		decimal.NewFromInt(50000),
	}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = rule.Fee(totals[i%2])
	}
}
