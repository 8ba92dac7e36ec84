// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ventaro/retail-be/internal/core/ports"
)

// benchCatalog holds the seed rows every engine benchmark runs against.
type benchCatalog struct {
	clientID  uuid.UUID
	productID uuid.UUID
}

// seedCatalog inserts one client and one product backed by a lot deep enough
// that no benchmark iteration can drain it.
func seedCatalog(b *testing.B, pool *pgxpool.Pool) *benchCatalog {
	b.Helper()
	ctx := context.Background()

	cat := &benchCatalog{
		clientID:  uuid.New(),
		productID: uuid.New(),
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO clients (id, name, created_at, updated_at)
		 VALUES ($1, $2, NOW(), NOW())`,
		cat.clientID, "Bench Client")
	if err != nil {
		b.Fatalf("failed to seed client: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO products (id, name, stock, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())`,
		cat.productID, "Bench Product", 10_000_000)
	if err != nil {
		b.Fatalf("failed to seed product: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO purchase_lots (id, product_id, order_code, order_date, quantity, remaining, unit_cost, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5, $6, NOW(), NOW())`,
		uuid.New(), cat.productID, "PO-BENCH",
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		10_000_000, decimal.NewFromInt(10))
	if err != nil {
		b.Fatalf("failed to seed lot: %v", err)
	}

	return cat
}

// saleRequest builds a single-line request against the bench catalog.
func (c *benchCatalog) saleRequest(i, qty int) ports.SaleRequest {
	return ports.SaleRequest{
		Code:          fmt.Sprintf("S-BENCH%06d", i),
		ClientID:      c.clientID,
		PaymentMethod: "cash",
		Lines: []ports.SaleLineRequest{
			{
				ProductID:   c.productID,
				Quantity:    qty,
				UnitPrice:   decimal.NewFromInt(25),
				DiscountPct: decimal.Zero,
			},
		},
	}
}
