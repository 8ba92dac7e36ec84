// cmd/seeder/main.go
//
// Seeds the sales database with reference data: clients, carriers, shipping
// rules, products and purchase lots. Data comes from a JSON dataset file, or
// from a small built-in demo catalog when no file is given.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// SeedDataset is the shape of the seed file.
type SeedDataset struct {
	Clients       []SeedClient       `json:"clients"`
	Carriers      []SeedCarrier      `json:"carriers"`
	ShippingRules []SeedShippingRule `json:"shipping_rules"`
	Products      []SeedProduct      `json:"products"`
}

type SeedClient struct {
	Name string `json:"name"`
}

type SeedCarrier struct {
	Name  string             `json:"name"`
	Rules []SeedShippingRule `json:"rules,omitempty"`
}

type SeedShippingRule struct {
	Carrier             string          `json:"carrier"`
	PaymentMethod       string          `json:"payment_method"`
	Percentage          decimal.Decimal `json:"percentage"`
	FixedFee            decimal.Decimal `json:"fixed_fee"`
	Threshold           decimal.Decimal `json:"threshold"`
	FixedBelowThreshold bool            `json:"fixed_below_threshold"`
}

type SeedProduct struct {
	Name string    `json:"name"`
	Lots []SeedLot `json:"lots"`
}

type SeedLot struct {
	OrderCode string          `json:"order_code"`
	OrderDate string          `json:"order_date"`
	Quantity  int             `json:"quantity"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
}

// Seeder inserts the dataset inside one transaction.
type Seeder struct {
	db     *pgxpool.Pool
	logger *slog.Logger
	dryRun bool

	clientsCreated  int
	carriersCreated int
	rulesCreated    int
	productsCreated int
	lotsCreated     int
}

func NewSeeder(db *pgxpool.Pool, logger *slog.Logger, dryRun bool) *Seeder {
	return &Seeder{db: db, logger: logger, dryRun: dryRun}
}

// Run inserts the whole dataset. Product stock starts at the sum of its lot
// quantities, matching the reconciliation invariant with no open sales.
func (s *Seeder) Run(ctx context.Context, dataset *SeedDataset) error {
	if s.dryRun {
		s.preview(dataset)
		return nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, c := range dataset.Clients {
		if err := s.insertClient(ctx, tx, c); err != nil {
			return err
		}
	}

	carrierIDs := make(map[string]uuid.UUID, len(dataset.Carriers))
	for _, c := range dataset.Carriers {
		id, err := s.insertCarrier(ctx, tx, c)
		if err != nil {
			return err
		}
		carrierIDs[c.Name] = id

		for _, rule := range c.Rules {
			rule.Carrier = c.Name
			if err := s.insertRule(ctx, tx, carrierIDs, rule); err != nil {
				return err
			}
		}
	}

	for _, rule := range dataset.ShippingRules {
		if err := s.insertRule(ctx, tx, carrierIDs, rule); err != nil {
			return err
		}
	}

	for _, p := range dataset.Products {
		if err := s.insertProduct(ctx, tx, p); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *Seeder) insertClient(ctx context.Context, tx pgx.Tx, c SeedClient) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO clients (id, name) VALUES ($1, $2)`,
		uuid.New(), c.Name)
	if err != nil {
		return fmt.Errorf("failed to insert client %q: %w", c.Name, err)
	}
	s.clientsCreated++
	return nil
}

func (s *Seeder) insertCarrier(ctx context.Context, tx pgx.Tx, c SeedCarrier) (uuid.UUID, error) {
	id := uuid.New()
	_, err := tx.Exec(ctx,
		`INSERT INTO carriers (id, name) VALUES ($1, $2)`,
		id, c.Name)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert carrier %q: %w", c.Name, err)
	}
	s.carriersCreated++
	return id, nil
}

func (s *Seeder) insertRule(ctx context.Context, tx pgx.Tx, carrierIDs map[string]uuid.UUID, rule SeedShippingRule) error {
	carrierID, ok := carrierIDs[rule.Carrier]
	if !ok {
		return fmt.Errorf("shipping rule references unknown carrier %q", rule.Carrier)
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO shipping_rules (id, carrier_id, payment_method, percentage, fixed_fee, threshold, fixed_below_threshold)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		uuid.New(), carrierID, rule.PaymentMethod,
		rule.Percentage, rule.FixedFee, rule.Threshold, rule.FixedBelowThreshold)
	if err != nil {
		return fmt.Errorf("failed to insert shipping rule for %q: %w", rule.Carrier, err)
	}
	s.rulesCreated++
	return nil
}

func (s *Seeder) insertProduct(ctx context.Context, tx pgx.Tx, p SeedProduct) error {
	productID := uuid.New()

	stock := 0
	for _, lot := range p.Lots {
		stock += lot.Quantity
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO products (id, name, stock) VALUES ($1, $2, $3)`,
		productID, p.Name, stock)
	if err != nil {
		return fmt.Errorf("failed to insert product %q: %w", p.Name, err)
	}
	s.productsCreated++

	batch := &pgx.Batch{}
	for _, lot := range p.Lots {
		orderDate := time.Now()
		if lot.OrderDate != "" {
			parsed, err := time.Parse("2006-01-02", lot.OrderDate)
			if err != nil {
				return fmt.Errorf("invalid order_date %q for product %q: %w", lot.OrderDate, p.Name, err)
			}
			orderDate = parsed
		}

		batch.Queue(
			`INSERT INTO purchase_lots (id, product_id, order_code, order_date, quantity, remaining, unit_cost)
			 VALUES ($1, $2, $3, $4, $5, $5, $6)`,
			uuid.New(), productID, lot.OrderCode, orderDate, lot.Quantity, lot.UnitCost)
	}

	br := tx.SendBatch(ctx, batch)
	for range p.Lots {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("failed to insert lot for product %q: %w", p.Name, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch results: %w", err)
	}
	s.lotsCreated += len(p.Lots)

	return nil
}

func (s *Seeder) preview(dataset *SeedDataset) {
	lots := 0
	rules := len(dataset.ShippingRules)
	for _, p := range dataset.Products {
		lots += len(p.Lots)
	}
	for _, c := range dataset.Carriers {
		rules += len(c.Rules)
	}

	fmt.Printf("[DRY RUN] Would insert: %d clients, %d carriers, %d shipping rules, %d products, %d lots\n",
		len(dataset.Clients), len(dataset.Carriers), rules, len(dataset.Products), lots)
}

// demoDataset is used when no seed file is provided.
func demoDataset() *SeedDataset {
	return &SeedDataset{
		Clients: []SeedClient{
			{Name: "Mercado Central"},
			{Name: "Tienda Norte"},
			{Name: "Distribuidora del Sur"},
		},
		Carriers: []SeedCarrier{
			{
				Name: "Andreani",
				Rules: []SeedShippingRule{
					{
						PaymentMethod:       "cash_on_delivery",
						Percentage:          decimal.NewFromFloat(0.04),
						FixedFee:            decimal.NewFromFloat(1200),
						Threshold:           decimal.NewFromFloat(30000),
						FixedBelowThreshold: true,
					},
					{
						PaymentMethod: "transfer",
						Percentage:    decimal.NewFromFloat(0.025),
					},
				},
			},
			{
				Name: "Correo Express",
				Rules: []SeedShippingRule{
					{
						PaymentMethod: "card",
						Percentage:    decimal.NewFromFloat(0.03),
					},
				},
			},
		},
		Products: []SeedProduct{
			{
				Name: "Yerba Mate 1kg",
				Lots: []SeedLot{
					{OrderCode: "PO-1001", OrderDate: "2026-05-10", Quantity: 120, UnitCost: decimal.NewFromFloat(2150.00)},
					{OrderCode: "PO-1017", OrderDate: "2026-06-02", Quantity: 80, UnitCost: decimal.NewFromFloat(2290.00)},
				},
			},
			{
				Name: "Aceite de Oliva 500ml",
				Lots: []SeedLot{
					{OrderCode: "PO-1003", OrderDate: "2026-05-14", Quantity: 60, UnitCost: decimal.NewFromFloat(4800.00)},
				},
			},
			{
				Name: "Miel Organica 250g",
				Lots: []SeedLot{
					{OrderCode: "PO-1005", OrderDate: "2026-05-20", Quantity: 40, UnitCost: decimal.NewFromFloat(3100.00)},
					{OrderCode: "PO-1021", OrderDate: "2026-06-15", Quantity: 50, UnitCost: decimal.NewFromFloat(3250.00)},
				},
			},
		},
	}
}

func main() {
	var (
		seedFile = flag.String("file", "", "JSON dataset file (uses built-in demo data when empty)")
		logLevel = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun   = flag.Bool("dry-run", false, "Preview changes without modifying database")
	)
	flag.Parse()

	var slogLevel slog.Level
	switch *logLevel {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
	slog.SetDefault(logger)

	dataset := demoDataset()
	if *seedFile != "" {
		data, err := os.ReadFile(*seedFile)
		if err != nil {
			logger.Error("Failed to read seed file", slog.String("error", err.Error()))
			os.Exit(1)
		}
		dataset = &SeedDataset{}
		if err := json.Unmarshal(data, dataset); err != nil {
			logger.Error("Failed to parse seed file", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	dbURL := fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		getEnv("DB_USER", "retail"),
		getEnv("DB_PASSWORD", "retail_dev_2026"),
		getEnv("DB_HOST", "localhost"),
		getEnv("DB_PORT", "5432"),
		getEnv("DB_NAME", "retail_sales"),
		getEnv("DB_SSL_MODE", "disable"),
	)

	ctx := context.Background()

	var db *pgxpool.Pool
	if !*dryRun {
		var err error
		db, err = pgxpool.New(ctx, dbURL)
		if err != nil {
			logger.Error("Failed to connect to database", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer db.Close()
	}

	seeder := NewSeeder(db, logger, *dryRun)
	if err := seeder.Run(ctx, dataset); err != nil {
		logger.Error("Seed operation failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Seed operation completed",
		slog.Int("clients", seeder.clientsCreated),
		slog.Int("carriers", seeder.carriersCreated),
		slog.Int("shipping_rules", seeder.rulesCreated),
		slog.Int("products", seeder.productsCreated),
		slog.Int("lots", seeder.lotsCreated))

	if *dryRun {
		fmt.Println("[DRY RUN] No changes were made to the database")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
