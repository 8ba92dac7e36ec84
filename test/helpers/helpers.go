// test/helpers/helpers.go
package helpers

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/ventaro/retail-be/internal/adapters/db"
	"github.com/ventaro/retail-be/internal/core/ports"
	"github.com/ventaro/retail-be/internal/pkg/config"
	"github.com/ventaro/retail-be/internal/pkg/logger"
)

// TestDB represents a test database instance
type TestDB struct {
	PgxPool  *pgxpool.Pool
	Database *db.Database
	Resource *dockertest.Resource
	Pool     *dockertest.Pool
	Config   *db.Config
}

// TestRedis represents a test Redis instance
type TestRedis struct {
	Client *redis.Client
	Server *miniredis.Miniredis
}

// TestLogger returns a test logger
func TestLogger() *slog.Logger {
	if testing.Verbose() {
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestAppLogger returns the enhanced logger for code that needs the full
// wrapper rather than a bare slog.Logger.
func TestAppLogger() *logger.Logger {
	level := "error"
	if testing.Verbose() {
		level = "debug"
	}
	return logger.NewLogger(&logger.LogConfig{
		Level:  level,
		Format: "text",
		Output: "stdout",
	})
}

// SetupTestDB creates a PostgreSQL container for integration tests
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	require.NoError(t, err, "Could not connect to Docker")

	// Pull PostgreSQL image
	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=test_retail",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err, "Could not start PostgreSQL container")

	// Clean up on test completion
	t.Cleanup(func() {
		if err := pool.Purge(resource); err != nil {
			t.Logf("Could not purge resource: %s", err)
		}
	})

	// Get connection details
	dbConfig := &db.Config{
		Host:               "localhost",
		Port:               resource.GetPort("5432/tcp"),
		User:               "test",
		Password:           "test",
		Database:           "test_retail",
		SSLMode:            "disable",
		MaxConnections:     5,
		MinConnections:     1,
		MaxConnLifetime:    time.Hour,
		MaxConnIdleTime:    time.Minute * 30,
		HealthCheckPeriod:  time.Minute,
		ConnectTimeout:     time.Second * 10,
		LockWaitTimeout:    time.Second * 2,
		StatementCacheMode: "describe",
		EnableQueryLogging: testing.Verbose(),
	}

	// Wait for database to be ready
	var database *db.Database
	err = pool.Retry(func() error {
		ctx := context.Background()
		var err error
		database, err = db.NewDatabase(ctx, dbConfig, TestLogger())
		if err != nil {
			return err
		}
		return database.Ping(ctx)
	})
	require.NoError(t, err, "Could not connect to PostgreSQL")

	// Run migrations
	ctx := context.Background()
	migrationConfig := &db.MigrationConfig{
		DatabaseURL: fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
			dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port,
			dbConfig.Database, dbConfig.SSLMode),
		SourcePath: migrationsPath(),
		TableName:  "schema_migrations",
		SchemaName: "public",
	}

	err = db.RunMigrationsWithRetry(ctx, migrationConfig, TestLogger(), 3)
	require.NoError(t, err, "Could not run migrations")

	return &TestDB{
		PgxPool:  database.Pool(),
		Database: database,
		Resource: resource,
		Pool:     pool,
		Config:   dbConfig,
	}
}

// migrationsPath resolves the migrations directory relative to this source
// file, so integration tests work from any package depth.
func migrationsPath() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

// SetupTestRedis creates a mock Redis instance for testing
func SetupTestRedis(t *testing.T) *TestRedis {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return &TestRedis{
		Client: client,
		Server: mr,
	}
}

// SetupMockDB creates a mock database for unit testing
func SetupMockDB(t *testing.T) (sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err, "Failed to create mock DB")

	t.Cleanup(func() {
		db.Close()
	})

	return mock, db
}

// LoadTestConfig returns a test configuration
func LoadTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "test-api",
			Environment: "test",
			Version:     "test",
			LogLevel:    "debug",
			LogFormat:   "text",
			Debug:       true,
		},
		Database: config.DatabaseConfig{
			Host:               "localhost",
			Port:               "5432",
			User:               "test",
			Password:           "test",
			Name:               "test_retail",
			SSLMode:            "disable",
			MaxConnections:     10,
			MinConnections:     2,
			EnableQueryLogging: true,
		},
		Redis: config.RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			DB:       0,
			TTL:      time.Hour,
			PoolSize: 10,
		},
		Engine: config.EngineConfig{
			LockWaitTimeout:   2 * time.Second,
			ReconcileInterval: time.Hour,
			HistoryRetention:  365 * 24 * time.Hour,
			RetentionInterval: 24 * time.Hour,
			ShippingRuleTTL:   10 * time.Minute,
		},
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret",
			JWTExpiration:     24 * time.Hour,
			RateLimitRequests: 100,
			RateLimitDuration: time.Minute,
			AllowedOrigins:    []string{"*"},
			SecureHeaders:     false,
		},
		Server: config.ServerConfig{
			Host:         "localhost",
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
	}
}

// SeedProduct inserts a product row and returns its id
func SeedProduct(t *testing.T, pool *pgxpool.Pool, name string, stock int) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (id, name, stock, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())`,
		id, name, stock)
	require.NoError(t, err, "Failed to seed product")
	return id
}

// SeedClient inserts a client row and returns its id
func SeedClient(t *testing.T, pool *pgxpool.Pool, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO clients (id, name, created_at, updated_at)
		 VALUES ($1, $2, NOW(), NOW())`,
		id, name)
	require.NoError(t, err, "Failed to seed client")
	return id
}

// SeedCarrier inserts a carrier row and returns its id
func SeedCarrier(t *testing.T, pool *pgxpool.Pool, name string) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO carriers (id, name, created_at, updated_at)
		 VALUES ($1, $2, NOW(), NOW())`,
		id, name)
	require.NoError(t, err, "Failed to seed carrier")
	return id
}

// SeedLot inserts a purchase lot with remaining equal to quantity
func SeedLot(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID, orderDate time.Time, quantity int, unitCost decimal.Decimal) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO purchase_lots (id, product_id, order_code, order_date, quantity, remaining, unit_cost, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5, $6, NOW(), NOW())`,
		id, productID, fmt.Sprintf("PO-%s", id.String()[:8]), orderDate, quantity, unitCost)
	require.NoError(t, err, "Failed to seed purchase lot")
	return id
}

// SeedShippingRule inserts a shipping rule for a carrier and payment method
func SeedShippingRule(t *testing.T, pool *pgxpool.Pool, carrierID uuid.UUID, method string, percentage, fixedFee, threshold decimal.Decimal, fixedBelow bool) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO shipping_rules (id, carrier_id, payment_method, percentage, fixed_fee, threshold, fixed_below_threshold)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, carrierID, method, percentage, fixedFee, threshold, fixedBelow)
	require.NoError(t, err, "Failed to seed shipping rule")
	return id
}

// LotRemaining reads the remaining counter of a lot
func LotRemaining(t *testing.T, pool *pgxpool.Pool, lotID uuid.UUID) int {
	t.Helper()

	var remaining int
	err := pool.QueryRow(context.Background(),
		`SELECT remaining FROM purchase_lots WHERE id = $1`, lotID).Scan(&remaining)
	require.NoError(t, err, "Failed to read lot remaining")
	return remaining
}

// ProductStock reads the aggregate stock counter of a product
func ProductStock(t *testing.T, pool *pgxpool.Pool, productID uuid.UUID) int {
	t.Helper()

	var stock int
	err := pool.QueryRow(context.Background(),
		`SELECT stock FROM products WHERE id = $1`, productID).Scan(&stock)
	require.NoError(t, err, "Failed to read product stock")
	return stock
}

// CreateTestSaleRequest builds a single-line sale request with overrides
func CreateTestSaleRequest(clientID, productID uuid.UUID, overrides ...func(*ports.SaleRequest)) ports.SaleRequest {
	req := ports.SaleRequest{
		ClientID:      clientID,
		PaymentMethod: "cash",
		Lines: []ports.SaleLineRequest{
			{
				ProductID:   productID,
				Quantity:    2,
				UnitPrice:   decimal.NewFromFloat(25.00),
				DiscountPct: decimal.Zero,
			},
		},
	}

	for _, override := range overrides {
		override(&req)
	}

	return req
}

// AssertEventuallyWithTimeout asserts that a condition is met within a timeout
func AssertEventuallyWithTimeout(t *testing.T, condition func() bool, timeout time.Duration, msg string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}

	t.Errorf("Condition not met within %v: %s", timeout, msg)
}

// TruncateAllTables truncates all tables in the test database
func TruncateAllTables(t *testing.T, db *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	tables := []string{
		"transaction_history",
		"sale_lines",
		"sales",
		"shipping_rules",
		"purchase_lots",
		"products",
		"clients",
		"carriers",
	}

	for _, table := range tables {
		_, err := db.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "Failed to truncate table: %s", table)
	}
}
