package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("extract sql db: %v", err)
	}
	// single connection keeps concurrent writers from tripping sqlite busy errors
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(&models.Product{}, &models.StockAdjustment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

func mustCreateTestProduct(t *testing.T, db *gorm.DB, quantity, threshold int, tracked bool) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:                uuid.New(),
		Name:              "Baklawa aux amandes",
		Slug:              "baklawa-" + uuid.NewString(),
		Price:             decimal.NewFromFloat(24.50),
		StockQuantity:     quantity,
		LowStockThreshold: threshold,
		TrackInventory:    tracked,
		IsActive:          true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
