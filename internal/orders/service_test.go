package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/inventory"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/promos"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/config"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
	pkgerrors "github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/errors"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/logger"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (g gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return g.db.WithContext(ctx).Transaction(fn)
}

type testEnv struct {
	db      *gorm.DB
	svc     Service
	catalog inventory.Repository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("extract sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := conn.AutoMigrate(
		&models.Product{},
		&models.StockAdjustment{},
		&models.PromoCode{},
		&models.PromoRedemption{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	tx := gormTxRunner{db: conn}
	invRepo := inventory.NewRepository(conn)
	ledger, err := inventory.NewService(invRepo, tx, nil, config.InventoryConfig{AdjustMaxRetries: 3, AdjustRetryDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("build ledger: %v", err)
	}
	promoSvc, err := promos.NewService(promos.NewRepository(conn), tx, nil, config.PromoConfig{RedeemMaxRetries: 3, RedeemRetryDelay: time.Millisecond})
	if err != nil {
		t.Fatalf("build promo engine: %v", err)
	}
	logg := logger.New(logger.Options{ServiceName: "orders-test", Level: zerolog.ErrorLevel})
	svc, err := NewService(invRepo, promoSvc, ledger, logg)
	if err != nil {
		t.Fatalf("build order service: %v", err)
	}
	return &testEnv{db: conn, svc: svc, catalog: invRepo}
}

func (e *testEnv) createProduct(t *testing.T, price string, qty int, tracked bool) *models.Product {
	t.Helper()
	amount, err := decimal.NewFromString(price)
	if err != nil {
		t.Fatalf("parse price: %v", err)
	}
	product := &models.Product{
		ID:                uuid.New(),
		Name:              "Makroud",
		Slug:              "makroud-" + uuid.NewString(),
		Price:             amount,
		StockQuantity:     qty,
		LowStockThreshold: 2,
		TrackInventory:    tracked,
		IsActive:          true,
	}
	if err := e.db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

func (e *testEnv) createPromo(t *testing.T, code string, overrides func(p *models.PromoCode)) *models.PromoCode {
	t.Helper()
	promo := &models.PromoCode{
		ID:            uuid.New(),
		Code:          code,
		DiscountType:  enums.DiscountTypeFixed,
		DiscountValue: decimal.NewFromInt(10),
		IsActive:      true,
	}
	if overrides != nil {
		overrides(promo)
	}
	if err := e.db.Create(promo).Error; err != nil {
		t.Fatalf("create promo: %v", err)
	}
	return promo
}

func (e *testEnv) stockOf(t *testing.T, productID uuid.UUID) int {
	t.Helper()
	var product models.Product
	if err := e.db.First(&product, "id = ?", productID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return product.StockQuantity
}

func TestPlaceOrderWithoutPromo(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	productA := env.createProduct(t, "12.50", 10, true)
	productB := env.createProduct(t, "7.00", 5, true)

	result, err := env.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID: "u1",
		Lines: []OrderLine{
			{ProductID: productA.ID, Quantity: 2},
			{ProductID: productB.ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if result.Subtotal.StringFixed(2) != "32.00" {
		t.Fatalf("expected subtotal 32.00, got %s", result.Subtotal.StringFixed(2))
	}
	if !result.Discount.IsZero() {
		t.Fatalf("expected zero discount, got %s", result.Discount)
	}
	if result.Total.StringFixed(2) != "32.00" {
		t.Fatalf("expected total 32.00, got %s", result.Total.StringFixed(2))
	}
	if env.stockOf(t, productA.ID) != 8 || env.stockOf(t, productB.ID) != 4 {
		t.Fatal("expected stock decremented per line")
	}
	if result.OrderReference == "" {
		t.Fatal("expected generated order reference")
	}
}

func TestPlaceOrderAppliesPromo(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	product := env.createProduct(t, "30.00", 10, true)
	env.createPromo(t, "FIDELE10", nil)

	result, err := env.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:    "u1",
		PromoCode: "fidele10",
		Lines:     []OrderLine{{ProductID: product.ID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if result.Discount.StringFixed(2) != "10.00" {
		t.Fatalf("expected discount 10.00, got %s", result.Discount.StringFixed(2))
	}
	if result.Total.StringFixed(2) != "50.00" {
		t.Fatalf("expected total 50.00, got %s", result.Total.StringFixed(2))
	}
	if result.Redemption == nil {
		t.Fatal("expected a redemption record")
	}

	var redemptions int64
	if err := env.db.Model(&models.PromoRedemption{}).Count(&redemptions).Error; err != nil {
		t.Fatalf("count redemptions: %v", err)
	}
	if redemptions != 1 {
		t.Fatalf("expected 1 redemption, got %d", redemptions)
	}
}

func TestPlaceOrderSkipsUntrackedProducts(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	tracked := env.createProduct(t, "5.00", 10, true)
	untracked := env.createProduct(t, "3.00", 0, false)

	result, err := env.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID: "u1",
		Lines: []OrderLine{
			{ProductID: tracked.ID, Quantity: 1},
			{ProductID: untracked.ID, Quantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("place order failed: %v", err)
	}
	if env.stockOf(t, untracked.ID) != 0 {
		t.Fatal("untracked product quantity must not move")
	}
	for _, line := range result.Lines {
		if line.ProductID == untracked.ID && line.NewQuantity != nil {
			t.Fatal("untracked line should carry no ledger quantity")
		}
		if line.ProductID == tracked.ID && (line.NewQuantity == nil || *line.NewQuantity != 9) {
			t.Fatal("tracked line should report the decremented quantity")
		}
	}
}

func TestPlaceOrderCompensatesOnPartialFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	plenty := env.createProduct(t, "5.00", 10, true)
	scarce := env.createProduct(t, "5.00", 1, true)
	env.createPromo(t, "CASSE10", nil)

	_, err := env.svc.PlaceOrder(context.Background(), PlaceOrderInput{
		UserID:    "u1",
		PromoCode: "CASSE10",
		Lines: []OrderLine{
			{ProductID: plenty.ID, Quantity: 3},
			{ProductID: scarce.ID, Quantity: 2},
		},
	})
	if err == nil {
		t.Fatal("expected order to fail on insufficient stock")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected insufficient stock conflict, got %v", err)
	}

	// first line must be compensated back to its original quantity
	if got := env.stockOf(t, plenty.ID); got != 10 {
		t.Fatalf("expected compensated stock 10, got %d", got)
	}
	if got := env.stockOf(t, scarce.ID); got != 1 {
		t.Fatalf("expected scarce stock untouched at 1, got %d", got)
	}

	// the redemption is non-reversible: usage stays consumed
	var promo models.PromoCode
	if err := env.db.First(&promo, "code = ?", "CASSE10").Error; err != nil {
		t.Fatalf("reload promo: %v", err)
	}
	if promo.UsageCount != 1 {
		t.Fatalf("expected usage count to remain 1, got %d", promo.UsageCount)
	}

	// ledger keeps both the decrement and the compensating increase
	var entries []models.StockAdjustment
	if err := env.db.Where("product_id = ?", plenty.ID).Order("created_at ASC").Find(&entries).Error; err != nil {
		t.Fatalf("load ledger: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected decrement plus compensation, got %d entries", len(entries))
	}
	if entries[0].AdjustmentType != enums.AdjustmentTypeDecrease || entries[1].AdjustmentType != enums.AdjustmentTypeIncrease {
		t.Fatalf("unexpected ledger sequence: %s then %s", entries[0].AdjustmentType, entries[1].AdjustmentType)
	}
}

func TestPlaceOrderValidation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	product := env.createProduct(t, "5.00", 10, true)

	cases := []struct {
		name  string
		input PlaceOrderInput
	}{
		{"missingUser", PlaceOrderInput{Lines: []OrderLine{{ProductID: product.ID, Quantity: 1}}}},
		{"noLines", PlaceOrderInput{UserID: "u1"}},
		{"zeroQuantity", PlaceOrderInput{UserID: "u1", Lines: []OrderLine{{ProductID: product.ID, Quantity: 0}}}},
		{"duplicateLine", PlaceOrderInput{UserID: "u1", Lines: []OrderLine{
			{ProductID: product.ID, Quantity: 1},
			{ProductID: product.ID, Quantity: 2},
		}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.svc.PlaceOrder(context.Background(), tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	t.Run("unknownProduct", func(t *testing.T) {
		_, err := env.svc.PlaceOrder(context.Background(), PlaceOrderInput{
			UserID: "u1",
			Lines:  []OrderLine{{ProductID: uuid.New(), Quantity: 1}},
		})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("rejectedPromoLeavesStock", func(t *testing.T) {
		_, err := env.svc.PlaceOrder(context.Background(), PlaceOrderInput{
			UserID:    "u1",
			PromoCode: "GHOST",
			Lines:     []OrderLine{{ProductID: product.ID, Quantity: 1}},
		})
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected promo not found, got %v", err)
		}
		if got := env.stockOf(t, product.ID); got != 10 {
			t.Fatalf("stock must be untouched when promo fails, got %d", got)
		}
	})
}
