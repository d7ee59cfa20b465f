package promos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:promos_" + uuid.NewString() + "?mode=memory&cache=shared"
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
	if err := conn.AutoMigrate(&models.PromoCode{}, &models.PromoRedemption{}); err != nil {
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

type promoOverrides func(promo *models.PromoCode)

func mustCreateTestPromo(t *testing.T, db *gorm.DB, overrides ...promoOverrides) *models.PromoCode {
	t.Helper()
	promo := &models.PromoCode{
		ID:            uuid.New(),
		Code:          "TEST-" + uuid.NewString()[:8],
		DiscountType:  enums.DiscountTypePercentage,
		DiscountValue: decimal.NewFromInt(10),
		IsActive:      true,
	}
	for _, override := range overrides {
		override(promo)
	}
	promo.Code = NormalizeCode(promo.Code)
	if err := db.Create(promo).Error; err != nil {
		t.Fatalf("create promo: %v", err)
	}
	return promo
}

func intPtr(v int) *int {
	return &v
}

func decimalPtr(v decimal.Decimal) *decimal.Decimal {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}
