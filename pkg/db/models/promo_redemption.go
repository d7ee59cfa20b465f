package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PromoRedemption records one successful application of a promo code to an
// order. Append-only; it backs the per-user usage limit and the audit trail.
type PromoRedemption struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PromoCodeID     uuid.UUID       `gorm:"column:promo_code_id;type:uuid;not null;index"`
	UserID          string          `gorm:"column:user_id;not null;index"`
	OrderReference  string          `gorm:"column:order_reference;not null"`
	DiscountApplied decimal.Decimal `gorm:"column:discount_applied;type:numeric(12,2);not null"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (r *PromoRedemption) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
