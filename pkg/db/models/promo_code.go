package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
)

// PromoCode defines a discount code. Code is stored uppercase and is
// immutable after creation; UsageCount only ever moves up and only through
// the promo engine's redemption path.
type PromoCode struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Code              string             `gorm:"column:code;not null;uniqueIndex"`
	Description       *string            `gorm:"column:description"`
	DiscountType      enums.DiscountType `gorm:"column:discount_type;not null"`
	DiscountValue     decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	MinOrderAmount    *decimal.Decimal   `gorm:"column:min_order_amount;type:numeric(12,2)"`
	MaxDiscountAmount *decimal.Decimal   `gorm:"column:max_discount_amount;type:numeric(12,2)"`
	UsageLimit        *int               `gorm:"column:usage_limit"`
	UserUsageLimit    *int               `gorm:"column:user_usage_limit"`
	UsageCount        int                `gorm:"column:usage_count;not null;default:0"`
	ValidFrom         *time.Time         `gorm:"column:valid_from"`
	ValidUntil        *time.Time         `gorm:"column:valid_until"`
	IsActive          bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (p *PromoCode) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
