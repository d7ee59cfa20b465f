package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the canonical storefront listing. The stock ledger is the only
// writer of StockQuantity; everything else treats it as read-only.
type Product struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name              string          `gorm:"column:name;not null"`
	Slug              string          `gorm:"column:slug;not null"`
	Description       *string         `gorm:"column:description"`
	Category          *string         `gorm:"column:category"`
	Price             decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ImageURL          *string         `gorm:"column:image_url"`
	StockQuantity     int             `gorm:"column:stock_quantity;not null;default:0"`
	LowStockThreshold int             `gorm:"column:low_stock_threshold;not null;default:5"`
	TrackInventory    bool            `gorm:"column:track_inventory;not null;default:true"`
	IsActive          bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
