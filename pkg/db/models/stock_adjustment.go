package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
)

// StockAdjustment records one immutable entry of the stock audit trail.
// Rows are inserted exactly once per successful adjustment and never
// updated or deleted.
type StockAdjustment struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProductID         uuid.UUID            `gorm:"column:product_id;type:uuid;not null;index"`
	AdjustmentType    enums.AdjustmentType `gorm:"column:adjustment_type;not null"`
	Quantity          int                  `gorm:"column:quantity;not null"`
	ResultingQuantity int                  `gorm:"column:resulting_quantity;not null"`
	Reason            string               `gorm:"column:reason;not null"`
	Notes             *string              `gorm:"column:notes"`
	ActorID           uuid.UUID            `gorm:"column:actor_id;type:uuid;not null"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (a *StockAdjustment) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
