package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/pagination"
)

// Repository defines persistence operations for stock state and the
// adjustment log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	CompareAndSetStock(ctx context.Context, productID uuid.UUID, expected, next int) (bool, error)
	CreateAdjustment(ctx context.Context, adjustment *models.StockAdjustment) error
	ListProducts(ctx context.Context, filter enums.StockFilter, limit int) ([]models.Product, error)
	ListAdjustments(ctx context.Context, productID uuid.UUID, params pagination.Params) (*AdjustmentList, error)
}
