package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an inventory repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// CompareAndSetStock applies the new quantity only when the stored quantity
// still matches the value the caller computed from. A false return means a
// concurrent adjustment committed first.
func (r *repository) CompareAndSetStock(ctx context.Context, productID uuid.UUID, expected, next int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE products
		SET stock_quantity = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_quantity = ?
	`, next, productID, expected)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateAdjustment(ctx context.Context, adjustment *models.StockAdjustment) error {
	return r.db.WithContext(ctx).Create(adjustment).Error
}

func (r *repository) ListProducts(ctx context.Context, filter enums.StockFilter, limit int) ([]models.Product, error) {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	switch filter {
	case enums.StockFilterLowStock:
		q = q.Where("track_inventory = ? AND stock_quantity > 0 AND stock_quantity <= low_stock_threshold", true)
	case enums.StockFilterOutOfStock:
		q = q.Where("track_inventory = ? AND stock_quantity = 0", true)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var products []models.Product
	if err := q.Order("name ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repository) ListAdjustments(ctx context.Context, productID uuid.UUID, params pagination.Params) (*AdjustmentList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var items []models.StockAdjustment
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}

	list := &AdjustmentList{Items: items}
	if len(items) > limit {
		list.Items = items[:limit]
		last := list.Items[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}
