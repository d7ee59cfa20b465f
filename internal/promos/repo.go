package promos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a promos repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *repository) CountUserRedemptions(ctx context.Context, promoCodeID uuid.UUID, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PromoRedemption{}).
		Where("promo_code_id = ? AND user_id = ?", promoCodeID, userID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementUsage bumps usage_count only when it still matches the value the
// caller read. A false return means a concurrent redemption committed first.
func (r *repository) IncrementUsage(ctx context.Context, promoCodeID uuid.UUID, expected int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE promo_codes
		SET usage_count = usage_count + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND usage_count = ?
	`, promoCodeID, expected)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateRedemption(ctx context.Context, redemption *models.PromoRedemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

func (r *repository) Create(ctx context.Context, code *models.PromoCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *repository) Save(ctx context.Context, code *models.PromoCode) error {
	return r.db.WithContext(ctx).Save(code).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.PromoCode{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) (*PromoCodeList, error) {
	limit := pagination.NormalizeLimit(params.Limit)

	q := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit))

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		q = q.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var items []models.PromoCode
	if err := q.Find(&items).Error; err != nil {
		return nil, err
	}

	list := &PromoCodeList{Items: items}
	if len(items) > limit {
		list.Items = items[:limit]
		last := list.Items[limit-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	return list, nil
}
