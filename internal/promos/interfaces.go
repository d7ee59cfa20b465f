package promos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/pagination"
)

// Repository defines persistence operations for promo codes and the
// redemption log.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCode(ctx context.Context, code string) (*models.PromoCode, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PromoCode, error)
	CountUserRedemptions(ctx context.Context, promoCodeID uuid.UUID, userID string) (int64, error)
	IncrementUsage(ctx context.Context, promoCodeID uuid.UUID, expected int) (bool, error)
	CreateRedemption(ctx context.Context, redemption *models.PromoRedemption) error
	Create(ctx context.Context, code *models.PromoCode) error
	Save(ctx context.Context, code *models.PromoCode) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params) (*PromoCodeList, error)
}
