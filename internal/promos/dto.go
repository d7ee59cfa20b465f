package promos

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
)

// Rejection reasons carried in conflict error details so callers can branch
// without string-matching messages.
const (
	ReasonInactive        = "code_inactive"
	ReasonNotInWindow     = "code_expired_or_not_yet_valid"
	ReasonUsageLimit      = "usage_limit_exceeded"
	ReasonUserUsageLimit  = "user_usage_limit_exceeded"
	ReasonMinimumOrder    = "minimum_order_not_met"
	ReasonDiscountDrifted = "discount_changed_since_validation"
)

// ValidateInput carries one validation request against a promo code.
type ValidateInput struct {
	Code     string
	Subtotal decimal.Decimal
	UserID   string
	Now      time.Time
}

// ValidationResult is the successful outcome of Validate.
type ValidationResult struct {
	PromoCodeID    uuid.UUID
	Code           string
	DiscountAmount decimal.Decimal
}

// RedeemInput carries one redemption request. DiscountApplied must come from
// a Validate call the caller just performed for the same code and subtotal.
type RedeemInput struct {
	Code            string
	UserID          string
	OrderReference  string
	Subtotal        decimal.Decimal
	DiscountApplied decimal.Decimal
	Now             time.Time
}

// CreatePromoCodeInput defines a new promo code. The code is normalized to
// uppercase before it is stored and immutable afterwards.
type CreatePromoCodeInput struct {
	Code              string
	Description       *string
	DiscountType      enums.DiscountType
	DiscountValue     decimal.Decimal
	MinOrderAmount    *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	UsageLimit        *int
	UserUsageLimit    *int
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	IsActive          bool
}

// UpdatePromoCodeInput mutates an existing promo code. Nil fields are left
// untouched; the code itself cannot change.
type UpdatePromoCodeInput struct {
	Description       *string
	DiscountValue     *decimal.Decimal
	MinOrderAmount    *decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	UsageLimit        *int
	UserUsageLimit    *int
	ValidFrom         *time.Time
	ValidUntil        *time.Time
	IsActive          *bool
}

// PromoCodeList is one cursor page of promo codes.
type PromoCodeList struct {
	Items      []models.PromoCode
	NextCursor *string
}
