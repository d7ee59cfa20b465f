package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/api/responses"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/api/validators"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/promos"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
	pkgerrors "github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/errors"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/logger"
)

// PromoCodeList pages through promo codes for the admin console.
func PromoCodeList(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo service unavailable"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]promoCodeResponse, 0, len(page.Items))
		for _, code := range page.Items {
			items = append(items, toPromoCodeResponse(&code))
		}
		responses.WriteSuccess(w, promoCodeListResponse{
			Items:      items,
			NextCursor: page.NextCursor,
		})
	}
}

// PromoCodeCreate registers a new promo code.
func PromoCodeCreate(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo service unavailable"))
			return
		}

		var payload createPromoCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		discountType, err := enums.ParseDiscountType(payload.DiscountType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type"))
			return
		}

		isActive := true
		if payload.IsActive != nil {
			isActive = *payload.IsActive
		}

		code, err := svc.Create(r.Context(), promos.CreatePromoCodeInput{
			Code:              payload.Code,
			Description:       payload.Description,
			DiscountType:      discountType,
			DiscountValue:     payload.DiscountValue,
			MinOrderAmount:    payload.MinOrderAmount,
			MaxDiscountAmount: payload.MaxDiscountAmount,
			UsageLimit:        payload.UsageLimit,
			UserUsageLimit:    payload.UserUsageLimit,
			ValidFrom:         payload.ValidFrom,
			ValidUntil:        payload.ValidUntil,
			IsActive:          isActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toPromoCodeResponse(code))
	}
}

// PromoCodeUpdate mutates an existing promo code. The code string itself is
// immutable.
func PromoCodeUpdate(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "promoCodeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promo code id"))
			return
		}

		var payload updatePromoCodeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		code, err := svc.Update(r.Context(), id, promos.UpdatePromoCodeInput{
			Description:       payload.Description,
			DiscountValue:     payload.DiscountValue,
			MinOrderAmount:    payload.MinOrderAmount,
			MaxDiscountAmount: payload.MaxDiscountAmount,
			UsageLimit:        payload.UsageLimit,
			UserUsageLimit:    payload.UserUsageLimit,
			ValidFrom:         payload.ValidFrom,
			ValidUntil:        payload.ValidUntil,
			IsActive:          payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toPromoCodeResponse(code))
	}
}

// PromoCodeDeactivate turns a code off without touching its other settings.
func PromoCodeDeactivate(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "promoCodeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promo code id"))
			return
		}

		code, err := svc.Deactivate(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toPromoCodeResponse(code))
	}
}

// PromoCodeDelete removes a promo code entirely.
func PromoCodeDelete(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "promoCodeId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid promo code id"))
			return
		}

		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// PromoValidate checks a code against a cart subtotal without consuming it.
func PromoValidate(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo service unavailable"))
			return
		}

		var payload validatePromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Validate(r.Context(), promos.ValidateInput{
			Code:     payload.Code,
			Subtotal: payload.Subtotal,
			UserID:   payload.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, validatePromoResponse{
			PromoCodeID:    result.PromoCodeID,
			Code:           result.Code,
			DiscountAmount: result.DiscountAmount,
		})
	}
}

// PromoRedeem consumes one use of a code for a placed order.
func PromoRedeem(svc promos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "promo service unavailable"))
			return
		}

		var payload redeemPromoRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		redemption, err := svc.Redeem(r.Context(), promos.RedeemInput{
			Code:            payload.Code,
			UserID:          payload.UserID,
			OrderReference:  payload.OrderReference,
			Subtotal:        payload.Subtotal,
			DiscountApplied: payload.DiscountApplied,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toRedemptionResponse(redemption))
	}
}

type createPromoCodeRequest struct {
	Code              string           `json:"code" validate:"required"`
	Description       *string          `json:"description,omitempty"`
	DiscountType      string           `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue     decimal.Decimal  `json:"discount_value"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	UsageLimit        *int             `json:"usage_limit,omitempty"`
	UserUsageLimit    *int             `json:"user_usage_limit,omitempty"`
	ValidFrom         *time.Time       `json:"valid_from,omitempty"`
	ValidUntil        *time.Time       `json:"valid_until,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
}

type updatePromoCodeRequest struct {
	Description       *string          `json:"description,omitempty"`
	DiscountValue     *decimal.Decimal `json:"discount_value,omitempty"`
	MinOrderAmount    *decimal.Decimal `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	UsageLimit        *int             `json:"usage_limit,omitempty"`
	UserUsageLimit    *int             `json:"user_usage_limit,omitempty"`
	ValidFrom         *time.Time       `json:"valid_from,omitempty"`
	ValidUntil        *time.Time       `json:"valid_until,omitempty"`
	IsActive          *bool            `json:"is_active,omitempty"`
}

type validatePromoRequest struct {
	Code     string          `json:"code" validate:"required"`
	Subtotal decimal.Decimal `json:"subtotal"`
	UserID   string          `json:"user_id" validate:"required"`
}

type redeemPromoRequest struct {
	Code            string          `json:"code" validate:"required"`
	UserID          string          `json:"user_id" validate:"required"`
	OrderReference  string          `json:"order_reference" validate:"required"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
}

type promoCodeResponse struct {
	ID                uuid.UUID          `json:"id"`
	Code              string             `json:"code"`
	Description       *string            `json:"description,omitempty"`
	DiscountType      enums.DiscountType `json:"discount_type"`
	DiscountValue     decimal.Decimal    `json:"discount_value"`
	MinOrderAmount    *decimal.Decimal   `json:"min_order_amount,omitempty"`
	MaxDiscountAmount *decimal.Decimal   `json:"max_discount_amount,omitempty"`
	UsageLimit        *int               `json:"usage_limit,omitempty"`
	UserUsageLimit    *int               `json:"user_usage_limit,omitempty"`
	UsageCount        int                `json:"usage_count"`
	ValidFrom         *time.Time         `json:"valid_from,omitempty"`
	ValidUntil        *time.Time         `json:"valid_until,omitempty"`
	IsActive          bool               `json:"is_active"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

type promoCodeListResponse struct {
	Items      []promoCodeResponse `json:"items"`
	NextCursor *string             `json:"next_cursor,omitempty"`
}

type validatePromoResponse struct {
	PromoCodeID    uuid.UUID       `json:"promo_code_id"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

type redemptionResponse struct {
	ID              uuid.UUID       `json:"id"`
	PromoCodeID     uuid.UUID       `json:"promo_code_id"`
	UserID          string          `json:"user_id"`
	OrderReference  string          `json:"order_reference"`
	DiscountApplied decimal.Decimal `json:"discount_applied"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toPromoCodeResponse(code *models.PromoCode) promoCodeResponse {
	return promoCodeResponse{
		ID:                code.ID,
		Code:              code.Code,
		Description:       code.Description,
		DiscountType:      code.DiscountType,
		DiscountValue:     code.DiscountValue,
		MinOrderAmount:    code.MinOrderAmount,
		MaxDiscountAmount: code.MaxDiscountAmount,
		UsageLimit:        code.UsageLimit,
		UserUsageLimit:    code.UserUsageLimit,
		UsageCount:        code.UsageCount,
		ValidFrom:         code.ValidFrom,
		ValidUntil:        code.ValidUntil,
		IsActive:          code.IsActive,
		CreatedAt:         code.CreatedAt,
		UpdatedAt:         code.UpdatedAt,
	}
}

func toRedemptionResponse(redemption *models.PromoRedemption) redemptionResponse {
	return redemptionResponse{
		ID:              redemption.ID,
		PromoCodeID:     redemption.PromoCodeID,
		UserID:          redemption.UserID,
		OrderReference:  redemption.OrderReference,
		DiscountApplied: redemption.DiscountApplied,
		CreatedAt:       redemption.CreatedAt,
	}
}
