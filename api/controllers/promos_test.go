package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/promos"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	pkgerrors "github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/errors"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/pagination"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/types"
)

type stubPromoService struct {
	validateFn func(ctx context.Context, input promos.ValidateInput) (*promos.ValidationResult, error)
	redeemFn   func(ctx context.Context, input promos.RedeemInput) (*models.PromoRedemption, error)
	createFn   func(ctx context.Context, input promos.CreatePromoCodeInput) (*models.PromoCode, error)
}

func (s stubPromoService) Validate(ctx context.Context, input promos.ValidateInput) (*promos.ValidationResult, error) {
	if s.validateFn != nil {
		return s.validateFn(ctx, input)
	}
	panic("unimplemented")
}

func (s stubPromoService) Redeem(ctx context.Context, input promos.RedeemInput) (*models.PromoRedemption, error) {
	if s.redeemFn != nil {
		return s.redeemFn(ctx, input)
	}
	panic("unimplemented")
}

func (s stubPromoService) Create(ctx context.Context, input promos.CreatePromoCodeInput) (*models.PromoCode, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	panic("unimplemented")
}

func (s stubPromoService) Update(ctx context.Context, id uuid.UUID, input promos.UpdatePromoCodeInput) (*models.PromoCode, error) {
	panic("unimplemented")
}

func (s stubPromoService) Deactivate(ctx context.Context, id uuid.UUID) (*models.PromoCode, error) {
	panic("unimplemented")
}

func (s stubPromoService) Delete(ctx context.Context, id uuid.UUID) error {
	panic("unimplemented")
}

func (s stubPromoService) List(ctx context.Context, params pagination.Params) (*promos.PromoCodeList, error) {
	return &promos.PromoCodeList{}, nil
}

func TestPromoValidateHappyPath(t *testing.T) {
	promoID := uuid.New()
	svc := stubPromoService{
		validateFn: func(_ context.Context, input promos.ValidateInput) (*promos.ValidationResult, error) {
			if input.Code != "SUMMER2025" {
				t.Fatalf("unexpected code %q", input.Code)
			}
			if !input.Subtotal.Equal(decimal.RequireFromString("100.00")) {
				t.Fatalf("unexpected subtotal %s", input.Subtotal)
			}
			return &promos.ValidationResult{
				PromoCodeID:    promoID,
				Code:           input.Code,
				DiscountAmount: decimal.RequireFromString("15.00"),
			}, nil
		},
	}

	body := `{"code":"SUMMER2025","subtotal":"100.00","user_id":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/promo-codes/validate", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PromoValidate(svc, nil)(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data validatePromoResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.PromoCodeID != promoID {
		t.Fatalf("unexpected promo code id %s", envelope.Data.PromoCodeID)
	}
	if !envelope.Data.DiscountAmount.Equal(decimal.RequireFromString("15.00")) {
		t.Fatalf("unexpected discount %s", envelope.Data.DiscountAmount)
	}
}

func TestPromoValidateSurfacesConflictReason(t *testing.T) {
	svc := stubPromoService{
		validateFn: func(_ context.Context, _ promos.ValidateInput) (*promos.ValidationResult, error) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "usage limit reached").
				WithDetails(map[string]string{"reason": promos.ReasonUsageLimit})
		},
	}

	body := `{"code":"SUMMER2025","subtotal":"100.00","user_id":"user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/promo-codes/validate", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PromoValidate(svc, nil)(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	details, ok := envelope.Error.Details.(map[string]any)
	if !ok || details["reason"] != promos.ReasonUsageLimit {
		t.Fatalf("expected usage limit reason, got %#v", envelope.Error.Details)
	}
}

func TestPromoRedeemReturnsCreated(t *testing.T) {
	svc := stubPromoService{
		redeemFn: func(_ context.Context, input promos.RedeemInput) (*models.PromoRedemption, error) {
			return &models.PromoRedemption{
				ID:              uuid.New(),
				PromoCodeID:     uuid.New(),
				UserID:          input.UserID,
				OrderReference:  input.OrderReference,
				DiscountApplied: input.DiscountApplied,
			}, nil
		},
	}

	body := `{"code":"SUMMER2025","user_id":"user-1","order_reference":"ord-1","subtotal":"100.00","discount_applied":"15.00"}`
	req := httptest.NewRequest(http.MethodPost, "/promo-codes/redeem", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PromoRedeem(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data redemptionResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.OrderReference != "ord-1" {
		t.Fatalf("unexpected order reference %q", envelope.Data.OrderReference)
	}
}

func TestPromoRedeemRejectsMissingOrderReference(t *testing.T) {
	svc := stubPromoService{}

	body := `{"code":"SUMMER2025","user_id":"user-1","subtotal":"100.00","discount_applied":"15.00"}`
	req := httptest.NewRequest(http.MethodPost, "/promo-codes/redeem", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PromoRedeem(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPromoCodeCreateParsesPayload(t *testing.T) {
	svc := stubPromoService{
		createFn: func(_ context.Context, input promos.CreatePromoCodeInput) (*models.PromoCode, error) {
			if input.DiscountType.String() != "percentage" {
				t.Fatalf("unexpected discount type %s", input.DiscountType)
			}
			if !input.IsActive {
				t.Fatal("expected is_active to default to true")
			}
			return &models.PromoCode{
				ID:            uuid.New(),
				Code:          "SUMMER2025",
				DiscountType:  input.DiscountType,
				DiscountValue: input.DiscountValue,
				IsActive:      input.IsActive,
			}, nil
		},
	}

	body := `{"code":"summer2025","discount_type":"percentage","discount_value":"20","max_discount_amount":"15"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/promo-codes", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PromoCodeCreate(svc, nil)(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestPromoCodeCreateRejectsUnknownDiscountType(t *testing.T) {
	svc := stubPromoService{}

	body := `{"code":"summer2025","discount_type":"bogus","discount_value":"20"}`
	req := httptest.NewRequest(http.MethodPost, "/admin/promo-codes", strings.NewReader(body))
	resp := httptest.NewRecorder()
	PromoCodeCreate(svc, nil)(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
