package promos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/config"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
	pkgerrors "github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/errors"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/metrics"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes promo validation and redemption plus the admin surface
// over code definitions. The engine is the sole writer of usage_count and
// the redemption log.
type Service interface {
	Validate(ctx context.Context, input ValidateInput) (*ValidationResult, error)
	Redeem(ctx context.Context, input RedeemInput) (*models.PromoRedemption, error)
	Create(ctx context.Context, input CreatePromoCodeInput) (*models.PromoCode, error)
	Update(ctx context.Context, id uuid.UUID, input UpdatePromoCodeInput) (*models.PromoCode, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*models.PromoCode, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, params pagination.Params) (*PromoCodeList, error)
}

type service struct {
	repo       Repository
	tx         txRunner
	metrics    *metrics.EngineMetrics
	maxRetries int
	retryDelay time.Duration
}

// NewService builds the promo engine service with the required dependencies.
func NewService(repo Repository, tx txRunner, engineMetrics *metrics.EngineMetrics, cfg config.PromoConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promos repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		metrics:    engineMetrics,
		maxRetries: cfg.RedeemMaxRetries,
		retryDelay: cfg.RedeemRetryDelay,
	}, nil
}

// errStaleUsage signals a lost optimistic write race inside the retry loop.
var errStaleUsage = errors.New("stale usage count")

func (s *service) Validate(ctx context.Context, input ValidateInput) (*ValidationResult, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code required")
	}
	if input.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be non-negative")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}

	if err := s.checkRedeemable(ctx, s.repo, promo, input.UserID, input.Subtotal, now); err != nil {
		return nil, err
	}

	return &ValidationResult{
		PromoCodeID:    promo.ID,
		Code:           promo.Code,
		DiscountAmount: ComputeDiscount(promo, input.Subtotal),
	}, nil
}

func (s *service) Redeem(ctx context.Context, input RedeemInput) (*models.PromoRedemption, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code required")
	}
	if strings.TrimSpace(input.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if strings.TrimSpace(input.OrderReference) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order reference required")
	}
	if input.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must be non-negative")
	}
	if input.DiscountApplied.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount must be non-negative")
	}
	now := input.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var result *models.PromoRedemption
	backoff := retry.WithMaxRetries(uint64(s.maxRetries), retry.NewConstant(s.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			promo, err := repo.FindByCode(ctx, code)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
			}

			// conditions may have drifted since the paired Validate; fail the
			// same way Validate would
			if err := s.checkRedeemable(ctx, repo, promo, input.UserID, input.Subtotal, now); err != nil {
				return err
			}

			expected := ComputeDiscount(promo, input.Subtotal)
			if !expected.Equal(input.DiscountApplied) {
				return pkgerrors.New(pkgerrors.CodePreconditionChanged, "discount changed since validation").
					WithDetails(map[string]string{"reason": ReasonDiscountDrifted})
			}

			ok, err := repo.IncrementUsage(ctx, promo.ID, promo.UsageCount)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment usage count")
			}
			if !ok {
				return errStaleUsage
			}

			redemption := &models.PromoRedemption{
				PromoCodeID:     promo.ID,
				UserID:          strings.TrimSpace(input.UserID),
				OrderReference:  strings.TrimSpace(input.OrderReference),
				DiscountApplied: input.DiscountApplied,
			}
			if err := repo.CreateRedemption(ctx, redemption); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append redemption")
			}

			result = redemption
			return nil
		})
		if errors.Is(txErr, errStaleUsage) {
			s.metrics.IncRetry("redeem")
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	if err != nil {
		if errors.Is(err, errStaleUsage) {
			s.metrics.IncRedemption("transient_conflict")
			return nil, pkgerrors.New(pkgerrors.CodeTransientConflict, "redemption contention, retry the request")
		}
		s.metrics.IncRedemption(outcomeLabel(err))
		return nil, err
	}

	s.metrics.IncRedemption("success")
	return result, nil
}

// checkRedeemable evaluates the shared Validate/Redeem conditions in their
// fixed order: inactive, window, usage limit, per-user limit, minimum order.
func (s *service) checkRedeemable(ctx context.Context, repo Repository, promo *models.PromoCode, userID string, subtotal decimal.Decimal, now time.Time) error {
	if !promo.IsActive {
		return conflict(ReasonInactive, "promo code is inactive")
	}
	if (promo.ValidFrom != nil && now.Before(*promo.ValidFrom)) ||
		(promo.ValidUntil != nil && now.After(*promo.ValidUntil)) {
		return conflict(ReasonNotInWindow, "promo code is expired or not yet valid")
	}
	if promo.UsageLimit != nil && promo.UsageCount >= *promo.UsageLimit {
		return conflict(ReasonUsageLimit, "promo code usage limit reached")
	}
	if promo.UserUsageLimit != nil {
		count, err := repo.CountUserRedemptions(ctx, promo.ID, strings.TrimSpace(userID))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count user redemptions")
		}
		if count >= int64(*promo.UserUsageLimit) {
			return conflict(ReasonUserUsageLimit, "promo code user limit reached")
		}
	}
	if promo.MinOrderAmount != nil && subtotal.LessThan(*promo.MinOrderAmount) {
		return conflict(ReasonMinimumOrder, "order subtotal below the promo code minimum")
	}
	return nil
}

func (s *service) Create(ctx context.Context, input CreatePromoCodeInput) (*models.PromoCode, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code required")
	}
	if !input.DiscountType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid discount type")
	}
	if !input.DiscountValue.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
	}
	if input.DiscountType == enums.DiscountTypePercentage && input.DiscountValue.GreaterThan(hundred) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
	}
	if err := validateOptionalAmounts(input.MinOrderAmount, input.MaxDiscountAmount); err != nil {
		return nil, err
	}
	if err := validateOptionalLimits(input.UsageLimit, input.UserUsageLimit); err != nil {
		return nil, err
	}
	if err := validateWindow(input.ValidFrom, input.ValidUntil); err != nil {
		return nil, err
	}

	promo := &models.PromoCode{
		Code:              code,
		Description:       input.Description,
		DiscountType:      input.DiscountType,
		DiscountValue:     input.DiscountValue,
		MinOrderAmount:    input.MinOrderAmount,
		MaxDiscountAmount: input.MaxDiscountAmount,
		UsageLimit:        input.UsageLimit,
		UserUsageLimit:    input.UserUsageLimit,
		ValidFrom:         input.ValidFrom,
		ValidUntil:        input.ValidUntil,
		IsActive:          input.IsActive,
	}
	if err := s.repo.Create(ctx, promo); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promo code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create promo code")
	}
	return promo, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdatePromoCodeInput) (*models.PromoCode, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "promo code id required")
	}

	promo, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}

	if input.Description != nil {
		promo.Description = input.Description
	}
	if input.DiscountValue != nil {
		if !input.DiscountValue.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount value must be positive")
		}
		if promo.DiscountType == enums.DiscountTypePercentage && input.DiscountValue.GreaterThan(hundred) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "percentage discount cannot exceed 100")
		}
		promo.DiscountValue = *input.DiscountValue
	}
	if input.MinOrderAmount != nil {
		promo.MinOrderAmount = input.MinOrderAmount
	}
	if input.MaxDiscountAmount != nil {
		promo.MaxDiscountAmount = input.MaxDiscountAmount
	}
	if err := validateOptionalAmounts(promo.MinOrderAmount, promo.MaxDiscountAmount); err != nil {
		return nil, err
	}
	if input.UsageLimit != nil {
		if *input.UsageLimit < promo.UsageCount {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "usage limit cannot drop below recorded redemptions")
		}
		promo.UsageLimit = input.UsageLimit
	}
	if input.UserUsageLimit != nil {
		promo.UserUsageLimit = input.UserUsageLimit
	}
	if err := validateOptionalLimits(promo.UsageLimit, promo.UserUsageLimit); err != nil {
		return nil, err
	}
	if input.ValidFrom != nil {
		promo.ValidFrom = input.ValidFrom
	}
	if input.ValidUntil != nil {
		promo.ValidUntil = input.ValidUntil
	}
	if err := validateWindow(promo.ValidFrom, promo.ValidUntil); err != nil {
		return nil, err
	}
	if input.IsActive != nil {
		promo.IsActive = *input.IsActive
	}

	if err := s.repo.Save(ctx, promo); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save promo code")
	}
	return promo, nil
}

func (s *service) Deactivate(ctx context.Context, id uuid.UUID) (*models.PromoCode, error) {
	inactive := false
	return s.Update(ctx, id, UpdatePromoCodeInput{IsActive: &inactive})
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "promo code id required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete promo code")
	}
	return nil
}

func (s *service) List(ctx context.Context, params pagination.Params) (*PromoCodeList, error) {
	list, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list promo codes")
	}
	return list, nil
}

// NormalizeCode uppercases and trims a raw promo code so lookups stay a
// plain equality check.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func conflict(reason, message string) error {
	return pkgerrors.New(pkgerrors.CodeConflict, message).
		WithDetails(map[string]string{"reason": reason})
}

func validateOptionalAmounts(minOrder, maxDiscount *decimal.Decimal) error {
	if minOrder != nil && minOrder.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "minimum order amount must be non-negative")
	}
	if maxDiscount != nil && !maxDiscount.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "maximum discount amount must be positive")
	}
	return nil
}

func validateOptionalLimits(usageLimit, userUsageLimit *int) error {
	if usageLimit != nil && *usageLimit <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "usage limit must be positive")
	}
	if userUsageLimit != nil && *userUsageLimit <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user usage limit must be positive")
	}
	return nil
}

func validateWindow(from, until *time.Time) error {
	if from != nil && until != nil && !from.Before(*until) {
		return pkgerrors.New(pkgerrors.CodeValidation, "valid_from must precede valid_until")
	}
	return nil
}

func outcomeLabel(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}
