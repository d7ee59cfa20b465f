package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/config"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
	pkgerrors "github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/errors"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/metrics"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service exposes the stock ledger operations. The ledger is the sole writer
// of product quantities; every mutation lands as an append-only adjustment.
type Service interface {
	Adjust(ctx context.Context, input AdjustStockInput) (*AdjustResult, error)
	Query(ctx context.Context, filter enums.StockFilter) ([]ProductWithStatus, error)
	ListAdjustments(ctx context.Context, productID uuid.UUID, params pagination.Params) (*AdjustmentList, error)
}

type service struct {
	repo          Repository
	tx            txRunner
	metrics       *metrics.EngineMetrics
	maxRetries    int
	retryDelay    time.Duration
	lowStockLimit int
}

// NewService builds the stock ledger service with the required dependencies.
func NewService(repo Repository, tx txRunner, engineMetrics *metrics.EngineMetrics, cfg config.InventoryConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:          repo,
		tx:            tx,
		metrics:       engineMetrics,
		maxRetries:    cfg.AdjustMaxRetries,
		retryDelay:    cfg.AdjustRetryDelay,
		lowStockLimit: cfg.LowStockPageLimit,
	}, nil
}

// errStaleStock signals a lost optimistic write race inside the retry loop.
var errStaleStock = errors.New("stale stock quantity")

func (s *service) Adjust(ctx context.Context, input AdjustStockInput) (*AdjustResult, error) {
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid adjustment type")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be non-negative")
	}
	if strings.TrimSpace(input.Reason) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id required")
	}

	var result *AdjustResult
	backoff := retry.WithMaxRetries(uint64(s.maxRetries), retry.NewConstant(s.retryDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			product, err := repo.FindProduct(ctx, input.ProductID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
			}
			if !product.TrackInventory {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "inventory is not tracked for this product")
			}

			next, err := nextQuantity(product.StockQuantity, input.Type, input.Quantity)
			if err != nil {
				return err
			}

			ok, err := repo.CompareAndSetStock(ctx, product.ID, product.StockQuantity, next)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply stock quantity")
			}
			if !ok {
				return errStaleStock
			}

			adjustment := &models.StockAdjustment{
				ProductID:         product.ID,
				AdjustmentType:    input.Type,
				Quantity:          input.Quantity,
				ResultingQuantity: next,
				Reason:            strings.TrimSpace(input.Reason),
				Notes:             input.Notes,
				ActorID:           input.ActorID,
			}
			if err := repo.CreateAdjustment(ctx, adjustment); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append stock adjustment")
			}

			result = &AdjustResult{NewQuantity: next, Adjustment: *adjustment}
			return nil
		})
		if errors.Is(txErr, errStaleStock) {
			s.metrics.IncRetry("adjust_stock")
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	if err != nil {
		if errors.Is(err, errStaleStock) {
			s.metrics.IncAdjustment(input.Type.String(), "transient_conflict")
			return nil, pkgerrors.New(pkgerrors.CodeTransientConflict, "stock update contention, retry the adjustment")
		}
		s.metrics.IncAdjustment(input.Type.String(), outcomeLabel(err))
		return nil, err
	}

	s.metrics.IncAdjustment(input.Type.String(), "success")
	return result, nil
}

func (s *service) Query(ctx context.Context, filter enums.StockFilter) ([]ProductWithStatus, error) {
	if !filter.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid stock filter")
	}

	// the filtered views feed the restock dashboard and get capped; the full
	// catalog listing stays unbounded
	limit := 0
	if filter != enums.StockFilterAll {
		limit = s.lowStockLimit
	}
	products, err := s.repo.ListProducts(ctx, filter, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	out := make([]ProductWithStatus, 0, len(products))
	for i := range products {
		out = append(out, ProductWithStatus{
			Product: products[i],
			Status:  StatusFor(&products[i]),
		})
	}
	return out, nil
}

func (s *service) ListAdjustments(ctx context.Context, productID uuid.UUID, params pagination.Params) (*AdjustmentList, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
	}

	if _, err := s.repo.FindProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	list, err := s.repo.ListAdjustments(ctx, productID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list adjustments")
	}
	return list, nil
}

func nextQuantity(current int, adjustmentType enums.AdjustmentType, quantity int) (int, error) {
	switch adjustmentType {
	case enums.AdjustmentTypeIncrease:
		return current + quantity, nil
	case enums.AdjustmentTypeDecrease:
		next := current - quantity
		if next < 0 {
			return 0, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock")
		}
		return next, nil
	case enums.AdjustmentTypeSet:
		return quantity, nil
	default:
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid adjustment type")
	}
}

func outcomeLabel(err error) string {
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return "error"
}
