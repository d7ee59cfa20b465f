package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/inventory"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/promos"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
	pkgerrors "github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/errors"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/logger"
)

// systemActor stamps ledger entries written by the placement workflow rather
// than an admin.
var systemActor = uuid.NewSHA1(uuid.NameSpaceURL, []byte("delices/orders/system"))

// ProductCatalog reads product definitions for pricing. Satisfied by the
// inventory repository.
type ProductCatalog interface {
	FindProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// PromoEngine is the slice of the promo service the workflow drives.
type PromoEngine interface {
	Validate(ctx context.Context, input promos.ValidateInput) (*promos.ValidationResult, error)
	Redeem(ctx context.Context, input promos.RedeemInput) (*models.PromoRedemption, error)
}

// StockLedger is the slice of the inventory service the workflow drives.
type StockLedger interface {
	Adjust(ctx context.Context, input inventory.AdjustStockInput) (*inventory.AdjustResult, error)
}

// Service sequences promo redemption and stock decrements for one order.
// The two engines never call each other; this workflow owns the ordering and
// the compensation on partial failure.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error)
}

type service struct {
	catalog ProductCatalog
	promo   PromoEngine
	ledger  StockLedger
	logg    *logger.Logger
}

// NewService builds the order placement workflow with the required dependencies.
func NewService(catalog ProductCatalog, promo PromoEngine, ledger StockLedger, logg *logger.Logger) (Service, error) {
	if catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if promo == nil {
		return nil, fmt.Errorf("promo engine required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		catalog: catalog,
		promo:   promo,
		ledger:  ledger,
		logg:    logg,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*PlaceOrderResult, error) {
	if strings.TrimSpace(input.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must contain at least one line")
	}
	seen := map[uuid.UUID]bool{}
	for _, line := range input.Lines {
		if line.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line product id required")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "line quantity must be positive")
		}
		if seen[line.ProductID] {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate product in order lines")
		}
		seen[line.ProductID] = true
	}

	orderRef := strings.TrimSpace(input.OrderReference)
	if orderRef == "" {
		orderRef = "ord-" + uuid.NewString()
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"order_reference": orderRef, "user_id": input.UserID})

	products, subtotal, err := s.priceLines(ctx, input.Lines)
	if err != nil {
		return nil, err
	}

	result := &PlaceOrderResult{
		OrderReference: orderRef,
		Subtotal:       subtotal,
		Discount:       decimal.Zero.Round(2),
	}

	if code := strings.TrimSpace(input.PromoCode); code != "" {
		validated, err := s.promo.Validate(ctx, promos.ValidateInput{
			Code:     code,
			Subtotal: subtotal,
			UserID:   input.UserID,
		})
		if err != nil {
			return nil, err
		}
		redemption, err := s.promo.Redeem(ctx, promos.RedeemInput{
			Code:            code,
			UserID:          input.UserID,
			OrderReference:  orderRef,
			Subtotal:        subtotal,
			DiscountApplied: validated.DiscountAmount,
		})
		if err != nil {
			return nil, err
		}
		result.Discount = validated.DiscountAmount
		result.Redemption = redemption
	}
	result.Total = subtotal.Sub(result.Discount).RoundBank(2)

	decremented, err := s.decrementLines(ctx, orderRef, input.Lines, products, result)
	if err != nil {
		compErr := s.compensate(ctx, orderRef, decremented)
		if result.Redemption != nil {
			// usage_count is not rolled back; the redemption stands even
			// though the order failed
			s.logg.Warn(ctx, fmt.Sprintf("promo redemption %s is non-reversible after failed order", result.Redemption.ID))
		}
		return nil, multierr.Append(err, compErr)
	}

	return result, nil
}

func (s *service) priceLines(ctx context.Context, lines []OrderLine) (map[uuid.UUID]*models.Product, decimal.Decimal, error) {
	products := make(map[uuid.UUID]*models.Product, len(lines))
	subtotal := decimal.Zero
	for _, line := range lines {
		product, err := s.catalog.FindProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
			}
			return nil, decimal.Zero, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		if !product.IsActive {
			return nil, decimal.Zero, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available")
		}
		products[line.ProductID] = product
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return products, subtotal.RoundBank(2), nil
}

func (s *service) decrementLines(ctx context.Context, orderRef string, lines []OrderLine, products map[uuid.UUID]*models.Product, result *PlaceOrderResult) ([]OrderLine, error) {
	var decremented []OrderLine
	for _, line := range lines {
		product := products[line.ProductID]
		placed := PlacedLine{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
			LineTotal: product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))).RoundBank(2),
		}
		if product.TrackInventory {
			adjusted, err := s.ledger.Adjust(ctx, inventory.AdjustStockInput{
				ProductID: line.ProductID,
				Type:      enums.AdjustmentTypeDecrease,
				Quantity:  line.Quantity,
				Reason:    "order " + orderRef,
				ActorID:   systemActor,
			})
			if err != nil {
				return decremented, err
			}
			decremented = append(decremented, line)
			placed.NewQuantity = &adjusted.NewQuantity
		}
		result.Lines = append(result.Lines, placed)
	}
	return decremented, nil
}

// compensate restores stock for lines that were already decremented before
// a later line failed.
func (s *service) compensate(ctx context.Context, orderRef string, decremented []OrderLine) error {
	var combined error
	for _, line := range decremented {
		_, err := s.ledger.Adjust(ctx, inventory.AdjustStockInput{
			ProductID: line.ProductID,
			Type:      enums.AdjustmentTypeIncrease,
			Quantity:  line.Quantity,
			Reason:    "compensation " + orderRef,
			ActorID:   systemActor,
		})
		if err != nil {
			s.logg.Error(ctx, fmt.Sprintf("compensating increase failed for product %s", line.ProductID), err)
			combined = multierr.Append(combined, err)
		}
	}
	return combined
}
