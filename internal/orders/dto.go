package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
)

// OrderLine is one requested product/quantity pair.
type OrderLine struct {
	ProductID uuid.UUID
	Quantity  int
}

// PlaceOrderInput carries one order placement request. PromoCode is optional;
// OrderReference is generated when empty.
type PlaceOrderInput struct {
	UserID         string
	OrderReference string
	PromoCode      string
	Lines          []OrderLine
}

// PlacedLine reports the committed stock movement for one line. Untracked
// products ship without a ledger entry, so NewQuantity stays nil.
type PlacedLine struct {
	ProductID   uuid.UUID
	Quantity    int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
	NewQuantity *int
}

// PlaceOrderResult is the committed outcome of the placement workflow.
type PlaceOrderResult struct {
	OrderReference string
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
	Lines          []PlacedLine
	Redemption     *models.PromoRedemption
}
