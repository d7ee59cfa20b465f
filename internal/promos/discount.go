package promos

import (
	"github.com/shopspring/decimal"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// ComputeDiscount returns the discount a code grants on the subtotal,
// rounded half to even at two decimal places. A fixed discount never exceeds
// the subtotal; a percentage discount is capped at max_discount_amount when
// one is set.
func ComputeDiscount(code *models.PromoCode, subtotal decimal.Decimal) decimal.Decimal {
	var raw decimal.Decimal
	switch code.DiscountType {
	case enums.DiscountTypeFixed:
		raw = decimal.Min(code.DiscountValue, subtotal)
	case enums.DiscountTypePercentage:
		raw = subtotal.Mul(code.DiscountValue).Div(hundred)
		if code.MaxDiscountAmount != nil {
			raw = decimal.Min(raw, *code.MaxDiscountAmount)
		}
	default:
		return decimal.Zero
	}
	if raw.IsNegative() {
		return decimal.Zero.Round(2)
	}
	return raw.RoundBank(2)
}
