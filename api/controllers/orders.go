package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/api/responses"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/api/validators"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/orders"
	pkgerrors "github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/errors"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/logger"
)

// PlaceOrder runs the placement workflow: price the lines, redeem the promo
// code if one was given, then decrement stock per tracked line.
func PlaceOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload placeOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.PlaceOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, toPlaceOrderResponse(result))
	}
}

type placeOrderRequest struct {
	UserID         string             `json:"user_id" validate:"required"`
	OrderReference string             `json:"order_reference,omitempty"`
	PromoCode      string             `json:"promo_code,omitempty"`
	Lines          []orderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

type orderLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

func (r placeOrderRequest) toInput() (orders.PlaceOrderInput, error) {
	lines := make([]orders.OrderLine, 0, len(r.Lines))
	for _, line := range r.Lines {
		productID, err := uuid.Parse(line.ProductID)
		if err != nil {
			return orders.PlaceOrderInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id")
		}
		lines = append(lines, orders.OrderLine{
			ProductID: productID,
			Quantity:  line.Quantity,
		})
	}
	return orders.PlaceOrderInput{
		UserID:         r.UserID,
		OrderReference: r.OrderReference,
		PromoCode:      r.PromoCode,
		Lines:          lines,
	}, nil
}

type placedLineResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	NewQuantity *int            `json:"new_quantity,omitempty"`
}

type placeOrderResponse struct {
	OrderReference string               `json:"order_reference"`
	Subtotal       decimal.Decimal      `json:"subtotal"`
	Discount       decimal.Decimal      `json:"discount"`
	Total          decimal.Decimal      `json:"total"`
	Lines          []placedLineResponse `json:"lines"`
	Redemption     *redemptionResponse  `json:"redemption,omitempty"`
}

func toPlaceOrderResponse(result *orders.PlaceOrderResult) placeOrderResponse {
	lines := make([]placedLineResponse, 0, len(result.Lines))
	for _, line := range result.Lines {
		lines = append(lines, placedLineResponse{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			LineTotal:   line.LineTotal,
			NewQuantity: line.NewQuantity,
		})
	}
	resp := placeOrderResponse{
		OrderReference: result.OrderReference,
		Subtotal:       result.Subtotal,
		Discount:       result.Discount,
		Total:          result.Total,
		Lines:          lines,
	}
	if result.Redemption != nil {
		converted := toRedemptionResponse(result.Redemption)
		resp.Redemption = &converted
	}
	return resp
}
