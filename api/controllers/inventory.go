package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/api/middleware"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/api/responses"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/api/validators"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/internal/inventory"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
	pkgerrors "github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/errors"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/logger"
)

// InventoryQuery lists products with their derived stock status, optionally
// narrowed to low or out of stock.
func InventoryQuery(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		filter, err := validators.ParseStockFilter(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.Query(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]inventoryItemResponse, 0, len(items))
		for _, item := range items {
			payload = append(payload, toInventoryItemResponse(item))
		}
		responses.WriteSuccess(w, payload)
	}
}

// InventoryAdjust applies one stock adjustment to a product and returns the
// committed quantity together with the ledger entry.
func InventoryAdjust(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		adjustmentType, err := enums.ParseAdjustmentType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid adjustment type"))
			return
		}

		result, err := svc.Adjust(r.Context(), inventory.AdjustStockInput{
			ProductID: productID,
			Type:      adjustmentType,
			Quantity:  payload.Quantity,
			Reason:    payload.Reason,
			Notes:     payload.Notes,
			ActorID:   actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, adjustResultResponse{
			NewQuantity: result.NewQuantity,
			Adjustment:  toAdjustmentResponse(result.Adjustment),
		})
	}
}

// InventoryAdjustments pages through a product's adjustment history, newest
// first.
func InventoryAdjustments(svc inventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productID, err := uuid.Parse(chi.URLParam(r, "productId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product id"))
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.ListAdjustments(r.Context(), productID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]adjustmentResponse, 0, len(page.Items))
		for _, adjustment := range page.Items {
			items = append(items, toAdjustmentResponse(adjustment))
		}
		responses.WriteSuccess(w, adjustmentListResponse{
			Items:      items,
			NextCursor: page.NextCursor,
		})
	}
}

func actorFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ActorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "actor id header required")
	}
	actorID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actor id")
	}
	return actorID, nil
}

type adjustStockRequest struct {
	Type     string  `json:"type" validate:"required,oneof=increase decrease set"`
	Quantity int     `json:"quantity" validate:"min=0"`
	Reason   string  `json:"reason" validate:"required"`
	Notes    *string `json:"notes,omitempty"`
}

type inventoryItemResponse struct {
	ID                uuid.UUID         `json:"id"`
	Name              string            `json:"name"`
	Slug              string            `json:"slug"`
	Price             decimal.Decimal   `json:"price"`
	StockQuantity     int               `json:"stock_quantity"`
	LowStockThreshold int               `json:"low_stock_threshold"`
	TrackInventory    bool              `json:"track_inventory"`
	IsActive          bool              `json:"is_active"`
	Status            enums.StockStatus `json:"status"`
	UpdatedAt         time.Time         `json:"updated_at"`
}

type adjustmentResponse struct {
	ID                uuid.UUID            `json:"id"`
	ProductID         uuid.UUID            `json:"product_id"`
	Type              enums.AdjustmentType `json:"type"`
	Quantity          int                  `json:"quantity"`
	ResultingQuantity int                  `json:"resulting_quantity"`
	Reason            string               `json:"reason"`
	Notes             *string              `json:"notes,omitempty"`
	ActorID           uuid.UUID            `json:"actor_id"`
	CreatedAt         time.Time            `json:"created_at"`
}

type adjustResultResponse struct {
	NewQuantity int                `json:"new_quantity"`
	Adjustment  adjustmentResponse `json:"adjustment"`
}

type adjustmentListResponse struct {
	Items      []adjustmentResponse `json:"items"`
	NextCursor *string              `json:"next_cursor,omitempty"`
}

func toInventoryItemResponse(item inventory.ProductWithStatus) inventoryItemResponse {
	return inventoryItemResponse{
		ID:                item.Product.ID,
		Name:              item.Product.Name,
		Slug:              item.Product.Slug,
		Price:             item.Product.Price,
		StockQuantity:     item.Product.StockQuantity,
		LowStockThreshold: item.Product.LowStockThreshold,
		TrackInventory:    item.Product.TrackInventory,
		IsActive:          item.Product.IsActive,
		Status:            item.Status,
		UpdatedAt:         item.Product.UpdatedAt,
	}
}

func toAdjustmentResponse(adjustment models.StockAdjustment) adjustmentResponse {
	return adjustmentResponse{
		ID:                adjustment.ID,
		ProductID:         adjustment.ProductID,
		Type:              adjustment.AdjustmentType,
		Quantity:          adjustment.Quantity,
		ResultingQuantity: adjustment.ResultingQuantity,
		Reason:            adjustment.Reason,
		Notes:             adjustment.Notes,
		ActorID:           adjustment.ActorID,
		CreatedAt:         adjustment.CreatedAt,
	}
}
