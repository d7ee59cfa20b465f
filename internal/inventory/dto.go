package inventory

import (
	"github.com/google/uuid"

	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/db/models"
	"github.com/yacbhl71/DELICES-DALGERIE-sub001/pkg/enums"
)

// AdjustStockInput carries one requested mutation of a product's quantity.
type AdjustStockInput struct {
	ProductID uuid.UUID
	Type      enums.AdjustmentType
	Quantity  int
	Reason    string
	Notes     *string
	ActorID   uuid.UUID
}

// AdjustResult returns the committed quantity and the ledger entry written
// alongside it.
type AdjustResult struct {
	NewQuantity int
	Adjustment  models.StockAdjustment
}

// ProductWithStatus pairs a product with its derived stock status.
type ProductWithStatus struct {
	Product models.Product
	Status  enums.StockStatus
}

// AdjustmentList is one cursor page over a product's adjustment log.
type AdjustmentList struct {
	Items      []models.StockAdjustment
	NextCursor *string
}

// StatusFor derives the stock status for a product at read time.
func StatusFor(product *models.Product) enums.StockStatus {
	switch {
	case !product.TrackInventory:
		return enums.StockStatusUntracked
	case product.StockQuantity == 0:
		return enums.StockStatusOutOfStock
	case product.StockQuantity <= product.LowStockThreshold:
		return enums.StockStatusLowStock
	default:
		return enums.StockStatusInStock
	}
}
