package enums

import "fmt"

// StockStatus is the derived availability state of a product. It is computed
// from the stored quantity and threshold at read time, never persisted.
type StockStatus string

const (
	StockStatusUntracked  StockStatus = "untracked"
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusLowStock   StockStatus = "low_stock"
	StockStatusInStock    StockStatus = "in_stock"
)

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}

// StockFilter narrows inventory listings to a derived-status bucket.
type StockFilter string

const (
	StockFilterAll        StockFilter = "all"
	StockFilterLowStock   StockFilter = "low_stock"
	StockFilterOutOfStock StockFilter = "out_of_stock"
)

var validStockFilters = []StockFilter{
	StockFilterAll,
	StockFilterLowStock,
	StockFilterOutOfStock,
}

// String implements fmt.Stringer.
func (f StockFilter) String() string {
	return string(f)
}

// IsValid reports whether the value is a known StockFilter.
func (f StockFilter) IsValid() bool {
	for _, candidate := range validStockFilters {
		if candidate == f {
			return true
		}
	}
	return false
}

// ParseStockFilter converts raw input into a StockFilter. Empty input maps to
// the "all" filter.
func ParseStockFilter(value string) (StockFilter, error) {
	if value == "" {
		return StockFilterAll, nil
	}
	for _, candidate := range validStockFilters {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock filter %q", value)
}
