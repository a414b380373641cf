package domain

import "github.com/shopspring/decimal"

// Default price filter bounds
var (
	DefaultPriceMin = decimal.Zero
	DefaultPriceMax = decimal.NewFromInt(1000)
)

// PriceRange is a closed price interval
type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// IsDefault reports whether the range equals the default [0, 1000]
func (r PriceRange) IsDefault() bool {
	return r.Min.Equal(DefaultPriceMin) && r.Max.Equal(DefaultPriceMax)
}

// Filters is the declarative product filter state
type Filters struct {
	Categories  []string   `json:"categories"`
	Tags        []string   `json:"tags"`
	Ratings     []float64  `json:"ratings"`
	PriceRange  PriceRange `json:"priceRange"`
	InStockOnly bool       `json:"inStock"`
}

// DefaultFilters returns filters that select every product
func DefaultFilters() Filters {
	return Filters{
		PriceRange: PriceRange{Min: DefaultPriceMin, Max: DefaultPriceMax},
	}
}

// SortOption selects a product ordering
type SortOption string

// Supported sort options
const (
	SortFeatured   SortOption = "featured"
	SortNewest     SortOption = "newest"
	SortPriceAsc   SortOption = "price-asc"
	SortPriceDesc  SortOption = "price-desc"
	SortRatingDesc SortOption = "rating-desc"
	SortNameAsc    SortOption = "name-asc"
	SortNameDesc   SortOption = "name-desc"
)

// ParseSortOption maps a query value to a SortOption; empty means featured
func ParseSortOption(s string) (SortOption, bool) {
	switch opt := SortOption(s); opt {
	case "":
		return SortFeatured, true
	case SortFeatured, SortNewest, SortPriceAsc, SortPriceDesc, SortRatingDesc, SortNameAsc, SortNameDesc:
		return opt, true
	default:
		return "", false
	}
}
