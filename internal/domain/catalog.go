package domain

// Catalog sources
const (
	CatalogSourceShopify  = "shopify"
	CatalogSourceDemo     = "demo"
	CatalogSourceFixtures = "fixtures"
)

// ListOptions selects and orders a page of the catalog
type ListOptions struct {
	Query   string
	Filters Filters
	Sort    SortOption
	Page    int
	PerPage int
}

// ProductPage is one page of a filtered, sorted product listing.
// Error carries the platform failure when the fixtures were served instead.
type ProductPage struct {
	Products   []Product `json:"products"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PerPage    int       `json:"perPage"`
	TotalPages int       `json:"totalPages"`
	Source     string    `json:"source"`
	Error      string    `json:"error,omitempty"`
}
