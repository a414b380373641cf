package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain"
)

// listProductsQuery is the query string of GET /products.
// category and tag may repeat or hold comma-separated values.
type listProductsQuery struct {
	Query    string    `form:"q"`
	Sort     string    `form:"sort"`
	Category []string  `form:"category"`
	Tag      []string  `form:"tag"`
	Rating   []float64 `form:"rating" binding:"dive,min=0,max=5"`
	MinPrice string    `form:"min_price"`
	MaxPrice string    `form:"max_price"`
	InStock  bool      `form:"in_stock"`
	Page     int       `form:"page" binding:"omitempty,min=1"`
	PerPage  int       `form:"per_page" binding:"omitempty,min=1,max=50"`
}

// options converts the query into catalog list options
func (q listProductsQuery) options() (domain.ListOptions, error) {
	sort, ok := domain.ParseSortOption(q.Sort)
	if !ok {
		return domain.ListOptions{}, fmt.Errorf("%w: unknown sort %q", domain.ErrInvalidRequest, q.Sort)
	}

	filters := domain.DefaultFilters()
	filters.Categories = splitValues(q.Category)
	filters.Tags = splitValues(q.Tag)
	filters.Ratings = q.Rating
	filters.InStockOnly = q.InStock

	var err error
	if filters.PriceRange.Min, err = parsePrice(q.MinPrice, domain.DefaultPriceMin); err != nil {
		return domain.ListOptions{}, err
	}
	if filters.PriceRange.Max, err = parsePrice(q.MaxPrice, domain.DefaultPriceMax); err != nil {
		return domain.ListOptions{}, err
	}
	if filters.PriceRange.Min.GreaterThan(filters.PriceRange.Max) {
		return domain.ListOptions{}, fmt.Errorf("%w: min_price exceeds max_price", domain.ErrInvalidRequest)
	}

	return domain.ListOptions{
		Query:   strings.TrimSpace(q.Query),
		Filters: filters,
		Sort:    sort,
		Page:    q.Page,
		PerPage: q.PerPage,
	}, nil
}

// parsePrice parses a non-negative decimal, returning fallback for an empty value
func parsePrice(raw string, fallback decimal.Decimal) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	price, err := decimal.NewFromString(raw)
	if err != nil || price.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: invalid price %q", domain.ErrInvalidRequest, raw)
	}
	return price, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// ListProducts returns one filtered, sorted page of the catalog
func (h *Handler) ListProducts(c *gin.Context) {
	var query listProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		h.badRequest(c, err)
		return
	}

	opts, err := query.options()
	if err != nil {
		h.respondError(c, err)
		return
	}

	page, err := h.catalog.ListProducts(c.Request.Context(), opts)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetProduct returns one product by id or handle
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("ref"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListCategories returns the category and tag facets
func (h *Handler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.categories.Facets(c.Request.Context()))
}
