package usecase

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/storefront/backend/internal/domain"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Slugify lowercases a label and joins its words with hyphens
func Slugify(label string) string {
	return whitespaceRegex.ReplaceAllString(strings.ToLower(strings.TrimSpace(label)), "-")
}

// Search keeps products whose name, description, category or any tag
// contains the query, case-insensitively. An empty query keeps everything.
func Search(products []domain.Product, query string) []domain.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return products
	}

	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matchesQuery(&p, query) {
			result = append(result, p)
		}
	}
	return result
}

func matchesQuery(p *domain.Product, query string) bool {
	if strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(strings.ToLower(p.Category), query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// ApplyFilters keeps the products that pass every active filter
func ApplyFilters(products []domain.Product, filters domain.Filters) []domain.Product {
	categories := normalizeAll(filters.Categories)
	tags := normalizeAll(filters.Tags)
	checkPrice := !filters.PriceRange.IsDefault()

	result := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if len(categories) > 0 && !matchesCategory(p.Category, categories) {
			continue
		}
		if len(tags) > 0 && !matchesTag(p.Tags, tags) {
			continue
		}
		if filters.InStockOnly && !p.InStock {
			continue
		}
		if len(filters.Ratings) > 0 && !matchesRating(p.Rating, filters.Ratings) {
			continue
		}
		if checkPrice && (p.Price.LessThan(filters.PriceRange.Min) || p.Price.GreaterThan(filters.PriceRange.Max)) {
			continue
		}
		result = append(result, p)
	}
	return result
}

func normalizeAll(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func matchesCategory(category string, wanted map[string]struct{}) bool {
	if _, ok := wanted[strings.ToLower(strings.TrimSpace(category))]; ok {
		return true
	}
	_, ok := wanted[Slugify(category)]
	return ok
}

func matchesTag(tags []string, wanted map[string]struct{}) bool {
	for _, tag := range tags {
		if _, ok := wanted[strings.ToLower(strings.TrimSpace(tag))]; ok {
			return true
		}
	}
	return false
}

func matchesRating(rating float64, minimums []float64) bool {
	for _, min := range minimums {
		if rating >= min {
			return true
		}
	}
	return false
}

// SortProducts returns a stably sorted copy of products
func SortProducts(products []domain.Product, option domain.SortOption) []domain.Product {
	sorted := slices.Clone(products)

	switch option {
	case domain.SortPriceAsc:
		slices.SortStableFunc(sorted, func(a, b domain.Product) int { return a.Price.Cmp(b.Price) })
	case domain.SortPriceDesc:
		slices.SortStableFunc(sorted, func(a, b domain.Product) int { return b.Price.Cmp(a.Price) })
	case domain.SortRatingDesc:
		slices.SortStableFunc(sorted, func(a, b domain.Product) int { return cmp.Compare(b.Rating, a.Rating) })
	case domain.SortNameAsc:
		slices.SortStableFunc(sorted, func(a, b domain.Product) int { return compareNames(a.Name, b.Name) })
	case domain.SortNameDesc:
		slices.SortStableFunc(sorted, func(a, b domain.Product) int { return compareNames(b.Name, a.Name) })
	case domain.SortNewest:
		slices.SortStableFunc(sorted, compareNewest)
	}
	return sorted
}

func compareNames(a, b string) int {
	if c := strings.Compare(strings.ToLower(a), strings.ToLower(b)); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// compareNewest orders numeric ids descending, ahead of non-numeric ones
func compareNewest(a, b domain.Product) int {
	ai, aErr := strconv.ParseInt(a.ID, 10, 64)
	bi, bErr := strconv.ParseInt(b.ID, 10, 64)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(bi, ai)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return 0
	}
}

// Paginate returns the 1-based page of products and the total page count
func Paginate(products []domain.Product, page, perPage int) ([]domain.Product, int) {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		page = 1
	}
	totalPages := (len(products) + perPage - 1) / perPage

	start := (page - 1) * perPage
	if start >= len(products) {
		return []domain.Product{}, totalPages
	}
	end := min(start+perPage, len(products))
	return products[start:end], totalPages
}
