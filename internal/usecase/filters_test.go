package usecase

import (
	"testing"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/infrastructure/fixtures"
	"github.com/stretchr/testify/assert"
)

func ids(products []domain.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.ID)
	}
	return out
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "home-goods", Slugify("Home Goods"))
	assert.Equal(t, "new-arrivals", Slugify("  New   Arrivals "))
	assert.Equal(t, "sale", Slugify("SALE"))
}

func TestSearch(t *testing.T) {
	products := fixtures.Products()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query keeps all", "  ", []string{"1", "2", "3", "4", "5", "6"}},
		{"name", "JEANS", []string{"2"}},
		{"description", "battery", []string{"3"}},
		{"category", "electronics", []string{"3", "5"}},
		{"tag", "handmade", []string{"6"}},
		{"no match", "zebra", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Search(products, tt.query)))
		})
	}
}

func TestApplyFilters(t *testing.T) {
	products := fixtures.Products()

	withDefaults := func(mutate func(*domain.Filters)) domain.Filters {
		f := domain.DefaultFilters()
		mutate(&f)
		return f
	}

	tests := []struct {
		name    string
		filters domain.Filters
		want    []string
	}{
		{"defaults keep all", domain.DefaultFilters(), []string{"1", "2", "3", "4", "5", "6"}},
		{"category label", withDefaults(func(f *domain.Filters) { f.Categories = []string{"Clothing"} }), []string{"1", "2"}},
		{"category slug any case", withDefaults(func(f *domain.Filters) { f.Categories = []string{"ELECTRONICS", "home"} }), []string{"3", "5", "6"}},
		{"tag", withDefaults(func(f *domain.Filters) { f.Tags = []string{"Premium"} }), []string{"3", "4"}},
		{"in stock", withDefaults(func(f *domain.Filters) { f.InStockOnly = true }), []string{"1", "2", "3", "5", "6"}},
		{"rating minimum", withDefaults(func(f *domain.Filters) { f.Ratings = []float64{4.8} }), []string{"3", "6"}},
		{"any rating minimum", withDefaults(func(f *domain.Filters) { f.Ratings = []float64{4.9, 4.6} }), []string{"2", "3", "5", "6"}},
		{"price range inclusive", withDefaults(func(f *domain.Filters) {
			f.PriceRange = domain.PriceRange{Min: dec("34.99"), Max: dec("149.99")}
		}), []string{"2", "4", "5", "6"}},
		{"combined", withDefaults(func(f *domain.Filters) {
			f.Categories = []string{"Electronics"}
			f.Tags = []string{"sale"}
			f.InStockOnly = true
		}), []string{"5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(ApplyFilters(products, tt.filters)))
		})
	}
}

func TestApplyFilters_DefaultRangeIgnoresPrice(t *testing.T) {
	expensive := []domain.Product{{ID: "x", Price: dec("5000")}}

	assert.Len(t, ApplyFilters(expensive, domain.DefaultFilters()), 1)
	assert.Len(t, ApplyFilters(expensive, domain.Filters{PriceRange: domain.PriceRange{Min: dec("1"), Max: dec("1000")}}), 0)
}

func TestApplyFilters_Deterministic(t *testing.T) {
	products := fixtures.Products()
	filters := domain.DefaultFilters()
	filters.Tags = []string{"tech"}

	assert.Equal(t, ids(ApplyFilters(products, filters)), ids(ApplyFilters(products, filters)))
}

func TestSortProducts(t *testing.T) {
	products := fixtures.Products()

	tests := []struct {
		option domain.SortOption
		want   []string
	}{
		{domain.SortFeatured, []string{"1", "2", "3", "4", "5", "6"}},
		{domain.SortNewest, []string{"6", "5", "4", "3", "2", "1"}},
		{domain.SortPriceAsc, []string{"1", "6", "2", "4", "5", "3"}},
		{domain.SortPriceDesc, []string{"3", "5", "4", "2", "6", "1"}},
		{domain.SortRatingDesc, []string{"3", "6", "2", "5", "1", "4"}},
		{domain.SortNameAsc, []string{"6", "2", "4", "1", "5", "3"}},
		{domain.SortNameDesc, []string{"3", "5", "1", "4", "2", "6"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.option), func(t *testing.T) {
			assert.Equal(t, tt.want, ids(SortProducts(products, tt.option)))
		})
	}

	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, ids(products), "input is not reordered")
}

func TestSortProducts_Stable(t *testing.T) {
	products := []domain.Product{
		{ID: "a", Price: dec("5")},
		{ID: "b", Price: dec("1")},
		{ID: "c", Price: dec("5.00")},
		{ID: "d", Price: dec("1")},
	}

	assert.Equal(t, []string{"b", "d", "a", "c"}, ids(SortProducts(products, domain.SortPriceAsc)))
	assert.Equal(t, []string{"a", "c", "b", "d"}, ids(SortProducts(products, domain.SortPriceDesc)))
}

func TestSortProducts_NewestNonNumericLast(t *testing.T) {
	products := []domain.Product{{ID: "x"}, {ID: "2"}, {ID: "y"}, {ID: "10"}}

	assert.Equal(t, []string{"10", "2", "x", "y"}, ids(SortProducts(products, domain.SortNewest)))
}

func TestPaginate(t *testing.T) {
	products := make([]domain.Product, 25)
	for i := range products {
		products[i].ID = string(rune('a' + i))
	}

	page, total := Paginate(products, 1, 12)
	assert.Len(t, page, 12)
	assert.Equal(t, 3, total)

	page, _ = Paginate(products, 3, 12)
	assert.Equal(t, []string{"y"}, ids(page))

	page, _ = Paginate(products, 4, 12)
	assert.Empty(t, page)

	page, _ = Paginate(products, 0, 0)
	assert.Len(t, page, DefaultPerPage)

	page, total = Paginate(nil, 1, 12)
	assert.Empty(t, page)
	assert.Zero(t, total)
}
