// Package fixtures holds the static demo catalog and the fallback facets.
package fixtures

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/storefront/backend/internal/domain"
)

//go:embed products.json
var productsJSON []byte

var (
	loadOnce sync.Once
	products []domain.Product
	loadErr  error
)

func load() ([]domain.Product, error) {
	loadOnce.Do(func() {
		if err := json.Unmarshal(productsJSON, &products); err != nil {
			loadErr = fmt.Errorf("failed to decode demo products: %w", err)
		}
	})
	return products, loadErr
}

// Products returns a fresh copy of the demo catalog
func Products() []domain.Product {
	list, err := load()
	if err != nil {
		// the embedded file is part of the build
		panic(err)
	}
	out := make([]domain.Product, len(list))
	for i, p := range list {
		out[i] = cloneProduct(p)
	}
	return out
}

// FindProduct looks a demo product up by id or handle
func FindProduct(ref string) (domain.Product, bool) {
	for _, p := range Products() {
		if p.ID == ref || p.Handle == ref {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Categories returns the static fallback category facets
func Categories() []domain.Facet {
	return []domain.Facet{
		{Name: "Clothing", Value: "clothing", Count: 12},
		{Name: "Electronics", Value: "electronics", Count: 8},
		{Name: "Accessories", Value: "accessories", Count: 15},
		{Name: "Home Goods", Value: "home-goods", Count: 6},
		{Name: "Sale", Value: "sale", Count: 25},
		{Name: "New Arrivals", Value: "new-arrivals", Count: 10},
	}
}

// Tags returns the static fallback tag facets
func Tags() []domain.Facet {
	return []domain.Facet{
		{Name: "Best Seller", Value: "best-seller", Count: 18},
		{Name: "New Arrival", Value: "new", Count: 12},
		{Name: "On Sale", Value: "sale", Count: 25},
		{Name: "Eco Friendly", Value: "eco-friendly", Count: 8},
		{Name: "Premium", Value: "premium", Count: 15},
		{Name: "Limited Edition", Value: "limited-edition", Count: 5},
	}
}

func cloneProduct(p domain.Product) domain.Product {
	p.Images = append([]string(nil), p.Images...)
	p.Tags = append([]string(nil), p.Tags...)
	p.Features = append([]string(nil), p.Features...)
	if p.Variants != nil {
		p.Variants = append([]domain.Variant(nil), p.Variants...)
	}
	if p.Specifications != nil {
		specs := make(map[string]string, len(p.Specifications))
		for k, v := range p.Specifications {
			specs[k] = v
		}
		p.Specifications = specs
	}
	return p
}
