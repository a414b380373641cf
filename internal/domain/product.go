package domain

import "github.com/shopspring/decimal"

// UncategorizedLabel is the category of products nothing else could classify
const UncategorizedLabel = "Uncategorized"

// Product is a sellable item in the internal catalog model
type Product struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Price          decimal.Decimal   `json:"price"`
	OriginalPrice  *decimal.Decimal  `json:"originalPrice,omitempty"`
	Images         []string          `json:"images"`
	Category       string            `json:"category"`
	Tags           []string          `json:"tags"`
	InStock        bool              `json:"inStock"`
	Rating         float64           `json:"rating"`
	ReviewCount    int               `json:"reviewCount"`
	Features       []string          `json:"features"`
	Variants       []Variant         `json:"variants,omitempty"`
	Specifications map[string]string `json:"specifications,omitempty"`
	Handle         string            `json:"handle,omitempty"`
	CurrencyCode   string            `json:"currencyCode,omitempty"`
}

// Variant is a purchasable configuration of a product
type Variant struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	Size          string           `json:"size,omitempty"`
	Color         string           `json:"color,omitempty"`
	InStock       bool             `json:"inStock"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
}

// PrimaryImage returns the first image URL or an empty string
func (p *Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// FindVariant returns the variant with the given id
func (p *Product) FindVariant(id string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// HasMeaningfulVariants reports whether a variant list is worth exposing:
// more than one entry, or a single entry that carries a size or color.
func HasMeaningfulVariants(variants []Variant) bool {
	switch len(variants) {
	case 0:
		return false
	case 1:
		return variants[0].Size != "" || variants[0].Color != ""
	default:
		return true
	}
}
