package domain

import "github.com/shopspring/decimal"

// VariantRef describes the variant selected for a cart line
type VariantRef struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
}

// CartItem is a single line in a cart.
// ID is the product id, or "{productId}-{variantId}" when a variant is selected.
type CartItem struct {
	ID            string          `json:"id"`
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Image         string          `json:"image"`
	Category      string          `json:"category"`
	Variant       *VariantRef     `json:"variant,omitempty"`
	ProductHandle string          `json:"productHandle,omitempty"`
}

// VariantID returns the selected variant id or an empty string
func (i *CartItem) VariantID() string {
	if i.Variant == nil {
		return ""
	}
	return i.Variant.ID
}

// SameLine reports whether two items share the composite merge key
func (i *CartItem) SameLine(other *CartItem) bool {
	return i.ID == other.ID && i.VariantID() == other.VariantID()
}

// LineTotal returns the exact unit price times quantity
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartSnapshot is the persisted state of a cart
type CartSnapshot struct {
	Items      []CartItem `json:"items"`
	CheckoutID string     `json:"checkoutId,omitempty"`
}

// CartTotals holds the derived checkout figures, rounded to cents
type CartTotals struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// CartView is a snapshot together with its derived figures
type CartView struct {
	ID         string     `json:"id"`
	Items      []CartItem `json:"items"`
	CheckoutID string     `json:"checkoutId,omitempty"`
	ItemCount  int        `json:"itemCount"`
	Totals     CartTotals `json:"totals"`
}

// CheckoutResult is the outcome of handing a cart to the hosted checkout
type CheckoutResult struct {
	WebURL       string   `json:"webUrl"`
	CheckoutID   string   `json:"checkoutId,omitempty"`
	SkippedItems []string `json:"skippedItems,omitempty"`
}
