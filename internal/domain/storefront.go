package domain

import (
	"fmt"
	"strings"
)

// Edge wraps a node in a GraphQL connection
type Edge[T any] struct {
	Node T `json:"node"`
}

// Connection is a GraphQL relay-style list
type Connection[T any] struct {
	Edges []Edge[T] `json:"edges"`
}

// Nodes returns the nodes of the connection in order
func (c Connection[T]) Nodes() []T {
	nodes := make([]T, 0, len(c.Edges))
	for _, edge := range c.Edges {
		nodes = append(nodes, edge.Node)
	}
	return nodes
}

// ShopifyMoney is a price as returned by the Storefront API (decimal string amount)
type ShopifyMoney struct {
	Amount       string `json:"amount"`
	CurrencyCode string `json:"currencyCode,omitempty"`
}

// ShopifyImage is an image reference
type ShopifyImage struct {
	URL     string  `json:"url"`
	AltText *string `json:"altText"`
}

// ShopifyPriceRange holds the min/max variant prices of a product
type ShopifyPriceRange struct {
	MinVariantPrice ShopifyMoney `json:"minVariantPrice"`
	MaxVariantPrice ShopifyMoney `json:"maxVariantPrice"`
}

// ShopifyCompareAtPriceRange holds the compare-at (pre-discount) price range
type ShopifyCompareAtPriceRange struct {
	MinVariantPrice *ShopifyMoney `json:"minVariantPrice"`
}

// SelectedOption is a variant option name/value pair
type SelectedOption struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ShopifyVariant is a product variant record
type ShopifyVariant struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Price            ShopifyMoney     `json:"price"`
	CompareAtPrice   *ShopifyMoney    `json:"compareAtPrice"`
	AvailableForSale bool             `json:"availableForSale"`
	SelectedOptions  []SelectedOption `json:"selectedOptions"`
}

// ShopifyCollectionRef is a collection linked from a product
type ShopifyCollectionRef struct {
	Title  string `json:"title"`
	Handle string `json:"handle"`
}

// ShopifyMetafield is a custom field attached to a product
type ShopifyMetafield struct {
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// ShopifyProduct is a product record from the Storefront API.
// Metafields may contain nil entries for identifiers that are not set.
type ShopifyProduct struct {
	ID                  string                            `json:"id"`
	Title               string                            `json:"title"`
	Description         string                            `json:"description"`
	Handle              string                            `json:"handle"`
	FeaturedImage       *ShopifyImage                     `json:"featuredImage"`
	Images              Connection[ShopifyImage]          `json:"images"`
	PriceRange          ShopifyPriceRange                 `json:"priceRange"`
	CompareAtPriceRange *ShopifyCompareAtPriceRange       `json:"compareAtPriceRange"`
	Tags                []string                          `json:"tags"`
	TotalInventory      int                               `json:"totalInventory"`
	Variants            Connection[ShopifyVariant]        `json:"variants"`
	Collections         *Connection[ShopifyCollectionRef] `json:"collections"`
	Metafields          []*ShopifyMetafield               `json:"metafields"`
}

// ShopifyCollectionProduct is the product summary embedded in a collection
type ShopifyCollectionProduct struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ShopifyCollection is a collection record
type ShopifyCollection struct {
	ID          string                               `json:"id"`
	Title       string                               `json:"title"`
	Handle      string                               `json:"handle"`
	Description string                               `json:"description"`
	Image       *ShopifyImage                        `json:"image"`
	Products    Connection[ShopifyCollectionProduct] `json:"products"`
}

// ProductQuery holds product listing parameters
type ProductQuery struct {
	First   int
	Query   string
	SortKey string
	Reverse bool
}

// CheckoutLineItem is a line submitted to a checkout mutation
type CheckoutLineItem struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// CheckoutUserError is a validation error reported by a checkout mutation
type CheckoutUserError struct {
	Code    string   `json:"code"`
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// CheckoutPayload is the result of a checkout mutation
type CheckoutPayload struct {
	ID         string              `json:"id"`
	WebURL     string              `json:"webUrl"`
	UserErrors []CheckoutUserError `json:"userErrors,omitempty"`
}

// UserErrors is returned when the platform rejects a checkout mutation
type UserErrors struct {
	Errors []CheckoutUserError
}

// Error implements the error interface
func (e *UserErrors) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		if ue.Code != "" {
			messages = append(messages, fmt.Sprintf("%s: %s", ue.Code, ue.Message))
		} else {
			messages = append(messages, ue.Message)
		}
	}
	return "checkout rejected: " + strings.Join(messages, "; ")
}
