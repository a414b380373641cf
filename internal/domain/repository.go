package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// StorefrontClient defines the read side of the Storefront GraphQL API
type StorefrontClient interface {
	Products(ctx context.Context, query ProductQuery) ([]ShopifyProduct, error)
	ProductByHandle(ctx context.Context, handle string) (*ShopifyProduct, error)
	Collections(ctx context.Context, first int) ([]ShopifyCollection, error)
}

// CheckoutGateway defines the checkout side of the Storefront GraphQL API
type CheckoutGateway interface {
	VariantBySelectedOptions(ctx context.Context, handle string, options []SelectedOption) (string, error)
	CreateCheckout(ctx context.Context, lines []CheckoutLineItem) (*CheckoutPayload, error)
	ReplaceCheckoutLines(ctx context.Context, checkoutID string, lines []CheckoutLineItem) (*CheckoutPayload, error)
}

// CartRepository defines durable storage of cart snapshots.
// Load returns ErrCartNotFound when nothing is stored for the id.
type CartRepository interface {
	Load(ctx context.Context, cartID string) (*CartSnapshot, error)
	Save(ctx context.Context, cartID string, snapshot CartSnapshot) error
	Delete(ctx context.Context, cartID string) error
}
