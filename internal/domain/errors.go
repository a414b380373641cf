package domain

import "errors"

var (
	// ErrProductNotFound is returned when a product cannot be found in the catalog
	ErrProductNotFound = errors.New("product not found")
	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")
	// ErrInvalidRecord is returned when a platform product record cannot be transformed at all
	ErrInvalidRecord = errors.New("invalid product record")
	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")
	// ErrPlatformFailure is returned when a storefront API request fails
	ErrPlatformFailure = errors.New("storefront API request failed")
	// ErrGraphQL is returned when the storefront API answers with GraphQL errors
	ErrGraphQL = errors.New("storefront GraphQL query failed")
	// ErrUnauthorized is returned when the storefront access token is rejected
	ErrUnauthorized = errors.New("invalid or missing storefront access token")
	// ErrCartNotFound is returned when a cart id is malformed or unknown
	ErrCartNotFound = errors.New("cart not found")
	// ErrCartItemNotFound is returned when a line id is not in the cart
	ErrCartItemNotFound = errors.New("cart item not found")
	// ErrOutOfStock is returned when an unavailable product or variant is added to a cart
	ErrOutOfStock = errors.New("product is out of stock")
	// ErrEmptyCart is returned when checkout is attempted on an empty cart
	ErrEmptyCart = errors.New("cannot checkout with empty cart")
	// ErrNoResolvableItems is returned when no cart line maps to a platform variant
	ErrNoResolvableItems = errors.New("no valid line items to checkout")
	// ErrCheckoutUnavailable is returned when the checkout mutation could not be completed; retrying may succeed
	ErrCheckoutUnavailable = errors.New("checkout service unavailable")
)
