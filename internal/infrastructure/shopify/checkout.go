package shopify

import (
	"context"
	"fmt"

	"github.com/storefront/backend/internal/domain"
)

type checkoutRef struct {
	ID     string `json:"id"`
	WebURL string `json:"webUrl"`
}

type checkoutMutationResult struct {
	Checkout   *checkoutRef               `json:"checkout"`
	UserErrors []domain.CheckoutUserError `json:"checkoutUserErrors"`
}

func (r checkoutMutationResult) payload() (*domain.CheckoutPayload, error) {
	if len(r.UserErrors) > 0 {
		return &domain.CheckoutPayload{UserErrors: r.UserErrors}, nil
	}
	if r.Checkout == nil || r.Checkout.WebURL == "" {
		return nil, fmt.Errorf("%w: checkout missing from response", domain.ErrPlatformFailure)
	}
	return &domain.CheckoutPayload{ID: r.Checkout.ID, WebURL: r.Checkout.WebURL}, nil
}

// VariantBySelectedOptions returns the global id of the variant matching the options,
// or an empty string when the product or variant does not exist.
func (c *Client) VariantBySelectedOptions(ctx context.Context, handle string, options []domain.SelectedOption) (string, error) {
	if options == nil {
		options = []domain.SelectedOption{}
	}

	var data struct {
		Product *struct {
			VariantBySelectedOptions *struct {
				ID               string `json:"id"`
				AvailableForSale bool   `json:"availableForSale"`
			} `json:"variantBySelectedOptions"`
		} `json:"product"`
	}
	variables := map[string]interface{}{
		"handle":          handle,
		"selectedOptions": options,
	}
	if err := c.Execute(ctx, "getProductVariant", getProductVariantQuery, variables, &data); err != nil {
		return "", err
	}

	if data.Product == nil || data.Product.VariantBySelectedOptions == nil {
		return "", nil
	}
	return data.Product.VariantBySelectedOptions.ID, nil
}

// CreateCheckout creates a checkout session with the given lines
func (c *Client) CreateCheckout(ctx context.Context, lines []domain.CheckoutLineItem) (*domain.CheckoutPayload, error) {
	var data struct {
		CheckoutCreate checkoutMutationResult `json:"checkoutCreate"`
	}
	variables := map[string]interface{}{
		"input": map[string]interface{}{
			"lineItems":             lines,
			"allowPartialAddresses": true,
		},
	}
	if err := c.Execute(ctx, "checkoutCreate", checkoutCreateMutation, variables, &data); err != nil {
		return nil, err
	}
	return data.CheckoutCreate.payload()
}

// ReplaceCheckoutLines replaces every line of an existing checkout session
func (c *Client) ReplaceCheckoutLines(ctx context.Context, checkoutID string, lines []domain.CheckoutLineItem) (*domain.CheckoutPayload, error) {
	var data struct {
		CheckoutLineItemsReplace checkoutMutationResult `json:"checkoutLineItemsReplace"`
	}
	variables := map[string]interface{}{
		"checkoutId": checkoutID,
		"lineItems":  lines,
	}
	if err := c.Execute(ctx, "checkoutLineItemsReplace", checkoutLineItemsReplaceMutation, variables, &data); err != nil {
		return nil, err
	}
	return data.CheckoutLineItemsReplace.payload()
}
