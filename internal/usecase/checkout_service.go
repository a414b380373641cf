package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/storefront/backend/internal/domain"
	"go.uber.org/zap"
)

const variantGIDPrefix = "gid://shopify/ProductVariant/"

var checkoutIDPattern = regexp.MustCompile(`checkouts/([^/?]+)`)

// CheckoutService maps cart lines to platform variants and opens a hosted checkout
type CheckoutService struct {
	gateway domain.CheckoutGateway
	logger  *zap.Logger
}

// NewCheckoutService creates a checkout service
func NewCheckoutService(gateway domain.CheckoutGateway, logger *zap.Logger) *CheckoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		gateway: gateway,
		logger:  logger.Named("checkout"),
	}
}

// InitiateCheckout resolves the items to variants, skipping the ones that
// cannot be resolved, and creates a checkout or replaces the lines of the
// existing session.
func (s *CheckoutService) InitiateCheckout(ctx context.Context, items []domain.CartItem, existingSessionID string) (*domain.CheckoutResult, error) {
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: no storefront configured", domain.ErrCheckoutUnavailable)
	}

	lines, skipped, lookupErr := s.prepareLineItems(ctx, items)
	if len(lines) == 0 {
		// a failed lookup means the platform could not answer, not that nothing matched
		if lookupErr != nil {
			if errors.Is(lookupErr, context.Canceled) {
				return nil, lookupErr
			}
			return nil, fmt.Errorf("%w: %v", domain.ErrCheckoutUnavailable, lookupErr)
		}
		return nil, domain.ErrNoResolvableItems
	}

	var (
		payload *domain.CheckoutPayload
		err     error
	)
	if existingSessionID != "" {
		payload, err = s.gateway.ReplaceCheckoutLines(ctx, existingSessionID, lines)
	} else {
		payload, err = s.gateway.CreateCheckout(ctx, lines)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCheckoutUnavailable, err)
	}
	if len(payload.UserErrors) > 0 {
		s.logger.Warn("checkout rejected", zap.Any("user_errors", payload.UserErrors))
		return nil, &domain.UserErrors{Errors: payload.UserErrors}
	}

	sessionID := existingSessionID
	if sessionID == "" {
		sessionID = ParseCheckoutID(payload.WebURL)
	}

	return &domain.CheckoutResult{
		WebURL:       payload.WebURL,
		CheckoutID:   sessionID,
		SkippedItems: skipped,
	}, nil
}

// prepareLineItems returns the resolved lines, the ids of skipped items and
// the last variant lookup error, if any.
func (s *CheckoutService) prepareLineItems(ctx context.Context, items []domain.CartItem) ([]domain.CheckoutLineItem, []string, error) {
	lines := make([]domain.CheckoutLineItem, 0, len(items))
	var (
		skipped   []string
		lookupErr error
	)

	for _, item := range items {
		if item.ProductHandle == "" {
			s.logger.Warn("skipping item without product handle", zap.String("item_id", item.ID))
			skipped = append(skipped, item.ID)
			continue
		}

		variantID, err := s.gateway.VariantBySelectedOptions(ctx, item.ProductHandle, SelectedOptions(item.Variant))
		if err != nil || variantID == "" {
			s.logger.Warn("could not find variant for product",
				zap.String("handle", item.ProductHandle),
				zap.String("item_id", item.ID),
				zap.Error(err))
			if err != nil {
				lookupErr = err
			}
			skipped = append(skipped, item.ID)
			continue
		}

		lines = append(lines, domain.CheckoutLineItem{
			VariantID: strings.TrimPrefix(variantID, variantGIDPrefix),
			Quantity:  item.Quantity,
		})
	}
	return lines, skipped, lookupErr
}

// SelectedOptions builds the Color then Size options of a selected variant
func SelectedOptions(variant *domain.VariantRef) []domain.SelectedOption {
	options := []domain.SelectedOption{}
	if variant == nil {
		return options
	}
	if variant.Color != "" {
		options = append(options, domain.SelectedOption{Name: "Color", Value: variant.Color})
	}
	if variant.Size != "" {
		options = append(options, domain.SelectedOption{Name: "Size", Value: variant.Size})
	}
	return options
}

// ParseCheckoutID extracts the session id from a checkout URL
func ParseCheckoutID(webURL string) string {
	if m := checkoutIDPattern.FindStringSubmatch(webURL); m != nil {
		return m[1]
	}
	return ""
}
