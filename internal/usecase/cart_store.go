package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/pubsub"
	"go.uber.org/zap"
)

var (
	freeShippingThreshold = decimal.NewFromInt(50)
	flatShippingRate      = decimal.RequireFromString("4.99")
	taxRate               = decimal.RequireFromString("0.08")
)

// CartStore holds the state of one cart. Mutations are serialized, persisted
// and then announced to subscribers in the order they were applied.
// Subscribers run synchronously and must not mutate the store.
type CartStore struct {
	id     string
	repo   domain.CartRepository
	logger *zap.Logger

	mu         sync.RWMutex
	items      []domain.CartItem
	checkoutID string

	// held for a whole mutation, including its subscribers; taken before mu
	notifyMu sync.Mutex
	updates  *pubsub.Broadcaster[domain.CartView]
}

// NewCartStore creates a cart store and rehydrates it from repo.
// A missing or unreadable snapshot yields an empty cart.
func NewCartStore(ctx context.Context, id string, repo domain.CartRepository, logger *zap.Logger) *CartStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CartStore{
		id:      id,
		repo:    repo,
		logger:  logger.With(zap.String("cart_id", id)),
		items:   []domain.CartItem{},
		updates: pubsub.New[domain.CartView](),
	}

	if repo == nil {
		return s
	}
	snapshot, err := repo.Load(ctx, id)
	switch {
	case errors.Is(err, domain.ErrCartNotFound):
	case err != nil:
		s.logger.Warn("discarding unreadable cart snapshot", zap.Error(err))
	default:
		s.restore(*snapshot)
	}
	return s
}

func (s *CartStore) restore(snapshot domain.CartSnapshot) {
	items := make([]domain.CartItem, 0, len(snapshot.Items))
	for _, item := range snapshot.Items {
		if item.ID == "" || item.Quantity < 1 {
			s.logger.Warn("dropping invalid persisted line", zap.String("item_id", item.ID), zap.Int("quantity", item.Quantity))
			continue
		}
		items = append(items, item)
	}
	s.items = items
	s.checkoutID = snapshot.CheckoutID
}

// ID returns the cart id
func (s *CartStore) ID() string {
	return s.id
}

// AddItem merges item into the line with the same id and variant, or appends it
func (s *CartStore) AddItem(ctx context.Context, item domain.CartItem) error {
	if item.ID == "" {
		return fmt.Errorf("%w: item id is required", domain.ErrInvalidRequest)
	}
	if item.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidRequest)
	}

	s.mutate(ctx, func() bool {
		for i := range s.items {
			if s.items[i].SameLine(&item) {
				s.items[i].Quantity += item.Quantity
				return true
			}
		}
		s.items = append(s.items, item)
		return true
	})
	return nil
}

// RemoveItem removes the line with the given id; absent ids are ignored
func (s *CartStore) RemoveItem(ctx context.Context, id string) {
	s.mutate(ctx, func() bool {
		return s.removeLocked(id)
	})
}

func (s *CartStore) removeLocked(id string) bool {
	kept := s.items[:0]
	removed := false
	for _, item := range s.items {
		if item.ID == id {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	s.items = kept
	return removed
}

// UpdateQuantity sets the quantity of a line; below 1 removes it
func (s *CartStore) UpdateQuantity(ctx context.Context, id string, quantity int) {
	s.mutate(ctx, func() bool {
		if quantity < 1 {
			return s.removeLocked(id)
		}
		changed := false
		for i := range s.items {
			if s.items[i].ID == id {
				s.items[i].Quantity = quantity
				changed = true
			}
		}
		return changed
	})
}

// ClearCart removes every line
func (s *CartStore) ClearCart(ctx context.Context) {
	s.mutate(ctx, func() bool {
		s.items = []domain.CartItem{}
		return true
	})
}

// SetCheckoutID records the checkout session of the cart; empty clears it
func (s *CartStore) SetCheckoutID(ctx context.Context, checkoutID string) {
	s.mutate(ctx, func() bool {
		if s.checkoutID == checkoutID {
			return false
		}
		s.checkoutID = checkoutID
		return true
	})
}

// mutate applies fn under the write lock. When fn reports a change the new
// snapshot is persisted and published before the next mutation starts.
// notifyMu is always taken before mu so subscribers can read the store while
// another mutation waits.
func (s *CartStore) mutate(ctx context.Context, fn func() bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !fn() {
		s.mu.Unlock()
		return
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	s.persist(ctx, snapshot)
	s.updates.Publish(buildView(s.id, snapshot))
}

func (s *CartStore) persist(ctx context.Context, snapshot domain.CartSnapshot) {
	if s.repo == nil {
		return
	}
	if err := s.repo.Save(context.WithoutCancel(ctx), s.id, snapshot); err != nil {
		s.logger.Error("failed to persist cart", zap.Error(err))
	}
}

// GetItem returns the line with the given id
func (s *CartStore) GetItem(id string) (domain.CartItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, item := range s.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.CartItem{}, false
}

// IsInCart reports whether the product is in the cart; a non-empty
// variantID also requires that variant
func (s *CartStore) IsInCart(productID, variantID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.items {
		if s.items[i].ProductID != productID {
			continue
		}
		if variantID == "" || s.items[i].VariantID() == variantID {
			return true
		}
	}
	return false
}

// ItemCount returns the sum of all quantities
func (s *CartStore) ItemCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return itemCount(s.items)
}

// TotalPrice returns the exact sum of price times quantity
func (s *CartStore) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return totalPrice(s.items)
}

// Totals returns subtotal, shipping, tax and total rounded to cents
func (s *CartStore) Totals() domain.CartTotals {
	return CalculateTotals(s.TotalPrice())
}

// Snapshot returns a copy of the cart contents
func (s *CartStore) Snapshot() domain.CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// View returns the snapshot with its derived figures
func (s *CartStore) View() domain.CartView {
	return buildView(s.id, s.Snapshot())
}

// idle reports whether the cart holds nothing worth keeping in memory
func (s *CartStore) idle() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items) == 0 && s.checkoutID == "" && s.updates.Len() == 0
}

// Subscribe registers fn to receive the cart after every change
func (s *CartStore) Subscribe(fn func(domain.CartView)) (unsubscribe func()) {
	return s.updates.Subscribe(fn)
}

func (s *CartStore) snapshotLocked() domain.CartSnapshot {
	items := make([]domain.CartItem, len(s.items))
	for i, item := range s.items {
		if item.Variant != nil {
			v := *item.Variant
			item.Variant = &v
		}
		items[i] = item
	}
	return domain.CartSnapshot{Items: items, CheckoutID: s.checkoutID}
}

func buildView(id string, snapshot domain.CartSnapshot) domain.CartView {
	return domain.CartView{
		ID:         id,
		Items:      snapshot.Items,
		CheckoutID: snapshot.CheckoutID,
		ItemCount:  itemCount(snapshot.Items),
		Totals:     CalculateTotals(totalPrice(snapshot.Items)),
	}
}

func itemCount(items []domain.CartItem) int {
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return count
}

func totalPrice(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].LineTotal())
	}
	return total
}

// CalculateTotals derives the checkout figures from an exact total price.
// Shipping is free from 50.00; tax is 8% of the rounded subtotal.
func CalculateTotals(totalPrice decimal.Decimal) domain.CartTotals {
	subtotal := totalPrice.Round(2)
	shipping := flatShippingRate
	if subtotal.GreaterThanOrEqual(freeShippingThreshold) {
		shipping = decimal.Zero
	}
	tax := subtotal.Mul(taxRate).Round(2)

	return domain.CartTotals{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}

// NewCartItem builds a cart line for a product and optional variant
func NewCartItem(product *domain.Product, variant *domain.Variant, quantity int) domain.CartItem {
	item := domain.CartItem{
		ID:            product.ID,
		ProductID:     product.ID,
		Name:          product.Name,
		Price:         product.Price,
		Quantity:      quantity,
		Image:         product.PrimaryImage(),
		Category:      product.Category,
		ProductHandle: product.Handle,
	}
	if variant != nil {
		item.ID = product.ID + "-" + variant.ID
		item.Name = product.Name + " - " + variant.Name
		if !variant.Price.IsZero() {
			item.Price = variant.Price
		}
		item.Variant = &domain.VariantRef{
			ID:    variant.ID,
			Name:  variant.Name,
			Color: variant.Color,
			Size:  variant.Size,
		}
	}
	return item
}
