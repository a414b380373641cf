package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain"
	"go.uber.org/zap"
)

// ProductLookup resolves a product by id or handle
type ProductLookup interface {
	GetProduct(ctx context.Context, ref string) (*domain.Product, error)
}

// CheckoutInitiator hands cart lines to the hosted checkout
type CheckoutInitiator interface {
	InitiateCheckout(ctx context.Context, items []domain.CartItem, existingSessionID string) (*domain.CheckoutResult, error)
}

// CartService keeps one CartStore per cart id
type CartService struct {
	repo     domain.CartRepository
	products ProductLookup
	checkout CheckoutInitiator
	logger   *zap.Logger

	mu    sync.Mutex
	carts map[string]*CartStore
}

// NewCartService creates a cart service
func NewCartService(
	repo domain.CartRepository,
	products ProductLookup,
	checkout CheckoutInitiator,
	logger *zap.Logger,
) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{
		repo:     repo,
		products: products,
		checkout: checkout,
		logger:   logger.Named("cart"),
		carts:    make(map[string]*CartStore),
	}
}

// NewCartID returns a fresh random cart id
func (s *CartService) NewCartID() string {
	return uuid.NewString()
}

// Create opens a new empty cart
func (s *CartService) Create(ctx context.Context) (*CartStore, error) {
	return s.Open(ctx, s.NewCartID())
}

// Open returns the cart with the given id, rehydrating it on first use.
// Ids that are not UUIDs are rejected with ErrCartNotFound.
func (s *CartService) Open(ctx context.Context, cartID string) (*CartStore, error) {
	cartID, err := normalizeCartID(cartID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.carts[cartID]; ok {
		return store, nil
	}
	store := NewCartStore(ctx, cartID, s.repo, s.logger)
	s.carts[cartID] = store
	return store, nil
}

// View returns the current state of a cart. A cart that is neither open nor
// persisted is reported empty without being registered.
func (s *CartService) View(ctx context.Context, cartID string) (domain.CartView, error) {
	cartID, err := normalizeCartID(cartID)
	if err != nil {
		return domain.CartView{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.carts[cartID]; ok {
		return store.View(), nil
	}
	store := NewCartStore(ctx, cartID, s.repo, s.logger)
	if !store.idle() {
		s.carts[cartID] = store
	}
	return store.View(), nil
}

// Watch subscribes fn to the cart's changes. Unsubscribing releases the cart
// from the registry when it is left empty and unwatched.
func (s *CartService) Watch(ctx context.Context, cartID string, fn func(domain.CartView)) (*CartStore, func(), error) {
	store, err := s.Open(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	unsubscribe := store.Subscribe(fn)

	var once sync.Once
	return store, func() {
		once.Do(func() {
			unsubscribe()
			s.release(store)
		})
	}, nil
}

func (s *CartService) registered() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.carts)
}

func (s *CartService) release(store *CartStore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.carts[store.ID()] == store && store.idle() {
		delete(s.carts, store.ID())
	}
}

func normalizeCartID(cartID string) (string, error) {
	parsed, err := uuid.Parse(cartID)
	if err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrCartNotFound, cartID)
	}
	return parsed.String(), nil
}

// AddProduct adds quantity of a product, and of one of its variants when
// variantID is set, to the cart
func (s *CartService) AddProduct(ctx context.Context, cartID, productRef, variantID string, quantity int) (domain.CartView, error) {
	if quantity < 1 {
		return domain.CartView{}, fmt.Errorf("%w: quantity must be at least 1", domain.ErrInvalidRequest)
	}

	store, err := s.Open(ctx, cartID)
	if err != nil {
		return domain.CartView{}, err
	}

	product, err := s.products.GetProduct(ctx, productRef)
	if err != nil {
		return domain.CartView{}, err
	}

	var variant *domain.Variant
	switch {
	case variantID != "":
		v, ok := product.FindVariant(variantID)
		if !ok {
			return domain.CartView{}, fmt.Errorf("%w: unknown variant %q", domain.ErrInvalidRequest, variantID)
		}
		if !v.InStock {
			return domain.CartView{}, fmt.Errorf("%w: %s", domain.ErrOutOfStock, v.Name)
		}
		variant = v
	case domain.HasMeaningfulVariants(product.Variants):
		return domain.CartView{}, fmt.Errorf("%w: a variant must be selected", domain.ErrInvalidRequest)
	case !product.InStock:
		return domain.CartView{}, fmt.Errorf("%w: %s", domain.ErrOutOfStock, product.Name)
	}

	if err := store.AddItem(ctx, NewCartItem(product, variant, quantity)); err != nil {
		return domain.CartView{}, err
	}
	return store.View(), nil
}

// Checkout hands the cart to the hosted checkout and remembers a newly
// created session on the cart
func (s *CartService) Checkout(ctx context.Context, cartID string) (*domain.CheckoutResult, error) {
	store, err := s.Open(ctx, cartID)
	if err != nil {
		return nil, err
	}

	snapshot := store.Snapshot()
	if len(snapshot.Items) == 0 {
		return nil, domain.ErrEmptyCart
	}

	result, err := s.checkout.InitiateCheckout(ctx, snapshot.Items, snapshot.CheckoutID)
	if err != nil {
		s.logger.Warn("checkout failed", zap.String("cart_id", cartID), zap.Error(err))
		return nil, err
	}

	if snapshot.CheckoutID == "" && result.CheckoutID != "" {
		store.SetCheckoutID(ctx, result.CheckoutID)
	}
	s.logger.Info("checkout initiated",
		zap.String("cart_id", cartID),
		zap.String("checkout_id", result.CheckoutID),
		zap.Int("skipped", len(result.SkippedItems)))
	return result, nil
}
