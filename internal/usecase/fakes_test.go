package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain"
)

// fakeStorefront is an in-memory domain.StorefrontClient
type fakeStorefront struct {
	products       []domain.ShopifyProduct
	productsErr    error
	collections    []domain.ShopifyCollection
	collectionsErr error
	byHandle       map[string]*domain.ShopifyProduct
	handleErr      error

	productCalls    atomic.Int32
	collectionCalls atomic.Int32
	delay           time.Duration
}

func (f *fakeStorefront) Products(ctx context.Context, query domain.ProductQuery) ([]domain.ShopifyProduct, error) {
	f.productCalls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.productsErr != nil {
		return nil, f.productsErr
	}
	return f.products, nil
}

func (f *fakeStorefront) ProductByHandle(ctx context.Context, handle string) (*domain.ShopifyProduct, error) {
	if f.handleErr != nil {
		return nil, f.handleErr
	}
	if p, ok := f.byHandle[handle]; ok {
		return p, nil
	}
	return nil, domain.ErrProductNotFound
}

func (f *fakeStorefront) Collections(ctx context.Context, first int) ([]domain.ShopifyCollection, error) {
	f.collectionCalls.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.collectionsErr != nil {
		return nil, f.collectionsErr
	}
	return f.collections, nil
}

// stubTransformer maps records to products by title, id and tags
type stubTransformer struct {
	categories map[string]string
}

func (s stubTransformer) Transform(record *domain.ShopifyProduct) (domain.Product, error) {
	if record.ID == "" {
		return domain.Product{}, domain.ErrInvalidRecord
	}
	category := s.categories[record.ID]
	if category == "" {
		category = domain.UncategorizedLabel
	}
	return domain.Product{
		ID:       record.ID,
		Name:     record.Title,
		Handle:   record.Handle,
		Price:    decimal.RequireFromString(record.PriceRange.MinVariantPrice.Amount),
		Category: category,
		Tags:     record.Tags,
		InStock:  true,
		Rating:   4,
	}, nil
}

func (s stubTransformer) TransformAll(records []domain.ShopifyProduct) []domain.Product {
	out := make([]domain.Product, 0, len(records))
	for i := range records {
		if p, err := s.Transform(&records[i]); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func record(id, title string, price string, tags ...string) domain.ShopifyProduct {
	return domain.ShopifyProduct{
		ID:         id,
		Title:      title,
		Handle:     title,
		Tags:       tags,
		PriceRange: domain.ShopifyPriceRange{MinVariantPrice: domain.ShopifyMoney{Amount: price}},
	}
}

// memoryCartRepo is an in-memory domain.CartRepository
type memoryCartRepo struct {
	mu        sync.Mutex
	snapshots map[string]domain.CartSnapshot
	saveErr   error
	loadErr   error
	saves     int
}

func newMemoryCartRepo() *memoryCartRepo {
	return &memoryCartRepo{snapshots: make(map[string]domain.CartSnapshot)}
}

func (r *memoryCartRepo) Load(ctx context.Context, cartID string) (*domain.CartSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	s, ok := r.snapshots[cartID]
	if !ok {
		return nil, domain.ErrCartNotFound
	}
	return &s, nil
}

func (r *memoryCartRepo) Save(ctx context.Context, cartID string, snapshot domain.CartSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.snapshots[cartID] = snapshot
	return nil
}

func (r *memoryCartRepo) Delete(ctx context.Context, cartID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, cartID)
	return nil
}

// fakeGateway is a scripted domain.CheckoutGateway
type fakeGateway struct {
	variants   map[string]string
	lookupErr  map[string]error
	payload    *domain.CheckoutPayload
	mutateErr  error
	lookups    []lookupCall
	created    [][]domain.CheckoutLineItem
	replaced   [][]domain.CheckoutLineItem
	replacedID string
}

type lookupCall struct {
	handle  string
	options []domain.SelectedOption
}

var errLookup = errors.New("lookup failed")

func (g *fakeGateway) VariantBySelectedOptions(ctx context.Context, handle string, options []domain.SelectedOption) (string, error) {
	g.lookups = append(g.lookups, lookupCall{handle: handle, options: options})
	if err := g.lookupErr[handle]; err != nil {
		return "", err
	}
	return g.variants[handle], nil
}

func (g *fakeGateway) CreateCheckout(ctx context.Context, lines []domain.CheckoutLineItem) (*domain.CheckoutPayload, error) {
	g.created = append(g.created, lines)
	if g.mutateErr != nil {
		return nil, g.mutateErr
	}
	return g.payload, nil
}

func (g *fakeGateway) ReplaceCheckoutLines(ctx context.Context, checkoutID string, lines []domain.CheckoutLineItem) (*domain.CheckoutPayload, error) {
	g.replacedID = checkoutID
	g.replaced = append(g.replaced, lines)
	if g.mutateErr != nil {
		return nil, g.mutateErr
	}
	return g.payload, nil
}
