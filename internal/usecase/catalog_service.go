package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/infrastructure/fixtures"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Listing defaults
const (
	DefaultPerPage   = 12
	MaxPerPage       = 50
	DefaultFetchSize = 50
)

// ProductTransformer converts platform records into catalog products
type ProductTransformer interface {
	Transform(record *domain.ShopifyProduct) (domain.Product, error)
	TransformAll(records []domain.ShopifyProduct) []domain.Product
}

// CatalogServiceConfig holds configuration for the catalog service
type CatalogServiceConfig struct {
	Source    string
	CacheTTL  time.Duration
	FetchSize int
}

// CatalogService serves product listings and details from the platform,
// falling back to the demo fixtures when the platform is unreachable.
type CatalogService struct {
	client      domain.StorefrontClient
	transformer ProductTransformer
	cache       domain.CacheRepository
	group       singleflight.Group
	source      string
	cacheTTL    time.Duration
	fetchSize   int
	logger      *zap.Logger
}

// NewCatalogService creates a catalog service. A nil client forces the demo source.
func NewCatalogService(
	client domain.StorefrontClient,
	transformer ProductTransformer,
	cache domain.CacheRepository,
	config CatalogServiceConfig,
	logger *zap.Logger,
) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	source := config.Source
	if client == nil || source == "" {
		source = domain.CatalogSourceDemo
	}
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Minute
	}
	fetchSize := config.FetchSize
	if fetchSize <= 0 {
		fetchSize = DefaultFetchSize
	}

	return &CatalogService{
		client:      client,
		transformer: transformer,
		cache:       cache,
		source:      source,
		cacheTTL:    cacheTTL,
		fetchSize:   fetchSize,
		logger:      logger.Named("catalog"),
	}
}

// Source returns the configured catalog source
func (s *CatalogService) Source() string {
	return s.source
}

// Products returns up to first transformed products from the configured source.
// Platform failures are returned, not replaced by fixtures.
func (s *CatalogService) Products(ctx context.Context, first int) ([]domain.Product, error) {
	if s.source == domain.CatalogSourceDemo {
		return fixtures.Products(), nil
	}
	if first <= 0 {
		first = s.fetchSize
	}

	key := fmt.Sprintf("catalog:products:%d", first)
	if cached, err := s.cache.Get(ctx, key); err == nil {
		if products, ok := cached.([]domain.Product); ok {
			return products, nil
		}
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		records, err := s.client.Products(context.WithoutCancel(ctx), domain.ProductQuery{First: first})
		if err != nil {
			return nil, err
		}
		products := s.transformer.TransformAll(records)
		if err := s.cache.Set(ctx, key, products, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache products", zap.Error(err))
		}
		return products, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]domain.Product), nil
}

// ListProducts searches, filters, sorts and paginates the catalog
func (s *CatalogService) ListProducts(ctx context.Context, opts domain.ListOptions) (*domain.ProductPage, error) {
	if opts.PerPage > MaxPerPage {
		return nil, fmt.Errorf("%w: per_page must be at most %d", domain.ErrInvalidRequest, MaxPerPage)
	}
	if opts.PerPage <= 0 {
		opts.PerPage = DefaultPerPage
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.Sort == "" {
		opts.Sort = domain.SortFeatured
	}

	page := &domain.ProductPage{Source: s.source}
	products, err := s.Products(ctx, s.fetchSize)
	if err != nil {
		s.logger.Warn("platform unavailable, serving demo products", zap.Error(err))
		products = fixtures.Products()
		page.Source = domain.CatalogSourceFixtures
		page.Error = err.Error()
	}

	result := Search(products, opts.Query)
	result = ApplyFilters(result, opts.Filters)
	result = SortProducts(result, opts.Sort)

	page.Total = len(result)
	page.Page = opts.Page
	page.PerPage = opts.PerPage
	page.Products, page.TotalPages = Paginate(result, opts.Page, opts.PerPage)
	return page, nil
}

// GetProduct looks a product up by handle on the platform, then by id or handle in the fixtures
func (s *CatalogService) GetProduct(ctx context.Context, ref string) (*domain.Product, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, domain.ErrInvalidRequest
	}

	if s.source == domain.CatalogSourceDemo {
		return findFixture(ref)
	}

	key := "catalog:product:" + ref
	if cached, err := s.cache.Get(ctx, key); err == nil {
		if product, ok := cached.(domain.Product); ok {
			return &product, nil
		}
	}

	record, err := s.client.ProductByHandle(ctx, ref)
	if err == nil {
		product, terr := s.transformer.Transform(record)
		if terr == nil {
			if cerr := s.cache.Set(ctx, key, product, s.cacheTTL); cerr != nil {
				s.logger.Warn("failed to cache product", zap.String("ref", ref), zap.Error(cerr))
			}
			return &product, nil
		}
		err = terr
	}

	// listings expose numeric ids, so a ref that is not a handle may be an id
	if errors.Is(err, domain.ErrProductNotFound) {
		if product, ok := s.findListed(ctx, ref); ok {
			if cerr := s.cache.Set(ctx, key, product, s.cacheTTL); cerr != nil {
				s.logger.Warn("failed to cache product", zap.String("ref", ref), zap.Error(cerr))
			}
			return &product, nil
		}
	}

	if product, ferr := findFixture(ref); ferr == nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			s.logger.Warn("platform lookup failed, serving demo product", zap.String("ref", ref), zap.Error(err))
		}
		return product, nil
	}
	if errors.Is(err, domain.ErrProductNotFound) || errors.Is(err, domain.ErrInvalidRecord) {
		return nil, domain.ErrProductNotFound
	}
	return nil, err
}

// findListed looks ref up by id in the cached product listing
func (s *CatalogService) findListed(ctx context.Context, ref string) (domain.Product, bool) {
	products, err := s.Products(ctx, s.fetchSize)
	if err != nil {
		s.logger.Debug("product listing unavailable for id lookup", zap.String("ref", ref), zap.Error(err))
		return domain.Product{}, false
	}
	for _, product := range products {
		if product.ID == ref {
			return product, true
		}
	}
	return domain.Product{}, false
}

func findFixture(ref string) (*domain.Product, error) {
	product, ok := fixtures.FindProduct(ref)
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &product, nil
}
