package usecase

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/infrastructure/fixtures"
	"github.com/storefront/backend/internal/pubsub"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	facetsCacheKey   = "facets"
	maxTagFacets     = 20
	collectionsLimit = 20
)

// ProductSource supplies transformed products for facet derivation
type ProductSource interface {
	Products(ctx context.Context, first int) ([]domain.Product, error)
}

// CategoryServiceConfig holds configuration for the category service
type CategoryServiceConfig struct {
	CacheTTL      time.Duration
	ProductsLimit int
}

// CategoryService aggregates category and tag facets from the platform
type CategoryService struct {
	client        domain.StorefrontClient
	products      ProductSource
	cache         domain.CacheRepository
	group         singleflight.Group
	updates       *pubsub.Broadcaster[domain.FacetSet]
	cacheTTL      time.Duration
	productsLimit int
	now           func() time.Time
	logger        *zap.Logger
}

// NewCategoryService creates a category service. A nil client derives
// categories from products only.
func NewCategoryService(
	client domain.StorefrontClient,
	products ProductSource,
	cache domain.CacheRepository,
	config CategoryServiceConfig,
	logger *zap.Logger,
) *CategoryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}
	productsLimit := config.ProductsLimit
	if productsLimit <= 0 {
		productsLimit = DefaultFetchSize
	}

	return &CategoryService{
		client:        client,
		products:      products,
		cache:         cache,
		updates:       pubsub.New[domain.FacetSet](),
		cacheTTL:      cacheTTL,
		productsLimit: productsLimit,
		now:           time.Now,
		logger:        logger.Named("categories"),
	}
}

// Facets returns the memoized facets, fetching them when stale.
// Concurrent callers share one in-flight fetch.
func (s *CategoryService) Facets(ctx context.Context) domain.FacetSet {
	if cached, err := s.cache.Get(ctx, facetsCacheKey); err == nil {
		if set, ok := cached.(domain.FacetSet); ok {
			return set
		}
	}

	v, _, _ := s.group.Do(facetsCacheKey, func() (interface{}, error) {
		set := s.fetch(context.WithoutCancel(ctx))
		if set.Error == "" {
			if err := s.cache.Set(ctx, facetsCacheKey, set, s.cacheTTL); err != nil {
				s.logger.Warn("failed to cache facets", zap.Error(err))
			}
		}
		s.updates.Publish(set)
		return set, nil
	})
	return v.(domain.FacetSet)
}

// Invalidate drops the memoized facets so the next call fetches again
func (s *CategoryService) Invalidate(ctx context.Context) {
	if err := s.cache.Delete(ctx, facetsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate facets", zap.Error(err))
	}
}

// Subscribe registers fn to receive every freshly produced facet set
func (s *CategoryService) Subscribe(fn func(domain.FacetSet)) (unsubscribe func()) {
	return s.updates.Subscribe(fn)
}

func (s *CategoryService) fetch(ctx context.Context) domain.FacetSet {
	var collections []domain.ShopifyCollection
	if s.client != nil {
		var err error
		collections, err = s.client.Collections(ctx, collectionsLimit)
		if err != nil {
			return s.fallback(err)
		}
	}

	products, err := s.products.Products(ctx, s.productsLimit)
	if err != nil {
		return s.fallback(err)
	}

	set := s.FromProducts(products)
	if len(collections) > 0 {
		set.Categories = categoriesFromCollections(collections, products)
		set.Source = domain.FacetSourcePlatform
	}

	s.logger.Info("facets fetched",
		zap.String("source", set.Source),
		zap.Int("categories", len(set.Categories)),
		zap.Int("tags", len(set.Tags)))
	return set
}

func (s *CategoryService) fallback(err error) domain.FacetSet {
	s.logger.Warn("failed to fetch facets, using static fallback", zap.Error(err))
	return domain.FacetSet{
		Categories: fixtures.Categories(),
		Tags:       fixtures.Tags(),
		Source:     domain.FacetSourceFallback,
		Error:      err.Error(),
		FetchedAt:  s.now(),
	}
}

// FromProducts derives facets from a product list. Empty category or tag
// lists are replaced by the static fallbacks.
func (s *CategoryService) FromProducts(products []domain.Product) domain.FacetSet {
	set := domain.FacetSet{
		Categories: categoriesFromProducts(products),
		Tags:       tagsFromProducts(products),
		Source:     domain.FacetSourceProducts,
		FetchedAt:  s.now(),
	}
	if len(set.Categories) == 0 {
		set.Categories = fixtures.Categories()
		set.Source = domain.FacetSourceFallback
	}
	if len(set.Tags) == 0 {
		set.Tags = fixtures.Tags()
	}
	return set
}

// categoriesFromCollections keeps platform order; a count is the number of
// products whose category equals the collection title.
func categoriesFromCollections(collections []domain.ShopifyCollection, products []domain.Product) []domain.Facet {
	facets := make([]domain.Facet, 0, len(collections))
	for _, c := range collections {
		count := 0
		for _, p := range products {
			if strings.EqualFold(strings.TrimSpace(p.Category), strings.TrimSpace(c.Title)) {
				count++
			}
		}
		value := c.Handle
		if value == "" {
			value = Slugify(c.Title)
		}
		facets = append(facets, domain.Facet{Name: c.Title, Value: value, Count: count})
	}
	return facets
}

func categoriesFromProducts(products []domain.Product) []domain.Facet {
	counts := make(map[string]int)
	for _, p := range products {
		if p.Category == "" || p.Category == domain.UncategorizedLabel {
			continue
		}
		counts[p.Category]++
	}

	facets := make([]domain.Facet, 0, len(counts))
	for name, count := range counts {
		facets = append(facets, domain.Facet{Name: name, Value: Slugify(name), Count: count})
	}
	sortFacets(facets)
	return facets
}

func tagsFromProducts(products []domain.Product) []domain.Facet {
	counts := make(map[string]int)
	for _, p := range products {
		for _, tag := range p.Tags {
			if clean := strings.ToLower(strings.TrimSpace(tag)); clean != "" {
				counts[clean]++
			}
		}
	}

	caser := cases.Title(language.Und)
	facets := make([]domain.Facet, 0, len(counts))
	for tag, count := range counts {
		facets = append(facets, domain.Facet{Name: FormatTagName(caser, tag), Value: tag, Count: count})
	}
	sortFacets(facets)
	if len(facets) > maxTagFacets {
		facets = facets[:maxTagFacets]
	}
	return facets
}

// FormatTagName turns "best-seller" into "Best Seller"
func FormatTagName(caser cases.Caser, tag string) string {
	return strings.TrimSpace(caser.String(strings.ReplaceAll(tag, "-", " ")))
}

// sortFacets orders by count descending, then name ascending
func sortFacets(facets []domain.Facet) {
	slices.SortFunc(facets, func(a, b domain.Facet) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		if c := cmp.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
}
