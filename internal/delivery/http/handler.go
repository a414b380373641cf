package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/usecase"
	"go.uber.org/zap"
)

const (
	serviceName = "storefront-backend"
	version     = "1.0.0"
)

// Catalog lists and resolves products
type Catalog interface {
	Source() string
	ListProducts(ctx context.Context, opts domain.ListOptions) (*domain.ProductPage, error)
	GetProduct(ctx context.Context, ref string) (*domain.Product, error)
}

// Categories returns the aggregated category and tag facets
type Categories interface {
	Facets(ctx context.Context) domain.FacetSet
}

// Carts opens carts and performs the operations that need more than one store
type Carts interface {
	Create(ctx context.Context) (*usecase.CartStore, error)
	Open(ctx context.Context, cartID string) (*usecase.CartStore, error)
	View(ctx context.Context, cartID string) (domain.CartView, error)
	Watch(ctx context.Context, cartID string, fn func(domain.CartView)) (*usecase.CartStore, func(), error)
	AddProduct(ctx context.Context, cartID, productRef, variantID string, quantity int) (domain.CartView, error)
	Checkout(ctx context.Context, cartID string) (*domain.CheckoutResult, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	catalog    Catalog
	categories Categories
	carts      Carts
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog Catalog, categories Categories, carts Carts, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		catalog:    catalog,
		categories: categories,
		carts:      carts,
		logger:     logger.Named("http"),
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":        "healthy",
		"service":       serviceName,
		"version":       version,
		"catalogSource": h.catalog.Source(),
	})
}
