package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/storefront/backend/config"
	httpDelivery "github.com/storefront/backend/internal/delivery/http"
	"github.com/storefront/backend/internal/domain"
	"github.com/storefront/backend/internal/infrastructure/badgerstore"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/shopify"
	"github.com/storefront/backend/internal/logger"
	"github.com/storefront/backend/internal/metrics"
	"github.com/storefront/backend/internal/usecase"
	"go.uber.org/zap"
)

const serviceName = "storefront-backend"

func main() {
	// Load configuration
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Environment,
		ServiceName: serviceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting storefront backend",
		zap.String("port", cfg.Server.Port),
		zap.String("catalog_source", cfg.Catalog.Source),
		zap.Strings("allowed_origins", cfg.Server.AllowedOrigins))

	m := metrics.New(serviceName)

	// Initialize infrastructure dependencies
	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Stop()

	cartRepo, err := badgerstore.Open(cfg.Cart.DBPath, cfg.Cart.Namespace, log)
	if err != nil {
		return fmt.Errorf("open cart store: %w", err)
	}
	defer func() {
		if err := cartRepo.Close(); err != nil {
			log.Error("failed to close cart store", zap.Error(err))
		}
	}()
	if ids, err := cartRepo.CartIDs(ctx); err == nil {
		log.Info("cart store ready", zap.String("path", cfg.Cart.DBPath), zap.Int("carts", len(ids)))
	}

	// The interfaces stay nil in demo mode so the services fall back to fixtures
	var (
		storefront domain.StorefrontClient
		gateway    domain.CheckoutGateway
	)
	transformer := shopify.NewTransformer(log)
	if cfg.Catalog.Source == domain.CatalogSourceShopify {
		client := shopify.NewClient(shopify.Config{
			StoreDomain:       cfg.Shopify.StoreDomain,
			AccessToken:       cfg.Shopify.AccessToken,
			APIVersion:        cfg.Shopify.APIVersion,
			Timeout:           cfg.Shopify.Timeout,
			RequestsPerSecond: cfg.RateLimit.ShopifyRPS,
			Burst:             cfg.RateLimit.ShopifyBurst,
		}, log)
		client.SetObserver(m)

		if cfg.Server.Environment == "development" {
			client.SetDebug(true)
			testConnection(ctx, client, log)
		}
		log.Info("storefront API configured",
			zap.String("endpoint", client.Endpoint()),
			zap.Bool("mock", cfg.Shopify.IsMock()))

		storefront = client
		gateway = client
	}

	// Initialize usecase layer
	catalog := usecase.NewCatalogService(storefront, transformer, memoryCache, usecase.CatalogServiceConfig{
		Source:    cfg.Catalog.Source,
		CacheTTL:  cfg.Cache.CatalogTTL,
		FetchSize: cfg.Catalog.FetchSize,
	}, log)
	categories := usecase.NewCategoryService(storefront, catalog, memoryCache, usecase.CategoryServiceConfig{
		CacheTTL:      cfg.Cache.CategoryTTL,
		ProductsLimit: cfg.Catalog.ProductsLimit,
	}, log)
	unsubscribe := categories.Subscribe(func(set domain.FacetSet) {
		if set.Error != "" {
			log.Warn("serving fallback facets", zap.String("error", set.Error))
		}
	})
	defer unsubscribe()

	checkout := usecase.NewCheckoutService(gateway, log)
	carts := usecase.NewCartService(cartRepo, catalog, checkout, log)

	handler := httpDelivery.NewHandler(catalog, categories, carts, log)
	router := httpDelivery.SetupRouter(cfg, handler, log, m)

	// Request contexts end when shutdown begins so open event streams let go
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}
	server.RegisterOnShutdown(cancelRequests)

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// testConnection logs whether the storefront answers; failures are not fatal
// because the catalog falls back to demo products
func testConnection(ctx context.Context, client *shopify.Client, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	name, err := client.ShopName(ctx)
	if err != nil {
		log.Warn("storefront connection test failed", zap.Error(err))
		return
	}
	log.Info("connected to storefront", zap.String("shop", name))
}
