package http

import (
	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/config"
	"github.com/storefront/backend/internal/logger"
	"github.com/storefront/backend/internal/metrics"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(logger.RequestID())
	router.Use(logger.Middleware(log))
	router.Use(logger.Recovery(log))
	if m != nil {
		router.Use(m.Middleware())
	}
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", handler.ListProducts)
		v1.GET("/products/:ref", handler.GetProduct)
		v1.GET("/categories", handler.ListCategories)

		carts := v1.Group("/carts")
		{
			carts.POST("", handler.CreateCart)
			carts.GET("/:cartID", handler.GetCart)
			carts.GET("/:cartID/events", handler.CartEvents)
			carts.POST("/:cartID/items", handler.AddItem)
			carts.DELETE("/:cartID/items", handler.ClearCart)
			carts.PATCH("/:cartID/items/:itemID", handler.UpdateItem)
			carts.DELETE("/:cartID/items/:itemID", handler.RemoveItem)
			carts.POST("/:cartID/checkout", handler.Checkout)
		}
	}

	return router
}
