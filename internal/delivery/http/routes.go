package http

import (
	"github.com/allertrack/backend/config"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter creates and configures the Gin router
func SetupRouter(cfg *config.Config, handler *Handler, logger *zap.Logger) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	// Global middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins))

	router.GET("/health", handler.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(cfg.RateLimit.PerIP))
	{
		products := v1.Group("/products")
		{
			products.GET("", handler.SearchProducts)
			products.POST("", handler.CreateProduct)
			products.GET("/barcode/:barcode", handler.GetProductByBarcode)
			products.GET("/:id", handler.GetProduct)
		}

		v1.GET("/catalog/:barcode", handler.GetCatalogProduct)
		v1.GET("/barcodes/:barcode/resolve", handler.ResolveBarcode)
	}

	return router
}
