package restapi

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"portfolio_checker/internal/config"
)

// SetupRouter wires the HTTP surface: the crypto and brokerage endpoint groups,
// Prometheus metrics, and the optional Swagger UI.
func SetupRouter(cfg *config.Config, cryptoHandler *CryptoHandler, brokerageHandler *BrokerageHandler, logger *zap.Logger) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))
	router.Use(ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	{
		bybit := v1.Group("/bybit")
		{
			bybit.GET("/funding", cryptoHandler.GetFundingBalance)
			bybit.GET("/balance", cryptoHandler.GetAccountValue)
		}

		trading212 := v1.Group("/trading212")
		{
			trading212.GET("/accounts", brokerageHandler.ListAccounts)
			trading212.GET("/value", brokerageHandler.GetAccountValue)
			trading212.GET("/value/all", brokerageHandler.GetAllAccountsValue)
			trading212.GET("/ping", brokerageHandler.Ping)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.Swagger.Enabled {
		router.StaticFile("/docs/swagger.yaml", "docs/swagger.yaml")
		router.GET(cfg.Swagger.Path+"/*any", ginSwagger.WrapHandler(swaggerFiles.Handler,
			ginSwagger.URL("/docs/swagger.yaml")))
		logger.Info("Swagger UI enabled", zap.String("path", cfg.Swagger.Path+"/index.html"))
	}

	return router
}
