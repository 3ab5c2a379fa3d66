package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"

	"portfolio_checker/internal/app/service"
	"portfolio_checker/internal/client"
	"portfolio_checker/internal/config"
	"portfolio_checker/internal/infrastructure/restapi"
	"portfolio_checker/internal/pkg/logger"
	"portfolio_checker/internal/pkg/metrics"
	"portfolio_checker/internal/pkg/utils"
	"portfolio_checker/internal/renderer"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := utils.GetEnv("CONFIG_PATH", "config/config.yml")
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", cfgPath, "error", err)
		os.Exit(1)
	}

	zapLogger, err := logger.New(cfg.Logging.Level)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()

	// Route slog-based callers through the same zap core.
	slog.SetDefault(slog.New(zapslog.NewHandler(zapLogger.Core())))

	zapLogger.Info("Configuration loaded", zap.String("path", cfgPath))

	metrics.MustRegisterMetrics()

	bybitAPIKey := os.Getenv("BYBIT_API_KEY")
	bybitAPISecret := os.Getenv("BYBIT_API_SECRET")
	if bybitAPIKey == "" || bybitAPISecret == "" {
		zapLogger.Fatal("BYBIT_API_KEY and BYBIT_API_SECRET must be set")
	}

	accountKeys := make(map[int]string, len(cfg.Accounts))
	for _, acc := range cfg.Accounts {
		if acc.APIKeyEnv == "" {
			continue
		}
		accountKeys[acc.ID] = os.Getenv(acc.APIKeyEnv)
	}

	aliases := config.NewAliasIndex(cfg.Coins.AlternativeNames)

	bybitClient := client.NewBybitClient(cfg.Bybit, bybitAPIKey, bybitAPISecret, zapLogger)
	trading212Provider := client.NewTrading212Provider(cfg.Trading212, cfg.Accounts, accountKeys, zapLogger)

	universe := service.NewCoinUniverseResolver(bybitClient, cfg, zapLogger)
	prices := service.NewPriceResolver(bybitClient, cfg, aliases, zapLogger)
	earn := service.NewEarnLedgerValuer(zapLogger)
	cryptoService := service.NewCryptoValuationService(bybitClient, universe, prices, earn, cfg, aliases, zapLogger)
	brokerageService := service.NewBrokerageService(trading212Provider, cfg, zapLogger)

	markdown := renderer.NewMarkdown()
	cryptoHandler := restapi.NewCryptoHandler(cryptoService, markdown, zapLogger)
	brokerageHandler := restapi.NewBrokerageHandler(brokerageService, markdown, zapLogger)
	router := restapi.SetupRouter(cfg, cryptoHandler, brokerageHandler, zapLogger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		zapLogger.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		zapLogger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exiting")
}
