package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/config"
)

// coinUniverseResolverImpl implements port.CoinUniverseResolver.
type coinUniverseResolverImpl struct {
	client         port.ExchangeClient
	cfg            *config.Config
	logger         *zap.Logger
	catalogTimeout time.Duration
}

// NewCoinUniverseResolver creates a new coin universe resolver.
func NewCoinUniverseResolver(client port.ExchangeClient, cfg *config.Config, logger *zap.Logger) port.CoinUniverseResolver {
	return &coinUniverseResolverImpl{
		client:         client,
		cfg:            cfg,
		logger:         logger.Named("CoinUniverseResolver"),
		catalogTimeout: time.Duration(cfg.Bybit.RequestTimeoutMillis) * time.Millisecond,
	}
}

// CoinsToCheck implements port.CoinUniverseResolver. The static configured set
// always comes first; catalog coins extend it in catalog order. A failing
// catalog fetch returns the static set unchanged.
func (r *coinUniverseResolverImpl) CoinsToCheck(ctx context.Context) []string {
	coins := r.cfg.Coins.AllConfiguredCoins()

	catalogCtx, cancel := context.WithTimeout(ctx, r.catalogTimeout)
	defer cancel()

	catalog, err := r.client.GetCoinCatalog(catalogCtx)
	if err != nil {
		r.logger.Warn("Coin catalog fetch failed, using static configured set",
			zap.Int("staticCount", len(coins)),
			zap.Error(err))
		return coins
	}

	seen := make(map[string]struct{}, len(coins))
	for _, sym := range coins {
		seen[sym] = struct{}{}
	}
	added := 0
	for _, raw := range catalog {
		sym := config.Canonical(raw)
		if sym == "" {
			continue
		}
		if _, ok := seen[sym]; ok {
			continue
		}
		seen[sym] = struct{}{}
		coins = append(coins, sym)
		added++
	}

	r.logger.Debug("Coin universe resolved",
		zap.Int("staticCount", len(coins)-added),
		zap.Int("catalogAdded", added),
		zap.Int("total", len(coins)))
	return coins
}
