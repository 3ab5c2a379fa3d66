package service

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/config"
	"portfolio_checker/internal/domain/entity"
)

const (
	tickerCategorySpot  = "spot"
	tickerQuoteSuffix   = "USDT"
	tickerSnapshotKey   = "spot-ticker-snapshot"
	stablecoinPegPrice  = 1.0
	unresolvedZeroPrice = 0.0
)

// priceStrategy is one named step of the fallback chain. It either produces a
// price for the symbol or passes.
type priceStrategy struct {
	source  entity.PriceSource
	resolve func(symbol string, snapshot map[string]float64) (float64, bool)
}

// priceResolverImpl implements port.PriceResolver as an ordered strategy chain:
// ticker snapshot, default table, alias inheritance, stablecoin peg. A symbol no
// strategy claims resolves to zero, never to an absent entry.
type priceResolverImpl struct {
	client        port.ExchangeClient
	cfg           *config.Config
	aliases       *config.AliasIndex
	logger        *zap.Logger
	snapshotCache *cache.Cache
	fetchTimeout  time.Duration
	strategies    []priceStrategy
}

// NewPriceResolver creates a new price resolver.
func NewPriceResolver(client port.ExchangeClient, cfg *config.Config, aliases *config.AliasIndex, logger *zap.Logger) port.PriceResolver {
	ttl := time.Duration(cfg.Portfolio.PriceCacheTTLMinutes) * time.Minute
	r := &priceResolverImpl{
		client:        client,
		cfg:           cfg,
		aliases:       aliases,
		logger:        logger.Named("PriceResolver"),
		snapshotCache: cache.New(ttl, 10*time.Minute),
		fetchTimeout:  time.Duration(cfg.Bybit.RequestTimeoutMillis) * time.Millisecond,
	}

	tickerStrategy := priceStrategy{
		source: entity.PriceSourceTicker,
		resolve: func(symbol string, snapshot map[string]float64) (float64, bool) {
			price, ok := snapshot[symbol]
			return price, ok && price > 0
		},
	}
	defaultStrategy := priceStrategy{
		source: entity.PriceSourceDefault,
		resolve: func(symbol string, _ map[string]float64) (float64, bool) {
			price := cfg.Coins.DefaultPrice(symbol)
			return price, price > 0
		},
	}
	pegStrategy := priceStrategy{
		source: entity.PriceSourcePeg,
		resolve: func(symbol string, _ map[string]float64) (float64, bool) {
			if cfg.Coins.IsStablecoin(symbol) {
				return stablecoinPegPrice, true
			}
			return 0, false
		},
	}
	// Alias inheritance copies whatever price the primary would resolve to
	// through the non-alias strategies. Declared relationship only, never inferred.
	aliasStrategy := priceStrategy{
		source: entity.PriceSourceAlias,
		resolve: func(symbol string, snapshot map[string]float64) (float64, bool) {
			primary, ok := aliases.PrimaryOf(symbol)
			if !ok {
				return 0, false
			}
			for _, strat := range []priceStrategy{tickerStrategy, defaultStrategy, pegStrategy} {
				if price, found := strat.resolve(primary, snapshot); found {
					return price, true
				}
			}
			return 0, false
		},
	}

	r.strategies = []priceStrategy{tickerStrategy, defaultStrategy, aliasStrategy, pegStrategy}
	return r
}

// ResolvePrices implements port.PriceResolver. One bulk snapshot covers the run;
// if the fetch fails the whole run degrades to the static strategies.
func (r *priceResolverImpl) ResolvePrices(ctx context.Context, symbols []string) map[string]entity.PriceEntry {
	snapshot := r.tickerSnapshot(ctx)

	prices := make(map[string]entity.PriceEntry, len(symbols))
	for _, raw := range symbols {
		sym := config.Canonical(raw)
		if sym == "" {
			continue
		}
		if _, done := prices[sym]; done {
			continue
		}
		prices[sym] = r.resolveOne(sym, snapshot)
	}
	return prices
}

func (r *priceResolverImpl) resolveOne(symbol string, snapshot map[string]float64) entity.PriceEntry {
	for _, strat := range r.strategies {
		if price, ok := strat.resolve(symbol, snapshot); ok {
			r.logger.Debug("Price resolved",
				zap.String("symbol", symbol),
				zap.Float64("priceUSD", price),
				zap.String("source", string(strat.source)))
			return entity.PriceEntry{Symbol: symbol, PriceUSD: price, Source: strat.source}
		}
	}
	r.logger.Warn("Price unresolved, symbol contributes zero", zap.String("symbol", symbol))
	return entity.PriceEntry{Symbol: symbol, PriceUSD: unresolvedZeroPrice, Source: entity.PriceSourceUnresolved}
}

// tickerSnapshot returns the coin->USD map parsed from the bulk spot ticker
// snapshot, cached for the configured TTL. Returns nil on fetch failure so the
// strategies fall through to the static sources.
func (r *priceResolverImpl) tickerSnapshot(ctx context.Context) map[string]float64 {
	if cached, found := r.snapshotCache.Get(tickerSnapshotKey); found {
		if snapshot, ok := cached.(map[string]float64); ok {
			return snapshot
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, r.fetchTimeout)
	defer cancel()

	tickers, err := r.client.GetTickers(fetchCtx, tickerCategorySpot)
	if err != nil {
		r.logger.Warn("Bulk ticker fetch failed, degrading to static price sources", zap.Error(err))
		return nil
	}

	snapshot := make(map[string]float64, len(tickers))
	for _, t := range tickers {
		if !strings.HasSuffix(t.Symbol, tickerQuoteSuffix) {
			continue
		}
		coin := strings.TrimSuffix(t.Symbol, tickerQuoteSuffix)
		if coin == "" || t.LastPrice <= 0 {
			continue
		}
		snapshot[config.Canonical(coin)] = t.LastPrice
	}

	r.snapshotCache.Set(tickerSnapshotKey, snapshot, cache.DefaultExpiration)
	r.logger.Info("Ticker snapshot cached", zap.Int("pairCount", len(snapshot)))
	return snapshot
}
