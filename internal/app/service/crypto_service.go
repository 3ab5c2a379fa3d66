package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/config"
	"portfolio_checker/internal/domain/entity"
	"portfolio_checker/internal/pkg/metrics"
)

const fundingBalanceSource = "Funding Account"

// cryptoValuationServiceImpl implements port.CryptoValuationService. It owns the
// per-run balance aggregation: every coin is fetched in isolation, so one
// failing coin cannot abort the rest of the universe.
type cryptoValuationServiceImpl struct {
	client       port.ExchangeClient
	universe     port.CoinUniverseResolver
	prices       port.PriceResolver
	earn         *EarnLedgerValuer
	cfg          *config.Config
	aliases      *config.AliasIndex
	logger       *zap.Logger
	fetchTimeout time.Duration
}

// NewCryptoValuationService creates a new crypto valuation service.
func NewCryptoValuationService(
	client port.ExchangeClient,
	universe port.CoinUniverseResolver,
	prices port.PriceResolver,
	earn *EarnLedgerValuer,
	cfg *config.Config,
	aliases *config.AliasIndex,
	logger *zap.Logger,
) port.CryptoValuationService {
	return &cryptoValuationServiceImpl{
		client:       client,
		universe:     universe,
		prices:       prices,
		earn:         earn,
		cfg:          cfg,
		aliases:      aliases,
		logger:       logger.Named("CryptoValuationService"),
		fetchTimeout: time.Duration(cfg.Bybit.RequestTimeoutMillis) * time.Millisecond,
	}
}

// GetAccountValue implements port.CryptoValuationService.
func (s *cryptoValuationServiceImpl) GetAccountValue(ctx context.Context) entity.PortfolioValuation {
	coins := s.orderSpecialFirst(s.universe.CoinsToCheck(ctx))
	prices := s.prices.ResolvePrices(ctx, coins)

	balances, cryptoTotal, valErrors := s.aggregateBalances(ctx, coins, prices)
	earnProducts, earnTotal := s.earn.Value(s.cfg.EarnHoldings, prices)

	totalValueUSD := cryptoTotal + earnTotal
	rate := s.cfg.Portfolio.UsdToGbpRate

	s.logger.Info("Account valuation complete",
		zap.Int("coinsChecked", len(coins)),
		zap.Int("balancesFound", len(balances)),
		zap.Int("fetchErrors", len(valErrors)),
		zap.Float64("cryptoTotalUSD", cryptoTotal),
		zap.Float64("earnTotalUSD", earnTotal))
	metrics.ValuationRunsTotal.WithLabelValues("getAccountValue", "ok").Inc()

	return entity.PortfolioValuation{
		Success:        true,
		TotalValueUSD:  totalValueUSD,
		TotalValueGBP:  totalValueUSD * rate,
		CoinBalances:   balances,
		CoinPrices:     prices,
		EarnProducts:   earnProducts,
		EarnValueUSD:   earnTotal,
		ConversionRate: entity.ConversionRate{UsdToGbp: rate},
		Errors:         valErrors,
		Timestamp:      time.Now().UnixMilli(),
	}
}

// GetFundingAccountBalance implements port.CryptoValuationService. Unlike the
// full valuation this uses the bulk balance-list endpoint: the venue decides the
// coin set and a venue-wide failure is surfaced to the caller.
func (s *cryptoValuationServiceImpl) GetFundingAccountBalance(ctx context.Context) (entity.FundingAccountBalance, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()

	coinBalances, err := s.client.GetAccountCoinsBalance(fetchCtx, s.cfg.Bybit.AccountType, nil)
	if err != nil {
		s.logger.Error("Failed to fetch funding account balance list", zap.Error(err))
		metrics.ValuationRunsTotal.WithLabelValues("getFundingAccountBalance", "error").Inc()
		return entity.FundingAccountBalance{}, err
	}

	held := make([]string, 0, len(coinBalances))
	for _, cb := range coinBalances {
		if cb.WalletBalance > 0 {
			held = append(held, cb.Coin)
		}
	}
	prices := s.prices.ResolvePrices(ctx, held)

	assets := make([]entity.BalanceEntry, 0, len(held))
	var totalUsdValue float64
	for _, cb := range coinBalances {
		if cb.WalletBalance <= 0 {
			continue
		}
		price := prices[config.Canonical(cb.Coin)].PriceUSD
		usdValue := cb.WalletBalance * price
		totalUsdValue += usdValue
		assets = append(assets, entity.BalanceEntry{
			Coin:            cb.Coin,
			WalletBalance:   cb.WalletBalance,
			TransferBalance: cb.TransferBalance,
			PriceUSD:        price,
			UsdValue:        usdValue,
			Source:          fundingBalanceSource,
		})
	}
	sortByUsdValueDesc(assets)

	metrics.ValuationRunsTotal.WithLabelValues("getFundingAccountBalance", "ok").Inc()
	return entity.FundingAccountBalance{
		Success:       true,
		Assets:        assets,
		TotalUsdValue: totalUsdValue,
		Timestamp:     time.Now().UnixMilli(),
	}, nil
}

// aggregateBalances fans out one balance fetch per coin, bounded by the
// configured concurrency limit, and joins before totals are read. Each coin
// writes its result exactly once; the slice and total are guarded by one mutex.
func (s *cryptoValuationServiceImpl) aggregateBalances(
	ctx context.Context,
	coins []string,
	prices map[string]entity.PriceEntry,
) ([]entity.BalanceEntry, float64, []entity.ValuationError) {
	var (
		mu        sync.Mutex
		balances  []entity.BalanceEntry
		total     float64
		valErrors []entity.ValuationError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Portfolio.MaxConcurrentRequests)

	for _, coin := range coins {
		// Aliases of a primary that is itself in the universe would double
		// count the same holding.
		if s.aliases.IsAlias(coin) {
			s.logger.Debug("Skipping alias of a checked primary", zap.String("symbol", coin))
			continue
		}

		g.Go(func() error {
			balance, err := s.fetchBalanceWithAliases(gctx, coin)
			if err != nil {
				s.logger.Warn("Skipping coin after failed fetch and alias retries",
					zap.String("symbol", coin), zap.Error(err))
				metrics.CoinFetchFailures.Inc()
				mu.Lock()
				valErrors = append(valErrors, entity.ValuationError{
					Venue:   bybitVenueName,
					Symbol:  coin,
					Message: err.Error(),
				})
				mu.Unlock()
				return nil
			}
			if balance.WalletBalance <= 0 {
				return nil
			}

			price := prices[coin].PriceUSD
			usdValue := balance.WalletBalance * price

			mu.Lock()
			balances = append(balances, entity.BalanceEntry{
				Coin:            coin,
				WalletBalance:   balance.WalletBalance,
				TransferBalance: balance.TransferBalance,
				PriceUSD:        price,
				UsdValue:        usdValue,
				Source:          fundingBalanceSource,
			})
			total += usdValue
			mu.Unlock()
			return nil
		})
	}

	// Goroutines never return an error; Wait is the phase join.
	_ = g.Wait()

	sortByUsdValueDesc(balances)
	return balances, total, valErrors
}

const bybitVenueName = "bybit"

// fetchBalanceWithAliases fetches one coin's balance, retrying under each
// declared alias in turn and stopping at the first success.
func (s *cryptoValuationServiceImpl) fetchBalanceWithAliases(ctx context.Context, coin string) (entity.CoinBalance, error) {
	names := append([]string{coin}, s.aliases.AliasesOf(coin)...)

	var lastErr error
	for i, name := range names {
		fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
		balance, err := s.client.GetAccountCoinBalance(fetchCtx, s.cfg.Bybit.AccountType, name)
		cancel()
		if err == nil {
			if i > 0 {
				s.logger.Debug("Balance fetched under alternate name",
					zap.String("primary", coin), zap.String("alias", name))
			}
			balance.Coin = coin
			return balance, nil
		}
		lastErr = err
	}
	return entity.CoinBalance{}, lastErr
}

// orderSpecialFirst moves the special-interest coins to the front of the
// universe. Priority affects fetch order and log clarity only, never the total.
func (s *cryptoValuationServiceImpl) orderSpecialFirst(coins []string) []string {
	special := make(map[string]struct{}, len(s.cfg.Coins.Special))
	for _, sym := range s.cfg.Coins.Special {
		special[config.Canonical(sym)] = struct{}{}
	}

	ordered := make([]string, 0, len(coins))
	rest := make([]string, 0, len(coins))
	for _, coin := range coins {
		if _, ok := special[coin]; ok {
			ordered = append(ordered, coin)
		} else {
			rest = append(rest, coin)
		}
	}
	return append(ordered, rest...)
}

func sortByUsdValueDesc(entries []entity.BalanceEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UsdValue > entries[j].UsdValue
	})
}
