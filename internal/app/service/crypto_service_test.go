package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"portfolio_checker/internal/config"
	"portfolio_checker/internal/domain/entity"
)

func newCryptoService(t *testing.T, client *mockExchangeClient, cfg *config.Config) *cryptoValuationServiceImpl {
	t.Helper()
	logger := zap.NewNop()
	aliases := config.NewAliasIndex(cfg.Coins.AlternativeNames)
	universe := NewCoinUniverseResolver(client, cfg, logger)
	prices := NewPriceResolver(client, cfg, aliases, logger)
	earn := NewEarnLedgerValuer(logger)
	svc := NewCryptoValuationService(client, universe, prices, earn, cfg, aliases, logger)
	return svc.(*cryptoValuationServiceImpl)
}

func TestGetAccountValueTotalsAndConversion(t *testing.T) {
	cfg := newTestConfig()
	cfg.Coins.Special = nil
	cfg.Coins.AlternativeNames = nil
	client := &mockExchangeClient{
		tickers: []entity.Ticker{{Symbol: "BTCUSDT", LastPrice: 60000}},
		balances: map[string]entity.CoinBalance{
			"BTC":  {Coin: "BTC", WalletBalance: 0.1},
			"USDT": {Coin: "USDT", WalletBalance: 500},
		},
	}
	svc := newCryptoService(t, client, cfg)

	v := svc.GetAccountValue(context.Background())

	assert.True(t, v.Success)
	assert.Empty(t, v.Errors)
	assert.InDelta(t, 6500.0, v.TotalValueUSD, 1e-6)
	assert.InDelta(t, 6500.0*0.79, v.TotalValueGBP, 1e-6)

	// Sum of parts equals the reported total.
	var sum float64
	for _, bal := range v.CoinBalances {
		sum += bal.UsdValue
	}
	assert.InDelta(t, v.TotalValueUSD, sum+v.EarnValueUSD, 1e-6)

	// Sorted by USD value descending.
	require.Len(t, v.CoinBalances, 2)
	assert.Equal(t, "BTC", v.CoinBalances[0].Coin)
	assert.Equal(t, "USDT", v.CoinBalances[1].Coin)
}

func TestGetAccountValuePartialFailureIsRecoverable(t *testing.T) {
	cfg := newTestConfig()
	cfg.Coins.Special = nil
	cfg.Coins.AlternativeNames = nil
	client := &mockExchangeClient{
		balances: map[string]entity.CoinBalance{
			"USDT": {Coin: "USDT", WalletBalance: 100},
		},
		balanceErr: map[string]error{
			"BTC": errors.New("venue hiccup"),
			"ETH": errors.New("venue hiccup"),
		},
	}
	svc := newCryptoService(t, client, cfg)

	v := svc.GetAccountValue(context.Background())

	assert.True(t, v.Success)
	assert.Len(t, v.Errors, 2)
	assert.InDelta(t, 100.0, v.TotalValueUSD, 1e-6)
	for _, e := range v.Errors {
		assert.Equal(t, "bybit", e.Venue)
		assert.Contains(t, []string{"BTC", "ETH"}, e.Symbol)
	}
}

func TestGetAccountValueAliasRetryStopsAtFirstSuccess(t *testing.T) {
	cfg := newTestConfig()
	cfg.Coins.Stablecoins = nil
	cfg.Coins.Major = nil
	cfg.Coins.Special = []string{"XLM"}
	cfg.Coins.AlternativeNames = map[string][]string{"XLM": {"STELLAR", "XLM"}}
	client := &mockExchangeClient{
		balances: map[string]entity.CoinBalance{
			"STELLAR": {Coin: "STELLAR", WalletBalance: 100},
		},
		balanceErr: map[string]error{
			"XLM": errors.New("unknown coin"),
		},
	}
	svc := newCryptoService(t, client, cfg)

	v := svc.GetAccountValue(context.Background())

	assert.Empty(t, v.Errors)
	require.Len(t, v.CoinBalances, 1)
	// The balance is reported under the primary symbol.
	assert.Equal(t, "XLM", v.CoinBalances[0].Coin)
	assert.InDelta(t, 100.0*0.15, v.CoinBalances[0].UsdValue, 1e-9)
	assert.Equal(t, []string{"XLM", "STELLAR"}, client.calls())
}

func TestGetAccountValueSkipsAliasSymbols(t *testing.T) {
	cfg := newTestConfig()
	cfg.Coins.Stablecoins = nil
	cfg.Coins.Major = []string{"BTC"}
	cfg.Coins.Special = nil
	client := &mockExchangeClient{
		balances: map[string]entity.CoinBalance{
			"BTC":     {Coin: "BTC", WalletBalance: 1},
			"BITCOIN": {Coin: "BITCOIN", WalletBalance: 1},
			"STELLAR": {Coin: "STELLAR", WalletBalance: 1},
		},
	}
	svc := newCryptoService(t, client, cfg)

	v := svc.GetAccountValue(context.Background())

	// BITCOIN and STELLAR are declared aliases; fetching them too would double
	// count the same holding.
	for _, coin := range client.calls() {
		assert.NotContains(t, []string{"BITCOIN", "STELLAR"}, coin)
	}
	for _, bal := range v.CoinBalances {
		assert.NotContains(t, []string{"BITCOIN", "STELLAR"}, bal.Coin)
	}
}

func TestGetAccountValueIgnoresZeroBalances(t *testing.T) {
	cfg := newTestConfig()
	cfg.Coins.Special = nil
	cfg.Coins.AlternativeNames = nil
	client := &mockExchangeClient{
		balances: map[string]entity.CoinBalance{
			"BTC": {Coin: "BTC", WalletBalance: 0},
			"ETH": {Coin: "ETH", WalletBalance: 0},
		},
	}
	svc := newCryptoService(t, client, cfg)

	v := svc.GetAccountValue(context.Background())

	assert.Empty(t, v.CoinBalances)
	assert.Equal(t, 0.0, v.TotalValueUSD)
}

func TestGetAccountValueIncludesEarnLedger(t *testing.T) {
	cfg := newTestConfig()
	cfg.Coins.Special = nil
	cfg.Coins.AlternativeNames = nil
	cfg.EarnHoldings = []entity.EarnHolding{
		{Coin: "ETH", Name: "ETH", Amount: 2, APY: "1%", Type: "FIXED"},
	}
	client := &mockExchangeClient{
		tickers: []entity.Ticker{{Symbol: "ETHUSDT", LastPrice: 3000}},
	}
	svc := newCryptoService(t, client, cfg)

	v := svc.GetAccountValue(context.Background())

	require.Len(t, v.EarnProducts, 1)
	assert.InDelta(t, 6000.0, v.EarnValueUSD, 1e-6)
	assert.InDelta(t, 6000.0, v.TotalValueUSD, 1e-6)
}

func TestGetFundingAccountBalance(t *testing.T) {
	cfg := newTestConfig()
	client := &mockExchangeClient{
		tickers: []entity.Ticker{{Symbol: "BTCUSDT", LastPrice: 60000}},
		bulkBalances: []entity.CoinBalance{
			{Coin: "BTC", WalletBalance: 0.1, TransferBalance: 0.1},
			{Coin: "USDT", WalletBalance: 500, TransferBalance: 500},
			{Coin: "ETH", WalletBalance: 0},
		},
	}
	svc := newCryptoService(t, client, cfg)

	balance, err := svc.GetFundingAccountBalance(context.Background())

	require.NoError(t, err)
	assert.True(t, balance.Success)
	require.Len(t, balance.Assets, 2)
	assert.Equal(t, "BTC", balance.Assets[0].Coin)
	assert.InDelta(t, 6000.0, balance.Assets[0].UsdValue, 1e-6)
	assert.InDelta(t, 6500.0, balance.TotalUsdValue, 1e-6)
}

func TestGetFundingAccountBalanceVenueFailure(t *testing.T) {
	cfg := newTestConfig()
	client := &mockExchangeClient{bulkErr: errors.New("auth rejected")}
	svc := newCryptoService(t, client, cfg)

	_, err := svc.GetFundingAccountBalance(context.Background())

	assert.Error(t, err)
}
