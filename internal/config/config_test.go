package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeTempConfig(t, `
logging:
  level: "debug"
coins:
  stablecoins: [USDT]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "3000", cfg.Server.Port)
	assert.Equal(t, "https://api.bybit.com", cfg.Bybit.BaseURL)
	assert.Equal(t, "FUND", cfg.Bybit.AccountType)
	assert.Equal(t, "5000", cfg.Bybit.RecvWindow)
	assert.Equal(t, int64(10000), cfg.Bybit.RequestTimeoutMillis)
	assert.Equal(t, "https://live.trading212.com/api/v0", cfg.Trading212.BaseURL)
	assert.Equal(t, 0.79, cfg.Portfolio.UsdToGbpRate)
	assert.Equal(t, 5, cfg.Portfolio.MaxConcurrentRequests)
	assert.Equal(t, 5, cfg.Portfolio.PriceCacheTTLMinutes)
	assert.Equal(t, 1.0, cfg.Portfolio.DivergenceToleranceGBP)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigExplicitValuesWin(t *testing.T) {
	path := writeTempConfig(t, `
server:
  port: "8080"
portfolio:
  usdToGbpRate: 0.81
  maxConcurrentRequests: 10
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 0.81, cfg.Portfolio.UsdToGbpRate)
	assert.Equal(t, 10, cfg.Portfolio.MaxConcurrentRequests)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestLoadConfigParsesCoinsAndAccounts(t *testing.T) {
	path := writeTempConfig(t, `
coins:
  stablecoins: [USDT, USDC]
  major: [BTC, ETH]
  alternativeNames:
    BTC: [BTC, BITCOIN]
  defaultPrices:
    BTC: 60000
earnHoldings:
  - coin: ETH
    name: ETH
    amount: 0.5
    apy: "1%"
    type: FIXED
accounts:
  - id: 1
    name: "First"
    apiKeyEnv: TRADING212_API_KEY_FIRST
    enabled: true
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"USDT", "USDC"}, cfg.Coins.Stablecoins)
	assert.Equal(t, []string{"BTC", "BITCOIN"}, cfg.Coins.AlternativeNames["BTC"])
	assert.Equal(t, 60000.0, cfg.Coins.DefaultPrices["BTC"])
	require.Len(t, cfg.EarnHoldings, 1)
	assert.Equal(t, "ETH", cfg.EarnHoldings[0].Coin)
	assert.Equal(t, 0.5, cfg.EarnHoldings[0].Amount)
	require.Len(t, cfg.Accounts, 1)
	assert.Equal(t, "TRADING212_API_KEY_FIRST", cfg.Accounts[0].APIKeyEnv)
}

func TestCanonical(t *testing.T) {
	assert.Equal(t, "BTC", Canonical(" btc "))
	assert.Equal(t, "BTC", Canonical("BTC"))
	assert.Equal(t, "", Canonical("   "))
}

func TestAllConfiguredCoinsDedupAndOrder(t *testing.T) {
	coins := CoinsConfig{
		Stablecoins: []string{"USDT", "usdt"},
		Major:       []string{"BTC", "ETH"},
		MidCap:      []string{"ETH", "SUI"},
		Special:     []string{"XLM"},
		AlternativeNames: map[string][]string{
			"XLM": {"STELLAR", "XLM"},
			"BTC": {"BTC", "BITCOIN"},
		},
	}

	got := coins.AllConfiguredCoins()

	// Tier order first, then alias spellings from sorted primaries; no repeats.
	assert.Equal(t, []string{"USDT", "BTC", "ETH", "SUI", "XLM", "BITCOIN", "STELLAR"}, got)
}

func TestDefaultPriceAndStablecoin(t *testing.T) {
	coins := CoinsConfig{
		Stablecoins:   []string{"USDT"},
		DefaultPrices: map[string]float64{"BTC": 60000},
	}

	assert.Equal(t, 60000.0, coins.DefaultPrice("btc"))
	assert.Equal(t, 0.0, coins.DefaultPrice("ETH"))
	assert.True(t, coins.IsStablecoin("usdt"))
	assert.False(t, coins.IsStablecoin("BTC"))
}
