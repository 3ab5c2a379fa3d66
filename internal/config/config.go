package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"portfolio_checker/internal/domain/entity"
)

// Config holds the overall configuration for the application. It is constructed
// once at startup and passed by reference; no component reads process state.
type Config struct {
	Server       ServerConfig         `yaml:"server"`
	Logging      LoggingConfig        `yaml:"logging"`
	Swagger      SwaggerConfig        `yaml:"swagger"`
	Bybit        BybitConfig          `yaml:"bybit"`
	Trading212   Trading212Config     `yaml:"trading212"`
	Portfolio    PortfolioConfig      `yaml:"portfolio"`
	Coins        CoinsConfig          `yaml:"coins"`
	EarnHoldings []entity.EarnHolding `yaml:"earnHoldings"`
	Accounts     []AccountConfig      `yaml:"accounts"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
}

// SwaggerConfig holds configuration for Swagger UI.
type SwaggerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// BybitConfig holds the configuration for the Bybit API client.
type BybitConfig struct {
	BaseURL              string `yaml:"baseURL"`
	AccountType          string `yaml:"accountType"`
	RecvWindow           string `yaml:"recvWindow"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	RateLimit            int    `yaml:"rateLimit"`
	BurstLimit           int    `yaml:"burstLimit"`
}

// Trading212Config holds the configuration for the Trading212 API clients.
type Trading212Config struct {
	BaseURL              string `yaml:"baseURL"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	RateLimit            int    `yaml:"rateLimit"`
	BurstLimit           int    `yaml:"burstLimit"`
}

// PortfolioConfig holds configuration for the valuation services.
type PortfolioConfig struct {
	UsdToGbpRate           float64 `yaml:"usdToGbpRate"`
	MaxConcurrentRequests  int     `yaml:"maxConcurrentRequests"`
	PriceCacheTTLMinutes   int     `yaml:"priceCacheTTLMinutes"`
	DivergenceToleranceGBP float64 `yaml:"divergenceToleranceGBP"`
}

// AccountConfig is one configured brokerage account. The API key itself is read
// from the environment variable named by APIKeyEnv at startup, never stored here.
type AccountConfig struct {
	ID        int    `yaml:"id"`
	Name      string `yaml:"name"`
	APIKeyEnv string `yaml:"apiKeyEnv"`
	Enabled   bool   `yaml:"enabled"`
}

// EarnFilterConfig selects which earn product categories and statuses count
// towards the total value.
type EarnFilterConfig struct {
	Categories       []string `yaml:"categories"`
	IncludedStatuses []string `yaml:"includedStatuses"`
}

// CoinsConfig is the static coin universe: tiered symbol lists, the alias map
// (primary -> alternate spellings), and the default fallback price table.
type CoinsConfig struct {
	Stablecoins      []string            `yaml:"stablecoins"`
	Major            []string            `yaml:"major"`
	MidCap           []string            `yaml:"midCap"`
	Special          []string            `yaml:"special"`
	AlternativeNames map[string][]string `yaml:"alternativeNames"`
	DefaultPrices    map[string]float64  `yaml:"defaultPrices"`
	Earn             EarnFilterConfig    `yaml:"earn"`
}

// Canonical returns the canonical spelling of a coin symbol.
func Canonical(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// AllConfiguredCoins returns every configured symbol exactly once, in declaration
// order: stablecoins, major, mid-cap, special, then alias spellings. Alias map
// keys are visited in sorted order because map iteration is random and the
// universe must be stable within a run.
func (c CoinsConfig) AllConfiguredCoins() []string {
	seen := make(map[string]struct{})
	coins := make([]string, 0, len(c.Stablecoins)+len(c.Major)+len(c.MidCap)+len(c.Special))

	appendCoins := func(symbols []string) {
		for _, s := range symbols {
			sym := Canonical(s)
			if sym == "" {
				continue
			}
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			coins = append(coins, sym)
		}
	}

	appendCoins(c.Stablecoins)
	appendCoins(c.Major)
	appendCoins(c.MidCap)
	appendCoins(c.Special)

	primaries := make([]string, 0, len(c.AlternativeNames))
	for primary := range c.AlternativeNames {
		primaries = append(primaries, primary)
	}
	sort.Strings(primaries)
	for _, primary := range primaries {
		appendCoins(c.AlternativeNames[primary])
	}
	return coins
}

// DefaultPrice returns the static fallback price for a coin, or 0 if none is declared.
func (c CoinsConfig) DefaultPrice(symbol string) float64 {
	return c.DefaultPrices[Canonical(symbol)]
}

// IsStablecoin reports whether the symbol is in the declared stablecoin set.
func (c CoinsConfig) IsStablecoin(symbol string) bool {
	sym := Canonical(symbol)
	for _, s := range c.Stablecoins {
		if Canonical(s) == sym {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from a YAML file and applies defaults.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "3000"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15
	}
	if cfg.Server.WriteTimeout <= 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout <= 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Bybit.BaseURL == "" {
		cfg.Bybit.BaseURL = "https://api.bybit.com"
		logrus.Infof("Bybit.BaseURL not set, defaulting to %s", cfg.Bybit.BaseURL)
	}
	if cfg.Bybit.AccountType == "" {
		cfg.Bybit.AccountType = "FUND"
	}
	if cfg.Bybit.RecvWindow == "" {
		cfg.Bybit.RecvWindow = "5000"
	}
	if cfg.Bybit.RequestTimeoutMillis == 0 {
		cfg.Bybit.RequestTimeoutMillis = 10000
		logrus.Infof("Bybit.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Bybit.RequestTimeoutMillis)
	}
	if cfg.Trading212.BaseURL == "" {
		cfg.Trading212.BaseURL = "https://live.trading212.com/api/v0"
		logrus.Infof("Trading212.BaseURL not set, defaulting to %s", cfg.Trading212.BaseURL)
	}
	if cfg.Trading212.RequestTimeoutMillis == 0 {
		cfg.Trading212.RequestTimeoutMillis = 10000
	}
	if cfg.Portfolio.UsdToGbpRate <= 0 {
		cfg.Portfolio.UsdToGbpRate = 0.79
		logrus.Infof("Portfolio.UsdToGbpRate not set, defaulting to %.2f", cfg.Portfolio.UsdToGbpRate)
	}
	if cfg.Portfolio.MaxConcurrentRequests <= 0 {
		cfg.Portfolio.MaxConcurrentRequests = 5
	}
	if cfg.Portfolio.PriceCacheTTLMinutes <= 0 {
		cfg.Portfolio.PriceCacheTTLMinutes = 5
		logrus.Infof("Portfolio.PriceCacheTTLMinutes not set, defaulting to %d minutes", cfg.Portfolio.PriceCacheTTLMinutes)
	}
	if cfg.Portfolio.DivergenceToleranceGBP <= 0 {
		cfg.Portfolio.DivergenceToleranceGBP = 1.0
	}

	for _, acc := range cfg.Accounts {
		if acc.Enabled && acc.APIKeyEnv == "" {
			logrus.Warnf("Account %d (%s) is enabled but has no apiKeyEnv configured; it will stay disabled.", acc.ID, acc.Name)
		}
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}
