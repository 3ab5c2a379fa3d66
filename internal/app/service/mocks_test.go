package service

import (
	"context"
	"fmt"
	"sync"

	"portfolio_checker/internal/app/port"
	"portfolio_checker/internal/config"
	"portfolio_checker/internal/domain/entity"
)

// mockExchangeClient is a hand-written port.ExchangeClient double. Balance
// lookups are keyed by the coin name the client was asked for, so alias retry
// behavior is observable through the recorded call log.
type mockExchangeClient struct {
	mu sync.Mutex

	tickers    []entity.Ticker
	tickersErr error

	bulkBalances []entity.CoinBalance
	bulkErr      error

	balances   map[string]entity.CoinBalance
	balanceErr map[string]error

	catalog    []string
	catalogErr error

	balanceCalls []string
}

func (m *mockExchangeClient) GetTickers(_ context.Context, _ string) ([]entity.Ticker, error) {
	if m.tickersErr != nil {
		return nil, m.tickersErr
	}
	return m.tickers, nil
}

func (m *mockExchangeClient) GetAccountCoinsBalance(_ context.Context, _ string, _ []string) ([]entity.CoinBalance, error) {
	if m.bulkErr != nil {
		return nil, m.bulkErr
	}
	return m.bulkBalances, nil
}

func (m *mockExchangeClient) GetAccountCoinBalance(_ context.Context, _ string, coin string) (entity.CoinBalance, error) {
	m.mu.Lock()
	m.balanceCalls = append(m.balanceCalls, coin)
	m.mu.Unlock()

	if err, ok := m.balanceErr[coin]; ok {
		return entity.CoinBalance{}, err
	}
	if balance, ok := m.balances[coin]; ok {
		return balance, nil
	}
	return entity.CoinBalance{Coin: coin}, nil
}

func (m *mockExchangeClient) GetCoinCatalog(_ context.Context) ([]string, error) {
	if m.catalogErr != nil {
		return nil, m.catalogErr
	}
	return m.catalog, nil
}

func (m *mockExchangeClient) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.balanceCalls))
	copy(out, m.balanceCalls)
	return out
}

// mockBrokerageClient is a hand-written port.BrokerageClient double.
type mockBrokerageClient struct {
	cash    entity.CashSummary
	cashErr error

	positions []entity.Position
	posErr    error

	instruments []entity.Instrument
	instErr     error
}

func (m *mockBrokerageClient) GetCashSummary(_ context.Context) (entity.CashSummary, error) {
	if m.cashErr != nil {
		return entity.CashSummary{}, m.cashErr
	}
	return m.cash, nil
}

func (m *mockBrokerageClient) GetPortfolio(_ context.Context) ([]entity.Position, error) {
	if m.posErr != nil {
		return nil, m.posErr
	}
	return m.positions, nil
}

func (m *mockBrokerageClient) GetInstruments(_ context.Context, limit int) ([]entity.Instrument, error) {
	if m.instErr != nil {
		return nil, m.instErr
	}
	if limit > 0 && len(m.instruments) > limit {
		return m.instruments[:limit], nil
	}
	return m.instruments, nil
}

// mockBrokerageProvider mirrors the startup-built provider: accounts without a
// client behave as disabled.
type mockBrokerageProvider struct {
	accounts []entity.Account
	clients  map[int]port.BrokerageClient
}

func (p *mockBrokerageProvider) Accounts() []entity.Account {
	return p.accounts
}

func (p *mockBrokerageProvider) ClientFor(accountID int) (port.BrokerageClient, error) {
	client, ok := p.clients[accountID]
	if !ok {
		return nil, fmt.Errorf("trading212 account with ID %d not found", accountID)
	}
	return client, nil
}

func newTestConfig() *config.Config {
	return &config.Config{
		Bybit: config.BybitConfig{
			AccountType:          "FUND",
			RequestTimeoutMillis: 1000,
		},
		Trading212: config.Trading212Config{
			RequestTimeoutMillis: 1000,
		},
		Portfolio: config.PortfolioConfig{
			UsdToGbpRate:           0.79,
			MaxConcurrentRequests:  4,
			PriceCacheTTLMinutes:   5,
			DivergenceToleranceGBP: 1.0,
		},
		Coins: config.CoinsConfig{
			Stablecoins: []string{"USDT"},
			Major:       []string{"BTC", "ETH"},
			Special:     []string{"XLM"},
			AlternativeNames: map[string][]string{
				"XLM": {"STELLAR", "XLM"},
				"BTC": {"BTC", "BITCOIN"},
			},
			DefaultPrices: map[string]float64{
				"BTC": 60000,
				"XLM": 0.15,
				"AMI": 0.05,
			},
		},
	}
}
