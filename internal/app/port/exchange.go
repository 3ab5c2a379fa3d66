package port

import (
	"context"

	"portfolio_checker/internal/domain/entity"
)

// ExchangeClient is the signed crypto-venue API surface consumed by the valuation
// services. Implementations are venue-specific REST clients.
type ExchangeClient interface {
	// GetTickers fetches one bulk ticker snapshot for a market category.
	GetTickers(ctx context.Context, category string) ([]entity.Ticker, error)

	// GetAccountCoinsBalance fetches the balance list for an account type,
	// optionally narrowed to specific coins.
	GetAccountCoinsBalance(ctx context.Context, accountType string, coins []string) ([]entity.CoinBalance, error)

	// GetAccountCoinBalance fetches the detailed balance of a single coin.
	// The coin parameter is required.
	GetAccountCoinBalance(ctx context.Context, accountType, coin string) (entity.CoinBalance, error)

	// GetCoinCatalog fetches the venue's coin catalog (symbol list).
	GetCoinCatalog(ctx context.Context) ([]string, error)
}
