package port

import (
	"context"

	"portfolio_checker/internal/domain/entity"
)

// CoinUniverseResolver produces the deduplicated, stably ordered set of symbols
// to price-check for one valuation run.
type CoinUniverseResolver interface {
	// CoinsToCheck merges the static coin lists with the venue's live coin
	// catalog. A failing catalog fetch degrades to the static set; it never
	// propagates an error.
	CoinsToCheck(ctx context.Context) []string
}

// PriceResolver resolves a USD price for every requested symbol. Every symbol
// receives exactly one entry, never absent, never duplicated.
type PriceResolver interface {
	ResolvePrices(ctx context.Context, symbols []string) map[string]entity.PriceEntry
}

// CryptoValuationService values the crypto venue: funding-account balances plus
// the manual earn ledger.
type CryptoValuationService interface {
	// GetFundingAccountBalance snapshots the funding account with USD conversion.
	GetFundingAccountBalance(ctx context.Context) (entity.FundingAccountBalance, error)

	// GetAccountValue runs the full valuation: universe, prices, per-coin
	// balances, earn ledger, and the combined USD/GBP totals.
	GetAccountValue(ctx context.Context) entity.PortfolioValuation
}

// BrokerageService values the brokerage venue, one account at a time or merged.
type BrokerageService interface {
	// Accounts returns the enabled accounts.
	Accounts() []entity.Account

	// GetAccountValue reconciles one account's cash summary against its
	// position list. The error return is for configuration failures only;
	// upstream failures are folded into the valuation itself.
	GetAccountValue(ctx context.Context, accountID int) (entity.AccountValuation, error)

	// GetAllAccountsValue merges the accounts that individually succeeded.
	GetAllAccountsValue(ctx context.Context) entity.AllAccountsValuation

	// TestConnection checks venue connectivity for an account.
	TestConnection(ctx context.Context, accountID int) (entity.ConnectionStatus, error)
}
